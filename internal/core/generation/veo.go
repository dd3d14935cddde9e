// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// RetryPolicy bounds the submit retries for transient backend failures.
type RetryPolicy struct {
	MaxAttempts int           // Total attempts including the first.
	Backoff     time.Duration // Wait between attempts.
}

// VeoConfig carries the tunables for the Veo backend, loaded from the
// application configuration.
type VeoConfig struct {
	PollInterval      time.Duration // How often AwaitCompletion polls the operation.
	Timeout           time.Duration // Overall deadline for one generation.
	RequestsPerMinute int           // Submit rate limit.
	Retry             RetryPolicy
}

// VeoGenerator implements Generator against the Veo family of models via
// the genai SDK.
type VeoGenerator struct {
	client  *genai.Client
	config  VeoConfig
	limiter *rate.Limiter
}

// NewVeoGenerator creates a rate-limited Veo backend. Zero-valued config
// fields get conservative defaults.
func NewVeoGenerator(client *genai.Client, config VeoConfig) *VeoGenerator {
	if config.PollInterval <= 0 {
		config.PollInterval = 10 * time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Minute
	}
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = 10
	}
	if config.Retry.MaxAttempts <= 0 {
		config.Retry.MaxAttempts = 3
	}
	if config.Retry.Backoff <= 0 {
		config.Retry.Backoff = 5 * time.Second
	}
	return &VeoGenerator{
		client:  client,
		config:  config,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1),
	}
}

// Submit starts a Veo generation, retrying transient failures per the
// configured policy.
func (g *VeoGenerator) Submit(ctx context.Context, req *Request) (*Job, error) {
	config := &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		AspectRatio:    req.AspectRatio,
		Resolution:     req.Resolution,
	}
	if req.DurationSeconds > 0 {
		duration := int32(req.DurationSeconds)
		config.DurationSeconds = &duration
	}

	var image *genai.Image
	if req.ReferenceImagePath != "" {
		frame, err := os.ReadFile(req.ReferenceImagePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read reference frame %s: %w", req.ReferenceImagePath, err)
		}
		image = &genai.Image{ImageBytes: frame, MIMEType: "image/jpeg"}
	}

	var lastErr error
	for attempt := 1; attempt <= g.config.Retry.MaxAttempts; attempt++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		operation, err := g.client.Models.GenerateVideos(ctx, req.Model, req.Prompt, image, config)
		if err == nil {
			return &Job{OperationName: operation.Name, Payload: operation}, nil
		}

		lastErr = err
		if !isTransient(err) {
			break
		}
		slog.Warn("transient generation submit failure, retrying",
			"model", req.Model, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.config.Retry.Backoff):
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, lastErr)
}

// AwaitCompletion polls the operation at the configured interval until it
// reports done, the timeout elapses, or ctx is canceled.
func (g *VeoGenerator) AwaitCompletion(ctx context.Context, job *Job) (*Completed, error) {
	operation, ok := job.Payload.(*genai.GenerateVideosOperation)
	if !ok {
		return nil, fmt.Errorf("%w: job payload is not a Veo operation", ErrGenerationFailed)
	}

	deadline := time.Now().Add(g.config.Timeout)
	ticker := time.NewTicker(g.config.PollInterval)
	defer ticker.Stop()

	for !operation.Done {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: operation %s after %s", ErrGenerationTimeout, job.OperationName, g.config.Timeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		refreshed, err := g.client.Operations.GetVideosOperation(ctx, operation, nil)
		if err != nil {
			if isTransient(err) {
				slog.Warn("transient poll failure", "operation", job.OperationName, "error", err)
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
		operation = refreshed
	}

	if operation.Response == nil || len(operation.Response.GeneratedVideos) == 0 {
		return nil, fmt.Errorf("%w: operation %s completed without a video", ErrGenerationFailed, job.OperationName)
	}

	video := operation.Response.GeneratedVideos[0].Video
	completed := &Completed{OperationName: job.OperationName, Payload: video}
	if video != nil {
		completed.VideoURI = video.URI
	}
	return completed, nil
}

// Download fetches the generated video bytes and writes them to destPath.
func (g *VeoGenerator) Download(ctx context.Context, completed *Completed, destPath string) (*FileInfo, error) {
	video, ok := completed.Payload.(*genai.Video)
	if !ok || video == nil {
		return nil, fmt.Errorf("%w: completed payload is not a Veo video", ErrGenerationFailed)
	}

	data := video.VideoBytes
	if len(data) == 0 {
		downloaded, err := g.client.Files.Download(ctx, video, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to download video %s: %w", completed.OperationName, err)
		}
		data = downloaded
	}

	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write video to %s: %w", destPath, err)
	}

	return &FileInfo{Path: destPath, SizeBytes: int64(len(data)), MIMEType: "video/mp4"}, nil
}

// isTransient classifies backend errors worth retrying: rate limiting and
// server-side failures.
func isTransient(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return genaiErr.Code == http.StatusTooManyRequests || genaiErr.Code >= http.StatusInternalServerError
	}
	return false
}
