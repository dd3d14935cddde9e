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

package cloud

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// retryKey is the context key carrying the attempt count across retries.
type retryKey struct{}

// QuotaAwareGenerativeAIModel decorates a generative model with rate
// limiting and retry behavior. Vertex AI enforces per-minute quotas, and a
// production run makes one refinement call plus one frame analysis per
// scene, so bursts are smoothed here rather than surfacing as quota
// errors mid-pipeline.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig // The generation settings applied to every call.
	ModelName               string                       // The Vertex AI model name.
	ModelHandle             *genai.Models                // The underlying model API surface.
	RateLimit               rate.Limiter                 // Token bucket guarding request frequency.
}

// NewQuotaAwareModel wraps a generation config and model handle with a
// limiter allowing requestsPerSecond calls.
func NewQuotaAwareModel(wrapped *genai.GenerateContentConfig, name string, modelHandle *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: wrapped,
		ModelName:               name,
		ModelHandle:             modelHandle,
		RateLimit:               *rate.NewLimiter(rate.Every(time.Second/1), requestsPerSecond),
	}
}

// GenerateContent calls the underlying model, waiting out the rate
// limiter when necessary and retrying failed calls up to three times
// with a cool-down between attempts.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (resp *genai.GenerateContentResponse, err error) {
	if q.RateLimit.Allow() {
		resp, err = q.ModelHandle.GenerateContent(ctx, q.ModelName, content, q.GenerativeContentConfig)
		if err != nil {
			retryCount, ok := ctx.Value(retryKey{}).(int)
			if !ok {
				retryCount = 0
			}
			if retryCount > MaxRetries {
				return nil, errors.New("failed generation on max retries")
			}
			errCtx := context.WithValue(ctx, retryKey{}, retryCount+1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Minute):
			}
			return q.GenerateContent(errCtx, content)
		}
		return resp, err
	}

	// Rate limited: pause briefly and re-queue the request.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Second * 5):
	}
	return q.GenerateContent(ctx, content)
}

// GenerateText sends a single text prompt and returns the concatenated
// response text with any markdown JSON fences removed. This satisfies the
// refinement subsystem's TextGenerator interface.
func (q *QuotaAwareGenerativeAIModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := q.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	value := ""
	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				value += fmt.Sprint(part.Text)
			}
		}
	}
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "```json")
	value = strings.TrimSuffix(value, "```")
	return value, nil
}
