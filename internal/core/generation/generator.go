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

// Package generation defines the contract between the production pipeline
// and the long-running video generation backend. Clip generation is a
// three-step conversation: submit the request, poll the resulting
// operation until it completes, then download the produced video. The
// pipeline only depends on the Generator interface; the Veo implementation
// lives alongside it and tests substitute fakes.
package generation

import (
	"context"
	"errors"
)

// Sentinel errors returned by Generator implementations.
var (
	// ErrGenerationTimeout is returned by AwaitCompletion when the
	// operation does not finish within the configured deadline.
	ErrGenerationTimeout = errors.New("video generation timed out")
	// ErrGenerationFailed is returned when the backend reports a failed
	// operation. The wrapped error carries the backend detail.
	ErrGenerationFailed = errors.New("video generation failed")
)

// Request describes one clip to generate.
type Request struct {
	Prompt          string // The final refined prompt.
	Model           string // The backend model name (e.g. "veo-3.1").
	DurationSeconds int    // Requested clip length.
	AspectRatio     string // e.g. "16:9".
	Resolution      string // e.g. "1080p".
	// ReferenceImagePath optionally conditions generation on a still
	// frame, used by the continuity modes to anchor a scene to the last
	// frame of the previous clip. Empty for initial scenes.
	ReferenceImagePath string
}

// Job is a handle to an in-flight generation operation.
type Job struct {
	OperationName string // Backend operation identifier, persisted on the clip.
	Payload       any    // Implementation-private operation state.
}

// Completed is a finished generation ready for download.
type Completed struct {
	OperationName string
	VideoURI      string // Backend URI of the produced video, when exposed.
	Payload       any    // Implementation-private result state.
}

// FileInfo describes a downloaded clip artifact.
type FileInfo struct {
	Path      string
	SizeBytes int64
	MIMEType  string
}

// Generator is the completion-polling contract every video backend
// implements.
type Generator interface {
	// Submit starts a generation and returns immediately with a handle.
	Submit(ctx context.Context, req *Request) (*Job, error)

	// AwaitCompletion polls the job until it finishes, the configured
	// timeout elapses (ErrGenerationTimeout), or ctx is canceled.
	AwaitCompletion(ctx context.Context, job *Job) (*Completed, error)

	// Download writes the produced video to destPath and reports the
	// resulting file.
	Download(ctx context.Context, completed *Completed, destPath string) (*FileInfo, error)
}
