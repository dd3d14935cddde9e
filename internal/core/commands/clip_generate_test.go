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

// This file tests the generation and download commands against a fake
// video backend that honors the completion-polling contract.
package commands_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/commands"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/generation"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
	test "github.com/jaycherian/gcp-go-commercial-studio/internal/testutil"
	"github.com/stretchr/testify/assert"
)

// fakeGenerator is a scripted video backend. It records the requests it
// receives and can fail any step of the conversation.
type fakeGenerator struct {
	submitErr   error
	awaitErr    error
	downloadErr error
	requests    []*generation.Request
	videoBytes  []byte
}

func (f *fakeGenerator) Submit(_ context.Context, req *generation.Request) (*generation.Job, error) {
	f.requests = append(f.requests, req)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &generation.Job{OperationName: "operations/fake-001"}, nil
}

func (f *fakeGenerator) AwaitCompletion(_ context.Context, job *generation.Job) (*generation.Completed, error) {
	if f.awaitErr != nil {
		return nil, f.awaitErr
	}
	return &generation.Completed{OperationName: job.OperationName, VideoURI: "fake://video"}, nil
}

func (f *fakeGenerator) Download(_ context.Context, _ *generation.Completed, destPath string) (*generation.FileInfo, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	data := f.videoBytes
	if data == nil {
		data = []byte("fake video payload")
	}
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return nil, err
	}
	return &generation.FileInfo{Path: destPath, SizeBytes: int64(len(data)), MIMEType: "video/mp4"}, nil
}

// stageRefinement adds the refinement result the generation command
// expects from the prompt command.
func stageRefinement(ctx cor.Context, promptText string) {
	ctx.Add(commands.CtxRefinement, &model.RefinementResult{
		Outcome: model.RefinementOk,
		Source:  model.RefinementSourceDeterministic,
		Prompt:  promptText,
	})
}

// TestClipGenerate verifies the happy path: a pending clip is created,
// submitted, and the completed generation is piped downstream.
func TestClipGenerate(t *testing.T) {
	project := test.GetTestProject()
	backend := &fakeGenerator{}
	generate := commands.NewClipGenerate("clip-generate", backend)

	ctx := newSceneContext(project, 0)
	stageRefinement(ctx, "a refined scene prompt")

	assert.True(t, generate.IsExecutable(ctx))
	generate.Execute(ctx)

	assert.False(t, ctx.HasErrors())

	clip, ok := ctx.Get(commands.CtxClip).(*model.Clip)
	assert.True(t, ok)
	assert.Equal(t, model.ClipStatusGenerating, clip.Status)
	assert.Equal(t, "operations/fake-001", clip.Generation.OperationName)
	assert.Equal(t, "a refined scene prompt", clip.Generation.Prompt)
	assert.Equal(t, model.ContinuityModeInitial, clip.Continuity.Mode)
	assert.Empty(t, clip.Continuity.PreviousClipId)

	completed, ok := ctx.Get(cor.CtxOut).(*generation.Completed)
	assert.True(t, ok)
	assert.Equal(t, "operations/fake-001", completed.OperationName)

	// The request mirrors the project's technical specs.
	assert.Equal(t, 1, len(backend.requests))
	assert.Equal(t, "veo-3.1", backend.requests[0].Model)
	assert.Equal(t, "16:9", backend.requests[0].AspectRatio)
	assert.Empty(t, backend.requests[0].ReferenceImagePath)
}

// TestClipGenerateContinuationScene verifies that a continuation scene
// anchors on the previous clip's last frame and records the clip chain.
func TestClipGenerateContinuationScene(t *testing.T) {
	project := test.GetTestProject()
	backend := &fakeGenerator{}
	generate := commands.NewClipGenerate("clip-generate", backend)

	previous := model.NewClip(project.Id, "scene-001")
	ctx := newSceneContext(project, 1)
	stageRefinement(ctx, "a refined continuation prompt")
	ctx.Add(commands.CtxPreviousClip, previous)
	ctx.Add(commands.CtxReferenceFrame, "/tmp/frames/last.jpg")

	generate.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	clip := ctx.Get(commands.CtxClip).(*model.Clip)
	assert.Equal(t, model.ContinuityModeLastFrame, clip.Continuity.Mode)
	assert.Equal(t, previous.ClipId, clip.Continuity.PreviousClipId)
	assert.Equal(t, "/tmp/frames/last.jpg", clip.Continuity.ReferenceFrame)
	assert.Equal(t, "/tmp/frames/last.jpg", backend.requests[0].ReferenceImagePath)
}

// TestClipGenerateInitialSceneIgnoresPreviousClip verifies that an
// initial-mode scene records no clip chain and no reference frame even
// when both are still staged on the context.
func TestClipGenerateInitialSceneIgnoresPreviousClip(t *testing.T) {
	project := test.GetTestProject()
	backend := &fakeGenerator{}
	generate := commands.NewClipGenerate("clip-generate", backend)

	previous := model.NewClip(project.Id, "scene-000")
	ctx := newSceneContext(project, 0)
	stageRefinement(ctx, "a refined scene prompt")
	ctx.Add(commands.CtxPreviousClip, previous)
	ctx.Add(commands.CtxReferenceFrame, "/tmp/frames/last.jpg")

	generate.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	clip := ctx.Get(commands.CtxClip).(*model.Clip)
	assert.Equal(t, model.ContinuityModeInitial, clip.Continuity.Mode)
	assert.Empty(t, clip.Continuity.PreviousClipId)
	assert.Empty(t, clip.Continuity.ReferenceFrame)
	assert.Empty(t, backend.requests[0].ReferenceImagePath)
}

// TestClipGenerateSubmitFailure verifies that a submit error marks the
// clip failed and leaves it on the context for persistence.
func TestClipGenerateSubmitFailure(t *testing.T) {
	project := test.GetTestProject()
	backend := &fakeGenerator{submitErr: errors.New("quota exhausted")}
	generate := commands.NewClipGenerate("clip-generate", backend)

	ctx := newSceneContext(project, 0)
	stageRefinement(ctx, "a refined scene prompt")

	generate.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	clip := ctx.Get(commands.CtxClip).(*model.Clip)
	assert.Equal(t, model.ClipStatusFailed, clip.Status)
	assert.Nil(t, ctx.Get(cor.CtxOut))
}

// TestClipGenerateTimeout verifies that a generation that never completes
// fails the clip with the backend's timeout error.
func TestClipGenerateTimeout(t *testing.T) {
	project := test.GetTestProject()
	backend := &fakeGenerator{awaitErr: generation.ErrGenerationTimeout}
	generate := commands.NewClipGenerate("clip-generate", backend)

	ctx := newSceneContext(project, 0)
	stageRefinement(ctx, "a refined scene prompt")

	generate.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.ErrorIs(t, ctx.GetErrors()["clip-generate"], generation.ErrGenerationTimeout)
	clip := ctx.Get(commands.CtxClip).(*model.Clip)
	assert.Equal(t, model.ClipStatusFailed, clip.Status)
}

// TestClipDownload verifies that the completed generation is written into
// the scratch directory, registered for cleanup, and recorded on the clip.
func TestClipDownload(t *testing.T) {
	project := test.GetTestProject()
	backend := &fakeGenerator{videoBytes: []byte("0123456789")}
	workDir := t.TempDir()
	download := commands.NewClipDownload("clip-download", backend, workDir)

	clip := model.NewClip(project.Id, "scene-001")
	ctx := newSceneContext(project, 0)
	ctx.Add(commands.CtxClip, clip)
	ctx.Add(cor.CtxIn, &generation.Completed{OperationName: "operations/fake-001"})

	assert.True(t, download.IsExecutable(ctx))
	download.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t, model.ClipStatusCompleted, clip.Status)
	assert.NotNil(t, clip.File)
	assert.Equal(t, filepath.Join(workDir, clip.ClipId+".mp4"), clip.File.Path)
	assert.Equal(t, int64(10), clip.File.SizeBytes)
	assert.Equal(t, float64(8), clip.File.DurationSeconds)
	assert.Equal(t, "1080p", clip.File.Resolution)
	assert.Contains(t, ctx.GetTempFiles(), clip.File.Path)

	_, err := os.Stat(clip.File.Path)
	assert.NoError(t, err)
}

// TestClipDownloadFailure verifies that a failed download marks the clip
// failed and records the error.
func TestClipDownloadFailure(t *testing.T) {
	project := test.GetTestProject()
	backend := &fakeGenerator{downloadErr: errors.New("stream reset")}
	download := commands.NewClipDownload("clip-download", backend, t.TempDir())

	clip := model.NewClip(project.Id, "scene-001")
	ctx := newSceneContext(project, 0)
	ctx.Add(commands.CtxClip, clip)
	ctx.Add(cor.CtxIn, &generation.Completed{OperationName: "operations/fake-001"})

	download.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.Equal(t, model.ClipStatusFailed, clip.Status)
}

// TestClipDownloadNotExecutableWithoutCompletion verifies the readiness
// check rejects a context missing the completed generation.
func TestClipDownloadNotExecutableWithoutCompletion(t *testing.T) {
	project := test.GetTestProject()
	download := commands.NewClipDownload("clip-download", &fakeGenerator{}, t.TempDir())

	ctx := newSceneContext(project, 0)
	ctx.Add(commands.CtxClip, model.NewClip(project.Id, "scene-001"))
	assert.False(t, download.IsExecutable(ctx))
}
