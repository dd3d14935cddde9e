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

// This file defines the command that materializes a completed generation
// as a local clip file. The file is registered as a temporary artifact so
// the workflow's cleanup removes it after assembly and upload.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/generation"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
)

// ClipDownload downloads the completed generation into the scratch
// directory and fills in the clip's file record.
type ClipDownload struct {
	cor.BaseCommand
	generator generation.Generator
	workDir   string
}

// NewClipDownload creates the download command writing into workDir.
func NewClipDownload(name string, generator generation.Generator, workDir string) *ClipDownload {
	return &ClipDownload{BaseCommand: *cor.NewBaseCommand(name), generator: generator, workDir: workDir}
}

// IsExecutable requires the completed generation and the clip record.
func (c *ClipDownload) IsExecutable(context cor.Context) bool {
	if context == nil || context.Get(CtxClip) == nil {
		return false
	}
	_, ok := context.Get(c.GetInputParam()).(*generation.Completed)
	return ok
}

// Execute downloads the video, marks the clip completed, and pipes the
// clip to the next command.
func (c *ClipDownload) Execute(context cor.Context) {
	completed := context.Get(c.GetInputParam()).(*generation.Completed)
	clip := context.Get(CtxClip).(*model.Clip)
	scene := context.Get(CtxScene).(*model.Scene)

	if err := os.MkdirAll(c.workDir, 0o755); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to create work directory %s: %w", c.workDir, err))
		return
	}

	destPath := filepath.Join(c.workDir, fmt.Sprintf("%s.mp4", clip.ClipId))
	info, err := c.generator.Download(context.GetContext(), completed, destPath)
	if err != nil {
		clip.Status = model.ClipStatusFailed
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to download clip for scene %s: %w", clip.SceneId, err))
		return
	}

	// Local clip files are scratch artifacts: once assembled and
	// uploaded, cleanup removes them.
	context.AddTempFile(destPath)

	clip.Status = model.ClipStatusCompleted
	clip.File = &model.ClipFile{
		Path:            info.Path,
		SizeBytes:       info.SizeBytes,
		DurationSeconds: float64(scene.DurationSeconds),
		Resolution:      resolutionOf(context),
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(CtxClip, clip)
	context.Add(c.GetOutputParam(), clip)
}

func resolutionOf(context cor.Context) string {
	if project, ok := context.Get(CtxProject).(*model.Project); ok {
		return project.TechnicalSpecs.Resolution
	}
	return ""
}
