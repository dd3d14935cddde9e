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

// This file defines the command for extracting the last frame of a clip
// with FFmpeg. The frame is the continuity anchor for the next scene: it
// is analyzed by the vision model and passed to the video backend as the
// reference image for last-frame continuation.
//
// Logic Flow:
//  1. Read the clip record and locate its local video file.
//  2. Run FFmpeg seeking one second from the end of file and keep only
//     the final decoded frame as a high quality JPEG.
//  3. Register the frame as a temporary artifact and publish its path
//     under the reference frame context key.
package commands

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
)

// FFmpeg argument template for last-frame extraction.
// -sseof -1: seek to one second before the end of the input.
// -update 1: keep overwriting the single output image so only the final
// decoded frame survives.
// -q:v 2: high JPEG quality for the vision model.
const lastFrameFfmpegArgs = "-y -hide_banner -sseof -1 -i %s -update 1 -q:v 2 %s"

// FrameExtract pulls the final frame out of a generated clip.
type FrameExtract struct {
	cor.BaseCommand
	commandPath string
	workDir     string
}

// NewFrameExtract creates the extraction command.
//
// Inputs:
//   - name: the command instance name used for telemetry.
//   - commandPath: path to the ffmpeg executable.
//   - workDir: scratch directory for extracted frames.
func NewFrameExtract(name string, commandPath string, workDir string) *FrameExtract {
	return &FrameExtract{BaseCommand: *cor.NewBaseCommand(name), commandPath: commandPath, workDir: workDir}
}

// IsExecutable requires a clip with a downloaded local file.
func (c *FrameExtract) IsExecutable(context cor.Context) bool {
	if context == nil {
		return false
	}
	clip, ok := context.Get(CtxClip).(*model.Clip)
	return ok && clip.File != nil && clip.File.Path != ""
}

// Execute runs FFmpeg and publishes the frame path.
func (c *FrameExtract) Execute(context cor.Context) {
	clip := context.Get(CtxClip).(*model.Clip)

	framePath := filepath.Join(c.workDir, fmt.Sprintf("%s-last-frame.jpg", clip.ClipId))
	args := fmt.Sprintf(lastFrameFfmpegArgs, clip.File.Path, framePath)
	cmd := exec.CommandContext(context.GetContext(), c.commandPath, strings.Split(args, " ")...)
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to extract last frame of clip %s: %w", clip.ClipId, err))
		return
	}

	context.AddTempFile(framePath)
	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(CtxReferenceFrame, framePath)
	context.Add(c.GetOutputParam(), framePath)
}
