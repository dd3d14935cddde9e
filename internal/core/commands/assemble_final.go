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

// This file defines the command that concatenates all scene clips into
// the final commercial, uploads it, and records it on the project.
//
// Logic Flow:
//  1. Walk the project's scenes in order and resolve each one's completed
//     clip from the store. Assembly refuses to run with a missing or
//     incomplete clip; ordering is the scenes' ordering, never the clip
//     creation times.
//  2. Write an FFmpeg concat manifest listing the local clip files and
//     run FFmpeg with stream copy, so clips are joined without
//     re-encoding.
//  3. Upload the result to the final video bucket and save its location
//     and metadata on the project record.
package commands

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/h2non/filetype"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/store"
)

// FFmpeg argument template for lossless concatenation of the scene clips.
// -f concat -safe 0: read the manifest of absolute file paths.
// -c copy: join streams without re-encoding.
const concatFfmpegArgs = "-y -hide_banner -f concat -safe 0 -i %s -c copy %s"

// AssembleFinal joins the scene clips into the final video and publishes
// it.
type AssembleFinal struct {
	cor.BaseCommand
	commandPath string
	workDir     string
	client      *storage.Client
	store       store.ProductionStore
	bucket      string
}

// NewAssembleFinal creates the assembly command.
//
// Inputs:
//   - name: the command instance name used for telemetry.
//   - commandPath: path to the ffmpeg executable.
//   - workDir: scratch directory holding the downloaded clips.
//   - client: GCS client for the final upload.
//   - store: the production store for clip lookups and the final record.
//   - bucket: destination bucket for assembled videos.
func NewAssembleFinal(
	name string,
	commandPath string,
	workDir string,
	client *storage.Client,
	store store.ProductionStore,
	bucket string) *AssembleFinal {
	return &AssembleFinal{
		BaseCommand: *cor.NewBaseCommand(name),
		commandPath: commandPath,
		workDir:     workDir,
		client:      client,
		store:       store,
		bucket:      bucket}
}

// IsExecutable requires the project on the context.
func (c *AssembleFinal) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(CtxProject) != nil
}

// Execute assembles, uploads and records the final video.
func (c *AssembleFinal) Execute(context cor.Context) {
	project := context.Get(CtxProject).(*model.Project)

	clipPaths, totalDuration, err := c.resolveClipFiles(context, project)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	manifestPath := filepath.Join(c.workDir, fmt.Sprintf("%s-concat.txt", project.Id))
	if err := c.writeManifest(manifestPath, clipPaths); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}
	context.AddTempFile(manifestPath)

	finalPath := filepath.Join(c.workDir, fmt.Sprintf("%s-final.mp4", project.Id))
	args := fmt.Sprintf(concatFfmpegArgs, manifestPath, finalPath)
	cmd := exec.CommandContext(context.GetContext(), c.commandPath, strings.Split(args, " ")...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to concatenate clips for project %s: %w", project.Id, err))
		return
	}
	context.AddTempFile(finalPath)

	info, err := os.Stat(finalPath)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to stat final video %s: %w", finalPath, err))
		return
	}

	objectName := fmt.Sprintf("%s/final.mp4", project.Id)
	if err := c.upload(context, finalPath, objectName); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	finalVideo := &model.FinalVideo{
		Path:            finalPath,
		SizeBytes:       info.Size(),
		DurationSeconds: totalDuration,
		GCSBucket:       c.bucket,
		GCSObject:       objectName,
	}
	if err := c.store.SetFinalVideo(context.GetContext(), project.Id, finalVideo); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to record final video for project %s: %w", project.Id, err))
		return
	}
	project.FinalVideo = finalVideo

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), finalVideo)
}

// resolveClipFiles returns the local clip files in scene order and the
// summed duration. Every scene must have a completed clip with a local
// file.
func (c *AssembleFinal) resolveClipFiles(context cor.Context, project *model.Project) ([]string, float64, error) {
	paths := make([]string, 0, len(project.Scenes))
	var totalDuration float64
	for _, scene := range project.Scenes {
		if scene.ClipId == "" {
			return nil, 0, fmt.Errorf("scene %s has no clip, cannot assemble project %s", scene.SceneId, project.Id)
		}
		clip, err := c.store.GetClip(context.GetContext(), scene.ClipId)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load clip %s for scene %s: %w", scene.ClipId, scene.SceneId, err)
		}
		if clip.Status != model.ClipStatusCompleted || clip.File == nil || clip.File.Path == "" {
			return nil, 0, fmt.Errorf("clip %s for scene %s is not complete", clip.ClipId, scene.SceneId)
		}
		paths = append(paths, clip.File.Path)
		totalDuration += clip.File.DurationSeconds
	}
	if len(paths) == 0 {
		return nil, 0, fmt.Errorf("project %s has no clips to assemble", project.Id)
	}
	return paths, totalDuration, nil
}

// writeManifest writes the FFmpeg concat demuxer manifest. Single quotes
// inside paths are escaped per the demuxer's quoting rules.
func (c *AssembleFinal) writeManifest(path string, clipPaths []string) error {
	var sb strings.Builder
	for _, p := range clipPaths {
		escaped := strings.ReplaceAll(p, "'", "'\\''")
		sb.WriteString(fmt.Sprintf("file '%s'\n", escaped))
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write concat manifest %s: %w", path, err)
	}
	return nil
}

// upload streams the assembled video to the final video bucket.
func (c *AssembleFinal) upload(context cor.Context, path string, objectName string) error {
	dat, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open final video %s: %w", path, err)
	}
	defer func() { _ = dat.Close() }()

	mimeType := "video/mp4"
	if kind, err := filetype.MatchReader(dat); err == nil && kind.MIME.Value != "" {
		mimeType = kind.MIME.Value
	}
	if _, err := dat.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind final video %s: %w", path, err)
	}

	writer := c.client.Bucket(c.bucket).Object(objectName).NewWriter(context.GetContext())
	writer.ContentType = mimeType
	if _, err := io.Copy(writer, dat); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to upload final video to gs://%s/%s: %w", c.bucket, objectName, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize final video upload: %w", err)
	}
	return nil
}
