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

// This file defines the command that archives a scene's clip to Google
// Cloud Storage. The local copy is NOT removed here because final
// assembly still needs it; workflow cleanup deletes it afterwards.
//
// Logic Flow:
//  1. Read the clip record and locate its local file.
//  2. Sniff the MIME type so the GCS object carries correct metadata.
//  3. Stream the file to gs://<bucket>/<project_id>/<clip_id>.mp4 with
//     io.Copy to keep memory flat.
//  4. Record the GCS location on the clip and update the stored row.
package commands

import (
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"github.com/h2non/filetype"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/store"
)

// GCSClipUpload streams the clip file to the clip archive bucket.
type GCSClipUpload struct {
	cor.BaseCommand
	client *storage.Client
	store  store.ProductionStore
	bucket string
}

// NewGCSClipUpload creates the upload command targeting the given bucket.
func NewGCSClipUpload(name string, client *storage.Client, store store.ProductionStore, bucket string) *GCSClipUpload {
	return &GCSClipUpload{BaseCommand: *cor.NewBaseCommand(name), client: client, store: store, bucket: bucket}
}

// IsExecutable requires a clip with a downloaded local file.
func (c *GCSClipUpload) IsExecutable(context cor.Context) bool {
	if context == nil {
		return false
	}
	clip, ok := context.Get(CtxClip).(*model.Clip)
	return ok && clip.File != nil && clip.File.Path != ""
}

// Execute uploads the clip and records its archive location.
func (c *GCSClipUpload) Execute(context cor.Context) {
	clip := context.Get(CtxClip).(*model.Clip)

	dat, err := os.Open(clip.File.Path)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to open clip file %s: %w", clip.File.Path, err))
		return
	}
	defer func() { _ = dat.Close() }()

	mimeType := "video/mp4"
	if kind, err := filetype.MatchReader(dat); err == nil && kind.MIME.Value != "" {
		mimeType = kind.MIME.Value
	}
	if _, err := dat.Seek(0, io.SeekStart); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to rewind clip file %s: %w", clip.File.Path, err))
		return
	}

	objectName := fmt.Sprintf("%s/%s.mp4", clip.ProjectId, clip.ClipId)
	obj := c.client.Bucket(c.bucket).Object(objectName)
	writer := obj.NewWriter(context.GetContext())
	writer.ContentType = mimeType

	if _, err := io.Copy(writer, dat); err != nil {
		_ = writer.Close()
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to upload clip %s: %w", clip.ClipId, err))
		return
	}
	if err := writer.Close(); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to finalize clip upload %s: %w", clip.ClipId, err))
		return
	}

	clip.File.GCSBucket = c.bucket
	clip.File.GCSObject = objectName
	if err := c.store.UpdateClip(context.GetContext(), clip); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to record archive location for clip %s: %w", clip.ClipId, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cloud.GetGCSObjectName(), &cloud.GCSObject{Bucket: c.bucket, Name: objectName, MIMEType: mimeType})
	context.Add(c.GetOutputParam(), clip)
}
