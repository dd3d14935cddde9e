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

// This file defines the command that writes the scene's clip record to the
// production store and links it back to the scene on the project record.
package commands

import (
	"fmt"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/store"
)

// ClipPersist saves the clip and stamps the scene with its clip id and
// status.
type ClipPersist struct {
	cor.BaseCommand
	store store.ProductionStore
}

// NewClipPersist creates the persistence command over any ProductionStore.
func NewClipPersist(name string, store store.ProductionStore) *ClipPersist {
	return &ClipPersist{BaseCommand: *cor.NewBaseCommand(name), store: store}
}

// IsExecutable requires the clip record on the context.
func (c *ClipPersist) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(CtxClip) != nil
}

// Execute creates the clip row, updates the scene's clip linkage, and
// pipes the clip through unchanged.
func (c *ClipPersist) Execute(context cor.Context) {
	clip := context.Get(CtxClip).(*model.Clip)

	if err := c.store.CreateClip(context.GetContext(), clip); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to persist clip %s: %w", clip.ClipId, err))
		return
	}
	if err := c.store.UpdateSceneStatus(context.GetContext(), clip.ProjectId, clip.SceneId, clip.Status, clip.ClipId); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to link clip %s to scene %s: %w", clip.ClipId, clip.SceneId, err))
		return
	}

	// Keep the in-memory scene consistent with the store so later scenes
	// see the linkage without a re-read.
	if scene, ok := context.Get(CtxScene).(*model.Scene); ok {
		scene.Status = clip.Status
		scene.ClipId = clip.ClipId
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), clip)
}
