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

// Package store_test contains unit tests for the production state store.
// This file tests the in-memory implementation, which must behave like the
// BigQuery store so it can back workflow tests and local runs.
package store_test

import (
	"context"
	"testing"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/store"
	test "github.com/jaycherian/gcp-go-commercial-studio/internal/testutil"
	"github.com/stretchr/testify/assert"
)

// TestProjectLifecycle verifies create, read, update and status
// transitions for a project.
func TestProjectLifecycle(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	project := test.GetTestProject()

	assert.NoError(t, s.CreateProject(ctx, project))

	loaded, err := s.GetProject(ctx, project.Id)
	assert.NoError(t, err)
	assert.Equal(t, "Midnight Essence Launch", loaded.Name)
	assert.Equal(t, 3, len(loaded.Scenes))

	loaded.Description = "updated description"
	assert.NoError(t, s.UpdateProject(ctx, loaded))

	assert.NoError(t, s.UpdateProjectStatus(ctx, project.Id, model.ProjectStatusInProgress))

	reloaded, err := s.GetProject(ctx, project.Id)
	assert.NoError(t, err)
	assert.Equal(t, "updated description", reloaded.Description)
	assert.Equal(t, model.ProjectStatusInProgress, reloaded.Status)
}

// TestGetProjectNotFound verifies the sentinel error for unknown ids.
func TestGetProjectNotFound(t *testing.T) {
	s := store.NewMemoryStore()

	_, err := s.GetProject(context.Background(), "no-such-project")
	assert.ErrorIs(t, err, store.ErrProjectNotFound)

	err = s.UpdateProjectStatus(context.Background(), "no-such-project", model.ProjectStatusFailed)
	assert.ErrorIs(t, err, store.ErrProjectNotFound)
}

// TestStoreReturnsCopies verifies that mutating a value returned by the
// store never changes the stored state.
func TestStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	project := test.GetTestProject()
	assert.NoError(t, s.CreateProject(ctx, project))

	loaded, err := s.GetProject(ctx, project.Id)
	assert.NoError(t, err)
	loaded.Scenes[0].Emotion = "dread"
	loaded.Scenes[0].Variables["mood"] = "grim"

	reloaded, err := s.GetProject(ctx, project.Id)
	assert.NoError(t, err)
	assert.Equal(t, "mystery", reloaded.Scenes[0].Emotion)
	assert.Equal(t, "mysterious", reloaded.Scenes[0].Variables["mood"])
}

// TestUpdateSceneStatus verifies recording a scene's status with its clip
// linkage, and the sentinel error for an unknown scene.
func TestUpdateSceneStatus(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	project := test.GetTestProject()
	assert.NoError(t, s.CreateProject(ctx, project))

	assert.NoError(t, s.UpdateSceneStatus(ctx, project.Id, "scene-002", model.ClipStatusCompleted, "clip-abc"))

	loaded, err := s.GetProject(ctx, project.Id)
	assert.NoError(t, err)
	assert.Equal(t, model.ClipStatusCompleted, loaded.Scenes[1].Status)
	assert.Equal(t, "clip-abc", loaded.Scenes[1].ClipId)
	assert.Empty(t, loaded.Scenes[0].ClipId)

	err = s.UpdateSceneStatus(ctx, project.Id, "scene-999", model.ClipStatusCompleted, "clip-abc")
	assert.ErrorIs(t, err, store.ErrSceneNotFound)
}

// TestUpdateSceneStatusKeepsClipLinkage verifies that a status-only
// update, such as marking a scene failed, does not erase an existing
// clip link.
func TestUpdateSceneStatusKeepsClipLinkage(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	project := test.GetTestProject()
	assert.NoError(t, s.CreateProject(ctx, project))

	assert.NoError(t, s.UpdateSceneStatus(ctx, project.Id, "scene-001", model.ClipStatusCompleted, "clip-abc"))
	assert.NoError(t, s.UpdateSceneStatus(ctx, project.Id, "scene-001", model.ClipStatusFailed, ""))

	loaded, err := s.GetProject(ctx, project.Id)
	assert.NoError(t, err)
	assert.Equal(t, model.ClipStatusFailed, loaded.Scenes[0].Status)
	assert.Equal(t, "clip-abc", loaded.Scenes[0].ClipId)
}

// TestSetFinalVideo verifies recording the assembled final video.
func TestSetFinalVideo(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	project := test.GetTestProject()
	assert.NoError(t, s.CreateProject(ctx, project))

	video := &model.FinalVideo{
		Path:            "/tmp/final.mp4",
		SizeBytes:       1024,
		DurationSeconds: 24,
		GCSBucket:       "finals",
		GCSObject:       project.Id + "/final.mp4",
	}
	assert.NoError(t, s.SetFinalVideo(ctx, project.Id, video))

	loaded, err := s.GetProject(ctx, project.Id)
	assert.NoError(t, err)
	assert.NotNil(t, loaded.FinalVideo)
	assert.Equal(t, "finals", loaded.FinalVideo.GCSBucket)
}

// TestClipLifecycle verifies clip create, update, per-scene lookup, and
// that ListClips preserves creation order.
func TestClipLifecycle(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	first := model.NewClip("project-001", "scene-001")
	second := model.NewClip("project-001", "scene-002")
	other := model.NewClip("project-002", "scene-001")

	assert.NoError(t, s.CreateClip(ctx, first))
	assert.NoError(t, s.CreateClip(ctx, second))
	assert.NoError(t, s.CreateClip(ctx, other))

	first.Status = model.ClipStatusCompleted
	assert.NoError(t, s.UpdateClip(ctx, first))

	loaded, err := s.GetClip(ctx, first.ClipId)
	assert.NoError(t, err)
	assert.Equal(t, model.ClipStatusCompleted, loaded.Status)

	byScene, err := s.GetClipByScene(ctx, "project-001", "scene-002")
	assert.NoError(t, err)
	assert.Equal(t, second.ClipId, byScene.ClipId)

	// A retried scene gets a second clip; the lookup resolves the newest
	// one, matching the BigQuery store's ordering.
	retry := model.NewClip("project-001", "scene-002")
	assert.NoError(t, s.CreateClip(ctx, retry))
	byScene, err = s.GetClipByScene(ctx, "project-001", "scene-002")
	assert.NoError(t, err)
	assert.Equal(t, retry.ClipId, byScene.ClipId)

	clips, err := s.ListClips(ctx, "project-001")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(clips))
	assert.Equal(t, first.ClipId, clips[0].ClipId)
	assert.Equal(t, second.ClipId, clips[1].ClipId)
}

// TestClipNotFound verifies the sentinel error on every clip lookup path.
func TestClipNotFound(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	_, err := s.GetClip(ctx, "no-such-clip")
	assert.ErrorIs(t, err, store.ErrClipNotFound)

	_, err = s.GetClipByScene(ctx, "project-001", "scene-001")
	assert.ErrorIs(t, err, store.ErrClipNotFound)

	err = s.UpdateClip(ctx, model.NewClip("project-001", "scene-001"))
	assert.ErrorIs(t, err, store.ErrClipNotFound)
}
