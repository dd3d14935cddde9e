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

// Package store provides the production state store: durable persistence
// of projects and clips behind the ProductionStore interface, and the
// in-process StatusBoard that tracks live production runs. BigQuery backs
// the durable store in deployment; the in-memory implementation serves
// tests and local runs.
package store

import (
	"context"
	"errors"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
)

// Sentinel errors shared by all store implementations.
var (
	ErrProjectNotFound = errors.New("project not found")
	ErrSceneNotFound   = errors.New("scene not found")
	ErrClipNotFound    = errors.New("clip not found")
	// ErrProductionAlreadyRunning is returned by StatusBoard.Begin when a
	// production for the project is already live.
	ErrProductionAlreadyRunning = errors.New("production already running for project")
)

// ProductionStore is the durable persistence contract for projects and
// the clips generated for them.
type ProductionStore interface {
	// CreateProject persists a new project record.
	CreateProject(ctx context.Context, project *model.Project) error

	// GetProject returns the project with the given id, or
	// ErrProjectNotFound.
	GetProject(ctx context.Context, projectId string) (*model.Project, error)

	// UpdateProject replaces the stored project record.
	UpdateProject(ctx context.Context, project *model.Project) error

	// UpdateProjectStatus transitions the project's lifecycle status.
	UpdateProjectStatus(ctx context.Context, projectId string, status model.ProjectStatus) error

	// UpdateSceneStatus records a scene's production status and, when
	// clipId is non-empty, links the clip generated for it. Returns
	// ErrSceneNotFound when the project has no such scene.
	UpdateSceneStatus(ctx context.Context, projectId string, sceneId string, status model.ClipStatus, clipId string) error

	// SetFinalVideo records the assembled final video on the project.
	SetFinalVideo(ctx context.Context, projectId string, video *model.FinalVideo) error

	// CreateClip persists a new clip record.
	CreateClip(ctx context.Context, clip *model.Clip) error

	// UpdateClip replaces the stored clip record.
	UpdateClip(ctx context.Context, clip *model.Clip) error

	// GetClip returns the clip with the given id, or ErrClipNotFound.
	GetClip(ctx context.Context, clipId string) (*model.Clip, error)

	// GetClipByScene returns the clip generated for a project scene, or
	// ErrClipNotFound.
	GetClipByScene(ctx context.Context, projectId string, sceneId string) (*model.Clip, error)

	// ListClips returns every clip of a project in creation order.
	ListClips(ctx context.Context, projectId string) ([]*model.Clip, error)
}
