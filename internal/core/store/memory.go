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

package store

import (
	"context"
	"sync"
	"time"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
)

// MemoryStore is a mutex-guarded in-memory ProductionStore. It backs
// tests and local development runs where BigQuery is unavailable.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]*model.Project
	clips    map[string]*model.Clip
	order    map[string][]string // project id -> clip ids in creation order
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[string]*model.Project),
		clips:    make(map[string]*model.Clip),
		order:    make(map[string][]string),
	}
}

// CreateProject stores a copy of the project.
func (s *MemoryStore) CreateProject(_ context.Context, project *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[project.Id] = cloneProject(project)
	return nil
}

// GetProject returns a copy of the stored project.
func (s *MemoryStore) GetProject(_ context.Context, projectId string) (*model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	project, ok := s.projects[projectId]
	if !ok {
		return nil, ErrProjectNotFound
	}
	return cloneProject(project), nil
}

// UpdateProject replaces the stored project.
func (s *MemoryStore) UpdateProject(_ context.Context, project *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[project.Id]; !ok {
		return ErrProjectNotFound
	}
	clone := cloneProject(project)
	clone.UpdatedAt = time.Now().UTC()
	s.projects[project.Id] = clone
	return nil
}

// UpdateProjectStatus transitions the stored project's status.
func (s *MemoryStore) UpdateProjectStatus(_ context.Context, projectId string, status model.ProjectStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	project, ok := s.projects[projectId]
	if !ok {
		return ErrProjectNotFound
	}
	project.Status = status
	project.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateSceneStatus records a scene's production status and links its
// clip when one is given.
func (s *MemoryStore) UpdateSceneStatus(_ context.Context, projectId string, sceneId string, status model.ClipStatus, clipId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	project, ok := s.projects[projectId]
	if !ok {
		return ErrProjectNotFound
	}
	for _, scene := range project.Scenes {
		if scene.SceneId == sceneId {
			scene.Status = status
			if clipId != "" {
				scene.ClipId = clipId
			}
			project.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrSceneNotFound
}

// SetFinalVideo records the assembled final video.
func (s *MemoryStore) SetFinalVideo(_ context.Context, projectId string, video *model.FinalVideo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	project, ok := s.projects[projectId]
	if !ok {
		return ErrProjectNotFound
	}
	v := *video
	project.FinalVideo = &v
	project.UpdatedAt = time.Now().UTC()
	return nil
}

// CreateClip stores a copy of the clip and appends it to the project's
// creation order.
func (s *MemoryStore) CreateClip(_ context.Context, clip *model.Clip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clips[clip.ClipId] = cloneClip(clip)
	s.order[clip.ProjectId] = append(s.order[clip.ProjectId], clip.ClipId)
	return nil
}

// UpdateClip replaces the stored clip.
func (s *MemoryStore) UpdateClip(_ context.Context, clip *model.Clip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clips[clip.ClipId]; !ok {
		return ErrClipNotFound
	}
	clone := cloneClip(clip)
	clone.UpdatedAt = time.Now().UTC()
	s.clips[clip.ClipId] = clone
	return nil
}

// GetClip returns a copy of the stored clip.
func (s *MemoryStore) GetClip(_ context.Context, clipId string) (*model.Clip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clip, ok := s.clips[clipId]
	if !ok {
		return nil, ErrClipNotFound
	}
	return cloneClip(clip), nil
}

// GetClipByScene returns the most recently created clip for a project
// scene, matching the BigQuery store's ordering.
func (s *MemoryStore) GetClipByScene(_ context.Context, projectId string, sceneId string) (*model.Clip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clipIds := s.order[projectId]
	for i := len(clipIds) - 1; i >= 0; i-- {
		if clip := s.clips[clipIds[i]]; clip != nil && clip.SceneId == sceneId {
			return cloneClip(clip), nil
		}
	}
	return nil, ErrClipNotFound
}

// ListClips returns the project's clips in creation order.
func (s *MemoryStore) ListClips(_ context.Context, projectId string) ([]*model.Clip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clipIds := s.order[projectId]
	out := make([]*model.Clip, 0, len(clipIds))
	for _, clipId := range clipIds {
		if clip := s.clips[clipId]; clip != nil {
			out = append(out, cloneClip(clip))
		}
	}
	return out, nil
}

// cloneProject deep-copies the mutable parts of a project so callers can
// never alias the store's internal state.
func cloneProject(project *model.Project) *model.Project {
	clone := *project
	clone.Scenes = make([]*model.Scene, len(project.Scenes))
	for i, scene := range project.Scenes {
		s := *scene
		if scene.Variables != nil {
			s.Variables = make(map[string]string, len(scene.Variables))
			for k, v := range scene.Variables {
				s.Variables[k] = v
			}
		}
		clone.Scenes[i] = &s
	}
	if project.FinalVideo != nil {
		v := *project.FinalVideo
		clone.FinalVideo = &v
	}
	return &clone
}

func cloneClip(clip *model.Clip) *model.Clip {
	clone := *clip
	if clip.File != nil {
		f := *clip.File
		clone.File = &f
	}
	return &clone
}
