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
	"sync"
	"time"
)

// ProductionState is the live state of a production run.
type ProductionState string

const (
	StateRunning          ProductionState = "running"
	StateAwaitingApproval ProductionState = "awaiting_approval"
	StateFinished         ProductionState = "finished"
	StateFailed           ProductionState = "failed"
)

// ProductionStatus is one row of the live status table.
type ProductionStatus struct {
	ProjectId    string          `json:"project_id"`
	State        ProductionState `json:"state"`
	StartedAt    time.Time       `json:"started_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	CurrentScene int             `json:"current_scene"`
	TotalScenes  int             `json:"total_scenes"`
	Message      string          `json:"message,omitempty"`
}

// terminal reports whether the state admits a new run.
func (s ProductionState) terminal() bool {
	return s == StateFinished || s == StateFailed
}

// StatusBoard is the in-process live status table for productions. It is
// the single-flight guard: Begin atomically claims a project id, and a
// second Begin for the same project fails with
// ErrProductionAlreadyRunning until the first run reaches a terminal
// state. Terminal entries are kept so the last outcome stays readable
// until the next run replaces it.
type StatusBoard struct {
	mu      sync.Mutex
	entries map[string]*ProductionStatus
}

// NewStatusBoard creates an empty board.
func NewStatusBoard() *StatusBoard {
	return &StatusBoard{entries: make(map[string]*ProductionStatus)}
}

// Begin claims the project for a new run. The check and the claim happen
// under one lock, so concurrent callers for the same project serialize
// and exactly one wins.
func (b *StatusBoard) Begin(projectId string, totalScenes int) (*ProductionStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.entries[projectId]; ok && !existing.State.terminal() {
		return nil, ErrProductionAlreadyRunning
	}

	now := time.Now().UTC()
	status := &ProductionStatus{
		ProjectId:   projectId,
		State:       StateRunning,
		StartedAt:   now,
		UpdatedAt:   now,
		TotalScenes: totalScenes,
	}
	b.entries[projectId] = status
	return status, nil
}

// Update mutates the live entry for a project. Missing entries are
// ignored; the run owns its entry from Begin to its terminal update.
func (b *StatusBoard) Update(projectId string, fn func(status *ProductionStatus)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if status, ok := b.entries[projectId]; ok {
		fn(status)
		status.UpdatedAt = time.Now().UTC()
	}
}

// Get returns a copy of the project's live status.
func (b *StatusBoard) Get(projectId string) (ProductionStatus, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	status, ok := b.entries[projectId]
	if !ok {
		return ProductionStatus{}, false
	}
	return *status, true
}

// Finish marks the run terminal with a closing message.
func (b *StatusBoard) Finish(projectId string, state ProductionState, message string) {
	b.Update(projectId, func(status *ProductionStatus) {
		status.State = state
		status.Message = message
	})
}
