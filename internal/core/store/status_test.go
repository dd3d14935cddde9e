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

// This file tests the status board's single-flight guarantee: one live
// production per project, with terminal entries readable until replaced.
package store_test

import (
	"sync"
	"testing"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/store"
	"github.com/stretchr/testify/assert"
)

// TestBeginClaimsProject verifies that Begin registers a running entry.
func TestBeginClaimsProject(t *testing.T) {
	board := store.NewStatusBoard()

	status, err := board.Begin("project-001", 3)
	assert.NoError(t, err)
	assert.Equal(t, store.StateRunning, status.State)
	assert.Equal(t, 3, status.TotalScenes)

	got, ok := board.Get("project-001")
	assert.True(t, ok)
	assert.Equal(t, store.StateRunning, got.State)
}

// TestBeginRejectsSecondRun verifies the single-flight guard: a second
// Begin for a live project fails until the first run is terminal.
func TestBeginRejectsSecondRun(t *testing.T) {
	board := store.NewStatusBoard()

	_, err := board.Begin("project-001", 3)
	assert.NoError(t, err)

	_, err = board.Begin("project-001", 3)
	assert.ErrorIs(t, err, store.ErrProductionAlreadyRunning)

	// A different project is unaffected.
	_, err = board.Begin("project-002", 1)
	assert.NoError(t, err)

	// A terminal state releases the claim.
	board.Finish("project-001", store.StateFailed, "generation failed")
	_, err = board.Begin("project-001", 3)
	assert.NoError(t, err)
}

// TestBeginSerializesConcurrentClaims verifies that concurrent Begin
// calls for the same project admit exactly one winner.
func TestBeginSerializesConcurrentClaims(t *testing.T) {
	board := store.NewStatusBoard()

	const attempts = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := board.Begin("project-001", 3); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

// TestUpdateMutatesLiveEntry verifies progress updates and that an
// unknown project is silently ignored.
func TestUpdateMutatesLiveEntry(t *testing.T) {
	board := store.NewStatusBoard()
	_, err := board.Begin("project-001", 3)
	assert.NoError(t, err)

	board.Update("project-001", func(status *store.ProductionStatus) {
		status.CurrentScene = 2
		status.State = store.StateAwaitingApproval
	})
	board.Update("no-such-project", func(status *store.ProductionStatus) {
		t.Error("update callback ran for an unknown project")
	})

	got, ok := board.Get("project-001")
	assert.True(t, ok)
	assert.Equal(t, 2, got.CurrentScene)
	assert.Equal(t, store.StateAwaitingApproval, got.State)
}

// TestFinishKeepsOutcomeReadable verifies that a finished run stays on
// the board with its closing message.
func TestFinishKeepsOutcomeReadable(t *testing.T) {
	board := store.NewStatusBoard()
	_, err := board.Begin("project-001", 3)
	assert.NoError(t, err)

	board.Finish("project-001", store.StateFinished, "production complete")

	got, ok := board.Get("project-001")
	assert.True(t, ok)
	assert.Equal(t, store.StateFinished, got.State)
	assert.Equal(t, "production complete", got.Message)
}

// TestGetUnknownProject verifies the miss path.
func TestGetUnknownProject(t *testing.T) {
	board := store.NewStatusBoard()
	_, ok := board.Get("no-such-project")
	assert.False(t, ok)
}
