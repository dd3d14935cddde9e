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

package workflow

import (
	"context"
	"fmt"
	"sync"
)

// ApprovalGate suspends a production run between clip generation and final
// assembly until a human approves the clips. Each waiting run registers a
// channel under its project id; Approve closes that channel to release the
// run. A run also releases when its context is canceled, so a server
// shutdown never strands a goroutine.
type ApprovalGate struct {
	mu      sync.Mutex
	waiters map[string]chan struct{}
}

// NewApprovalGate creates an empty gate.
func NewApprovalGate() *ApprovalGate {
	return &ApprovalGate{waiters: make(map[string]chan struct{})}
}

// Wait blocks until the project is approved or the context ends. Only one
// run per project can wait at a time; the status board's single-flight
// guard upholds that invariant upstream.
func (g *ApprovalGate) Wait(ctx context.Context, projectId string) error {
	g.mu.Lock()
	ch, ok := g.waiters[projectId]
	if !ok {
		ch = make(chan struct{})
		g.waiters[projectId] = ch
	}
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		delete(g.waiters, projectId)
		g.mu.Unlock()
	}()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("approval wait canceled for project %s: %w", projectId, ctx.Err())
	}
}

// Approve releases the waiting run for the project. It reports whether a
// run was actually waiting; approving a project with no suspended run is a
// no-op.
func (g *ApprovalGate) Approve(projectId string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	ch, ok := g.waiters[projectId]
	if !ok {
		return false
	}
	close(ch)
	delete(g.waiters, projectId)
	return true
}
