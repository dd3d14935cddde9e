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

// This file tests the approval gate that suspends a production between
// clip generation and final assembly.
package workflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/workflow"
	"github.com/stretchr/testify/assert"
)

// TestApproveReleasesWaiter verifies that Approve unblocks a suspended
// run and reports that a run was waiting.
func TestApproveReleasesWaiter(t *testing.T) {
	gate := workflow.NewApprovalGate()
	released := make(chan error, 1)

	go func() {
		released <- gate.Wait(ctx, "project-001")
	}()

	// Give the waiter time to register before approving.
	assert.Eventually(t, func() bool {
		return gate.Approve("project-001")
	}, time.Second, 10*time.Millisecond)

	select {
	case err := <-released:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("approved run was never released")
	}
}

// TestApproveWithoutWaiter verifies that approving a project with no
// suspended run is a reported no-op.
func TestApproveWithoutWaiter(t *testing.T) {
	gate := workflow.NewApprovalGate()
	assert.False(t, gate.Approve("project-001"))
}

// TestWaitReleasedByCancel verifies that canceling the run's context
// releases the waiter with an error instead of stranding the goroutine.
func TestWaitReleasedByCancel(t *testing.T) {
	gate := workflow.NewApprovalGate()
	waitCtx, cancel := context.WithCancel(ctx)

	released := make(chan error, 1)
	go func() {
		released <- gate.Wait(waitCtx, "project-001")
	}()

	cancel()

	select {
	case err := <-released:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("canceled wait never returned")
	}

	// The canceled waiter deregistered itself.
	assert.False(t, gate.Approve("project-001"))
}

// TestApprovalsAreIndependentPerProject verifies that approving one
// project does not release another.
func TestApprovalsAreIndependentPerProject(t *testing.T) {
	gate := workflow.NewApprovalGate()

	releasedA := make(chan error, 1)
	go func() {
		releasedA <- gate.Wait(ctx, "project-a")
	}()

	assert.Eventually(t, func() bool {
		return gate.Approve("project-a")
	}, time.Second, 10*time.Millisecond)

	<-releasedA
	assert.False(t, gate.Approve("project-b"))
}
