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

// Package commands_test contains unit tests for the pipeline commands.
// This file tests the production trigger reader that fronts the Pub/Sub
// listener chain.
package commands_test

import (
	"context"
	"testing"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/commands"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
	test "github.com/jaycherian/gcp-go-commercial-studio/internal/testutil"
	"github.com/stretchr/testify/assert"
)

// newCommandContext builds a chain context carrying a Go context and the
// given raw message as the command input.
func newCommandContext(in interface{}) cor.Context {
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	if in != nil {
		ctx.Add(cor.CtxIn, in)
	}
	return ctx
}

// TestProductionTriggerReader verifies that a valid trigger message is
// decoded and piped as a typed struct.
func TestProductionTriggerReader(t *testing.T) {
	reader := commands.NewProductionTriggerReader("parse-production-trigger")
	ctx := newCommandContext(test.GetTestTriggerMessageText())

	assert.True(t, reader.IsExecutable(ctx))
	reader.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	trigger, ok := ctx.Get(cor.CtxOut).(*model.ProductionTrigger)
	assert.True(t, ok)
	assert.Equal(t, "test-project-001", trigger.ProjectId)
	assert.Equal(t, model.ProductionModeAutomatic, trigger.Mode)
}

// TestProductionTriggerReaderRejectsBadJSON verifies that a malformed
// message records an error instead of panicking the listener.
func TestProductionTriggerReaderRejectsBadJSON(t *testing.T) {
	reader := commands.NewProductionTriggerReader("parse-production-trigger")
	ctx := newCommandContext("{not json")

	reader.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.Nil(t, ctx.Get(cor.CtxOut))
}

// TestProductionTriggerReaderRequiresProjectId verifies that a trigger
// without a project id is rejected.
func TestProductionTriggerReaderRequiresProjectId(t *testing.T) {
	reader := commands.NewProductionTriggerReader("parse-production-trigger")
	ctx := newCommandContext(`{"mode": "automatic"}`)

	reader.Execute(ctx)

	assert.True(t, ctx.HasErrors())
}

// TestProductionTriggerReaderNotExecutableWithoutInput verifies the
// default readiness check guards the cast in Execute.
func TestProductionTriggerReaderNotExecutableWithoutInput(t *testing.T) {
	reader := commands.NewProductionTriggerReader("parse-production-trigger")
	assert.False(t, reader.IsExecutable(newCommandContext(nil)))
}
