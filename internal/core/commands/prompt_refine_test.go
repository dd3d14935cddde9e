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

// This file tests the prompt refinement command that opens every scene
// chain.
package commands_test

import (
	"testing"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/commands"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/continuity"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/prompt"
	test "github.com/jaycherian/gcp-go-commercial-studio/internal/testutil"
	"github.com/stretchr/testify/assert"
)

// newSceneContext stages a project and one of its scenes the way the
// workflow does before running the scene chain.
func newSceneContext(project *model.Project, sceneIndex int) cor.Context {
	ctx := newCommandContext(nil)
	ctx.Add(commands.CtxProject, project)
	ctx.Add(commands.CtxScene, project.Scenes[sceneIndex])
	ctx.Add(commands.CtxSceneIndex, sceneIndex)
	return ctx
}

// TestPromptRefine verifies that the command renders the scene template,
// refines it, and publishes the result for the rest of the chain.
func TestPromptRefine(t *testing.T) {
	project := test.GetTestProject()
	refine := commands.NewPromptRefine("prompt-refine", prompt.NewRefiner(nil, project.TechnicalSpecs.Model))
	ctx := newSceneContext(project, 0)

	assert.True(t, refine.IsExecutable(ctx))
	refine.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	result, ok := ctx.Get(commands.CtxRefinement).(*model.RefinementResult)
	assert.True(t, ok)
	assert.Equal(t, model.RefinementOk, result.Outcome)
	assert.Equal(t, model.RefinementSourceDeterministic, result.Source)
	assert.Contains(t, result.Prompt, "moonlit garden")
	assert.NotContains(t, result.Prompt, "{{")
	// The chain output carries the same result for the generation command.
	assert.Equal(t, result, ctx.Get(cor.CtxOut))
}

// TestPromptRefineWithContinuity verifies that a continuation scene gets
// the previous scene's continuity block in front of its prompt.
func TestPromptRefineWithContinuity(t *testing.T) {
	project := test.GetTestProject()
	refine := commands.NewPromptRefine("prompt-refine", prompt.NewRefiner(nil, project.TechnicalSpecs.Model))
	ctx := newSceneContext(project, 1)

	engine := continuity.NewEngine()
	elements := engine.Extract(&model.FrameAnalysis{
		SubjectPosition: "center frame",
		VisibleElements: []string{"crystal perfume bottle"},
		Lighting:        "soft moonlight",
	})
	ctx.Add(commands.CtxContinuityElements, elements)

	refine.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	result := ctx.Get(commands.CtxRefinement).(*model.RefinementResult)
	assert.Contains(t, result.Prompt, "CONTINUITY CONTEXT FROM PREVIOUS SCENE")
	assert.Contains(t, result.Prompt, "crystal perfume bottle")
}

// TestPromptRefineInitialSceneSkipsContinuity verifies that a scene in
// initial mode starts fresh: continuity elements left on the context by
// the previous scene must not leak into its prompt.
func TestPromptRefineInitialSceneSkipsContinuity(t *testing.T) {
	project := test.GetTestProject()
	project.Scenes[1].ContinuityMode = model.ContinuityModeInitial
	refine := commands.NewPromptRefine("prompt-refine", prompt.NewRefiner(nil, project.TechnicalSpecs.Model))
	ctx := newSceneContext(project, 1)

	engine := continuity.NewEngine()
	elements := engine.Extract(&model.FrameAnalysis{
		SubjectPosition: "center frame",
		Lighting:        "soft moonlight",
	})
	ctx.Add(commands.CtxContinuityElements, elements)

	refine.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	result := ctx.Get(commands.CtxRefinement).(*model.RefinementResult)
	assert.NotContains(t, result.Prompt, "CONTINUITY CONTEXT")
}

// TestPromptRefineDisabledSettings verifies that disabled refinement
// settings drop the rendered prompt to the basic level.
func TestPromptRefineDisabledSettings(t *testing.T) {
	project := test.GetTestProject()
	project.RefinementSettings.Enabled = false
	refine := commands.NewPromptRefine("prompt-refine", prompt.NewRefiner(nil, project.TechnicalSpecs.Model))
	ctx := newSceneContext(project, 0)

	refine.Execute(ctx)

	result := ctx.Get(commands.CtxRefinement).(*model.RefinementResult)
	// Level add-ons are skipped; only the optimizer's catalog keywords
	// may appear.
	assert.NotContains(t, result.Prompt, "8k quality")
	assert.NotContains(t, result.Prompt, "soft golden hour light")
}

// TestPromptRefineNotExecutableWithoutScene verifies the readiness check.
func TestPromptRefineNotExecutableWithoutScene(t *testing.T) {
	project := test.GetTestProject()
	refine := commands.NewPromptRefine("prompt-refine", prompt.NewRefiner(nil, project.TechnicalSpecs.Model))

	ctx := newCommandContext(nil)
	ctx.Add(commands.CtxProject, project)
	assert.False(t, refine.IsExecutable(ctx))
}
