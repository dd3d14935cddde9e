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

// This file tests the refiner's path selection: the remote agent when it
// responds with a usable payload, and the deterministic fallback for every
// failure mode. Refinement must never fail a scene.
package prompt_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/prompt"
	"github.com/stretchr/testify/assert"
)

// fakeAgent is a canned TextGenerator for driving the refiner through its
// remote and failure paths.
type fakeAgent struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeAgent) GenerateText(_ context.Context, p string) (string, error) {
	f.prompts = append(f.prompts, p)
	return f.response, f.err
}

// refineRequest builds the standard request used across these tests.
func refineRequest() *prompt.RefineRequest {
	return &prompt.RefineRequest{
		BasePrompt:  "a woman walks through a moonlit garden",
		Action:      "she walks slowly between rose bushes under moonlight",
		Emotion:     "mystery",
		ProductTone: "luxury",
		SceneType:   "atmospheric",
		Camera:      &model.CameraSpecs{Angle: "wide", Movement: "dolly"},
	}
}

// TestRefineWithoutAgent verifies that a nil agent selects the
// deterministic path and reports a clean outcome.
func TestRefineWithoutAgent(t *testing.T) {
	refiner := prompt.NewRefiner(nil, "veo-3.1")

	result := refiner.Refine(context.Background(), refineRequest())

	assert.Equal(t, model.RefinementOk, result.Outcome)
	assert.Equal(t, model.RefinementSourceDeterministic, result.Source)
	assert.NotEmpty(t, result.Prompt)
	assert.NotNil(t, result.Validation)
}

// TestRefineRemoteSuccess verifies that a valid agent payload produces a
// remote-sourced result composed from the optimized action, emotion and
// technical keywords.
func TestRefineRemoteSuccess(t *testing.T) {
	agent := &fakeAgent{response: `{
		"optimized_action": "she glides between rose bushes, moonlight tracing her silhouette",
		"optimized_emotion": "quiet mystery",
		"technical_keywords": ["bokeh", "soft key lighting"]
	}`}
	refiner := prompt.NewRefiner(agent, "veo-3.1")

	result := refiner.Refine(context.Background(), refineRequest())

	assert.Equal(t, model.RefinementOk, result.Outcome)
	assert.Equal(t, model.RefinementSourceRemote, result.Source)
	assert.Contains(t, result.Prompt, "glides between rose bushes")
	assert.Contains(t, result.Prompt, "quiet mystery")
	assert.Contains(t, result.Prompt, "bokeh")
	assert.Equal(t, []string{"bokeh", "soft key lighting"}, result.KeywordsAdded)
	// The agent sent no validation block, so the refiner computes one.
	assert.NotNil(t, result.Validation)
	assert.Equal(t, 1, len(agent.prompts))
}

// TestRefineRemoteSuccessWithCodeFence verifies that a markdown-fenced
// JSON response still parses.
func TestRefineRemoteSuccessWithCodeFence(t *testing.T) {
	agent := &fakeAgent{response: "```json\n{\"optimized_action\": \"she pauses and turns\"}\n```"}
	refiner := prompt.NewRefiner(agent, "veo-3.1")

	result := refiner.Refine(context.Background(), refineRequest())

	assert.Equal(t, model.RefinementOk, result.Outcome)
	assert.Equal(t, model.RefinementSourceRemote, result.Source)
	assert.Equal(t, "she pauses and turns", result.OptimizedAction)
}

// TestRefineRemoteError verifies that a failed agent call falls back to
// the deterministic path and tags the outcome.
func TestRefineRemoteError(t *testing.T) {
	agent := &fakeAgent{err: errors.New("deadline exceeded")}
	refiner := prompt.NewRefiner(agent, "veo-3.1")

	result := refiner.Refine(context.Background(), refineRequest())

	assert.Equal(t, model.RefinementRemoteError, result.Outcome)
	assert.Equal(t, model.RefinementSourceDeterministic, result.Source)
	assert.NotEmpty(t, result.Prompt)
}

// TestRefineParseError verifies that an unusable agent payload falls back
// to the deterministic path. A payload without an optimized action counts
// as unparsable even when it is valid JSON.
func TestRefineParseError(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not json", "I cannot help with that."},
		{"missing optimized_action", `{"optimized_emotion": "calm"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			agent := &fakeAgent{response: tc.response}
			refiner := prompt.NewRefiner(agent, "veo-3.1")

			result := refiner.Refine(context.Background(), refineRequest())

			assert.Equal(t, model.RefinementParseError, result.Outcome)
			assert.Equal(t, model.RefinementSourceDeterministic, result.Source)
			assert.NotEmpty(t, result.Prompt)
		})
	}
}
