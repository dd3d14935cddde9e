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

package prompt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
)

// TextGenerator is the minimal surface the refiner needs from a remote
// language model. The cloud package provides the production implementation;
// tests substitute fakes.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// RefineRequest carries everything the refiner needs for one scene.
type RefineRequest struct {
	BasePrompt  string             // Rendered prompt from the Generator.
	Action      string             // The scene's action description.
	Emotion     string             // The scene's emotion.
	ProductTone string             // The brand tone, for coherence checks.
	SceneType   string             // Scene type for keyword selection (e.g. "product_reveal").
	Camera      *model.CameraSpecs // Camera specs for cinematography enhancement.
}

// Refiner produces the final generation prompt for a scene. It prefers the
// remote agent when one is configured; any remote or parse failure selects
// the deterministic optimizer instead. The deterministic path cannot fail,
// so refinement as a whole never fails a scene.
type Refiner struct {
	agent     TextGenerator
	optimizer *Optimizer
	validator *Validator
}

// NewRefiner creates a Refiner targeting the given video model. A nil
// agent disables the remote path entirely.
func NewRefiner(agent TextGenerator, modelType string) *Refiner {
	return &Refiner{
		agent:     agent,
		optimizer: NewOptimizer(modelType),
		validator: NewValidator(),
	}
}

// Refine runs the refinement for one scene. The result always carries a
// usable prompt and records which path produced it.
func (r *Refiner) Refine(ctx context.Context, req *RefineRequest) *model.RefinementResult {
	if r.agent == nil {
		return r.refineDeterministic(req, model.RefinementOk)
	}

	raw, err := r.agent.GenerateText(ctx, r.buildAgentPrompt(req))
	if err != nil {
		return r.refineDeterministic(req, model.RefinementRemoteError)
	}

	refinement, err := parseAgentRefinement(raw)
	if err != nil {
		return r.refineDeterministic(req, model.RefinementParseError)
	}

	return r.assembleRemote(req, refinement)
}

// refineDeterministic is the local path: structural optimization, catalog
// keywords, cinematography, and a locally computed validation report. The
// outcome tag preserves why the remote path was not used.
func (r *Refiner) refineDeterministic(req *RefineRequest, outcome model.RefinementOutcome) *model.RefinementResult {
	optimized := r.optimizer.OptimizeFullPrompt(req.BasePrompt, req.SceneType, req.Emotion, req.Camera)
	validation := r.validator.ValidateScene(req.Action, req.Emotion, req.ProductTone)

	return &model.RefinementResult{
		Outcome:          outcome,
		Source:           model.RefinementSourceDeterministic,
		Prompt:           optimized.OptimizedPrompt,
		OptimizedAction:  req.Action,
		OptimizedEmotion: req.Emotion,
		KeywordsAdded:    optimized.KeywordsAdded,
		Validation:       validation,
	}
}

// assembleRemote turns a successfully parsed agent payload into the final
// result, composing the prompt from the optimized action, emotion and
// technical keywords.
func (r *Refiner) assembleRemote(req *RefineRequest, refinement *model.AgentRefinement) *model.RefinementResult {
	parts := []string{refinement.OptimizedAction}
	if refinement.OptimizedEmotion != "" {
		parts = append(parts, refinement.OptimizedEmotion)
	}
	parts = append(parts, refinement.TechnicalKeywords...)

	validation := refinement.Validation
	if validation == nil {
		validation = r.validator.ValidateScene(refinement.OptimizedAction, refinement.OptimizedEmotion, req.ProductTone)
	}

	return &model.RefinementResult{
		Outcome:           model.RefinementOk,
		Source:            model.RefinementSourceRemote,
		Prompt:            r.optimizer.OptimizeStructure(strings.Join(parts, ", ")),
		OptimizedAction:   refinement.OptimizedAction,
		OptimizedEmotion:  refinement.OptimizedEmotion,
		OptimizedDialogue: refinement.OptimizedDialogue,
		KeywordsAdded:     refinement.TechnicalKeywords,
		Validation:        validation,
	}
}

// buildAgentPrompt renders the instruction sent to the remote agent,
// embedding a few-shot example of the expected JSON payload.
func (r *Refiner) buildAgentPrompt(req *RefineRequest) string {
	example, _ := json.MarshalIndent(model.GetExampleAgentRefinement(), "", "  ")

	var sb strings.Builder
	sb.WriteString("You are a prompt engineer for commercial video generation. ")
	sb.WriteString("Refine the scene description below for a text-to-video model. ")
	sb.WriteString("Strengthen the action, align the emotion with the brand tone, and suggest technical keywords. ")
	sb.WriteString("Respond with JSON matching this example exactly:\n")
	sb.Write(example)
	sb.WriteString("\n\nScene action: ")
	sb.WriteString(req.Action)
	sb.WriteString("\nScene emotion: ")
	sb.WriteString(req.Emotion)
	sb.WriteString("\nBrand tone: ")
	sb.WriteString(req.ProductTone)
	sb.WriteString("\nBase prompt: ")
	sb.WriteString(req.BasePrompt)
	return sb.String()
}

// parseAgentRefinement decodes the agent's response, tolerating markdown
// code fences around the JSON body. A payload without an optimized action
// is treated as unparsable.
func parseAgentRefinement(raw string) (*model.AgentRefinement, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var refinement model.AgentRefinement
	if err := json.Unmarshal([]byte(cleaned), &refinement); err != nil {
		return nil, fmt.Errorf("failed to decode agent refinement: %w", err)
	}
	if strings.TrimSpace(refinement.OptimizedAction) == "" {
		return nil, fmt.Errorf("agent refinement missing optimized_action")
	}
	return &refinement, nil
}
