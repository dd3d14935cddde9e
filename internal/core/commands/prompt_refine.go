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

// This file defines the first command of every scene chain: turning the
// scene's template into the final generation prompt.
//
// Logic Flow:
//  1. Render the scene's prompt template at the project's refinement
//     level (variables, subject, product, then the level add-ons).
//  2. When continuity elements from the previous scene are present,
//     prepend the continuity context block so the video model keeps the
//     established character, product and lighting.
//  3. Hand the rendered prompt to the Refiner, which tries the remote
//     agent when enabled and falls back to the deterministic optimizer.
//     Refinement cannot fail a scene; the result records which path ran.
package commands

import (
	"log/slog"
	"strings"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/continuity"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/prompt"
)

// PromptRefine produces the final generation prompt for one scene.
type PromptRefine struct {
	cor.BaseCommand
	refiner          *prompt.Refiner
	continuityEngine *continuity.Engine
}

// NewPromptRefine creates the refinement command. The refiner decides
// between the remote agent and the deterministic path internally.
func NewPromptRefine(name string, refiner *prompt.Refiner) *PromptRefine {
	return &PromptRefine{
		BaseCommand:      *cor.NewBaseCommand(name),
		refiner:          refiner,
		continuityEngine: continuity.NewEngine(),
	}
}

// IsExecutable requires the project and scene to be staged on the context.
func (c *PromptRefine) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(CtxProject) != nil && context.Get(CtxScene) != nil
}

// Execute renders and refines the scene prompt, publishing the result
// both under CtxRefinement and as the chain output.
func (c *PromptRefine) Execute(context cor.Context) {
	project := context.Get(CtxProject).(*model.Project)
	scene := context.Get(CtxScene).(*model.Scene)

	level := project.RefinementSettings.Level
	if !project.RefinementSettings.Enabled {
		level = prompt.LevelBasic
	}

	generator := prompt.NewGenerator(project)
	basePrompt := generator.RenderScene(scene, level)

	// Continuation scenes carry the previous scene's visual contract in
	// front of the prompt. An initial-mode scene starts fresh even when
	// elements from the previous scene are still on the context.
	if elements, ok := context.Get(CtxContinuityElements).([]model.ContinuityElement); ok &&
		len(elements) > 0 && scene.ContinuityMode != model.ContinuityModeInitial {
		basePrompt = c.continuityEngine.BuildContinuityPrompt(elements, scene.ActionDetails) + "\n\n" + basePrompt
	}

	result := c.refiner.Refine(context.GetContext(), &prompt.RefineRequest{
		BasePrompt:  basePrompt,
		Action:      scene.ActionDetails,
		Emotion:     scene.Emotion,
		ProductTone: project.BrandGuidelines.Tone,
		SceneType:   sceneType(scene),
		Camera:      &scene.Camera,
	})

	if result.Outcome != model.RefinementOk {
		slog.Warn("remote refinement unavailable, used deterministic path",
			"project", project.Id, "scene", scene.SceneId, "outcome", string(result.Outcome))
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(CtxRefinement, result)
	context.Add(c.GetOutputParam(), result)
}

// sceneType derives the optimizer's scene type from the scene name, with
// a neutral default when nothing matches.
func sceneType(scene *model.Scene) string {
	switch {
	case containsFold(scene.Name, "reveal"), containsFold(scene.Name, "product"):
		return "product_reveal"
	case containsFold(scene.Name, "close"):
		return "character_closeup"
	case containsFold(scene.Name, "action"):
		return "action"
	case containsFold(scene.Name, "mood"), containsFold(scene.Name, "atmosphere"):
		return "atmospheric"
	default:
		return "general"
	}
}

func containsFold(s string, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
