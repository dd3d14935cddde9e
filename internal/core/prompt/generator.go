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

// Package prompt implements the prompt refinement subsystem: template
// rendering with refinement levels, the deterministic keyword optimizer,
// the coherence validator, and the remote refinement agent with its
// deterministic fallback.
package prompt

import (
	"fmt"
	"strings"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
)

// Refinement levels. Each level includes everything below it, so raising
// the level only ever adds text to the rendered prompt.
const (
	// LevelBasic substitutes template variables only.
	LevelBasic = 0
	// LevelEmotion appends the scene's emotion.
	LevelEmotion = 1
	// LevelCamera appends the camera angle and movement.
	LevelCamera = 2
	// LevelCinematic appends the brand lighting style and the fixed
	// quality suffix.
	LevelCinematic = 3
)

// cinematicSuffix is appended verbatim at LevelCinematic.
const cinematicSuffix = ", cinematic lighting, 8k quality, professional commercial photography"

// Generator renders scene prompt templates against a project's subject,
// product and brand guidelines.
type Generator struct {
	project *model.Project
}

// NewGenerator creates a Generator bound to one project.
func NewGenerator(project *model.Project) *Generator {
	return &Generator{project: project}
}

// RenderScene builds the prompt for a scene at the given refinement level.
// Level 0 resolves {{variable}} placeholders from the scene's variables and
// the project's {{subject}} and {{product}}; higher levels append emotion,
// camera work, and brand lighting plus the quality suffix, in that order.
func (g *Generator) RenderScene(scene *model.Scene, level int) string {
	out := scene.PromptTemplate

	for key, value := range scene.Variables {
		out = strings.ReplaceAll(out, fmt.Sprintf("{{%s}}", key), value)
	}
	out = strings.ReplaceAll(out, "{{subject}}", g.project.Subject.Description)
	out = strings.ReplaceAll(out, "{{product}}", g.project.Product.Description)

	if level >= LevelEmotion && scene.Emotion != "" {
		out += ", " + scene.Emotion
	}

	if level >= LevelCamera {
		if scene.Camera.Angle != "" {
			out += ", " + scene.Camera.Angle
		}
		if scene.Camera.Movement != "" {
			out += ", " + scene.Camera.Movement
		}
	}

	if level >= LevelCinematic {
		if lighting := g.project.BrandGuidelines.LightingStyle; lighting != "" {
			out += ", " + lighting
		}
		out += cinematicSuffix
	}

	return out
}

// FindScene returns the project scene with the given id, or an error when
// no such scene exists.
func (g *Generator) FindScene(sceneId string) (*model.Scene, error) {
	for _, s := range g.project.Scenes {
		if s.SceneId == sceneId {
			return s, nil
		}
	}
	return nil, fmt.Errorf("scene %s not found in project %s", sceneId, g.project.Id)
}

// focusRefinements are the canned emphasis fragments available to
// RefineFocus.
func (g *Generator) focusRefinements() map[string]string {
	subject := g.project.Subject.Description
	if subject == "" {
		subject = "subject"
	}
	product := g.project.Product.Name
	if product == "" {
		product = "product"
	}
	lighting := g.project.BrandGuidelines.LightingStyle
	if lighting == "" {
		lighting = "lighting"
	}
	return map[string]string{
		"subject_consistency":   fmt.Sprintf("maintaining exact appearance of %s", subject),
		"product_visibility":    fmt.Sprintf("clearly showing %s with prominent placement", product),
		"lighting_coherence":    fmt.Sprintf("consistent %s", lighting),
		"emotional_progression": "natural emotional transition",
		"motion_smoothness":     "smooth fluid motion, no jerky movements",
	}
}

// RefineFocus appends emphasis fragments for the requested focus areas.
// Unknown areas are ignored.
func (g *Generator) RefineFocus(basePrompt string, focusAreas []string) string {
	refinements := g.focusRefinements()
	out := basePrompt
	for _, area := range focusAreas {
		if fragment, ok := refinements[area]; ok {
			out += ", " + fragment
		}
	}
	return out
}
