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

// Package continuity implements the continuity engine: it turns a frame
// analysis into trackable visual elements, validates element carry-over
// between consecutive scenes, and renders the continuity context block
// that anchors the next scene's generation prompt.
package continuity

import (
	"fmt"
	"strings"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
)

// productKeywords identify product mentions among a frame's visible
// elements. Matching is case-insensitive substring.
var productKeywords = []string{"bottle", "perfume", "product", "package", "box", "container"}

// Engine is stateless; every method is a pure function of its inputs, so
// extraction and validation are idempotent and safe for concurrent use.
type Engine struct{}

// NewEngine creates a continuity Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Extract derives the continuity elements from one frame analysis:
// a character element when the analysis places a subject, one product
// element per matching visible element, and always exactly one
// environment element carrying the lighting and palette.
func (e *Engine) Extract(analysis *model.FrameAnalysis) []model.ContinuityElement {
	elements := make([]model.ContinuityElement, 0)
	if analysis == nil {
		return elements
	}

	if analysis.SubjectPosition != "" {
		position := analysis.CameraAngle
		if position == "" {
			position = "unknown"
		}
		elements = append(elements, model.ContinuityElement{
			Type:        model.ElementTypeCharacter,
			Description: analysis.SubjectPosition,
			Position:    position,
			Details: map[string]string{
				"mood":     analysis.Mood,
				"lighting": analysis.Lighting,
			},
		})
	}

	colors := strings.Join(analysis.Colors, ", ")
	for _, visible := range analysis.VisibleElements {
		if !isProduct(visible) {
			continue
		}
		elements = append(elements, model.ContinuityElement{
			Type:        model.ElementTypeProduct,
			Description: visible,
			Position:    "visible in frame",
			Details: map[string]string{
				"colors": colors,
			},
		})
	}

	lighting := analysis.Lighting
	if lighting == "" {
		lighting = "unknown"
	}
	elements = append(elements, model.ContinuityElement{
		Type:        model.ElementTypeEnvironment,
		Description: fmt.Sprintf("Lighting: %s", lighting),
		Position:    "overall scene",
		Details: map[string]string{
			"colors": colors,
			"mood":   analysis.Mood,
		},
	})

	return elements
}

// isProduct reports whether a visible element names a product.
func isProduct(element string) bool {
	lower := strings.ToLower(element)
	for _, keyword := range productKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// Validate compares the elements of two consecutive scenes. A character or
// product present before but gone now is a high-severity warning; a
// lighting change is medium. The transition is valid when no high-severity
// warning was raised. Warnings never fail a production, they are recorded
// for review.
func (e *Engine) Validate(previous []model.ContinuityElement, current []model.ContinuityElement) *model.ContinuityReport {
	warnings := make([]model.ContinuityWarning, 0)

	if hasType(previous, model.ElementTypeCharacter) && !hasType(current, model.ElementTypeCharacter) {
		warnings = append(warnings, model.ContinuityWarning{
			Severity:   model.SeverityHigh,
			Message:    "Character disappeared from the scene",
			Suggestion: "Keep the character visible or explain their exit",
		})
	}

	if hasType(previous, model.ElementTypeProduct) && !hasType(current, model.ElementTypeProduct) {
		warnings = append(warnings, model.ContinuityWarning{
			Severity:   model.SeverityHigh,
			Message:    "Product disappeared from the frame",
			Suggestion: "The product must stay visible for continuity",
		})
	}

	prevEnv := firstOfType(previous, model.ElementTypeEnvironment)
	currEnv := firstOfType(current, model.ElementTypeEnvironment)
	if prevEnv != nil && currEnv != nil && prevEnv.Description != currEnv.Description {
		warnings = append(warnings, model.ContinuityWarning{
			Severity:   model.SeverityMedium,
			Message:    fmt.Sprintf("Lighting changed: %s -> %s", prevEnv.Description, currEnv.Description),
			Suggestion: fmt.Sprintf("Keep lighting consistent: %s", prevEnv.Description),
		})
	}

	isValid := true
	for _, w := range warnings {
		if w.Severity == model.SeverityHigh {
			isValid = false
			break
		}
	}

	return &model.ContinuityReport{Warnings: warnings, IsValid: isValid}
}

func hasType(elements []model.ContinuityElement, t model.ContinuityElementType) bool {
	for _, e := range elements {
		if e.Type == t {
			return true
		}
	}
	return false
}

func firstOfType(elements []model.ContinuityElement, t model.ContinuityElementType) *model.ContinuityElement {
	for i := range elements {
		if elements[i].Type == t {
			return &elements[i]
		}
	}
	return nil
}

// BuildContinuityPrompt renders the continuity context block placed ahead
// of a continuation scene's prompt. It lists what the previous scene
// established, the constraints the next scene must keep, and the action
// the user wants next.
func (e *Engine) BuildContinuityPrompt(previous []model.ContinuityElement, userAction string) string {
	var sb strings.Builder
	sb.WriteString("CONTINUITY CONTEXT FROM PREVIOUS SCENE:\n\n")

	if char := firstOfType(previous, model.ElementTypeCharacter); char != nil {
		sb.WriteString("CHARACTER:\n")
		sb.WriteString(fmt.Sprintf("- Position: %s\n", char.Description))
		sb.WriteString(fmt.Sprintf("- Camera: %s\n", char.Position))
		sb.WriteString(fmt.Sprintf("- Mood: %s\n\n", detailOr(char, "mood", "N/A")))
	}

	products := allOfType(previous, model.ElementTypeProduct)
	if len(products) > 0 {
		sb.WriteString("PRODUCT(S):\n")
		for _, p := range products {
			sb.WriteString(fmt.Sprintf("- %s\n", p.Description))
		}
		sb.WriteString("\n")
	}

	if env := firstOfType(previous, model.ElementTypeEnvironment); env != nil {
		sb.WriteString("ENVIRONMENT:\n")
		sb.WriteString(fmt.Sprintf("- %s\n", env.Description))
		sb.WriteString(fmt.Sprintf("- Colors: %s\n\n", detailOr(env, "colors", "N/A")))
	}

	sb.WriteString("NEXT SCENE MUST MAINTAIN:\n")
	sb.WriteString("- Same character position and appearance\n")
	sb.WriteString("- Product(s) visible in consistent location\n")
	sb.WriteString("- Consistent lighting and color palette\n")
	sb.WriteString("- Smooth transition (no jarring changes)\n\n")

	sb.WriteString(fmt.Sprintf("USER'S DESIRED ACTION: %s\n\n", userAction))
	sb.WriteString("Optimize the prompt to maintain continuity while incorporating the user's action.")

	return sb.String()
}

func allOfType(elements []model.ContinuityElement, t model.ContinuityElementType) []model.ContinuityElement {
	var out []model.ContinuityElement
	for _, e := range elements {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func detailOr(element *model.ContinuityElement, key string, fallback string) string {
	if element.Details != nil {
		if v, ok := element.Details[key]; ok && v != "" {
			return v
		}
	}
	return fallback
}
