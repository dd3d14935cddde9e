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

// Package continuity_test contains unit tests for the continuity engine:
// element extraction from frame analyses, scene-to-scene validation, and
// the rendered continuity context block.
package continuity_test

import (
	"testing"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/continuity"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
	"github.com/stretchr/testify/assert"
)

// sampleAnalysis is a representative vision model output for a perfume
// commercial frame.
func sampleAnalysis() *model.FrameAnalysis {
	return &model.FrameAnalysis{
		Description:     "A woman stands in a moonlit garden holding a perfume bottle",
		SubjectPosition: "center frame, facing camera",
		VisibleElements: []string{"crystal perfume bottle", "rose bushes", "stone path"},
		Lighting:        "soft moonlight from the left",
		Colors:          []string{"deep blue", "silver", "black"},
		CameraAngle:     "medium shot",
		Mood:            "mysterious",
	}
}

// TestExtract verifies that a full analysis yields a character element, a
// product element for the bottle, and the environment element.
func TestExtract(t *testing.T) {
	engine := continuity.NewEngine()

	elements := engine.Extract(sampleAnalysis())

	assert.Equal(t, 3, len(elements))

	assert.Equal(t, model.ElementTypeCharacter, elements[0].Type)
	assert.Equal(t, "center frame, facing camera", elements[0].Description)
	assert.Equal(t, "medium shot", elements[0].Position)
	assert.Equal(t, "mysterious", elements[0].Details["mood"])

	assert.Equal(t, model.ElementTypeProduct, elements[1].Type)
	assert.Equal(t, "crystal perfume bottle", elements[1].Description)

	assert.Equal(t, model.ElementTypeEnvironment, elements[2].Type)
	assert.Equal(t, "Lighting: soft moonlight from the left", elements[2].Description)
	assert.Equal(t, "deep blue, silver, black", elements[2].Details["colors"])
}

// TestExtractWithoutSubject verifies that a frame without a placed subject
// produces no character element but always an environment element.
func TestExtractWithoutSubject(t *testing.T) {
	engine := continuity.NewEngine()

	elements := engine.Extract(&model.FrameAnalysis{Description: "an empty garden"})

	assert.Equal(t, 1, len(elements))
	assert.Equal(t, model.ElementTypeEnvironment, elements[0].Type)
	assert.Equal(t, "Lighting: unknown", elements[0].Description)
}

// TestExtractNilAnalysis verifies the nil analysis edge case.
func TestExtractNilAnalysis(t *testing.T) {
	engine := continuity.NewEngine()
	assert.Empty(t, engine.Extract(nil))
}

// TestValidateCleanTransition verifies that identical elements between
// scenes raise no warnings.
func TestValidateCleanTransition(t *testing.T) {
	engine := continuity.NewEngine()
	elements := engine.Extract(sampleAnalysis())

	report := engine.Validate(elements, elements)

	assert.True(t, report.IsValid)
	assert.Empty(t, report.Warnings)
}

// TestValidateCharacterDisappeared verifies that losing the character is a
// high severity warning that invalidates the transition.
func TestValidateCharacterDisappeared(t *testing.T) {
	engine := continuity.NewEngine()
	previous := engine.Extract(sampleAnalysis())
	current := engine.Extract(&model.FrameAnalysis{
		Description:     "the garden, now empty",
		VisibleElements: []string{"crystal perfume bottle"},
		Lighting:        "soft moonlight from the left",
	})

	report := engine.Validate(previous, current)

	assert.False(t, report.IsValid)
	assert.Equal(t, 1, len(report.Warnings))
	assert.Equal(t, model.SeverityHigh, report.Warnings[0].Severity)
	assert.Contains(t, report.Warnings[0].Message, "Character disappeared")
}

// TestValidateProductDisappeared verifies that losing the product is a
// high severity warning.
func TestValidateProductDisappeared(t *testing.T) {
	engine := continuity.NewEngine()
	previous := engine.Extract(sampleAnalysis())
	current := engine.Extract(&model.FrameAnalysis{
		SubjectPosition: "center frame, facing camera",
		CameraAngle:     "medium shot",
		Lighting:        "soft moonlight from the left",
	})

	report := engine.Validate(previous, current)

	assert.False(t, report.IsValid)
	assert.Equal(t, 1, len(report.Warnings))
	assert.Contains(t, report.Warnings[0].Message, "Product disappeared")
}

// TestValidateLightingChange verifies that a lighting change is a medium
// severity warning and does not invalidate the transition on its own.
func TestValidateLightingChange(t *testing.T) {
	engine := continuity.NewEngine()
	analysis := sampleAnalysis()
	previous := engine.Extract(analysis)
	analysis.Lighting = "harsh studio light"
	current := engine.Extract(analysis)

	report := engine.Validate(previous, current)

	assert.True(t, report.IsValid)
	assert.Equal(t, 1, len(report.Warnings))
	assert.Equal(t, model.SeverityMedium, report.Warnings[0].Severity)
	assert.Contains(t, report.Warnings[0].Suggestion, "soft moonlight from the left")
}

// TestBuildContinuityPrompt verifies the rendered context block names the
// established elements, the constraints, and the user's next action.
func TestBuildContinuityPrompt(t *testing.T) {
	engine := continuity.NewEngine()
	elements := engine.Extract(sampleAnalysis())

	out := engine.BuildContinuityPrompt(elements, "she raises the bottle toward the light")

	assert.Contains(t, out, "CONTINUITY CONTEXT FROM PREVIOUS SCENE")
	assert.Contains(t, out, "CHARACTER:")
	assert.Contains(t, out, "center frame, facing camera")
	assert.Contains(t, out, "PRODUCT(S):")
	assert.Contains(t, out, "crystal perfume bottle")
	assert.Contains(t, out, "ENVIRONMENT:")
	assert.Contains(t, out, "NEXT SCENE MUST MAINTAIN:")
	assert.Contains(t, out, "she raises the bottle toward the light")
}
