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

// This file tests the coherence validator: contradiction detection,
// length bounds, and the confidence scoring of the full scene check.
package prompt_test

import (
	"strings"
	"testing"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/prompt"
	"github.com/stretchr/testify/assert"
)

// TestCheckContradictions verifies each contradiction rule fires on a
// matching action, emotion and tone combination.
func TestCheckContradictions(t *testing.T) {
	validator := prompt.NewValidator()

	tests := []struct {
		name     string
		action   string
		emotion  string
		tone     string
		expected int
	}{
		{"coherent scene", "she walks through the garden", "mystery", "luxury", 0},
		{"joyful emotion with sad action", "she is crying by the window", "joy", "", 1},
		{"sad emotion with joyful action", "she is smiling and laughing", "melancholy", "", 1},
		{"luxury tone with casual emotion", "she walks", "casual and relaxed", "luxury", 1},
		{"dark tone with bright emotion", "she walks", "radiant joy", "dark mystery", 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			contradictions := validator.CheckContradictions(tc.action, tc.emotion, tc.tone)
			assert.Equal(t, tc.expected, len(contradictions))
		})
	}
}

// TestValidateLength verifies the accepted prompt length bounds.
func TestValidateLength(t *testing.T) {
	validator := prompt.NewValidator()

	assert.False(t, validator.ValidateLength(""))
	assert.False(t, validator.ValidateLength("short"))
	assert.True(t, validator.ValidateLength("she walks slowly through the moonlit garden"))
	assert.False(t, validator.ValidateLength(strings.Repeat("a", prompt.MaxPromptLength+1)))
}

// TestValidateModelCompatibility verifies the veo-specific prompt cap.
func TestValidateModelCompatibility(t *testing.T) {
	validator := prompt.NewValidator()
	long := strings.Repeat("a", prompt.MaxPromptLength+1)

	assert.True(t, validator.ValidateModelCompatibility("a reasonable prompt", "veo-3.1"))
	assert.False(t, validator.ValidateModelCompatibility(long, "veo-3.1"))
	assert.True(t, validator.ValidateModelCompatibility(long, "some-other-model"))
	assert.False(t, validator.ValidateModelCompatibility("  ", "veo-3.1"))
}

// TestValidateSceneCoherent verifies that a well-formed scene scores at
// the top of the range and reports no issues.
func TestValidateSceneCoherent(t *testing.T) {
	validator := prompt.NewValidator()

	report := validator.ValidateScene(
		"she pauses between the rose bushes and meets the camera with a knowing look",
		"confidence",
		"luxury")

	assert.True(t, report.IsValid)
	assert.True(t, report.IsCoherent)
	assert.Equal(t, 1.0, report.ConfidenceScore)
	assert.Empty(t, report.Issues)
	assert.Contains(t, report.Notes, "Excellent coherence")
}

// TestValidateSceneEmptyAction verifies that an empty action raises both
// the length issue and the empty-field issue and lowers the score.
func TestValidateSceneEmptyAction(t *testing.T) {
	validator := prompt.NewValidator()

	report := validator.ValidateScene("", "joy", "")

	assert.False(t, report.IsValid)
	assert.Equal(t, 2, len(report.Issues))
	assert.InDelta(t, 0.7, report.ConfidenceScore, 0.001)
	assert.Contains(t, report.Notes, "Found 2 issues")
}

// TestValidateSceneContradiction verifies that a contradiction makes the
// scene incoherent without tripping the other checks.
func TestValidateSceneContradiction(t *testing.T) {
	validator := prompt.NewValidator()

	report := validator.ValidateScene(
		"she is crying alone by the rain-streaked window of the apartment",
		"joyful celebration",
		"luxury")

	assert.False(t, report.IsValid)
	assert.False(t, report.IsCoherent)
	assert.Equal(t, 1, len(report.Issues))
}
