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
	"fmt"
	"strings"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
)

// Prompt length bounds accepted by the validator. Veo rejects prompts far
// beyond 500 characters, so the action description is capped there.
const (
	MinPromptLength = 10
	MaxPromptLength = 500
)

// Validator checks a scene description for internal coherence before it is
// sent to the video model: contradictions between action, emotion and brand
// tone, length bounds, and empty required fields.
type Validator struct{}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// containsAny reports whether s contains any of the given substrings.
func containsAny(s string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

// CheckContradictions cross-checks the action text against the emotion and
// the product tone, returning a message per contradiction found.
func (v *Validator) CheckContradictions(action string, emotion string, productTone string) []string {
	var contradictions []string

	actionLower := strings.ToLower(action)
	emotionLower := strings.ToLower(emotion)
	toneLower := strings.ToLower(productTone)

	if containsAny(emotionLower, "joy", "happy", "cheerful") {
		if containsAny(actionLower, "sad", "crying", "tears", "melanchol") {
			contradictions = append(contradictions, "Contradiction: joyful emotion but sad action")
		}
	}

	if containsAny(emotionLower, "sad", "melanchol") {
		if containsAny(actionLower, "smil", "laugh", "happy", "joy") {
			contradictions = append(contradictions, "Contradiction: sad emotion but joyful action")
		}
	}

	if containsAny(toneLower, "luxury", "elegant") {
		if containsAny(emotionLower, "casual", "informal", "sloppy") {
			contradictions = append(contradictions, "Contradiction: luxury tone but casual emotion")
		}
	}

	if containsAny(toneLower, "dark", "mystery") {
		if containsAny(emotionLower, "joy", "radiant", "bright") {
			contradictions = append(contradictions, "Contradiction: dark or mysterious tone but bright emotion")
		}
	}

	return contradictions
}

// ValidateLength reports whether the trimmed prompt length is within the
// accepted bounds.
func (v *Validator) ValidateLength(prompt string) bool {
	if prompt == "" {
		return false
	}
	length := len(strings.TrimSpace(prompt))
	return length >= MinPromptLength && length <= MaxPromptLength
}

// ValidateModelCompatibility checks model-specific prompt constraints.
// Veo models cap the prompt at 500 characters.
func (v *Validator) ValidateModelCompatibility(prompt string, videoModel string) bool {
	if strings.TrimSpace(prompt) == "" {
		return false
	}
	if strings.HasPrefix(videoModel, "veo") {
		return len(prompt) <= MaxPromptLength
	}
	return true
}

// ValidateScene runs the full coherence check for one scene and produces
// the validation report with a confidence score in [0, 1].
func (v *Validator) ValidateScene(action string, emotion string, productTone string) *model.PromptValidation {
	var issues []string
	var suggestions []string

	contradictions := v.CheckContradictions(action, emotion, productTone)
	issues = append(issues, contradictions...)

	if !v.ValidateLength(action) {
		issues = append(issues, fmt.Sprintf("Action length must be between %d and %d characters", MinPromptLength, MaxPromptLength))
		suggestions = append(suggestions, "Simplify the action description")
	}

	if strings.TrimSpace(action) == "" {
		issues = append(issues, "Action must not be empty")
	}
	if strings.TrimSpace(emotion) == "" {
		issues = append(issues, "Emotion must not be empty")
	}

	score := v.coherenceScore(action, emotion, len(issues))

	return &model.PromptValidation{
		IsValid:         len(issues) == 0,
		IsCoherent:      len(contradictions) == 0,
		ConfidenceScore: score,
		Issues:          issues,
		Suggestions:     suggestions,
		Notes:           v.validationNotes(len(issues), score),
	}
}

// coherenceScore computes the confidence score: a 1.0 base, minus 0.15 per
// issue, plus small bonuses for a well-sized action and a specific
// emotion, clamped to [0, 1].
func (v *Validator) coherenceScore(action string, emotion string, numIssues int) float64 {
	score := 1.0
	score -= float64(numIssues) * 0.15

	if len(action) >= 50 && len(action) <= 300 {
		score += 0.05
	}
	if len(strings.TrimSpace(emotion)) > 5 {
		score += 0.05
	}

	if score < 0.0 {
		return 0.0
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}

// validationNotes renders the human-readable summary line for the report.
func (v *Validator) validationNotes(numIssues int, score float64) string {
	if numIssues > 0 {
		return fmt.Sprintf("Found %d issues that need attention.", numIssues)
	}
	switch {
	case score >= 0.9:
		return "Excellent coherence. All elements are well aligned."
	case score >= 0.7:
		return "Good coherence. The elements work well together."
	default:
		return "Acceptable coherence. Consider refining some elements."
	}
}
