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

// This file tests the deterministic optimizer: structural cleanup, the
// keyword catalogs, and cinematography enhancement.
package prompt_test

import (
	"testing"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/prompt"
	"github.com/stretchr/testify/assert"
)

// TestOptimizeStructure verifies the structural cleanup rules: trailing
// periods removed, comma spacing normalized, whitespace collapsed, and the
// first letter capitalized.
func TestOptimizeStructure(t *testing.T) {
	optimizer := prompt.NewOptimizer("veo-3.1")

	out := optimizer.OptimizeStructure("a woman walks ,  pauses,and turns.")

	assert.Equal(t, "A woman walks, pauses, and turns", out)
}

// TestOptimizeStructureIsIdempotent verifies that running the cleanup on
// its own output changes nothing, which lets the refiner re-run it safely.
func TestOptimizeStructureIsIdempotent(t *testing.T) {
	optimizer := prompt.NewOptimizer("veo-3.1")

	once := optimizer.OptimizeStructure("  a   woman , walks .")
	twice := optimizer.OptimizeStructure(once)

	assert.Equal(t, once, twice)
}

// TestAddTechnicalKeywords verifies the keyword caps: one quality keyword,
// at most two scene-type keywords, and one emotion keyword.
func TestAddTechnicalKeywords(t *testing.T) {
	optimizer := prompt.NewOptimizer("veo-3.1")

	out := optimizer.AddTechnicalKeywords("a woman holds a bottle", "product_reveal", "elegance")

	assert.Contains(t, out, "4K quality")
	assert.Contains(t, out, "product photography")
	assert.Contains(t, out, "clean background")
	// The third scene-type keyword is beyond the cap.
	assert.NotContains(t, out, "focused lighting")
	assert.Contains(t, out, "graceful movement")
}

// TestAddTechnicalKeywordsSkipsQualityWhenPresent verifies that a prompt
// already mentioning quality is not given a second quality keyword.
func TestAddTechnicalKeywordsSkipsQualityWhenPresent(t *testing.T) {
	optimizer := prompt.NewOptimizer("veo-3.1")

	out := optimizer.AddTechnicalKeywords("a 4K shot of a garden", "", "")

	assert.NotContains(t, out, "4K quality")
}

// TestEnhanceCinematography verifies that camera specs translate into
// movement, shot and lens phrasing when the prompt lacks them.
func TestEnhanceCinematography(t *testing.T) {
	optimizer := prompt.NewOptimizer("veo-3.1")
	camera := &model.CameraSpecs{Angle: "close-up", Movement: "dolly", FocalLength: "85mm"}

	out := optimizer.EnhanceCinematography("a woman pauses in a garden", camera)

	assert.Contains(t, out, "smooth dolly movement")
	assert.Contains(t, out, "close-up shot")
	assert.Contains(t, out, "85mm lens")
}

// TestEnhanceCinematographyNilCamera verifies that a missing camera spec
// leaves the prompt untouched.
func TestEnhanceCinematographyNilCamera(t *testing.T) {
	optimizer := prompt.NewOptimizer("veo-3.1")

	out := optimizer.EnhanceCinematography("a woman pauses", nil)

	assert.Equal(t, "a woman pauses", out)
}

// TestOptimizeFullPrompt verifies the complete pass records the appended
// keywords and which steps were applied.
func TestOptimizeFullPrompt(t *testing.T) {
	optimizer := prompt.NewOptimizer("veo-3.1")
	camera := &model.CameraSpecs{Movement: "static"}

	out := optimizer.OptimizeFullPrompt("a woman holds a bottle .", "product_reveal", "elegance", camera)

	assert.Equal(t, "a woman holds a bottle .", out.OriginalPrompt)
	assert.Contains(t, out.OptimizedPrompt, "A woman holds a bottle")
	assert.Contains(t, out.KeywordsAdded, "4K quality")
	assert.True(t, out.Applied.Structure)
	assert.True(t, out.Applied.Keywords)
	assert.True(t, out.Applied.Cinematography)
}

// TestGetModelKeywords verifies catalog lookup per category and the
// flattened "all" view, plus the empty catalog for unknown models.
func TestGetModelKeywords(t *testing.T) {
	optimizer := prompt.NewOptimizer("veo-3.1")
	assert.Contains(t, optimizer.GetModelKeywords("camera"), "bokeh")
	assert.NotEmpty(t, optimizer.GetModelKeywords("all"))

	unknown := prompt.NewOptimizer("some-future-model")
	assert.Empty(t, unknown.GetModelKeywords("all"))
}
