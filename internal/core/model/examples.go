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

// Package model defines the data structures for the application. This file,
// `examples.go`, provides factory functions for hardcoded example instances
// used for "few-shot" prompting. Embedding a concrete example of the desired
// JSON shape in the prompt keeps the generative model's output consistent
// and parsable.
package model

// GetExampleFrameAnalysis creates a sample FrameAnalysis. It is embedded in
// the frame-analysis prompt so the vision model returns the exact JSON
// structure the continuity engine expects.
func GetExampleFrameAnalysis() *FrameAnalysis {
	return &FrameAnalysis{
		Description:     "A woman in a black evening dress stands at a marble counter holding a small glass perfume bottle toward the camera.",
		SubjectPosition: "center frame, facing camera, bottle raised in right hand",
		VisibleElements: []string{"perfume bottle", "marble counter", "gold pendant necklace"},
		Lighting:        "soft key light from the left with a warm rim light",
		Colors:          []string{"black", "gold", "warm amber"},
		CameraAngle:     "medium close-up",
		Mood:            "elegant and confident",
	}
}

// GetExampleAgentRefinement creates a sample AgentRefinement. It is embedded
// in the refinement prompt to show the agent the expected response payload,
// including the nested validation block.
func GetExampleAgentRefinement() *AgentRefinement {
	return &AgentRefinement{
		OptimizedAction:   "She lifts the crystal perfume bottle toward the light, rotating it slowly so the facets catch the glow",
		OptimizedEmotion:  "quiet confidence with a hint of allure",
		OptimizedDialogue: "",
		TechnicalKeywords: []string{"4K quality", "shallow depth of field", "soft key lighting"},
		Validation: &PromptValidation{
			IsValid:         true,
			IsCoherent:      true,
			ConfidenceScore: 0.92,
			Issues:          []string{},
			Suggestions:     []string{},
			Notes:           "Action and emotion are well aligned with the luxury tone.",
		},
	}
}
