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
// `transient.go`, holds the in-memory structs that move between commands
// during a production run: frame analyses, continuity elements, refinement
// results and validation reports. None of these are persisted as-is; they
// feed the prompts and reports that produce the persistent records.
package model

// ContinuityElementType classifies what a continuity element describes.
type ContinuityElementType string

const (
	ElementTypeCharacter   ContinuityElementType = "character"
	ElementTypeProduct     ContinuityElementType = "product"
	ElementTypeEnvironment ContinuityElementType = "environment"
)

// ContinuityElement is a single visual fact extracted from a clip's final
// frame that the next scene must keep consistent.
type ContinuityElement struct {
	Type        ContinuityElementType `json:"type"`
	Description string                `json:"description"`
	Position    string                `json:"position"`
	Details     map[string]string     `json:"details,omitempty"`
}

// FrameAnalysis is the structured output of the vision model's analysis of
// an extracted frame. It is the raw material for continuity extraction.
type FrameAnalysis struct {
	Description     string   `json:"description"`
	SubjectPosition string   `json:"subject_position,omitempty"`
	VisibleElements []string `json:"visible_elements,omitempty"`
	Lighting        string   `json:"lighting,omitempty"`
	Colors          []string `json:"colors,omitempty"`
	CameraAngle     string   `json:"camera_angle,omitempty"`
	Mood            string   `json:"mood,omitempty"`
}

// WarningSeverity ranks continuity warnings. High severity warnings make a
// transition invalid; lower severities are advisory.
type WarningSeverity string

const (
	SeverityHigh   WarningSeverity = "high"
	SeverityMedium WarningSeverity = "medium"
	SeverityLow    WarningSeverity = "low"
)

// ContinuityWarning flags a discontinuity between consecutive scenes.
type ContinuityWarning struct {
	Severity   WarningSeverity `json:"severity"`
	Message    string          `json:"message"`
	Suggestion string          `json:"suggestion,omitempty"`
}

// ContinuityReport is the outcome of validating the elements of two
// consecutive scenes against each other.
type ContinuityReport struct {
	Warnings []ContinuityWarning `json:"warnings"`
	IsValid  bool                `json:"is_valid"`
}

// PromptValidation is the coherence assessment of a refined prompt, either
// computed locally or returned by the remote agent.
type PromptValidation struct {
	IsValid         bool     `json:"is_valid"`
	IsCoherent      bool     `json:"is_coherent"`
	ConfidenceScore float64  `json:"confidence_score"`
	Issues          []string `json:"issues,omitempty"`
	Suggestions     []string `json:"suggestions,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

// RefinementOutcome tags how a refinement attempt concluded. The remote
// path can fail two distinct ways, and both select the deterministic
// fallback rather than failing the scene.
type RefinementOutcome string

const (
	// RefinementOk means the remote agent returned a usable payload.
	RefinementOk RefinementOutcome = "ok"
	// RefinementParseError means the remote agent responded but the payload
	// could not be decoded into the expected shape.
	RefinementParseError RefinementOutcome = "parse_error"
	// RefinementRemoteError means the remote call itself failed.
	RefinementRemoteError RefinementOutcome = "remote_error"
)

// Refinement source values recorded on every result.
const (
	RefinementSourceRemote        = "remote"
	RefinementSourceDeterministic = "deterministic"
)

// AgentRefinement is the JSON payload expected back from the remote
// refinement agent.
type AgentRefinement struct {
	OptimizedAction   string            `json:"optimized_action"`
	OptimizedEmotion  string            `json:"optimized_emotion"`
	OptimizedDialogue string            `json:"optimized_dialogue,omitempty"`
	TechnicalKeywords []string          `json:"technical_keywords,omitempty"`
	Validation        *PromptValidation `json:"validation,omitempty"`
}

// RefinementResult is the final product of the refinement subsystem for one
// scene: the prompt to send to the video model plus a record of which path
// produced it.
type RefinementResult struct {
	Outcome           RefinementOutcome `json:"outcome"`
	Source            string            `json:"source"`
	Prompt            string            `json:"prompt"`
	OptimizedAction   string            `json:"optimized_action,omitempty"`
	OptimizedEmotion  string            `json:"optimized_emotion,omitempty"`
	OptimizedDialogue string            `json:"optimized_dialogue,omitempty"`
	KeywordsAdded     []string          `json:"keywords_added,omitempty"`
	Validation        *PromptValidation `json:"validation,omitempty"`
}

// ProductionMode selects how a run moves between scenes: automatic runs
// straight through, manual approval pauses after every non-final scene
// until an operator releases it.
type ProductionMode string

const (
	ProductionModeAutomatic      ProductionMode = "automatic"
	ProductionModeManualApproval ProductionMode = "manual_approval"
)

// RequiresApproval reports whether the mode pauses between scenes. Any
// value other than manual_approval, including an absent mode, runs
// automatically.
func (m ProductionMode) RequiresApproval() bool {
	return m == ProductionModeManualApproval
}

// ProductionTrigger is the Pub/Sub message payload that starts a
// production run.
type ProductionTrigger struct {
	ProjectId string         `json:"project_id"`
	Mode      ProductionMode `json:"mode,omitempty"`
}
