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

// Package model defines the data structures for the application. This file
// holds the persistent records: the commercial Project with its ordered
// Scenes, and the Clips produced for those scenes. These are the structs
// written to and read from the production state store.
package model

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatus tracks a project through its production lifecycle.
type ProjectStatus string

const (
	ProjectStatusDraft      ProjectStatus = "draft"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusFailed     ProjectStatus = "failed"
)

// ClipStatus tracks an individual clip through generation.
type ClipStatus string

const (
	ClipStatusPending    ClipStatus = "pending"
	ClipStatusGenerating ClipStatus = "generating"
	ClipStatusCompleted  ClipStatus = "completed"
	ClipStatusFailed     ClipStatus = "failed"
)

// ContinuityMode selects how a scene anchors itself to its predecessor.
type ContinuityMode string

const (
	// ContinuityModeInitial generates the scene from the prompt alone.
	ContinuityModeInitial ContinuityMode = "initial"
	// ContinuityModeLastFrame conditions generation on the final frame of
	// the previous clip.
	ContinuityModeLastFrame ContinuityMode = "last_frame_reference"
	// ContinuityModeFirstLast conditions generation on both boundary
	// frames of the previous clip.
	ContinuityModeFirstLast ContinuityMode = "first_last_frames"
)

// Subject describes the on-camera talent for the commercial.
type Subject struct {
	Description     string `json:"description" bigquery:"description" toml:"description"`
	Wardrobe        string `json:"wardrobe,omitempty" bigquery:"wardrobe" toml:"wardrobe"`
	Characteristics string `json:"characteristics,omitempty" bigquery:"characteristics" toml:"characteristics"`
}

// Product describes the item the commercial is selling.
type Product struct {
	Name        string `json:"name" bigquery:"name" toml:"name"`
	Type        string `json:"type,omitempty" bigquery:"type" toml:"type"`
	Description string `json:"description,omitempty" bigquery:"description" toml:"description"`
	Attributes  string `json:"attributes,omitempty" bigquery:"attributes" toml:"attributes"`
}

// BrandGuidelines carries the visual identity applied at the highest
// refinement level.
type BrandGuidelines struct {
	Tone          string   `json:"tone,omitempty" bigquery:"tone" toml:"tone"`
	LightingStyle string   `json:"lighting_style,omitempty" bigquery:"lighting_style" toml:"lighting_style"`
	ColorPalette  []string `json:"color_palette,omitempty" bigquery:"color_palette" toml:"color_palette"`
	Keywords      []string `json:"keywords,omitempty" bigquery:"keywords" toml:"keywords"`
}

// RefinementSettings controls the prompt refinement subsystem per project.
// Level ranges 0-3: 0 substitutes template variables only, 1 adds emotion,
// 2 adds camera work, 3 adds brand lighting and the quality suffix.
type RefinementSettings struct {
	Enabled        bool `json:"enabled" bigquery:"enabled" toml:"enabled"`
	Level          int  `json:"level" bigquery:"level" toml:"level"`
	UseRemoteAgent bool `json:"use_remote_agent" bigquery:"use_remote_agent" toml:"use_remote_agent"`
}

// TechnicalSpecs pins the output format and the generation model.
type TechnicalSpecs struct {
	Resolution  string `json:"resolution,omitempty" bigquery:"resolution" toml:"resolution"`
	AspectRatio string `json:"aspect_ratio,omitempty" bigquery:"aspect_ratio" toml:"aspect_ratio"`
	Model       string `json:"model,omitempty" bigquery:"model" toml:"model"`
}

// CameraSpecs holds the cinematography directives for one scene.
type CameraSpecs struct {
	Angle       string `json:"angle,omitempty" bigquery:"angle" toml:"angle"`
	Movement    string `json:"movement,omitempty" bigquery:"movement" toml:"movement"`
	Speed       string `json:"speed,omitempty" bigquery:"speed" toml:"speed"`
	FocalLength string `json:"focal_length,omitempty" bigquery:"focal_length" toml:"focal_length"`
}

// Scene is one ordered shot of the commercial. PromptTemplate may contain
// {{variable}} placeholders resolved against Variables plus the project's
// subject and product.
type Scene struct {
	SceneId         string            `json:"scene_id" bigquery:"scene_id"`
	Name            string            `json:"name" bigquery:"name"`
	DurationSeconds int               `json:"duration_seconds" bigquery:"duration_seconds"`
	PromptTemplate  string            `json:"prompt_template" bigquery:"prompt_template"`
	Variables       map[string]string `json:"variables,omitempty" bigquery:"-"`
	Emotion         string            `json:"emotion,omitempty" bigquery:"emotion"`
	Camera          CameraSpecs       `json:"camera_specs,omitempty" bigquery:"camera_specs"`
	ActionDetails   string            `json:"action_details,omitempty" bigquery:"action_details"`
	ContinuityMode  ContinuityMode    `json:"continuity_mode" bigquery:"continuity_mode"`
	Status          ClipStatus        `json:"status,omitempty" bigquery:"status"`
	ClipId          string            `json:"clip_id,omitempty" bigquery:"clip_id"`
}

// FinalVideo records the assembled output of a completed production.
// GCSBucket and GCSObject locate the uploaded video for signed URL
// generation.
type FinalVideo struct {
	Path            string  `json:"path" bigquery:"path"`
	SizeBytes       int64   `json:"size_bytes" bigquery:"size_bytes"`
	DurationSeconds float64 `json:"duration_seconds" bigquery:"duration_seconds"`
	GCSBucket       string  `json:"gcs_bucket,omitempty" bigquery:"gcs_bucket"`
	GCSObject       string  `json:"gcs_object,omitempty" bigquery:"gcs_object"`
	Url             string  `json:"url,omitempty" bigquery:"url"`
}

// Project is the root record of a commercial production.
type Project struct {
	Id                 string             `json:"id" bigquery:"id"`
	Name               string             `json:"name" bigquery:"name"`
	Description        string             `json:"description,omitempty" bigquery:"description"`
	Status             ProjectStatus      `json:"status" bigquery:"status"`
	Subject            Subject            `json:"subject" bigquery:"subject"`
	Product            Product            `json:"product" bigquery:"product"`
	BrandGuidelines    BrandGuidelines    `json:"brand_guidelines" bigquery:"brand_guidelines"`
	RefinementSettings RefinementSettings `json:"refinement_settings" bigquery:"refinement_settings"`
	TechnicalSpecs     TechnicalSpecs     `json:"technical_specs" bigquery:"technical_specs"`
	Scenes             []*Scene           `json:"scenes" bigquery:"scenes"`
	FinalVideo         *FinalVideo        `json:"final_video,omitempty" bigquery:"final_video"`
	CreatedAt          time.Time          `json:"created_at" bigquery:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" bigquery:"updated_at"`
}

// NewProject creates a draft project with a fresh UUID and timestamps.
func NewProject(name string) *Project {
	now := time.Now().UTC()
	return &Project{
		Id:        uuid.New().String(),
		Name:      name,
		Status:    ProjectStatusDraft,
		Scenes:    make([]*Scene, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ClipGeneration captures how a clip was produced: the long-running
// operation name from the backend, the final prompt sent, and the model.
type ClipGeneration struct {
	OperationName   string `json:"operation_name,omitempty" bigquery:"operation_name"`
	Prompt          string `json:"prompt" bigquery:"prompt"`
	Model           string `json:"model" bigquery:"model"`
	DurationSeconds int    `json:"duration_seconds" bigquery:"duration_seconds"`
}

// ClipContinuity records the continuity anchoring used for a clip.
// PreviousClipId forms the chain that lets the pipeline walk backwards
// through a production; it is empty for the first clip.
type ClipContinuity struct {
	Mode           ContinuityMode `json:"mode" bigquery:"mode"`
	PreviousClipId string         `json:"previous_clip_id,omitempty" bigquery:"previous_clip_id"`
	ReferenceFrame string         `json:"reference_frame,omitempty" bigquery:"reference_frame"`
}

// ClipFile describes the downloaded clip artifact. Path points at the
// local scratch copy while the production runs; GCSBucket and GCSObject
// are set once the clip is archived to Cloud Storage.
type ClipFile struct {
	Path            string  `json:"path" bigquery:"path"`
	SizeBytes       int64   `json:"size_bytes" bigquery:"size_bytes"`
	DurationSeconds float64 `json:"duration_seconds" bigquery:"duration_seconds"`
	Resolution      string  `json:"resolution,omitempty" bigquery:"resolution"`
	GCSBucket       string  `json:"gcs_bucket,omitempty" bigquery:"gcs_bucket"`
	GCSObject       string  `json:"gcs_object,omitempty" bigquery:"gcs_object"`
}

// Clip is one generated video segment tied to a project scene.
type Clip struct {
	ClipId     string         `json:"clip_id" bigquery:"clip_id"`
	ProjectId  string         `json:"project_id" bigquery:"project_id"`
	SceneId    string         `json:"scene_id" bigquery:"scene_id"`
	Status     ClipStatus     `json:"status" bigquery:"status"`
	Generation ClipGeneration `json:"generation" bigquery:"generation"`
	Continuity ClipContinuity `json:"continuity" bigquery:"continuity"`
	File       *ClipFile      `json:"file,omitempty" bigquery:"file"`
	CreatedAt  time.Time      `json:"created_at" bigquery:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" bigquery:"updated_at"`
}

// NewClip creates a pending clip for the given project scene.
func NewClip(projectId string, sceneId string) *Clip {
	now := time.Now().UTC()
	return &Clip{
		ClipId:    uuid.New().String(),
		ProjectId: projectId,
		SceneId:   sceneId,
		Status:    ClipStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
