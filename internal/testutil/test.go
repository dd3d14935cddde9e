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

// Package test provides utility functions and fixture data to support the
// application's test suite: a cached test configuration and sample
// projects for workflow and store tests.
package test

import (
	"log"
	"os"
	"testing"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
)

// StateManager caches the loaded configuration so the TOML files are read
// once per test run.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is non-nil. Reduces boilerplate in
// table-driven tests.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("Error reading config file: %v", err)
	}
}

// GetTestTriggerMessageText returns a JSON payload simulating a Pub/Sub
// production trigger message.
func GetTestTriggerMessageText() string {
	return `{"project_id": "test-project-001", "mode": "automatic"}`
}

// GetTestProject returns a three-scene perfume commercial project used
// across the workflow and store tests. Scene one is an establishing shot,
// scene two continues from its last frame, scene three is the product
// reveal.
func GetTestProject() *model.Project {
	project := model.NewProject("Midnight Essence Launch")
	project.Id = "test-project-001"
	project.Description = "30 second commercial for the Midnight Essence perfume launch"
	project.Subject = model.Subject{
		Description: "an elegant woman in her early thirties with dark hair",
		Wardrobe:    "black evening dress",
	}
	project.Product = model.Product{
		Name:        "Midnight Essence",
		Type:        "perfume",
		Description: "a crystal perfume bottle with a silver cap",
		Attributes:  "crystal, silver, refined",
	}
	project.BrandGuidelines = model.BrandGuidelines{
		Tone:          "luxury",
		LightingStyle: "soft golden hour light",
		ColorPalette:  []string{"gold", "black", "deep blue"},
		Keywords:      []string{"elegant", "timeless"},
	}
	project.RefinementSettings = model.RefinementSettings{
		Enabled:        true,
		Level:          3,
		UseRemoteAgent: false,
	}
	project.TechnicalSpecs = model.TechnicalSpecs{
		Resolution:  "1080p",
		AspectRatio: "16:9",
		Model:       "veo-3.1",
	}
	project.Scenes = []*model.Scene{
		{
			SceneId:         "scene-001",
			Name:            "Opening atmosphere",
			DurationSeconds: 8,
			PromptTemplate:  "{{subject}} walks through a moonlit garden, {{mood}} atmosphere",
			Variables:       map[string]string{"mood": "mysterious"},
			Emotion:         "mystery",
			Camera:          model.CameraSpecs{Angle: "wide", Movement: "dolly", Speed: "slow"},
			ActionDetails:   "she walks slowly between rose bushes under moonlight",
			ContinuityMode:  model.ContinuityModeInitial,
		},
		{
			SceneId:         "scene-002",
			Name:            "Close up moment",
			DurationSeconds: 8,
			PromptTemplate:  "{{subject}} pauses and looks toward the camera",
			Emotion:         "confidence",
			Camera:          model.CameraSpecs{Angle: "close-up", Movement: "static", FocalLength: "85mm"},
			ActionDetails:   "she pauses, turns, and meets the camera with a knowing look",
			ContinuityMode:  model.ContinuityModeLastFrame,
		},
		{
			SceneId:         "scene-003",
			Name:            "Product reveal",
			DurationSeconds: 8,
			PromptTemplate:  "{{product}} appears in her hand, catching the light",
			Emotion:         "elegance",
			Camera:          model.CameraSpecs{Angle: "macro", Movement: "zoom", Speed: "slow"},
			ActionDetails:   "the perfume bottle rises into frame, light refracting through the crystal",
			ContinuityMode:  model.ContinuityModeLastFrame,
		},
	}
	return project
}

// SetupOS points the configuration loader at the test TOML files under
// configs/.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is the singleton accessor for the test configuration.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}
