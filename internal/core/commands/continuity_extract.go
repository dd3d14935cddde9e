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

// This file defines the command that converts a frame analysis into
// trackable continuity elements and checks them against the elements
// carried over from the previous scene. Warnings are advisory: a drifted
// background dims the log, it does not fail the production.
package commands

import (
	"log/slog"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/continuity"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
)

// ContinuityExtract derives the continuity elements for the next scene.
type ContinuityExtract struct {
	cor.BaseCommand
	engine *continuity.Engine
}

// NewContinuityExtract creates the extraction command.
func NewContinuityExtract(name string) *ContinuityExtract {
	return &ContinuityExtract{BaseCommand: *cor.NewBaseCommand(name), engine: continuity.NewEngine()}
}

// IsExecutable requires the frame analysis on the context.
func (c *ContinuityExtract) IsExecutable(context cor.Context) bool {
	if context == nil {
		return false
	}
	_, ok := context.Get(CtxFrameAnalysis).(*model.FrameAnalysis)
	return ok
}

// Execute extracts the elements, validates them against the previous
// scene's contract when one exists, and publishes the new element set.
func (c *ContinuityExtract) Execute(context cor.Context) {
	analysis := context.Get(CtxFrameAnalysis).(*model.FrameAnalysis)

	elements := c.engine.Extract(analysis)

	if previous, ok := context.Get(CtxContinuityElements).([]model.ContinuityElement); ok && len(previous) > 0 {
		report := c.engine.Validate(previous, elements)
		for _, warning := range report.Warnings {
			slog.Warn("continuity drift detected",
				"severity", string(warning.Severity),
				"message", warning.Message,
				"suggestion", warning.Suggestion)
		}
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(CtxContinuityElements, elements)
	context.Add(c.GetOutputParam(), elements)
}
