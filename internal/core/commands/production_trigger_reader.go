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

// Package commands provides the concrete Chain of Responsibility command
// implementations that make up the production pipeline. This file defines
// the entry command for Pub/Sub-triggered productions: it parses the
// trigger message into a typed struct for the command that starts the run.
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
)

// ProductionTriggerReader parses a production trigger message into a
// model.ProductionTrigger.
type ProductionTriggerReader struct {
	cor.BaseCommand
}

// NewProductionTriggerReader creates the trigger parsing command.
func NewProductionTriggerReader(name string) *ProductionTriggerReader {
	return &ProductionTriggerReader{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute decodes the raw message JSON and pipes the typed trigger to the
// next command.
func (c *ProductionTriggerReader) Execute(context cor.Context) {
	in := context.Get(c.GetInputParam()).(string)

	var trigger model.ProductionTrigger
	if err := json.Unmarshal([]byte(in), &trigger); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to unmarshal production trigger: %w", err))
		return
	}
	if trigger.ProjectId == "" {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("production trigger missing project_id"))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), &trigger)
}
