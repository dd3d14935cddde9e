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

// This file defines the command that asks a vision model to describe the
// last frame of a generated clip. The structured answer feeds the
// continuity engine, which turns it into the visual contract the next
// scene must honor.
//
// Logic Flow:
//  1. Read the extracted frame image from disk.
//  2. Build the analysis prompt from the configured template, embedding a
//     well-formed example of the expected JSON (few-shot prompting).
//  3. Send the image bytes and the prompt to the vision model in one
//     multi-modal request with retries and token telemetry.
//  4. Parse the JSON response into a FrameAnalysis and publish it.
package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"text/template"

	"go.opentelemetry.io/otel/metric"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
	"google.golang.org/genai"
)

// FrameAnalyze describes a clip's last frame with a generative vision
// model.
type FrameAnalyze struct {
	cor.BaseCommand
	generativeAIModel        *cloud.QuotaAwareGenerativeAIModel
	template                 *template.Template
	geminiInputTokenCounter  metric.Int64Counter
	geminiOutputTokenCounter metric.Int64Counter
	geminiRetryCounter       metric.Int64Counter
}

// NewFrameAnalyze is the constructor for the FrameAnalyze command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - generativeAIModel: The rate-limited wrapper for the vision model.
//   - template: A parsed Go template for the analysis prompt.
func NewFrameAnalyze(
	name string,
	generativeAIModel *cloud.QuotaAwareGenerativeAIModel,
	template *template.Template) *FrameAnalyze {

	out := &FrameAnalyze{
		BaseCommand:       *cor.NewBaseCommand(name),
		generativeAIModel: generativeAIModel,
		template:          template}

	out.geminiInputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", out.GetName()))
	out.geminiOutputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", out.GetName()))
	out.geminiRetryCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.retry", out.GetName()))

	return out
}

// IsExecutable requires the extracted frame path on the context.
func (c *FrameAnalyze) IsExecutable(context cor.Context) bool {
	if context == nil {
		return false
	}
	frame, ok := context.Get(CtxReferenceFrame).(string)
	return ok && frame != ""
}

// GenerateParams creates the dynamic data for the prompt template. The
// example JSON anchors the model on the exact field names the parser
// expects.
func (c *FrameAnalyze) GenerateParams(_ cor.Context) map[string]interface{} {
	params := make(map[string]interface{})
	exampleAnalysis, _ := json.Marshal(model.GetExampleFrameAnalysis())
	params["EXAMPLE_JSON"] = string(exampleAnalysis)
	return params
}

// Execute sends the frame to the vision model and publishes the parsed
// analysis.
func (c *FrameAnalyze) Execute(context cor.Context) {
	framePath := context.Get(CtxReferenceFrame).(string)

	imageBytes, err := os.ReadFile(framePath)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to read frame %s: %w", framePath, err))
		return
	}

	var buffer bytes.Buffer
	if err := c.template.Execute(&buffer, c.GenerateParams(context)); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to execute prompt template: %w", err))
		return
	}

	contents := []*genai.Content{
		{Parts: []*genai.Part{
			{Text: buffer.String()},
			{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: imageBytes}},
		},
			Role: "user"},
	}

	out, err := cloud.GenerateMultiModalResponse(context.GetContext(), c.geminiInputTokenCounter, c.geminiOutputTokenCounter, c.geminiRetryCounter, 0, c.generativeAIModel, contents)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("frame analysis request failed: %w", err))
		return
	}

	analysis := &model.FrameAnalysis{}
	if err := json.Unmarshal([]byte(out), analysis); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to parse frame analysis response: %w", err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(CtxFrameAnalysis, analysis)
	context.Add(c.GetOutputParam(), analysis)
}
