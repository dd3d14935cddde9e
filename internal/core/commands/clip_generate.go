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

// This file defines the command that runs the completion-polling
// conversation with the video backend for one scene: submit the refined
// prompt, then block on the long-running operation until the clip exists.
package commands

import (
	"fmt"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/generation"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
)

// ClipGenerate submits a scene's generation request and awaits its
// completion.
type ClipGenerate struct {
	cor.BaseCommand
	generator generation.Generator
}

// NewClipGenerate creates the generation command over any backend that
// honors the completion-polling contract.
func NewClipGenerate(name string, generator generation.Generator) *ClipGenerate {
	return &ClipGenerate{BaseCommand: *cor.NewBaseCommand(name), generator: generator}
}

// IsExecutable requires the refinement result plus the staged project and
// scene.
func (c *ClipGenerate) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(CtxRefinement) != nil &&
		context.Get(CtxProject) != nil && context.Get(CtxScene) != nil
}

// Execute creates the pending clip record, submits the generation, and
// waits for the operation to complete. The clip leaves this command in
// the generating state carrying its operation name; download and
// persistence happen downstream.
func (c *ClipGenerate) Execute(context cor.Context) {
	project := context.Get(CtxProject).(*model.Project)
	scene := context.Get(CtxScene).(*model.Scene)
	refinement := context.Get(CtxRefinement).(*model.RefinementResult)

	clip := model.NewClip(project.Id, scene.SceneId)
	clip.Generation = model.ClipGeneration{
		Prompt:          refinement.Prompt,
		Model:           project.TechnicalSpecs.Model,
		DurationSeconds: scene.DurationSeconds,
	}
	clip.Continuity.Mode = scene.ContinuityMode

	request := &generation.Request{
		Prompt:          refinement.Prompt,
		Model:           project.TechnicalSpecs.Model,
		DurationSeconds: scene.DurationSeconds,
		AspectRatio:     project.TechnicalSpecs.AspectRatio,
		Resolution:      project.TechnicalSpecs.Resolution,
	}

	// Continuation scenes anchor on the previous clip's last frame and
	// record the clip chain. An initial-mode scene takes neither, even
	// when a previous clip exists.
	if scene.ContinuityMode != model.ContinuityModeInitial {
		if frame, ok := context.Get(CtxReferenceFrame).(string); ok && frame != "" {
			request.ReferenceImagePath = frame
			clip.Continuity.ReferenceFrame = frame
		}
		if previous, ok := context.Get(CtxPreviousClip).(*model.Clip); ok && previous != nil {
			clip.Continuity.PreviousClipId = previous.ClipId
		}
	}

	job, err := c.generator.Submit(context.GetContext(), request)
	if err != nil {
		c.failClip(context, clip, fmt.Errorf("failed to submit generation for scene %s: %w", scene.SceneId, err))
		return
	}
	clip.Status = model.ClipStatusGenerating
	clip.Generation.OperationName = job.OperationName

	completed, err := c.generator.AwaitCompletion(context.GetContext(), job)
	if err != nil {
		c.failClip(context, clip, fmt.Errorf("generation did not complete for scene %s: %w", scene.SceneId, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(CtxClip, clip)
	context.Add(c.GetOutputParam(), completed)
}

// failClip records the failure and leaves the failed clip on the context
// so the workflow can persist the terminal state.
func (c *ClipGenerate) failClip(context cor.Context, clip *model.Clip, err error) {
	clip.Status = model.ClipStatusFailed
	context.Add(CtxClip, clip)
	c.GetErrorCounter().Add(context.GetContext(), 1)
	context.AddError(c.GetName(), err)
}
