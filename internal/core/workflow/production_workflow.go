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

// Package workflow defines the high-level business logic orchestrations,
// combining the pipeline commands into coherent chains. This file
// implements the production workflow: the strictly sequential run that
// turns a project's scenes into clips and the clips into the final
// commercial.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"text/template"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/commands"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/generation"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/prompt"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/store"
)

// ProductionWorkflow orchestrates one full production run:
//
//	for each scene, in order:
//	  refine prompt -> generate clip -> download -> persist -> archive ->
//	  extract last frame -> analyze frame -> extract continuity
//	  (manual-approval runs suspend here before the next scene)
//	then: assemble final video.
//
// Scenes run strictly one after another because scene N+1's continuity
// anchor is scene N's last frame. The workflow is also a cor.Command so a
// Pub/Sub listener can drive it directly from trigger messages.
type ProductionWorkflow struct {
	cor.BaseCommand
	config        *cloud.Config
	store         store.ProductionStore
	status        *store.StatusBoard
	approvals     *ApprovalGate
	generator     generation.Generator
	storageClient *storage.Client
	agentModel    *cloud.QuotaAwareGenerativeAIModel
	frameModel    *cloud.QuotaAwareGenerativeAIModel
	frameTemplate *template.Template
	ffmpegPath    string
	buildScene    func(project *model.Project) cor.Chain
	buildAssemble func() cor.Command
}

// NewProductionWorkflow is the constructor for the ProductionWorkflow. It
// resolves the configured models and compiles the frame analysis prompt
// template.
//
// Inputs:
//   - config: the application's overall configuration.
//   - serviceClients: initialized clients for GCP services.
//   - productionStore: the persistence layer for projects and clips.
//   - statusBoard: the live status table and single-flight guard.
//   - approvals: the gate that suspends runs before final assembly.
//   - refinementAgentName: AgentModels key for the prompt refinement agent.
//   - frameAgentName: AgentModels key for the frame analysis vision model.
//   - videoModelName: VideoGenerators key for the generation backend.
//   - ffmpegPath: path to the ffmpeg executable.
func NewProductionWorkflow(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	productionStore store.ProductionStore,
	statusBoard *store.StatusBoard,
	approvals *ApprovalGate,
	refinementAgentName string,
	frameAgentName string,
	videoModelName string,
	ffmpegPath string) *ProductionWorkflow {

	frameTemplate, err := template.New("frame-analysis-template").Parse(config.PromptTemplates.FrameAnalysis)
	if err != nil {
		panic(err)
	}

	generator, ok := serviceClients.VideoGenerators[videoModelName]
	if !ok {
		panic(fmt.Sprintf("video model %s is not configured", videoModelName))
	}

	w := &ProductionWorkflow{
		BaseCommand:   *cor.NewBaseCommand("production-workflow"),
		config:        config,
		store:         productionStore,
		status:        statusBoard,
		approvals:     approvals,
		generator:     generator,
		storageClient: serviceClients.StorageClient,
		agentModel:    serviceClients.AgentModels[refinementAgentName],
		frameModel:    serviceClients.AgentModels[frameAgentName],
		frameTemplate: frameTemplate,
		ffmpegPath:    ffmpegPath,
	}
	w.buildScene = w.buildSceneChain
	w.buildAssemble = func() cor.Command {
		return commands.NewAssembleFinal(
			"assemble-final-video",
			w.ffmpegPath,
			w.config.Storage.WorkDir,
			w.storageClient,
			w.store,
			w.config.Storage.FinalVideoBucket)
	}
	return w
}

// NewProductionWorkflowFromParts wires a workflow from explicit
// collaborators: the caller supplies the scene chain and assembly step
// instead of the cloud clients they are normally built from. Local runs
// and tests use this to drive the orchestrator without GCP access.
func NewProductionWorkflowFromParts(
	productionStore store.ProductionStore,
	statusBoard *store.StatusBoard,
	approvals *ApprovalGate,
	sceneChain func(project *model.Project) cor.Chain,
	assemble func() cor.Command) *ProductionWorkflow {

	return &ProductionWorkflow{
		BaseCommand:   *cor.NewBaseCommand("production-workflow"),
		store:         productionStore,
		status:        statusBoard,
		approvals:     approvals,
		buildScene:    sceneChain,
		buildAssemble: assemble,
	}
}

// Execute lets the workflow serve as a step behind a Pub/Sub listener
// chain, downstream of the trigger reader: it receives the parsed
// trigger and runs the production. A trigger for a project that is
// already running is acked without error, since redelivering it could
// never succeed.
func (w *ProductionWorkflow) Execute(context cor.Context) {
	trigger, ok := context.Get(w.GetInputParam()).(*model.ProductionTrigger)
	if !ok {
		w.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(w.GetName(), fmt.Errorf("expected a production trigger as input"))
		return
	}

	if err := w.Run(context.GetContext(), trigger.ProjectId, trigger.Mode); err != nil {
		if errors.Is(err, store.ErrProductionAlreadyRunning) {
			slog.Warn("ignoring duplicate production trigger", "project", trigger.ProjectId)
			return
		}
		w.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(w.GetName(), err)
		return
	}
	w.GetSuccessCounter().Add(context.GetContext(), 1)
}

// Run executes the full production for one project in the given mode. It
// returns store.ErrProductionAlreadyRunning when a run for the project is
// in flight; any other error means the project was marked failed.
func (w *ProductionWorkflow) Run(ctx context.Context, projectId string, mode model.ProductionMode) error {
	project, err := w.loadProject(ctx, projectId)
	if err != nil {
		return err
	}
	if _, err := w.status.Begin(project.Id, len(project.Scenes)); err != nil {
		return err
	}
	return w.run(ctx, project, mode)
}

// Start claims the project synchronously, so callers see the conflict
// immediately, then runs the production in the background. The API layer
// uses this for trigger requests that must return before the run ends.
func (w *ProductionWorkflow) Start(ctx context.Context, projectId string, mode model.ProductionMode) (store.ProductionStatus, error) {
	project, err := w.loadProject(ctx, projectId)
	if err != nil {
		return store.ProductionStatus{}, err
	}
	status, err := w.status.Begin(project.Id, len(project.Scenes))
	if err != nil {
		return store.ProductionStatus{}, err
	}

	go func() {
		if err := w.run(ctx, project, mode); err != nil {
			slog.Error("production run failed", "project", project.Id, "error", err)
		}
	}()
	return *status, nil
}

// loadProject fetches the project and checks it can be produced.
func (w *ProductionWorkflow) loadProject(ctx context.Context, projectId string) (*model.Project, error) {
	project, err := w.store.GetProject(ctx, projectId)
	if err != nil {
		return nil, fmt.Errorf("failed to load project %s: %w", projectId, err)
	}
	if len(project.Scenes) == 0 {
		return nil, fmt.Errorf("project %s has no scenes to produce", projectId)
	}
	return project, nil
}

// run is the production body. The caller must already hold the status
// board claim for the project.
func (w *ProductionWorkflow) run(ctx context.Context, project *model.Project, mode model.ProductionMode) error {
	// One chain context for the whole run. Downloaded clips and extracted
	// frames are registered on it as temp files, so this defer guarantees
	// the scratch directory is clean on every exit path.
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	defer chainCtx.Close()

	if err := w.store.UpdateProjectStatus(ctx, project.Id, model.ProjectStatusInProgress); err != nil {
		return w.fail(ctx, project.Id, fmt.Errorf("failed to mark project in progress: %w", err))
	}

	sceneChain := w.buildScene(project)

	var previousClip *model.Clip
	for i, scene := range project.Scenes {
		sceneName := scene.Name
		w.status.Update(project.Id, func(status *store.ProductionStatus) {
			status.CurrentScene = i + 1
			status.Message = fmt.Sprintf("generating scene: %s", sceneName)
		})

		clip, err := w.runScene(chainCtx, sceneChain, project, scene, i, previousClip)
		if err != nil {
			return w.fail(ctx, project.Id, fmt.Errorf("scene %s failed: %w", scene.SceneId, err))
		}
		previousClip = clip

		// Manual-approval runs pause after every scene but the last, so
		// an operator reviews each clip before the next one builds on it.
		if mode.RequiresApproval() && i < len(project.Scenes)-1 {
			w.status.Update(project.Id, func(status *store.ProductionStatus) {
				status.State = store.StateAwaitingApproval
				status.Message = fmt.Sprintf("scene complete: %s, awaiting approval", sceneName)
			})
			slog.Info("production suspended for approval", "project", project.Id, "scene", scene.SceneId)

			if err := w.approvals.Wait(ctx, project.Id); err != nil {
				return w.fail(ctx, project.Id, err)
			}

			w.status.Update(project.Id, func(status *store.ProductionStatus) {
				status.State = store.StateRunning
				status.Message = "approved, continuing production"
			})
		}
	}

	assemble := w.buildAssemble()
	chainCtx.Add(commands.CtxProject, project)
	assemble.Execute(chainCtx)
	if chainCtx.HasErrors() {
		return w.fail(ctx, project.Id, firstError(chainCtx))
	}

	if err := w.store.UpdateProjectStatus(ctx, project.Id, model.ProjectStatusCompleted); err != nil {
		return w.fail(ctx, project.Id, fmt.Errorf("failed to mark project completed: %w", err))
	}
	w.status.Finish(project.Id, store.StateFinished, "production complete")
	slog.Info("production complete", "project", project.Id, "scenes", len(project.Scenes))
	return nil
}

// Approve releases a run suspended at the approval gate.
func (w *ProductionWorkflow) Approve(projectId string) bool {
	return w.approvals.Approve(projectId)
}

// buildSceneChain assembles the per-scene command chain. The chain is
// built per run because the refinement agent is a per-project choice.
func (w *ProductionWorkflow) buildSceneChain(project *model.Project) cor.Chain {
	var agent prompt.TextGenerator
	if project.RefinementSettings.UseRemoteAgent && w.agentModel != nil {
		agent = w.agentModel
	}
	refiner := prompt.NewRefiner(agent, project.TechnicalSpecs.Model)

	chain := cor.NewBaseChain("scene-production")
	chain.AddCommand(commands.NewPromptRefine("refine-scene-prompt", refiner))
	chain.AddCommand(commands.NewClipGenerate("generate-clip", w.generator))
	chain.AddCommand(commands.NewClipDownload("download-clip", w.generator, w.config.Storage.WorkDir))
	chain.AddCommand(commands.NewClipPersist("persist-clip", w.store))
	chain.AddCommand(commands.NewGCSClipUpload("archive-clip", w.storageClient, w.store, w.config.Storage.ClipBucket))
	chain.AddCommand(commands.NewFrameExtract("extract-last-frame", w.ffmpegPath, w.config.Storage.WorkDir))
	chain.AddCommand(commands.NewFrameAnalyze("analyze-last-frame", w.frameModel, w.frameTemplate))
	chain.AddCommand(commands.NewContinuityExtract("extract-continuity"))
	return chain
}

// runScene seeds the context for one scene and executes the scene chain.
// The continuity keys written by scene N's tail commands stay on the
// context and become scene N+1's inputs.
func (w *ProductionWorkflow) runScene(
	chainCtx cor.Context,
	sceneChain cor.Chain,
	project *model.Project,
	scene *model.Scene,
	index int,
	previousClip *model.Clip) (*model.Clip, error) {

	chainCtx.Add(commands.CtxProject, project)
	chainCtx.Add(commands.CtxScene, scene)
	chainCtx.Add(commands.CtxSceneIndex, index)
	chainCtx.Remove(commands.CtxClip)
	chainCtx.Remove(commands.CtxRefinement)
	chainCtx.Remove(commands.CtxFrameAnalysis)
	if previousClip != nil {
		chainCtx.Add(commands.CtxPreviousClip, previousClip)
	} else {
		chainCtx.Remove(commands.CtxPreviousClip)
		chainCtx.Remove(commands.CtxContinuityElements)
		chainCtx.Remove(commands.CtxReferenceFrame)
	}

	sceneChain.Execute(chainCtx)

	if chainCtx.HasErrors() {
		err := firstError(chainCtx)
		// Best effort: record the failed clip so the project's history
		// shows which scene broke and why generation stopped. The clip may
		// or may not have reached the persist step before failing.
		failedClipId := ""
		if clip, ok := chainCtx.Get(commands.CtxClip).(*model.Clip); ok && clip.Status == model.ClipStatusFailed {
			failedClipId = clip.ClipId
			persistErr := w.store.UpdateClip(chainCtx.GetContext(), clip)
			if errors.Is(persistErr, store.ErrClipNotFound) {
				persistErr = w.store.CreateClip(chainCtx.GetContext(), clip)
			}
			if persistErr != nil {
				slog.Warn("failed to persist failed clip", "clip", clip.ClipId, "error", persistErr)
			}
		}
		scene.Status = model.ClipStatusFailed
		if statusErr := w.store.UpdateSceneStatus(chainCtx.GetContext(), project.Id, scene.SceneId, model.ClipStatusFailed, failedClipId); statusErr != nil {
			slog.Warn("failed to mark scene failed", "scene", scene.SceneId, "error", statusErr)
		}
		return nil, err
	}

	clip, ok := chainCtx.Get(commands.CtxClip).(*model.Clip)
	if !ok {
		return nil, fmt.Errorf("scene chain produced no clip for scene %s", scene.SceneId)
	}
	return clip, nil
}

// fail marks the project and the live status failed, then returns the
// causing error for the caller to propagate.
func (w *ProductionWorkflow) fail(ctx context.Context, projectId string, cause error) error {
	slog.Error("production failed", "project", projectId, "error", cause)
	if err := w.store.UpdateProjectStatus(ctx, projectId, model.ProjectStatusFailed); err != nil {
		slog.Warn("failed to mark project failed", "project", projectId, "error", err)
	}
	w.status.Finish(projectId, store.StateFailed, cause.Error())
	return cause
}

// firstError extracts one representative error from the chain context.
func firstError(chainCtx cor.Context) error {
	for name, err := range chainCtx.GetErrors() {
		return fmt.Errorf("%s: %w", name, err)
	}
	return fmt.Errorf("chain failed without a recorded error")
}
