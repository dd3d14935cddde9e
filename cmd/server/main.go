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

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/continuity"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/prompt"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/store"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/telemetry"
)

func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	_, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()

	// Add OpenTelemetry middleware
	r.Use(otelgin.Middleware("commercial-studio-server"))

	// Default CORS configuration: allows all origins, methods, and
	// headers, which suits local development with a separate frontend.
	r.Use(cors.Default())

	// Create the "/api/v1" group
	apiV1 := r.Group("/api/v1")
	{
		ProjectRouter(apiV1)
		ProductionRouter(ctx, apiV1)
		ClipRouter(apiV1)
		PromptRouter(apiV1)
		ContinuityRouter(apiV1)
	}

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	// Start the server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen", "error", err)
		}
	}()
	slog.Info("Server Ready on port 8080")

	// Wait for an interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// ProjectRouter sets up the routes for creating and reading projects.
func ProjectRouter(r *gin.RouterGroup) {
	projects := r.Group("/projects")
	{
		projects.POST("", func(c *gin.Context) {
			var in model.Project
			if err := c.ShouldBindJSON(&in); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			project := model.NewProject(in.Name)
			project.Description = in.Description
			project.Subject = in.Subject
			project.Product = in.Product
			project.BrandGuidelines = in.BrandGuidelines
			project.RefinementSettings = in.RefinementSettings
			project.TechnicalSpecs = in.TechnicalSpecs
			project.Scenes = in.Scenes

			if err := state.productionService.CreateProject(c, project); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create project"})
				return
			}
			c.JSON(http.StatusCreated, project)
		})

		projects.GET("/:id", func(c *gin.Context) {
			out, err := state.productionService.GetProject(c, c.Param("id"))
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
				return
			}
			c.JSON(http.StatusOK, out)
		})

		projects.PUT("/:id", func(c *gin.Context) {
			var in model.Project
			if err := c.ShouldBindJSON(&in); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			in.Id = c.Param("id")
			if err := state.productionService.UpdateProject(c, &in); err != nil {
				if errors.Is(err, store.ErrProjectNotFound) {
					c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update project"})
				return
			}
			c.JSON(http.StatusOK, in)
		})

		projects.GET("/:id/clips", func(c *gin.Context) {
			out, err := state.productionService.ListClips(c, c.Param("id"))
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list clips"})
				return
			}
			c.JSON(http.StatusOK, out)
		})

		// Signed URL for streaming the assembled commercial, valid for
		// 15 minutes.
		projects.GET("/:id/video", func(c *gin.Context) {
			signedURL, err := state.productionService.SignedFinalVideoURL(c, c.Param("id"), 15*time.Minute)
			if err != nil {
				if errors.Is(err, store.ErrProjectNotFound) {
					c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
					return
				}
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"url": signedURL})
		})
	}
}

// ProductionRouter sets up the routes that start, observe, and approve
// production runs.
func ProductionRouter(serverCtx context.Context, r *gin.RouterGroup) {
	productions := r.Group("/productions")
	{
		productions.POST("", func(c *gin.Context) {
			var trigger model.ProductionTrigger
			if err := c.ShouldBindJSON(&trigger); err != nil || trigger.ProjectId == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "project_id is required"})
				return
			}

			project, err := state.productionService.GetProject(c, trigger.ProjectId)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
				return
			}

			// The run outlives this request, so it gets the server context
			// rather than the request context. The claim itself happens
			// synchronously so a duplicate trigger gets a conflict.
			status, err := state.production.Start(serverCtx, project.Id, trigger.Mode)
			if err != nil {
				if errors.Is(err, store.ErrProductionAlreadyRunning) {
					c.JSON(http.StatusConflict, gin.H{"error": "production already running for project"})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusAccepted, status)
		})

		productions.GET("/:id", func(c *gin.Context) {
			status, ok := state.statusBoard.Get(c.Param("id"))
			if ok {
				c.JSON(http.StatusOK, status)
				return
			}

			// The board only covers this process's lifetime. Fall back to
			// the stored project so completed runs stay observable after a
			// restart.
			project, err := state.productionService.GetProject(c, c.Param("id"))
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "no production found for project"})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"project_id": project.Id,
				"state":      project.Status,
				"message":    "no live production, reporting stored project status",
			})
		})

		productions.POST("/:id/approve", func(c *gin.Context) {
			projectId := c.Param("id")
			if !state.production.Approve(projectId) {
				c.JSON(http.StatusConflict, gin.H{"error": "production is not awaiting approval"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"project_id": projectId, "approved": true})
		})
	}
}

// ClipRouter sets up the routes for reading individual clips.
func ClipRouter(r *gin.RouterGroup) {
	clips := r.Group("/clips")
	{
		clips.GET("/:id", func(c *gin.Context) {
			out, err := state.productionService.GetClip(c, c.Param("id"))
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "clip not found"})
				return
			}
			c.JSON(http.StatusOK, out)
		})

		// Signed URL for streaming one archived clip, valid for 15
		// minutes.
		clips.GET("/:id/url", func(c *gin.Context) {
			signedURL, err := state.productionService.SignedClipURL(c, c.Param("id"), 15*time.Minute)
			if err != nil {
				if errors.Is(err, store.ErrClipNotFound) {
					c.JSON(http.StatusNotFound, gin.H{"error": "clip not found"})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate streaming URL"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"url": signedURL})
		})
	}
}

// PromptRouter exposes the refinement subsystem directly so clients can
// preview the prompt a scene would generate with.
func PromptRouter(r *gin.RouterGroup) {
	prompts := r.Group("/prompts")
	{
		prompts.POST("/refine", func(c *gin.Context) {
			var in struct {
				ProjectId string `json:"project_id"`
				SceneId   string `json:"scene_id"`
			}
			if err := c.ShouldBindJSON(&in); err != nil || in.ProjectId == "" || in.SceneId == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "project_id and scene_id are required"})
				return
			}

			project, err := state.productionService.GetProject(c, in.ProjectId)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
				return
			}

			generator := prompt.NewGenerator(project)
			scene, err := generator.FindScene(in.SceneId)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "scene not found"})
				return
			}

			level := project.RefinementSettings.Level
			if !project.RefinementSettings.Enabled {
				level = prompt.LevelBasic
			}

			var agent prompt.TextGenerator
			if project.RefinementSettings.UseRemoteAgent {
				if m, ok := state.cloud.AgentModels[RefinementAgentName]; ok {
					agent = m
				}
			}
			refiner := prompt.NewRefiner(agent, project.TechnicalSpecs.Model)
			result := refiner.Refine(c, &prompt.RefineRequest{
				BasePrompt:  generator.RenderScene(scene, level),
				Action:      scene.ActionDetails,
				Emotion:     scene.Emotion,
				ProductTone: project.BrandGuidelines.Tone,
				Camera:      &scene.Camera,
			})
			c.JSON(http.StatusOK, result)
		})
	}
}

// ContinuityRouter exposes continuity validation so clients can check two
// frame analyses against each other without running a production.
func ContinuityRouter(r *gin.RouterGroup) {
	engine := continuity.NewEngine()
	group := r.Group("/continuity")
	{
		group.POST("/validate", func(c *gin.Context) {
			var in struct {
				Previous []model.ContinuityElement `json:"previous"`
				Current  []model.ContinuityElement `json:"current"`
			}
			if err := c.ShouldBindJSON(&in); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, engine.Validate(in.Previous, in.Current))
		})
	}
}
