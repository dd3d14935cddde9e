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
	"log"
	"os"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/commands"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/services"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/store"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/workflow"
)

// Logical names used to look up configured resources. The TOML config
// must define entries under these keys.
const (
	RefinementAgentName   = "refinement-agent"
	FrameAnalysisAgent    = "frame-analysis-agent"
	VideoModelName        = "veo"
	ProductionTriggerName = "ProductionTrigger"
	FfmpegPath            = "ffmpeg"
)

// StateManager holds the shared components for the application.
type StateManager struct {
	config            *cloud.Config
	cloud             *cloud.ServiceClients
	productionStore   store.ProductionStore
	statusBoard       *store.StatusBoard
	approvals         *workflow.ApprovalGate
	productionService *services.ProductionService
	production        *workflow.ProductionWorkflow
}

// state manages the application's dependencies.
var state = &StateManager{}

func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os environment: %v\n", err)
		}
		// Create a default cloud config
		config := cloud.NewConfig()
		// Load it from the TOML files
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState builds the full dependency graph: cloud clients, the
// production store, the live status board, the approval gate, the read
// service behind the API, and the production workflow itself.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.cloud = cloudClients

	state.productionStore = store.NewBigQueryStore(
		cloudClients.BigQueryClient,
		config.BigQueryDataSource.DatasetName,
		config.BigQueryDataSource.ProjectTable,
		config.BigQueryDataSource.ClipTable)
	state.statusBoard = store.NewStatusBoard()
	state.approvals = workflow.NewApprovalGate()

	state.productionService = &services.ProductionService{
		Store:         state.productionStore,
		StorageClient: cloudClients.StorageClient,
		IAMClient:     cloudClients.IAMClient,
		SignerEmail:   config.Application.SignerServiceAccountEmail,
	}

	state.production = workflow.NewProductionWorkflow(
		config,
		cloudClients,
		state.productionStore,
		state.statusBoard,
		state.approvals,
		RefinementAgentName,
		FrameAnalysisAgent,
		VideoModelName,
		FfmpegPath)

	SetupListeners(cloudClients, ctx)
}

// SetupListeners attaches the production trigger chain to the
// subscription and starts receiving. The chain parses the raw message
// into a typed trigger and hands it to the workflow.
func SetupListeners(cloudClients *cloud.ServiceClients, ctx context.Context) {
	if listener, ok := cloudClients.PubSubListeners[ProductionTriggerName]; ok {
		chain := cor.NewBaseChain("production-trigger")
		chain.AddCommand(commands.NewProductionTriggerReader("parse-production-trigger"))
		chain.AddCommand(state.production)
		listener.SetCommand(chain)
		listener.Listen(ctx)
	}
}
