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

// This file initializes every Google Cloud client the application needs
// and bundles them into a single ServiceClients container that is passed
// through the rest of the application. Clients are created once at
// startup and shared.
package cloud

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/generation"
)

// ServiceClients is the dependency container for all external Google
// Cloud connections: storage, messaging, persistence, signing, and the
// configured generative models.
type ServiceClients struct {
	StorageClient   *storage.Client                         // Google Cloud Storage, for clip and final-video artifacts.
	PubsubClient    *pubsub.Client                          // Pub/Sub, for the production trigger topic.
	GenAIClient     *genai.Client                           // Vertex AI generative models.
	BigQueryClient  *bigquery.Client                        // BigQuery, backing the production state store.
	IAMClient       *credentials.IamCredentialsClient       // IAM credentials, used to sign download URLs.
	PubSubListeners map[string]*PubSubListener              // Listeners keyed by logical name from the config.
	AgentModels     map[string]*QuotaAwareGenerativeAIModel // Text agents keyed by logical name.
	VideoGenerators map[string]*generation.VeoGenerator     // Video backends keyed by logical name.
}

// Close releases all client connections. Useful in tests and controlled
// shutdowns; the genai client carries no close handle in the current SDK.
func (c *ServiceClients) Close() {
	_ = c.StorageClient.Close()
	_ = c.PubsubClient.Close()
	_ = c.BigQueryClient.Close()
	_ = c.IAMClient.Close()
}

// NewCloudServiceClients creates every Google Cloud client from the
// loaded configuration: the base service clients, one listener per
// configured subscription, one quota-aware agent per configured LLM, and
// one Veo generator per configured video model.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}

	pc, err := pubsub.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, err
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  config.Application.GoogleProjectId,
		Location: config.Application.GoogleLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		slog.Error("error creating genai client", "error", err)
		return nil, err
	}

	bc, err := bigquery.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, err
	}

	ic, err := credentials.NewIamCredentialsClient(ctx)
	if err != nil {
		return nil, err
	}

	// One listener per configured subscription. Commands attach later,
	// once the workflow chains exist.
	subscriptions := make(map[string]*PubSubListener)
	for subKey := range config.TopicSubscriptions {
		values := config.TopicSubscriptions[subKey]
		actual, err := NewPubSubListener(pc, values.Name, nil)
		if err != nil {
			return nil, err
		}
		subscriptions[subKey] = actual
	}

	// Configure each text agent and wrap it with the rate limiter.
	agentModels := make(map[string]*QuotaAwareGenerativeAIModel)
	for amKey := range config.AgentModels {
		values := config.AgentModels[amKey]

		generateConfig := &genai.GenerateContentConfig{
			Temperature:       genai.Ptr[float32](values.Temperature),
			TopP:              genai.Ptr[float32](values.TopP),
			TopK:              genai.Ptr[float32](values.TopK),
			MaxOutputTokens:   values.MaxTokens,
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}},
			SafetySettings:    DefaultSafetySettings,
			ResponseMIMEType:  values.OutputFormat,
			Tools:             []*genai.Tool{},
		}
		agentModels[amKey] = NewQuotaAwareModel(generateConfig, values.Model, gc.Models, values.RateLimit)
	}

	// Configure each video backend with its polling and retry policy.
	videoGenerators := make(map[string]*generation.VeoGenerator)
	for vmKey := range config.VideoModels {
		values := config.VideoModels[vmKey]
		videoGenerators[vmKey] = generation.NewVeoGenerator(gc, generation.VeoConfig{
			PollInterval:      time.Duration(values.PollIntervalInSeconds) * time.Second,
			Timeout:           time.Duration(values.TimeoutInSeconds) * time.Second,
			RequestsPerMinute: values.MaxRequestsPerMinute,
			Retry: generation.RetryPolicy{
				MaxAttempts: values.MaxRetries,
				Backoff:     time.Duration(values.RetryBackoffInSeconds) * time.Second,
			},
		})
	}

	cloud = &ServiceClients{
		StorageClient:   sc,
		PubsubClient:    pc,
		GenAIClient:     gc,
		BigQueryClient:  bc,
		IAMClient:       ic,
		PubSubListeners: subscriptions,
		AgentModels:     agentModels,
		VideoGenerators: videoGenerators,
	}

	return cloud, err
}
