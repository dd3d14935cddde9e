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

// Package cloud provides the configuration structures and the Google Cloud
// service wrappers used across the application. Configuration is loaded
// from hierarchical TOML files (see utils.go); this file defines the
// structs those files decode into.
package cloud

import "google.golang.org/genai"

// DefaultSafetySettings disables content blocking for the generative
// models. The pipeline's inputs are trusted project templates, and a
// blocked refinement response would be indistinguishable from a parse
// failure downstream.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// BigQueryDataSource names the dataset and tables backing the production
// state store.
type BigQueryDataSource struct {
	DatasetName  string `toml:"dataset"`       // The BigQuery dataset name.
	ProjectTable string `toml:"project_table"` // The table holding project records.
	ClipTable    string `toml:"clip_table"`    // The table holding clip records.
}

// PromptTemplates holds the instruction templates sent to the generative
// models.
type PromptTemplates struct {
	Refinement    string `toml:"refinement"`     // The template for the prompt refinement agent.
	FrameAnalysis string `toml:"frame_analysis"` // The template for last-frame continuity analysis.
}

// VertexAiLLMModel configures one text agent model (refinement, frame
// analysis).
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`               // The Vertex AI model name.
	SystemInstructions string  `toml:"system_instructions"` // System instructions for the model.
	Temperature        float32 `toml:"temperature"`         // Sampling temperature.
	TopP               float32 `toml:"top_p"`               // Nucleus sampling parameter.
	TopK               float32 `toml:"top_k"`               // Top-k sampling parameter.
	MaxTokens          int32   `toml:"max_tokens"`          // Output token cap.
	OutputFormat       string  `toml:"output_format"`       // Response MIME type (e.g. "application/json").
	RateLimit          int     `toml:"rate_limit"`          // Requests per second allowed.
}

// VideoModel configures one video generation backend.
type VideoModel struct {
	Model                 string `toml:"model"`                    // The backend model name (e.g. "veo-3.1").
	PollIntervalInSeconds int    `toml:"poll_interval_in_seconds"` // Operation poll cadence.
	TimeoutInSeconds      int    `toml:"timeout_in_seconds"`       // Overall deadline per generation.
	MaxRequestsPerMinute  int    `toml:"max_requests_per_minute"`  // Submit rate limit.
	MaxRetries            int    `toml:"max_retries"`              // Submit attempts for transient failures.
	RetryBackoffInSeconds int    `toml:"retry_backoff_in_seconds"` // Wait between submit attempts.
}

// TopicSubscription configures one Pub/Sub subscription the server
// listens on.
type TopicSubscription struct {
	Name             string `toml:"name"`               // The subscription ID.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // The dead-letter topic, if any.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // Receive timeout.
}

// Storage names the GCS buckets and local scratch directory used for clip
// artifacts.
type Storage struct {
	ClipBucket       string `toml:"clip_bucket"`        // Bucket for individual generated clips.
	FinalVideoBucket string `toml:"final_video_bucket"` // Bucket for assembled final videos.
	WorkDir          string `toml:"work_dir"`           // Local scratch directory for downloads and frames.
}

// Config is the root of the application configuration.
type Config struct {
	Application struct {
		Name                      string `toml:"name"`                         // Application name, used in telemetry.
		GoogleProjectId           string `toml:"google_project_id"`            // The Google Cloud project id.
		GoogleLocation            string `toml:"location"`                     // The Google Cloud location.
		ThreadPoolSize            int    `toml:"thread_pool_size"`             // Worker pool size for parallel steps.
		SignerServiceAccountEmail string `toml:"signer_service_account_email"` // Service account used to sign GCS URLs.
	} `toml:"application"`
	Storage            Storage                      `toml:"storage"`
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"` // Keyed by logical name (e.g. "ProductionTrigger").
	AgentModels        map[string]VertexAiLLMModel  `toml:"agent_models"`        // Keyed by logical name (e.g. "refinement-agent").
	VideoModels        map[string]VideoModel        `toml:"video_models"`        // Keyed by logical name (e.g. "veo").
}

// NewConfig creates a Config with its maps initialized so the TOML
// decoder can populate them directly.
func NewConfig() *Config {
	return &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels:        make(map[string]VertexAiLLMModel),
		VideoModels:        make(map[string]VideoModel),
	}
}
