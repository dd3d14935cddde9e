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

package cloud

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/metric"

	"github.com/BurntSushi/toml"
	"google.golang.org/genai"
)

// Configuration loading constants. Config files follow the pattern
// ".env.toml" for the base file and ".env.<runtime>.toml" for the
// environment override.
const (
	ConfigFileBaseName  = ".env"
	ConfigFileExtension = ".toml"
	ConfigSeparator     = "."
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX" // Directory holding the config files.
	EnvConfigRuntime    = "GCP_RUNTIME"       // Runtime name, defaults to "test".
	MaxRetries          = 3                   // Attempts for generative calls.
)

// fileExists reports whether a file or directory exists at the path.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig performs hierarchical configuration loading: the base
// ".env.toml" is decoded first, then the runtime-specific override file
// is decoded over it so environment values win.
func LoadConfig(baseConfig interface{}) {
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension
	slog.Info("loading configuration", "base", baseConfigFileName, "override", envConfigFileName)

	if fileExists(baseConfigFileName) {
		_, err := toml.DecodeFile(baseConfigFileName, baseConfig)
		if err != nil {
			log.Fatalf("failed to decode base configuration file %s with error: %s", baseConfigFileName, err)
		}
	}

	if fileExists(envConfigFileName) {
		_, err := toml.DecodeFile(envConfigFileName, baseConfig)
		if err != nil {
			log.Fatalf("failed to decode environment configuration file: %s with error: %s", envConfigFileName, err)
		}
	}
}

// GenerateMultiModalResponse executes a request against a generative
// model with retries and token-usage telemetry, returning the
// concatenated text of the response with any markdown JSON fences
// stripped.
func GenerateMultiModalResponse(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	retryCounter metric.Int64Counter,
	tryCount int,
	model *QuotaAwareGenerativeAIModel,
	content []*genai.Content) (value string, err error) {
	resp, err := model.GenerateContent(ctx, content)
	if err != nil {
		if tryCount < MaxRetries {
			retryCounter.Add(ctx, 1)
			return GenerateMultiModalResponse(ctx, inputTokenCounter, outputTokenCounter, retryCounter, tryCount+1, model, content)
		}
		return "", err
	}

	if resp.UsageMetadata != nil {
		inputTokenCounter.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
		outputTokenCounter.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))
	}

	value = ""
	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				value += fmt.Sprint(part.Text)
			}
		}
	}
	value = strings.TrimPrefix(value, "```json")
	value = strings.TrimSuffix(value, "```")
	return value, nil
}

// NewTextPart wraps a string as generative model content.
func NewTextPart(in string) []*genai.Content {
	return genai.Text(in)
}

// NewFileData references a file by URI as generative model input.
func NewFileData(in string, mimeType string) genai.FileData {
	return genai.FileData{FileURI: in, MIMEType: mimeType}
}
