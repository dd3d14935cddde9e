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

package cor

import (
	"context"
	"log/slog"
	"os"
)

// BaseContext is the default Context implementation: a property bag for a
// single workflow run, plus the error map and temp-file ledger.
type BaseContext struct {
	data      map[string]interface{}
	errors    map[string]error
	tempFiles []string
	context   context.Context
}

// NewBaseContext returns an empty, ready-to-use context.
func NewBaseContext() Context {
	return &BaseContext{
		data:      make(map[string]interface{}),
		errors:    make(map[string]error),
		tempFiles: make([]string, 0),
	}
}

// SetContext installs the Go context used for cancellation and tracing.
func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

// GetContext returns the installed Go context.
func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Close removes every temporary file registered during the run. It is the
// workflow's cleanup guarantee: defer it before any command executes so
// scratch frames and downloads never outlive the production, even when a
// scene fails partway through.
func (c *BaseContext) Close() {
	for _, file := range c.GetTempFiles() {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove temporary file", "file", file, "error", err)
		}
	}
}

// Add stores a key-value pair and returns the context for chaining.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

// AddTempFile registers a file path for cleanup at Close.
func (c *BaseContext) AddTempFile(file string) {
	c.tempFiles = append(c.tempFiles, file)
}

// GetTempFiles returns the registered temporary file paths.
func (c *BaseContext) GetTempFiles() []string {
	return c.tempFiles
}

// AddError records an error under the failing command's name.
func (c *BaseContext) AddError(key string, err error) {
	c.errors[key] = err
}

// GetErrors returns the recorded errors keyed by command name.
func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

// Get returns the value stored under key, or nil when absent.
func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

// Remove deletes the value stored under key.
func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

// HasErrors reports whether any command recorded an error.
func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}
