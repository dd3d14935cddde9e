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

// Package cor (Chain of Responsibility) provides the building blocks used to
// assemble the production workflows. A workflow is a Chain of Commands that
// share a single Context. Each command reads its input from the context,
// does one unit of work, and writes its output back for the next command.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the well-known keys used to pipe the primary value
// from one command to the next inside a BaseChain.
const (
	// CtxIn is the default input key. After each command runs, the chain
	// copies the previous command's output into this key.
	CtxIn = "__IN__"
	// CtxOut is the default output key. A command places its primary result
	// here for the chain to hand to the next command.
	CtxOut = "__OUT__"
)

// Context is the shared state for a single workflow execution. It carries
// arbitrary key-value data, the errors raised by commands, the set of
// temporary files created along the way, and the request-scoped Go context
// used for cancellation and trace propagation.
type Context interface {
	// SetContext replaces the Go context.Context. The chain uses this to
	// scope each command's work to its own trace span.
	SetContext(context context.Context)

	// GetContext returns the current Go context.Context.
	GetContext() context.Context

	// Add stores a value under key and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records a command failure. The key is conventionally the
	// name of the command that failed.
	AddError(key string, err error)

	// GetErrors returns every error recorded so far, keyed by command name.
	GetErrors() map[string]error

	// Get returns the value stored under key, or nil.
	Get(key string) interface{}

	// Remove deletes the value stored under key.
	Remove(key string)

	// HasErrors reports whether any command has recorded an error.
	HasErrors() bool

	// AddTempFile registers a file path for removal when the workflow ends.
	// Commands that write scratch artifacts (downloaded clips, extracted
	// frames) must register them so Close can guarantee cleanup.
	AddTempFile(file string)

	// GetTempFiles returns the registered temporary file paths.
	GetTempFiles() []string

	// Close removes every registered temporary file. Defer it at the start
	// of a workflow so cleanup runs on both success and failure paths.
	Close()
}

// Executable is anything with a single execution entry point.
type Executable interface {
	// Execute performs the work, reading inputs from and writing outputs
	// to the supplied Context.
	Execute(context Context)
}

// Command is an atomic, reusable unit of work within a workflow.
type Command interface {
	Executable

	// GetName returns the command's name for logs, spans and counters.
	GetName() string

	// GetInputParam returns the context key this command reads its primary
	// input from.
	GetInputParam() string

	// GetOutputParam returns the context key this command writes its
	// primary output to.
	GetOutputParam() string

	// IsExecutable reports whether the context holds everything the
	// command needs to run. Checked by the chain before Execute.
	IsExecutable(context Context) bool

	// GetTracer returns the command's OpenTelemetry tracer.
	GetTracer() trace.Tracer

	// GetMeter returns the command's OpenTelemetry meter.
	GetMeter() metric.Meter

	// GetSuccessCounter returns the counter incremented on success.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter returns the counter incremented on failure.
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered sequence of commands. A Chain is itself a Command, so
// chains nest to form larger workflows.
type Chain interface {
	Command

	// ContinueOnFailure controls whether the chain keeps executing after a
	// command records an error. The default is to stop at the first error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
