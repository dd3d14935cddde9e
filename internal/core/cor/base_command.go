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
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// BaseCommand is the default implementation of the Command interface.
// Concrete commands embed it to inherit naming, the default input/output
// piping keys, and per-command OpenTelemetry instrumentation.
type BaseCommand struct {
	Name            string              // Identifies the command in spans, counters and error maps.
	InputParamName  string              // Context key for the primary input; empty means CtxIn.
	OutputParamName string              // Context key for the primary output; empty means CtxOut.
	Tracer          trace.Tracer        // Tracer used to span this command's execution.
	Meter           metric.Meter        // Meter used to create the command counters.
	SuccessCounter  metric.Int64Counter // Incremented once per successful execution.
	ErrorCounter    metric.Int64Counter // Incremented once per failed execution.
}

// NewBaseCommand creates a command shell with the given name and wires up
// its tracer and success/error counters from the global OTel providers.
func NewBaseCommand(name string) *BaseCommand {
	meter := otel.Meter("github.com/jaycherian/gcp-go-commercial-studio")

	successCounter, err := meter.Int64Counter(fmt.Sprintf("%s.counter.success", name))
	if err != nil {
		log.Printf("error creating success counter for command '%s': %v\n", name, err)
	}
	errorCounter, err := meter.Int64Counter(fmt.Sprintf("%s.counter.error", name))
	if err != nil {
		log.Printf("error creating error counter for command '%s': %v\n", name, err)
	}

	return &BaseCommand{
		Name:           name,
		Tracer:         otel.Tracer(name),
		Meter:          meter,
		SuccessCounter: successCounter,
		ErrorCounter:   errorCounter,
	}
}

// GetName returns the name of the command.
func (c *BaseCommand) GetName() string {
	return c.Name
}

// IsExecutable is the default readiness check: the context must be valid,
// carry a Go context, and hold a value under the command's input key.
func (c *BaseCommand) IsExecutable(context Context) bool {
	return context != nil && context.Get(c.GetInputParam()) != nil && context.GetContext() != nil
}

// GetInputParam returns the key for the command's primary input. It falls
// back to CtxIn so that unconfigured commands participate in the chain's
// piping mechanism automatically.
func (c *BaseCommand) GetInputParam() string {
	if len(c.InputParamName) == 0 {
		return CtxIn
	}
	return c.InputParamName
}

// GetOutputParam returns the key for the command's primary output,
// defaulting to CtxOut.
func (c *BaseCommand) GetOutputParam() string {
	if len(c.OutputParamName) == 0 {
		return CtxOut
	}
	return c.OutputParamName
}

// GetTracer returns the OpenTelemetry tracer for this command.
func (c *BaseCommand) GetTracer() trace.Tracer {
	return c.Tracer
}

// GetMeter returns the OpenTelemetry meter for this command.
func (c *BaseCommand) GetMeter() metric.Meter {
	return c.Meter
}

// GetSuccessCounter returns the success counter for this command.
func (c *BaseCommand) GetSuccessCounter() metric.Int64Counter {
	return c.SuccessCounter
}

// GetErrorCounter returns the error counter for this command.
func (c *BaseCommand) GetErrorCounter() metric.Int64Counter {
	return c.ErrorCounter
}
