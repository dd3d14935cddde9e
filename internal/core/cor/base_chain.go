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

	"go.opentelemetry.io/otel/codes"
)

// BaseChain is the default Chain implementation: an ordered list of
// commands executed sequentially against a shared context.
//
// Execution per command:
//  1. A child trace span is opened and installed on the context.
//  2. If a previous command failed and continueOnFailure is off, the
//     chain stops before running the command.
//  3. The command runs, then the chain's own span context is restored so
//     sibling commands trace as siblings rather than descendants.
//  4. The value the command left under CtxOut is moved to CtxIn, making
//     it the input of the next command.
type BaseChain struct {
	BaseCommand
	continueOnFailure bool
	commands          []Command
}

// NewBaseChain creates an empty named chain.
func NewBaseChain(name string) *BaseChain {
	return &BaseChain{BaseCommand: *NewBaseCommand(name)}
}

// ContinueOnFailure configures whether the chain keeps running commands
// after one of them records an error. Returns the chain for fluent use.
func (c *BaseChain) ContinueOnFailure(continueOnFailure bool) Chain {
	c.continueOnFailure = continueOnFailure
	return c
}

// AddCommand appends a command to the chain. Returns the chain for
// fluent use.
func (c *BaseChain) AddCommand(command Command) Chain {
	c.commands = append(c.commands, command)
	return c
}

// IsExecutable only requires a Go context; the chain's commands perform
// their own input checks.
func (c *BaseChain) IsExecutable(context Context) bool {
	return context.GetContext() != nil
}

// Execute runs the chain's commands in order, piping CtxOut to CtxIn
// between steps and stopping at the first recorded error unless
// continueOnFailure is set.
func (c *BaseChain) Execute(chCtx Context) {
	parentCtx := chCtx.GetContext()

	outerCtx, chainSpan := c.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", c.GetName()))
	defer chainSpan.End()

	for _, command := range c.commands {
		commandContext, commandSpan := c.Tracer.Start(outerCtx, command.GetName())
		commandSpan.SetName(command.GetName())

		if chCtx.HasErrors() && !c.continueOnFailure {
			commandSpan.SetStatus(codes.Error, "previous error on chain; skipping execution")
			commandSpan.End()
			break
		}

		if command.IsExecutable(chCtx) {
			// Scope the command's work to its own span, then restore the
			// chain context so the next span is a sibling, not a child.
			chCtx.SetContext(commandContext)
			command.Execute(chCtx)
			chCtx.SetContext(outerCtx)
		} else {
			commandSpan.SetStatus(codes.Error, fmt.Sprintf("command not executable: %s", command.GetName()))
		}

		if chCtx.HasErrors() {
			commandSpan.SetStatus(codes.Error, "error during or after command execution")
		} else {
			commandSpan.SetStatus(codes.Ok, "command completed successfully")
		}
		commandSpan.End()

		// Pipe the output of this command to the input of the next.
		outputValue := chCtx.Get(CtxOut)
		chCtx.Remove(CtxIn)
		if outputValue != nil {
			chCtx.Add(CtxIn, outputValue)
		}
		chCtx.Remove(CtxOut)
	}

	if !chCtx.HasErrors() {
		chainSpan.SetStatus(codes.Ok, "chain completed successfully")
	} else {
		chainSpan.SetStatus(codes.Error, "chain failed to execute")
	}
}
