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
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PubSubListener binds a Pub/Sub subscription to a workflow command. The
// production trigger topic is the asynchronous entry point into the
// pipeline: each message is handed to the attached command, and the
// message is acked only when the command chain finishes without errors,
// keeping delivery at-least-once.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	command      cor.Command
}

// NewPubSubListener creates a listener for the given subscription id. The
// command may be nil at construction and attached later once the
// workflow chains are assembled.
func NewPubSubListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	command cor.Command,
) (cmd *PubSubListener, err error) {
	sub := pubsubClient.Subscription(subscriptionID)
	cmd = &PubSubListener{
		client:       pubsubClient,
		subscription: sub,
		command:      command,
	}
	return cmd, nil
}

// SetCommand attaches the processing command if none is set yet. An
// already-attached command is never overwritten.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Listen starts receiving messages in a background goroutine. Canceling
// ctx stops the receive loop. Messages whose command chain fails are not
// acked, so they redeliver per the subscription's retry policy.
func (m *PubSubListener) Listen(ctx context.Context) {
	slog.Info("listening for messages", "subscription", m.subscription.ID())

	go func() {
		tracer := otel.Tracer("message-listener")

		err := m.subscription.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(ctx, "receive-message")
			span.SetAttributes(attribute.String("msg", string(msg.Data)))

			chainCtx := cor.NewBaseContext()
			chainCtx.SetContext(spanCtx)
			chainCtx.Add(cor.CtxIn, string(msg.Data))

			m.command.Execute(chainCtx)

			if !chainCtx.HasErrors() {
				span.SetStatus(codes.Ok, "success")
				msg.Ack()
			} else {
				span.SetStatus(codes.Error, "failed")
				for name, e := range chainCtx.GetErrors() {
					slog.Error("error executing chain", "command", name, "error", e)
				}
			}

			span.End()
		})

		if err != nil {
			slog.Error("error receiving data", "subscription", m.subscription.ID(), "error", err)
		}
	}()
}
