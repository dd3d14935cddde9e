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

// This file initializes the OpenTelemetry SDK: trace export to Cloud
// Trace and metric export to Cloud Monitoring, with GCP resource
// detection so telemetry lands attributed to the right service.
package telemetry

import (
	"context"
	"errors"
	"log"
	"log/slog"

	"go.opentelemetry.io/otel/sdk/metric"

	mexporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/metric"
	telemetryexporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/cloud"
	"go.opentelemetry.io/contrib/detectors/gcp"
	"go.opentelemetry.io/contrib/propagators/autoprop"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// SetupOpenTelemetry configures the global TracerProvider and
// MeterProvider to export to Google Cloud. The returned shutdown function
// must be deferred by the caller so buffered telemetry flushes before the
// process exits.
func SetupOpenTelemetry(ctx context.Context, config *cloud.Config) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error

	shutdown = func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	// Resource detection: attributes describing this service instance.
	// The GCP detector fills in instance and cluster details when running
	// on Google infrastructure.
	res, err := resource.New(ctx,
		resource.WithDetectors(gcp.NewDetector()),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.Application.Name),
		),
	)
	if errors.Is(err, resource.ErrPartialResource) || errors.Is(err, resource.ErrSchemaURLConflict) {
		slog.Warn("partial resource detection", "error", err)
	} else if err != nil {
		slog.Error("resource.New failed", "error", err)
		return nil, err
	}

	// Standard propagators (W3C Trace Context, B3) for distributed traces.
	otel.SetTextMapPropagator(autoprop.NewTextMapPropagator())

	traceExporter, err := telemetryexporter.New(telemetryexporter.WithProjectID(config.Application.GoogleProjectId))
	if err != nil {
		slog.Error("unable to set up trace exporter", "error", err)
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
	otel.SetTracerProvider(tp)

	mExporter, err := mexporter.New(
		mexporter.WithProjectID(config.Application.GoogleProjectId),
	)
	if err != nil {
		log.Printf("Failed to create metric exporter: %v", err)
		return nil, err
	}

	mProvider := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(mExporter)),
		metric.WithResource(res),
	)

	// Namespaced meter so command counters never collide with metrics from
	// other libraries in the process.
	otel.Meter("github.com/jaycherian/gcp-go-commercial-studio")

	shutdownFuncs = append(shutdownFuncs, mProvider.Shutdown)
	otel.SetMeterProvider(mProvider)

	return shutdown, nil
}
