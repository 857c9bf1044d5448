package otel

import (
	"context"
	"os"

	"go.opentelemetry.io/otel/attribute"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
)

const instrumentationName = "github.com/relaygw/relay"

// Enabled reports whether the TELEMETRY environment variable opts this
// process into OTLP export.
func Enabled() bool {
	return os.Getenv("TELEMETRY") != ""
}

// Setup wires logging, tracing and metrics export. Without TELEMETRY set,
// everything stays on the default slog handler and no exporters start.
func Setup(ctx context.Context, name, version string) error {
	if !Enabled() {
		return nil
	}

	resource := sdkresource.NewSchemaless(
		attribute.String("service.name", name),
		attribute.String("service.version", version),
	)

	if err := setupLogger(ctx, resource); err != nil {
		return err
	}

	if err := setupTracer(ctx, resource); err != nil {
		return err
	}

	if err := setupMeter(ctx, resource); err != nil {
		return err
	}

	return nil
}
