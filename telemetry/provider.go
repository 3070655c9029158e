// Package telemetry installs the OpenTelemetry tracer provider used for the
// per-tick process_sounds span.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/milk9111/sfxqueue/config"
)

// Setup initialises tracing from cfg.
//
// Tracing is opt-in: when cfg.Enabled is false Setup returns a no-op
// shutdown function and the global provider is left alone, so spans are
// dropped by the default no-op tracer.
//
// The returned shutdown function flushes pending spans and closes the output
// file, if any. It should be deferred by the caller.
func Setup(ctx context.Context, cfg config.TraceConfig) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return noop, nil
	}

	w, closeOutput, err := openOutput(cfg.Output)
	if err != nil {
		return noop, err
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		_ = closeOutput()
		return noop, fmt.Errorf("telemetry: exporter: %w", err)
	}

	name := cfg.ServiceName
	if name == "" {
		name = "sfxqueue"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(name),
		),
	)
	if err != nil {
		_ = closeOutput()
		return noop, fmt.Errorf("telemetry: resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), closeOutput())
	}, nil
}

func openOutput(output string) (io.Writer, func() error, error) {
	nop := func() error { return nil }
	switch output {
	case "", "stdout":
		return os.Stdout, nop, nil
	case "stderr":
		return os.Stderr, nop, nil
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nop, fmt.Errorf("telemetry: open %s: %w", output, err)
	}
	return f, f.Close, nil
}
