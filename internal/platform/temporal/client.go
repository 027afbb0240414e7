// Package temporal dials the Temporal cluster with tracing and structured logging wired in.
package temporal

import (
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
)

// Options configures Dial.
type Options struct {
	Address   string
	Namespace string
	Disabled  bool
	Tracer    trace.Tracer
	Logger    *slog.Logger
}

// ErrDisabled is returned when Temporal has been switched off through configuration.
var ErrDisabled = errors.New("temporal disabled via TEMPORAL_DISABLED env")

// Dial connects a Temporal client with an OpenTelemetry tracing interceptor.
func Dial(opts Options) (client.Client, error) {
	if opts.Disabled {
		return nil, ErrDisabled
	}
	if opts.Address == "" {
		opts.Address = client.DefaultHostPort
	}
	if opts.Namespace == "" {
		opts.Namespace = client.DefaultNamespace
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{Tracer: opts.Tracer})
	if err != nil {
		return nil, err
	}
	clientOptions := client.Options{
		HostPort:  opts.Address,
		Namespace: opts.Namespace,
	}
	if opts.Logger != nil {
		clientOptions.Logger = workerlog.NewStructuredLogger(opts.Logger)
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	return client.Dial(clientOptions)
}
