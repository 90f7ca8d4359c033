// Package observability holds opt-in debugging and tracing hooks.
package observability

import (
	"context"
	"net/http"
	"net/http/pprof"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gridhold/server/logging"
)

// TracerName is the instrumentation scope of every server span.
const TracerName = "gridhold/server"

// Config captures opt-in observability toggles that wire into the server.
type Config struct {
	EnablePprofTrace bool
	// Tracer overrides the globally registered OpenTelemetry tracer.
	Tracer trace.Tracer
}

// ResolveTracer returns cfg.Tracer or the global provider's tracer, which
// is a no-op unless the process installs one.
func (cfg Config) ResolveTracer() trace.Tracer {
	if cfg.Tracer != nil {
		return cfg.Tracer
	}
	return otel.Tracer(TracerName)
}

// RegisterPprof mounts the net/http/pprof handlers on mux when enabled.
func (cfg Config) RegisterPprof(mux *http.ServeMux) bool {
	if !cfg.EnablePprofTrace || mux == nil {
		return false
	}
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return true
}

// StartSpan starts a span and stores its trace id on the returned context
// so published log events can be correlated with it.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	if sc := span.SpanContext(); sc.HasTraceID() {
		ctx = logging.WithTraceID(ctx, sc.TraceID().String())
	}
	return ctx, span
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
