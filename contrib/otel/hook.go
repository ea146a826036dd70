// Package otelscribe bridges scribe telemetry events to OpenTelemetry
// spans. Wire it into a client with openai.WithTelemetry:
//
//	client := openai.New(apiKey, openai.WithTelemetry(otelscribe.NewHook()))
//
// One span is recorded per chat request, timestamped with the request's
// real start and end. Span attributes carry only operational metadata,
// matching the TelemetryHook contract: no keys, no document text, no
// model output.
package otelscribe

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/scribe/core"
)

// tracerName identifies this instrumentation library in exported spans.
const tracerName = "github.com/petal-labs/scribe/contrib/otel"

// Span attribute keys, in the scribe.* namespace.
const (
	AttrService          = "scribe.service"
	AttrModel            = "scribe.model"
	AttrTokensPrompt     = "scribe.tokens.prompt"
	AttrTokensCompletion = "scribe.tokens.completion"
	AttrTokensTotal      = "scribe.tokens.total"
)

// Hook implements core.TelemetryHook by recording spans.
type Hook struct {
	tracer trace.Tracer
}

// Option configures a Hook.
type Option func(*Hook)

// WithTracerProvider sets the provider spans are created from.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(h *Hook) {
		h.tracer = tp.Tracer(tracerName)
	}
}

// NewHook creates a telemetry hook that records one span per request.
func NewHook(opts ...Option) *Hook {
	h := &Hook{tracer: otel.Tracer(tracerName)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var _ core.TelemetryHook = (*Hook)(nil)

// OnRequestStart is a no-op. The span is recorded when the request ends,
// using the real timestamps the end event carries, so no pairing state is
// kept across callbacks.
func (h *Hook) OnRequestStart(core.RequestStartEvent) {}

// OnRequestEnd records one client span covering the whole request.
func (h *Hook) OnRequestEnd(e core.RequestEndEvent) {
	name := "chat"
	if e.Model != "" {
		name = "chat " + string(e.Model)
	}

	_, span := h.tracer.Start(context.Background(), name,
		trace.WithTimestamp(e.Start),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(AttrService, e.Service),
			attribute.String(AttrModel, string(e.Model)),
			attribute.Int(AttrTokensPrompt, e.Usage.PromptTokens),
			attribute.Int(AttrTokensCompletion, e.Usage.CompletionTokens),
			attribute.Int(AttrTokensTotal, e.Usage.TotalTokens),
		),
	)

	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End(trace.WithTimestamp(e.End))
}
