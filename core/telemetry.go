package core

import "time"

// TelemetryHook observes request lifecycle events. Implementations back
// logging, tracing, or metrics without touching the request path.
//
// Events carry operational metadata only. API keys, document text,
// selections, and streamed deltas are never included, so hook output is
// safe to write to disk or forward to monitoring systems. Extensions to
// these types must preserve that property.
type TelemetryHook interface {
	// OnRequestStart fires when the connection attempt begins.
	OnRequestStart(e RequestStartEvent)

	// OnRequestEnd fires once per request, when the stream has ended or
	// setup has failed.
	OnRequestEnd(e RequestEndEvent)
}

// RequestStartEvent describes a request about to be sent.
type RequestStartEvent struct {
	Service string
	Model   ModelID
	Start   time.Time
}

// RequestEndEvent describes a finished request. Err is the terminal error,
// nil on success. Usage stays zero when the service reported no token
// counts for the stream.
type RequestEndEvent struct {
	Service string
	Model   ModelID
	Start   time.Time
	End     time.Time
	Usage   Usage
	Err     error
}

// Duration returns the wall time between connection start and stream end.
func (e RequestEndEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// NoopTelemetryHook discards all events. It is the default hook, so client
// code can fire events unconditionally.
type NoopTelemetryHook struct{}

var _ TelemetryHook = NoopTelemetryHook{}

func (NoopTelemetryHook) OnRequestStart(RequestStartEvent) {}

func (NoopTelemetryHook) OnRequestEnd(RequestEndEvent) {}
