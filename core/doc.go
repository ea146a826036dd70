// Package core provides the message envelope, streaming primitives, and
// error taxonomy shared by every scribe component.
//
// The package is deliberately small: it defines the JSON shapes spoken on
// the wire, the ordered event pipe that connects a stream decoder to its
// consumer, and the sentinel errors used for classification. Transport
// lives in the openai package; document mutation lives in assist.
//
// # Messages
//
// A [ChatRequest] carries a model ID and an ordered list of [ChatMessage]
// values. Construction helpers keep call sites terse:
//
//	req := &core.ChatRequest{
//	    Model: "gpt-4",
//	    Messages: []core.ChatMessage{
//	        core.SystemMessage(instructions),
//	        core.UserMessage(prompt),
//	    },
//	}
//
// Requests are always streamed: the transport forces Stream to true before
// transmission regardless of what the caller set.
//
// # Streaming
//
// A streaming response is a sequence of [EventResult] values delivered on
// [EventStream].Events, one per significant wire frame, in exactly wire
// order. Each result carries either a decoded [ChatStreamEvent] or an error:
//
//	for r := range stream.Events {
//	    if r.Err != nil {
//	        if errors.Is(r.Err, core.ErrDecode) {
//	            continue // one bad frame never aborts a healthy stream
//	        }
//	        return r.Err
//	    }
//	    if c := r.Event.LastChoice(); c != nil && c.Delta.Content != nil {
//	        apply(*c.Delta.Content)
//	    }
//	}
//
// Channel closure is the only end-of-stream signal; there is no terminal
// event. Producers obtain their half of the pipe from [NewEventPipe], which
// buffers without bound so decoding never blocks on a slow consumer.
//
// [MessageDelta].Content is a pointer on purpose: nil means the frame
// carried no new text (role announcements, finish markers), which is
// different from an explicit empty string.
//
// Use [DrainText] to accumulate a whole stream into one string when
// incremental handling is not needed.
//
// # Error Handling
//
// The package defines sentinel errors for common failure modes:
//   - [ErrUnauthorized]: invalid or missing API key
//   - [ErrRateLimited]: service rate limit exceeded
//   - [ErrBadRequest]: invalid request parameters
//   - [ErrServer]: service-side failure (5xx)
//   - [ErrNetwork]: connectivity failure
//   - [ErrDecode]: frame parsing failed (per-frame, non-fatal)
//   - [ErrEncode]: request serialization failed
//
// Non-success HTTP responses surface as [ServiceError] carrying the status
// code and the response body verbatim, wrapping the matching sentinel:
//
//	if errors.Is(err, core.ErrRateLimited) {
//	    // back off
//	}
//
// # Secrets
//
// API keys travel as [Secret], which redacts itself under every standard
// formatting and marshaling path. Only [Secret.Expose] reveals the value.
//
// # Telemetry
//
// Implement [TelemetryHook] to observe request lifecycle without touching
// payloads:
//
//	func (t MyTelemetry) OnRequestEnd(e core.RequestEndEvent) {
//	    log.Printf("%s/%s finished in %v", e.Service, e.Model, e.Duration())
//	}
//
// # Thread Safety
//
// [EventStream].Events may be read by one goroutine at a time. [EventSender]
// may be used by one producer goroutine. Everything else in the package is
// immutable value types, safe to share.
package core
