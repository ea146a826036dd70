package core

import (
	"context"
	"errors"
	"strings"
)

// EventResult is one item of a streaming response: either a decoded event or
// an error encountered while producing it. Exactly one field is set.
type EventResult struct {
	Event *ChatStreamEvent
	Err   error
}

// EventStream is the consumer half of a streaming chat-completion response.
//
// Channel Rules:
//   - The producer MUST close Events when the underlying stream ends
//   - Items arrive in exactly the order their frames arrived on the wire
//   - Producer sends never block; the pipe buffers without bound
//   - Errors wrapping ErrDecode are per-frame and non-fatal; anything else
//     is terminal and the channel closes right after
//   - Channel closure is the only end-of-stream signal
type EventStream struct {
	// Events emits one EventResult per significant frame. Closed when the
	// stream ends.
	Events <-chan EventResult
}

// EventSender is the producer half of an event pipe. Send never blocks on a
// slow consumer. Close signals end-of-stream; the consumer channel closes
// once every queued item has been delivered.
type EventSender struct {
	in chan<- EventResult
}

// Send queues one result for delivery. Must not be called after Close.
func (s *EventSender) Send(r EventResult) {
	s.in <- r
}

// Close marks the stream complete. Queued items are still delivered before
// the consumer channel closes.
func (s *EventSender) Close() {
	close(s.in)
}

// NewEventPipe creates a connected sender/stream pair with an unbounded
// buffer between them. The producer can always make progress regardless of
// how quickly the consumer drains.
func NewEventPipe() (*EventSender, *EventStream) {
	in := make(chan EventResult)
	out := make(chan EventResult)
	go pumpEvents(in, out)
	return &EventSender{in: in}, &EventStream{Events: out}
}

// pumpEvents shuttles results from in to out through a growable queue,
// preserving order. Runs until in is closed and the queue is drained.
func pumpEvents(in <-chan EventResult, out chan<- EventResult) {
	defer close(out)

	var queue []EventResult
	for in != nil || len(queue) > 0 {
		// A nil send channel disables that case, so the select only
		// offers items when the queue is non-empty.
		var send chan<- EventResult
		var head EventResult
		if len(queue) > 0 {
			send = out
			head = queue[0]
		}

		select {
		case r, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			queue = append(queue, r)
		case send <- head:
			queue = queue[1:]
		}
	}
}

// DrainText accumulates the delta content of every event and returns the
// concatenated text. Blocks until the stream ends or ctx is done.
//
// Per-frame decode errors are skipped, matching how interactive consumers
// treat them; any other error ends the drain and is returned alongside the
// text accumulated so far.
func DrainText(ctx context.Context, s *EventStream) (string, error) {
	if s == nil {
		return "", ErrBadRequest
	}

	var b strings.Builder
	for {
		select {
		case <-ctx.Done():
			return b.String(), ctx.Err()

		case r, ok := <-s.Events:
			if !ok {
				return b.String(), nil
			}
			if r.Err != nil {
				if errors.Is(r.Err, ErrDecode) {
					continue
				}
				return b.String(), r.Err
			}
			if c := r.Event.LastChoice(); c != nil && c.Delta.Content != nil {
				b.WriteString(*c.Delta.Content)
			}
		}
	}
}
