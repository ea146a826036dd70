package assist

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/petal-labs/scribe/core"
	"github.com/petal-labs/scribe/document"
)

// applyStream drains the event stream into the document at the anchor.
//
// Decode failures are counted and skipped; the stream keeps flowing.
// Any other error item is terminal. When an event carries several
// choices only the last one is applied. A delta whose Content is nil
// carries no text and leaves the document untouched.
func (a *Assistant) applyStream(stream *core.EventStream, doc *document.Document, anchor document.Anchor, res *Result, log *slog.Logger) error {
	for r := range stream.Events {
		if r.Err != nil {
			if errors.Is(r.Err, core.ErrDecode) {
				res.DecodeFailures++
				log.Warn("skipping undecodable frame", "error", r.Err)
				continue
			}
			return r.Err
		}

		res.Events++
		if r.Event.Usage != nil {
			res.Usage = *r.Event.Usage
		}

		choice := r.Event.LastChoice()
		if choice == nil {
			continue
		}
		if choice.FinishReason != nil {
			res.FinishReason = *choice.FinishReason
		}
		if choice.Delta.Content == nil {
			continue
		}

		text := *choice.Delta.Content
		if err := doc.InsertAt(anchor, text); err != nil {
			return fmt.Errorf("assist: inserting response text: %w", err)
		}
		res.InsertedChars += len(text)
	}
	return nil
}
