// Package assist turns an in-document selection into a streamed model
// response, written back into the same document as it arrives.
//
// One [Assistant.Run] call is one session: the document is framed into a
// prompt ([FrameSelections]), sent as a streaming chat request, and every
// content delta is inserted at a tracked anchor near the document tail.
// The anchor advances past each insertion, so the response grows in place
// while the rest of the document stays editable.
//
// Sessions are strictly one-shot. There is no retry, no mid-stream
// cancellation, and no conversation memory; the stream ends when the
// service closes it.
package assist

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/petal-labs/scribe/core"
	"github.com/petal-labs/scribe/document"
)

// DefaultModel is the model used when callers do not choose one.
const DefaultModel core.ModelID = "gpt-4"

// StreamClient is the transport an assistant drives. *openai.Client
// implements it.
type StreamClient interface {
	StreamChat(ctx context.Context, req *core.ChatRequest) (*core.EventStream, error)
}

// Assistant runs assist sessions against a chat-completion service.
// Assistant is safe for concurrent use; each Run is an independent session.
type Assistant struct {
	client StreamClient
	model  core.ModelID
	system string
	log    *slog.Logger
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithModel sets the model for every session.
func WithModel(m core.ModelID) Option {
	return func(a *Assistant) {
		if m != "" {
			a.model = m
		}
	}
}

// WithSystemPrompt replaces the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(a *Assistant) {
		if prompt != "" {
			a.system = prompt
		}
	}
}

// WithLogger sets the session logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(a *Assistant) {
		if log != nil {
			a.log = log
		}
	}
}

// New creates an Assistant over the given transport.
func New(client StreamClient, opts ...Option) *Assistant {
	a := &Assistant{
		client: client,
		model:  DefaultModel,
		system: DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	a.log = a.log.With("component", "assist")
	return a
}

// Result summarizes one assist session.
type Result struct {
	SessionID      string
	Model          core.ModelID
	StartedAt      time.Time
	Duration       time.Duration
	PromptChars    int
	PromptTokens   int
	InsertedChars  int
	Events         int
	DecodeFailures int
	FinishReason   string
	Usage          core.Usage
}

// Run executes one assist session: frame, request, and stream the response
// into the document at the anchor. It blocks until the stream ends and
// must be called from the goroutine that owns document mutation for the
// session; concurrent edits elsewhere in the document are fine.
//
// On transport or stream failure the partial Result is returned alongside
// the error so callers can still log and record what happened.
func (a *Assistant) Run(ctx context.Context, doc *document.Document, selections []document.Range) (*Result, error) {
	res := &Result{
		SessionID: uuid.NewString(),
		Model:     a.model,
		StartedAt: time.Now(),
	}
	log := a.log.With("session", res.SessionID, "model", a.model)

	prompt, anchor, err := FrameSelections(doc, selections)
	if err != nil {
		return nil, err
	}
	defer doc.Release(anchor)

	res.PromptChars = len(prompt)
	if tokens, err := EstimateTokens(prompt); err == nil {
		res.PromptTokens = tokens
	} else {
		log.Debug("token estimate unavailable", "error", err)
	}

	log.Debug("assist session starting",
		"selections", len(selections),
		"prompt_chars", res.PromptChars,
		"prompt_tokens", res.PromptTokens,
	)

	stream, err := a.client.StreamChat(ctx, &core.ChatRequest{
		Model: a.model,
		Messages: []core.ChatMessage{
			core.SystemMessage(a.system),
			core.UserMessage(prompt),
		},
	})
	if err != nil {
		res.Duration = time.Since(res.StartedAt)
		return res, err
	}

	err = a.applyStream(stream, doc, anchor, res, log)
	res.Duration = time.Since(res.StartedAt)
	if err != nil {
		return res, err
	}

	log.Info("assist session finished",
		"inserted_chars", res.InsertedChars,
		"events", res.Events,
		"decode_failures", res.DecodeFailures,
		"finish_reason", res.FinishReason,
		"duration", res.Duration,
	)
	return res, nil
}
