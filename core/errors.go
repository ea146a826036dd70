package core

import (
	"errors"
	"fmt"
)

// Classification sentinels. The transport wraps one of these into every
// failure it reports, so callers branch with errors.Is instead of parsing
// message text.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("server error")
	ErrNetwork      = errors.New("network error")
	ErrDecode       = errors.New("decode error")
	ErrEncode       = errors.New("encode error")
)

// Request validation sentinels.
var (
	ErrModelRequired = errors.New("model required: set ChatRequest.Model, e.g., \"gpt-4\"")
	ErrNoMessages    = errors.New("no messages: a chat request needs at least one message")
)

// ServiceError is a non-success answer from the chat service.
//
// Body preserves the response body verbatim. Non-success bodies are never
// decoded as event streams; whatever the service said is carried through
// for the user to see.
type ServiceError struct {
	Service string // service identifier, e.g. "openai"
	Status  int    // HTTP status of the response
	Body    string // verbatim response body
	Err     error  // classification sentinel
}

func (e *ServiceError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: status=%d: %s", e.Service, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: status=%d", e.Service, e.Status)
}

// Unwrap exposes the classification sentinel to errors.Is and errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}
