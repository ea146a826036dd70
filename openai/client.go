// Package openai is a streaming chat-completion client for the OpenAI API.
//
// The client speaks only the streaming dialect: every request goes out with
// stream enabled and the response body is decoded frame by frame onto a
// [core.EventStream]. There is no retry layer and no mid-stream
// cancellation; one call, one connection, one ordered stream of events.
package openai

import (
	"errors"
	"net/http"
	"os"

	"github.com/petal-labs/scribe/core"
)

// serviceID identifies this service in errors and telemetry.
const serviceID = "openai"

// DefaultAPIKeyEnvVar names the environment variable consulted by NewFromEnv.
const DefaultAPIKeyEnvVar = "OPENAI_API_KEY"

// ErrAPIKeyNotFound reports that NewFromEnv found no key in the environment.
var ErrAPIKeyNotFound = errors.New("openai: OPENAI_API_KEY environment variable not set")

// Client issues streaming chat-completion requests. It is safe for
// concurrent use.
type Client struct {
	config Config
}

// New builds a client for the given API key.
func New(apiKey string, opts ...Option) *Client {
	cfg := Config{
		APIKey:     core.NewSecret(apiKey),
		BaseURL:    DefaultBaseURL,
		HTTPClient: http.DefaultClient,
		Telemetry:  core.NoopTelemetryHook{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Client{config: cfg}
}

// NewFromEnv builds a client from OPENAI_API_KEY:
//
//	client, err := openai.NewFromEnv(openai.WithOrgID("org-xxx"))
func NewFromEnv(opts ...Option) (*Client, error) {
	key := os.Getenv(DefaultAPIKeyEnvVar)
	if key == "" {
		return nil, ErrAPIKeyNotFound
	}
	return New(key, opts...), nil
}

// ID returns the service identifier.
func (c *Client) ID() string {
	return serviceID
}

// buildHeaders assembles the header set for one request: auth and content
// type, the optional scoping headers, then config extras.
func (c *Client) buildHeaders() http.Header {
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+c.config.APIKey.Expose())
	h.Set("Content-Type", "application/json")
	if c.config.OrgID != "" {
		h.Set("OpenAI-Organization", c.config.OrgID)
	}
	if c.config.ProjectID != "" {
		h.Set("OpenAI-Project", c.config.ProjectID)
	}
	for key, values := range c.config.Headers {
		for _, v := range values {
			h.Add(key, v)
		}
	}
	return h
}
