package openai

import (
	"log/slog"
	"net/http"

	"github.com/petal-labs/scribe/core"
)

// DefaultBaseURL points at the hosted OpenAI API. Override it to target a
// compatible service such as a local proxy.
const DefaultBaseURL = "https://api.openai.com/v1"

// Config carries everything the client needs to reach the service. Zero
// values fall back to the defaults noted per field.
type Config struct {
	// APIKey authenticates the Bearer header on every request.
	APIKey core.Secret

	// BaseURL overrides DefaultBaseURL when set.
	BaseURL string

	// HTTPClient issues the requests, http.DefaultClient when nil. Avoid a
	// client-wide Timeout: it severs long streams mid-read. Deadlines belong
	// on the request context.
	HTTPClient *http.Client

	// OrgID selects an OpenAI organization, sent as OpenAI-Organization.
	OrgID string

	// ProjectID selects an OpenAI project, sent as OpenAI-Project.
	ProjectID string

	// Headers are merged into every request after the standard set.
	Headers http.Header

	// Logger receives debug-level request lifecycle logs, slog.Default()
	// when nil.
	Logger *slog.Logger

	// Telemetry observes request lifecycle events, NoopTelemetryHook when
	// unset.
	Telemetry core.TelemetryHook
}

// logger tags the configured or default logger with the component name.
func (c Config) logger() *slog.Logger {
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}
	return log.With("component", serviceID)
}

// Option adjusts Config during New.
type Option func(*Config)

// WithBaseURL targets an alternate API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithHTTPClient substitutes the transport, for proxies or custom TLS.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) { c.HTTPClient = client }
}

// WithOrgID scopes requests to an OpenAI organization.
func WithOrgID(org string) Option {
	return func(c *Config) { c.OrgID = org }
}

// WithProjectID scopes requests to an OpenAI project.
func WithProjectID(project string) Option {
	return func(c *Config) { c.ProjectID = project }
}

// WithHeader adds one extra header to every request.
func WithHeader(key, value string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(http.Header)
		}
		c.Headers.Set(key, value)
	}
}

// WithLogger routes request lifecycle logs to log.
func WithLogger(log *slog.Logger) Option {
	return func(c *Config) { c.Logger = log }
}

// WithTelemetry installs a lifecycle event hook.
func WithTelemetry(hook core.TelemetryHook) Option {
	return func(c *Config) {
		if hook != nil {
			c.Telemetry = hook
		}
	}
}
