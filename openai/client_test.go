package openai

import (
	"errors"
	"net/http"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	c := New("test-key")

	if c.config.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", c.config.BaseURL, DefaultBaseURL)
	}
	if c.config.HTTPClient != http.DefaultClient {
		t.Error("HTTPClient should default to http.DefaultClient")
	}
	if c.config.APIKey.Expose() != "test-key" {
		t.Error("APIKey should hold the provided key")
	}
	if c.ID() != "openai" {
		t.Errorf("ID() = %q, want %q", c.ID(), "openai")
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv(DefaultAPIKeyEnvVar, "env-key")

	c, err := NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv() error = %v", err)
	}
	if c.config.APIKey.Expose() != "env-key" {
		t.Error("NewFromEnv() should read the key from the environment")
	}
}

func TestNewFromEnvMissingKey(t *testing.T) {
	t.Setenv(DefaultAPIKeyEnvVar, "")

	_, err := NewFromEnv()
	if !errors.Is(err, ErrAPIKeyNotFound) {
		t.Errorf("NewFromEnv() error = %v, want ErrAPIKeyNotFound", err)
	}
}

func TestBuildHeaders(t *testing.T) {
	c := New("test-key",
		WithOrgID("org-123"),
		WithProjectID("proj-456"),
		WithHeader("X-Custom", "custom-value"),
	)

	headers := c.buildHeaders()

	if got := headers.Get("Authorization"); got != "Bearer test-key" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer test-key")
	}
	if got := headers.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want %q", got, "application/json")
	}
	if got := headers.Get("OpenAI-Organization"); got != "org-123" {
		t.Errorf("OpenAI-Organization = %q, want %q", got, "org-123")
	}
	if got := headers.Get("OpenAI-Project"); got != "proj-456" {
		t.Errorf("OpenAI-Project = %q, want %q", got, "proj-456")
	}
	if got := headers.Get("X-Custom"); got != "custom-value" {
		t.Errorf("X-Custom = %q, want %q", got, "custom-value")
	}
}

func TestBuildHeadersMinimal(t *testing.T) {
	c := New("test-key")

	headers := c.buildHeaders()
	if _, ok := headers["Openai-Organization"]; ok {
		t.Error("organization header should be absent when unset")
	}
	if _, ok := headers["Openai-Project"]; ok {
		t.Error("project header should be absent when unset")
	}
}
