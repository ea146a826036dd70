package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

const plaintextKey = "sk-scribe-plaintext"

func TestSecretRedactsAllFmtVerbs(t *testing.T) {
	s := NewSecret(plaintextKey)

	for _, verb := range []string{"%v", "%s", "%+v", "%#v"} {
		t.Run(verb, func(t *testing.T) {
			out := fmt.Sprintf(verb, s)
			if strings.Contains(out, plaintextKey) {
				t.Errorf("Sprintf(%q) leaked the value: %s", verb, out)
			}
			if !strings.Contains(out, redacted) {
				t.Errorf("Sprintf(%q) = %q, want the redaction placeholder", verb, out)
			}
		})
	}
}

func TestSecretExpose(t *testing.T) {
	if got := NewSecret(plaintextKey).Expose(); got != plaintextKey {
		t.Errorf("Expose() = %q, want %q", got, plaintextKey)
	}
	if got := NewSecret("").Expose(); got != "" {
		t.Errorf("Expose() on empty secret = %q, want empty", got)
	}
}

func TestSecretIsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"empty", "", true},
		{"key", plaintextKey, false},
		{"whitespace counts as a value", "  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewSecret(tt.value).IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSecretInsideJSONStruct(t *testing.T) {
	cfg := struct {
		Service string `json:"service"`
		Key     Secret `json:"key"`
	}{Service: "openai", Key: NewSecret(plaintextKey)}

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if got, want := string(data), `{"service":"openai","key":"[REDACTED]"}`; got != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}

func TestSecretMarshalText(t *testing.T) {
	out, err := NewSecret(plaintextKey).MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}
	if string(out) != redacted {
		t.Errorf("MarshalText() = %q, want %q", out, redacted)
	}
}

func TestSecretLogValue(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	log.Info("client configured", "api_key", NewSecret(plaintextKey))

	out := buf.String()
	if strings.Contains(out, plaintextKey) {
		t.Fatalf("log output leaked the value: %s", out)
	}
	if !strings.Contains(out, redacted) {
		t.Errorf("log output = %q, want the redaction placeholder", out)
	}
}
