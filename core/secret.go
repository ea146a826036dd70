package core

import "log/slog"

// redacted replaces the underlying value on every formatting path a Secret
// can reach: fmt verbs, JSON, text encoders, and slog records.
const redacted = "[REDACTED]"

// Secret holds an API key or similar credential and refuses to print it.
// It can sit inside config structs and log fields without leaking; every
// encoder sees the placeholder instead of the value.
//
//	key := NewSecret(os.Getenv("OPENAI_API_KEY"))
//	fmt.Println(key)      // [REDACTED]
//	key.Expose()          // the raw key
//
// Call Expose only at the point the raw value is needed, such as building
// an Authorization header.
type Secret struct {
	value string
}

// NewSecret wraps value. Empty values are allowed; IsEmpty reports them.
func NewSecret(value string) Secret {
	return Secret{value: value}
}

// Expose returns the wrapped value. The caller must not log or serialize it.
func (s Secret) Expose() string {
	return s.value
}

// IsEmpty reports whether the wrapped value is the empty string.
func (s Secret) IsEmpty() bool {
	return s.value == ""
}

// String implements fmt.Stringer.
func (s Secret) String() string { return redacted }

// GoString implements fmt.GoStringer, covering the %#v verb.
func (s Secret) GoString() string { return "core.Secret{" + redacted + "}" }

// LogValue implements slog.LogValuer, so a Secret passed as a log attribute
// renders redacted regardless of handler.
func (s Secret) LogValue() slog.Value { return slog.StringValue(redacted) }

// MarshalJSON implements json.Marshaler.
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// MarshalText implements encoding.TextMarshaler, covering YAML and any other
// encoder that honors it.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}
