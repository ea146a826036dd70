package openai

import (
	"fmt"
	"net/http"

	"github.com/petal-labs/scribe/core"
)

// newServiceError wraps a non-success HTTP response. The body travels
// verbatim; whatever the service said is what the user sees.
func newServiceError(status int, body []byte) error {
	return &core.ServiceError{
		Service: serviceID,
		Status:  status,
		Body:    string(body),
		Err:     sentinelForStatus(status),
	}
}

// newNetworkError classifies transport failures.
func newNetworkError(err error) error {
	return fmt.Errorf("%s: %w: %w", serviceID, core.ErrNetwork, err)
}

// newDecodeError classifies per-frame parse failures.
func newDecodeError(err error) error {
	return fmt.Errorf("%s: %w: %w", serviceID, core.ErrDecode, err)
}

// newEncodeError classifies request serialization failures.
func newEncodeError(err error) error {
	return fmt.Errorf("%s: %w: %w", serviceID, core.ErrEncode, err)
}

// sentinelForStatus maps an HTTP status code to a core sentinel error.
func sentinelForStatus(status int) error {
	switch {
	case status == http.StatusBadRequest:
		return core.ErrBadRequest
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return core.ErrUnauthorized
	case status == http.StatusNotFound:
		return core.ErrNotFound
	case status == http.StatusTooManyRequests:
		return core.ErrRateLimited
	case status >= 500:
		return core.ErrServer
	default:
		return core.ErrServer
	}
}
