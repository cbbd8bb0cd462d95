package bis

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

// APIError is a non-2xx answer from the BIS backend
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("BIS %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
}

// newAPIError takes the detail from the backend's {"detail": ...} body when
// present and falls back to the raw body otherwise.
func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{Method: method, Path: path, StatusCode: status}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Detail) > 0 {
		var s string
		if json.Unmarshal(envelope.Detail, &s) == nil {
			apiErr.Detail = s
			return apiErr
		}
		apiErr.Detail = string(envelope.Detail)
		return apiErr
	}

	apiErr.Detail = string(bytes.TrimSpace(body))
	if apiErr.Detail == "" {
		apiErr.Detail = http.StatusText(status)
	}
	return apiErr
}

// StatusCode returns the upstream status carried by err, or 0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether the backend answered 404
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
