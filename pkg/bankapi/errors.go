package bankapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/me/gobank/pkg/model"
)

// User-facing messages for the failure kinds that do not depend on the server text.
const (
	MsgInvalidCredentials = "Login failed: Invalid credentials"
	MsgSessionExpired     = "Session expired. Please log in again."
	MsgNoProfile          = "No account found. Please create an account."
)

// maxMessageLen bounds how much of a raw error body is surfaced to the user.
const maxMessageLen = 200

// NetworkError is a transport-level failure: DNS, refused connection,
// timeout, or a broken response stream. No HTTP status was received.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError represents a non-2xx answer from one of the services.
type HTTPError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// IsNetworkError reports whether err is a transport-level failure.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	var me *model.Error
	if errors.As(err, &me) {
		return me.Status
	}
	return 0
}

// networkFailure wraps a transport fault for operation op.
func networkFailure(op string, err error) *model.Error {
	return &model.Error{
		Kind:    model.KindNetwork,
		Op:      op,
		Message: "Network error: " + rootCause(err).Error(),
		Err:     err,
	}
}

// statusFailure classifies a non-2xx response of an operation. authenticated
// is true for calls that carried a bearer token; a 401 on those means the
// token was rejected.
func statusFailure(op string, resp *Response, authenticated bool) *model.Error {
	e := &model.Error{
		Op:     op,
		Status: resp.StatusCode,
		Err:    &HTTPError{StatusCode: resp.StatusCode, Body: truncate(string(resp.Body))},
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized && authenticated:
		e.Kind = model.KindSessionExpired
		e.Message = MsgSessionExpired
	case resp.StatusCode >= 500:
		e.Kind = model.KindServer
		e.Message = serverMessage(resp)
	default:
		e.Kind = model.KindValidation
		e.Message = serverMessage(resp)
	}
	return e
}

// serverMessage extracts the most useful text from an error body: a JSON
// "message" or "error" field, else the raw body, else the status text.
func serverMessage(resp *Response) string {
	var body model.MessageResponse
	if json.Unmarshal(resp.Body, &body) == nil {
		if body.Message != "" {
			return truncate(body.Message)
		}
		if body.Error != "" {
			return truncate(body.Error)
		}
	}
	raw := strings.TrimSpace(string(resp.Body))
	if raw != "" && !strings.HasPrefix(raw, "{") && !strings.HasPrefix(raw, "<") {
		return truncate(raw)
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return fmt.Sprintf("%s (HTTP %d)", text, resp.StatusCode)
	}
	return fmt.Sprintf("HTTP %d", resp.StatusCode)
}

// decodeFailure reports a 2xx response whose body could not be parsed.
func decodeFailure(op string, resp *Response, err error) *model.Error {
	return &model.Error{
		Kind:    model.KindServer,
		Op:      op,
		Message: "Unexpected response from server",
		Status:  resp.StatusCode,
		Err:     err,
	}
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxMessageLen {
		cut := maxMessageLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "..."
	}
	return s
}
