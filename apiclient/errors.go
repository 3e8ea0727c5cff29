package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var (
	// ErrRefreshTokenMissing is the cause of an AuthenticationError raised when a
	// 401 arrives and no refresh token is stored
	ErrRefreshTokenMissing = errors.New("refresh token missing")
	// ErrMalformedTokenResponse is returned when login or refresh succeeds without an access token
	ErrMalformedTokenResponse = errors.New("token response has no access token")
)

// TransportError is a failure where no HTTP response was received
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPStatusError is a non-2xx response
type HTTPStatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPStatusError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode), msg)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Message returns the server supplied error message, if the body carries one
func (e *HTTPStatusError) Message() string {
	var body struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error.Message
}

// AuthenticationError means the session could not be recovered: the refresh
// token is missing or the refresh call was rejected. Stored credentials have
// been cleared and a logout signalled by the time a caller sees it.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err == nil {
		return "authentication failed: " + e.Reason
	}
	return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 response
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsAuthenticationError reports whether the session was lost
func IsAuthenticationError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// ErrorMessage returns the most useful message for display: the server's
// message for status errors, otherwise err.Error()
func ErrorMessage(err error) string {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if msg := statusErr.Message(); msg != "" {
			return msg
		}
	}
	return err.Error()
}
