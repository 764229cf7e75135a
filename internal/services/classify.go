package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/sift/internal/shared"
)

// ErrorKind is the classification of a failed remote call.
//
// The review engine and UI reason about kinds, never raw HTTP statuses.
type ErrorKind string

const (
	KindRateLimit      ErrorKind = "rate_limit"
	KindAuthentication ErrorKind = "authentication"
	KindPermission     ErrorKind = "permission"
	KindNetwork        ErrorKind = "network"
	KindUnknown        ErrorKind = "unknown"
)

// DefaultRetryAfter is used for rate-limit responses without a Retry-After header.
const DefaultRetryAfter = 60 * time.Second

// ClassifiedError is a remote-call failure normalized into a typed taxonomy
// with structured metadata. The classifier never retries; callers decide
// what to do with each kind.
type ClassifiedError struct {
	Kind       ErrorKind
	StatusCode int
	RetryAfter time.Duration // populated for KindRateLimit
	Message    string
}

func (e *ClassifiedError) Error() string {
	switch e.Kind {
	case KindRateLimit:
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	case KindAuthentication:
		return fmt.Sprintf("authentication failed: %s", e.Message)
	case KindPermission:
		return fmt.Sprintf("permission denied: %s", e.Message)
	case KindNetwork:
		return fmt.Sprintf("network failure: %s", e.Message)
	default:
		return fmt.Sprintf("request failed: %s", e.Message)
	}
}

// Unwrap maps kinds onto the shared sentinels so callers can use [errors.Is].
func (e *ClassifiedError) Unwrap() error {
	switch e.Kind {
	case KindAuthentication:
		return shared.ErrTokenExpired
	case KindNetwork:
		return shared.ErrServiceUnavailable
	default:
		return shared.ErrAPIRequest
	}
}

// Retryable reports whether re-issuing the same call can reasonably succeed.
// Authentication and permission failures need user intervention first.
func (e *ClassifiedError) Retryable() bool {
	return e.Kind == KindRateLimit || e.Kind == KindNetwork || e.Kind == KindUnknown
}

// spotifyErrorBody matches Spotify's regular error envelope.
type spotifyErrorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// Classify maps an HTTP failure response to a [ClassifiedError].
//
//   - 429 -> rate_limit, with Retry-After seconds (default 60)
//   - 401 -> authentication
//   - 403 -> permission
//   - 5xx -> network
//   - anything else -> unknown with best-effort message text
func Classify(statusCode int, header http.Header, body []byte) *ClassifiedError {
	message := extractMessage(statusCode, body)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return &ClassifiedError{
			Kind:       KindRateLimit,
			StatusCode: statusCode,
			RetryAfter: parseRetryAfter(header),
			Message:    message,
		}
	case statusCode == http.StatusUnauthorized:
		return &ClassifiedError{Kind: KindAuthentication, StatusCode: statusCode, Message: message}
	case statusCode == http.StatusForbidden:
		return &ClassifiedError{Kind: KindPermission, StatusCode: statusCode, Message: message}
	case statusCode >= 500:
		return &ClassifiedError{Kind: KindNetwork, StatusCode: statusCode, Message: message}
	default:
		return &ClassifiedError{Kind: KindUnknown, StatusCode: statusCode, Message: message}
	}
}

// ClassifyTransport wraps a transport-level failure (no HTTP response) as a network error.
func ClassifyTransport(err error) *ClassifiedError {
	return &ClassifiedError{Kind: KindNetwork, Message: err.Error()}
}

// AsClassified extracts a [ClassifiedError] from an error chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

// extractMessage pulls the error message from a Spotify error body, falling
// back to the HTTP status text.
func extractMessage(statusCode int, body []byte) string {
	if len(body) > 0 {
		var envelope spotifyErrorBody
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
			return envelope.Error.Message
		}
	}

	if text := http.StatusText(statusCode); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", statusCode)
}

// parseRetryAfter reads the Retry-After header as integer seconds.
func parseRetryAfter(header http.Header) time.Duration {
	if header == nil {
		return DefaultRetryAfter
	}

	raw := header.Get("Retry-After")
	if raw == "" {
		return DefaultRetryAfter
	}

	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return DefaultRetryAfter
	}

	return time.Duration(seconds) * time.Second
}
