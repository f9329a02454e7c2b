package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// Kind classifies a failed model call.
type Kind string

const (
	KindEmptyResponse Kind = "empty_response"
	KindAuth          Kind = "auth"
	KindRateLimited   Kind = "rate_limited"
	KindTimeout       Kind = "timeout"
	KindTransport     Kind = "transport"
)

// Messages carried by CallError when no upstream message exists. The user
// facing error table matches on their wording.
const (
	MsgEmptyResponse = "Empty response from API"
	MsgTimeout       = "Request timeout - please try again"
	MsgMissingAPIKey = "API key is not configured"
	MsgInvalidShape  = "Invalid API response structure"
)

// ErrUnsupportedModel is returned before any attempt when the selected model
// has no endpoint.
var ErrUnsupportedModel = errors.New("unsupported model")

// CallError is the error returned by a model call.
type CallError struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *CallError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("API request failed (%d): %s", e.Status, e.Message)
	}
	return e.Message
}

func (e *CallError) Unwrap() error { return e.Err }

// StatusError builds a CallError for a non-2xx HTTP response.
func StatusError(status int, message string) *CallError {
	kind := KindTransport
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = KindTimeout
	}
	return &CallError{Kind: kind, Status: status, Message: message}
}

// TransportError wraps a failure to reach the endpoint.
func TransportError(err error) *CallError {
	return &CallError{Kind: KindTransport, Message: "network error: " + err.Error(), Err: err}
}

// TimeoutError wraps an attempt that ran past its deadline.
func TimeoutError(err error) *CallError {
	return &CallError{Kind: KindTimeout, Message: MsgTimeout, Err: err}
}

// KindOf reports the kind of err, treating unknown errors as transport
// failures.
func KindOf(err error) Kind {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindTransport
}

// IsTerminal reports whether err must not be retried: authentication
// failures and anything mentioning the API key.
func IsTerminal(err error) bool {
	if err == nil {
		return false
	}
	var ce *CallError
	if errors.As(err, &ce) {
		if ce.Kind == KindAuth || ce.Status == http.StatusUnauthorized || ce.Status == http.StatusForbidden {
			return true
		}
	}
	msg := err.Error()
	return strings.Contains(msg, "API key") || authStatus.MatchString(msg)
}

var authStatus = regexp.MustCompile(`(^|[^0-9])40[13]([^0-9]|$)`)
