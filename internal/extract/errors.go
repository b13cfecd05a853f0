package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// Kind classifies an extraction failure. The kind decides whether a retry
// can succeed: authentication and malformed payloads never recover without
// operator intervention.
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindAuth         Kind = "auth"
	KindRateLimit    Kind = "rate_limit"
	KindTransport    Kind = "transport"
	KindTimeout      Kind = "timeout"
	KindMalformed    Kind = "malformed_response"
)

// Retryable reports whether the failure class is transient.
func (k Kind) Retryable() bool {
	switch k {
	case KindRateLimit, KindTransport, KindTimeout:
		return true
	}
	return false
}

// Error is a classified extraction failure for one page.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// classify maps an error from the completion call onto the failure
// taxonomy. Unrecognized errors count as transport failures.
func classify(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Msg: "request timed out", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTransport, Msg: "request canceled", Err: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &Error{Kind: KindMalformed, Msg: "response payload did not parse", Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Msg: "request timed out", Err: err}
	}

	return &Error{Kind: KindTransport, Msg: "request failed", Err: err}
}

func classifyStatus(status int, err error) *Error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{Kind: KindAuth, Msg: fmt.Sprintf("endpoint rejected credential (status %d)", status), Err: err}
	case status == http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimit, Msg: "endpoint rejected request due to rate limit or quota", Err: err}
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return &Error{Kind: KindTimeout, Msg: fmt.Sprintf("endpoint timed out (status %d)", status), Err: err}
	default:
		return &Error{Kind: KindTransport, Msg: fmt.Sprintf("endpoint returned status %d", status), Err: err}
	}
}
