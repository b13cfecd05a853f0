package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"Unauthorized", &openai.APIError{HTTPStatusCode: 401}, KindAuth},
		{"Forbidden", &openai.APIError{HTTPStatusCode: 403}, KindAuth},
		{"RateLimited", &openai.APIError{HTTPStatusCode: 429}, KindRateLimit},
		{"ServerError", &openai.APIError{HTTPStatusCode: 502}, KindTransport},
		{"GatewayTimeout", &openai.APIError{HTTPStatusCode: 504}, KindTimeout},
		{"RequestErrorAuth", &openai.RequestError{HTTPStatusCode: 401, Err: errors.New("unauthorized")}, KindAuth},
		{"DeadlineExceeded", context.DeadlineExceeded, KindTimeout},
		{"WrappedDeadline", fmt.Errorf("call: %w", context.DeadlineExceeded), KindTimeout},
		{"Canceled", context.Canceled, KindTransport},
		{"MalformedJSON", &json.SyntaxError{}, KindMalformed},
		{"ConnectionRefused", errors.New("dial tcp: connection refused"), KindTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if got.Kind != tt.want {
				t.Errorf("classify(%v).Kind = %s, want %s", tt.err, got.Kind, tt.want)
			}
		})
	}
}

func TestKindRetryable(t *testing.T) {
	retryable := map[Kind]bool{
		KindInvalidInput: false,
		KindAuth:         false,
		KindMalformed:    false,
		KindRateLimit:    true,
		KindTransport:    true,
		KindTimeout:      true,
	}
	for kind, want := range retryable {
		if got := kind.Retryable(); got != want {
			t.Errorf("%s.Retryable() = %v, want %v", kind, got, want)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &Error{Kind: KindTransport, Msg: "request failed", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("expected classified error to unwrap to its cause")
	}
}
