package apierr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	envelope := &EnvelopeError{Message: "rate limited"}
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"timeout", fmt.Errorf("GET /x: %w", ErrTimeout), KindRetryLater},
		{"request timeout", fmt.Errorf("POST /y: %w", ErrRequestTimeout), KindRetryLater},
		{"network", &NetworkError{Method: "GET", URL: "/x", Err: errors.New("dial tcp: refused")}, KindRetryLater},
		{"http", &HTTPError{Method: "GET", URL: "/x", Status: 400}, KindRejected},
		{"envelope", envelope, KindRejected},
		{"parse", &ParseError{URL: "/x", Err: errors.New("bad json")}, KindRejected},
		{"conflict", &ConflictError{Field: "phone", Err: envelope}, KindConflict},
		{"other", context.Canceled, KindUnknown},
		{"nil", nil, KindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestRequestTimeoutMatchesTimeout(t *testing.T) {
	if !errors.Is(ErrRequestTimeout, ErrTimeout) {
		t.Fatalf("request timeout must match ErrTimeout")
	}
	if errors.Is(ErrTimeout, ErrRequestTimeout) {
		t.Fatalf("plain timeout must not match the engine sentinel")
	}
}

func TestHTTPErrorIsVerbose(t *testing.T) {
	err := &HTTPError{Method: "PUT", URL: "https://legacy/users", RequestBody: `{"phone":"1"}`, Status: 500, Body: "boom"}
	msg := err.Error()
	for _, want := range []string{"PUT", "https://legacy/users", `{"phone":"1"}`, "500", "boom"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
}

func TestMessageAndCode(t *testing.T) {
	wrapped := &ConflictError{Field: "phone", Err: &EnvelopeError{Message: "teléfono en uso", Code: "PHONE_TAKEN"}}
	if Message(wrapped) != "teléfono en uso" || Code(wrapped) != "PHONE_TAKEN" {
		t.Fatalf("expected message and code through the conflict wrapper")
	}
	httpErr := fmt.Errorf("call: %w", &HTTPError{Status: 409, Message: "dup", Code: "X"})
	if Message(httpErr) != "dup" || Code(httpErr) != "X" || Status(httpErr) != 409 {
		t.Fatalf("unexpected http error accessors")
	}
}
