package fetch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/justapithecus/stratum/archive"
)

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rejection status", &FetchError{URL: "u", Status: 503}, true},
		{"transient navigation", ErrTransientNavigation, true},
		{"wrapped navigation", fmt.Errorf("attempt 2: %w", ErrTransientNavigation), true},
		{"timeout", ErrTimeout, true},
		{"deadline", context.DeadlineExceeded, true},
		{"cancelled", ErrCancelled, false},
		{"context cancelled", context.Canceled, false},
		{"invalid url", &archive.InvalidURLError{URL: "u", Reason: "shape"}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Errorf("Retryable(%s) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRetryable_CancellationWinsOverKind(t *testing.T) {
	// A cancelled attempt may surface wrapped in another kind; cancellation
	// always disables retry.
	err := errors.Join(ErrCancelled, ErrTransientNavigation)
	if Retryable(err) {
		t.Error("cancellation must never be retried")
	}
}

func TestFetchError_Message(t *testing.T) {
	err := &FetchError{URL: "https://example.com/", Status: 404}
	if got := err.Error(); got != "fetch: https://example.com/ returned status 404" {
		t.Errorf("Error() = %q", got)
	}
}
