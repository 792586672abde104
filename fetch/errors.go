package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/justapithecus/stratum/archive"
	"github.com/justapithecus/stratum/types"
)

// Sentinel errors for fetch attempt outcomes. Engines classify their
// backend-specific failures into these kinds so retry decisions never depend
// on backend details.
var (
	// ErrTransientNavigation marks a navigation failure inside the rendering
	// engine (crashed page, dropped connection, archive hiccup).
	ErrTransientNavigation = errors.New("fetch: transient navigation failure")

	// ErrTimeout marks an attempt that exceeded its time budget.
	ErrTimeout = errors.New("fetch: attempt timed out")

	// ErrCancelled marks an attempt abandoned because the caller cancelled.
	ErrCancelled = errors.New("fetch: cancelled")
)

// FetchError reports an attempt that reached the archive but came back with a
// rejection status (4xx or 5xx). Result carries the partial response so
// callers can inspect the body the archive returned alongside the status.
type FetchError struct {
	URL    string
	Status int
	Result *types.FetchResult
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch: %s returned status %d", e.URL, e.Status)
}

// Retryable reports whether another attempt may succeed. Classification is by
// error kind only: rejection statuses, navigation failures, timeouts, and
// transport errors are retryable; cancellation and malformed URLs are not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
		return false
	}
	var invalidURL *archive.InvalidURLError
	if errors.As(err, &invalidURL) {
		return false
	}

	if errors.Is(err, ErrTransientNavigation) || errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
