package cdx

import (
	"errors"
	"fmt"
)

// StatusUnknown marks a QueryError whose HTTP status could not be determined
// (transport failure before a response arrived).
const StatusUnknown = 0

// ErrPaginationUnsupported marks a failed page-count capability probe.
// Not every deployment of the index service supports page counting; callers
// seeing this sentinel can fall back to resume-key iteration instead of
// aborting. Use errors.Is(err, ErrPaginationUnsupported).
var ErrPaginationUnsupported = errors.New("index service does not support page counting")

// QueryError is the single error kind for index API failures: HTTP error
// statuses, transport failures, and malformed response bodies all surface as
// a QueryError. Status carries the HTTP status when known.
type QueryError struct {
	// Status is the HTTP status, StatusUnknown when no response was obtained.
	Status int
	// Op is the failing operation ("search", "numpages").
	Op string
	// Msg describes the failure.
	Msg string
	// Err is the underlying error, if any.
	Err error
}

func (e *QueryError) Error() string {
	if e.Status != StatusUnknown {
		return fmt.Sprintf("cdx %s: %s (HTTP %d)", e.Op, e.Msg, e.Status)
	}
	return fmt.Sprintf("cdx %s: %s", e.Op, e.Msg)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// newQueryError creates a classified index error.
func newQueryError(op string, status int, msg string, err error) *QueryError {
	return &QueryError{Status: status, Op: op, Msg: msg, Err: err}
}

// IsQueryError reports whether err is (or wraps) a QueryError, returning it.
func IsQueryError(err error) (*QueryError, bool) {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}
