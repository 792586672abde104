package archive

import "fmt"

// InvalidURLError reports a URL that does not match the archive replay shape.
// It is a permanent classification: callers must not retry a fetch whose URL
// failed to parse.
type InvalidURLError struct {
	URL    string
	Reason string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("archive: invalid snapshot URL %q: %s", e.URL, e.Reason)
}
