// Package archive builds and rewrites replay URLs for a web-archive service
// and aggregates index records into snapshot metadata.
package archive

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultBaseURL is the replay host snapshots resolve against unless a
// deployment overrides it in config.
const DefaultBaseURL = "https://web.archive.org"

// Replay modes recognized in archive URLs. The empty mode renders the capture
// inside the archive's wrapper chrome; ModeFast returns the original payload
// untouched, which the fetch path always wants.
const (
	ModeNone = ""
	ModeFast = "id"
)

// snapshotURLPattern matches {base}/web/{14-digit-timestamp}{mode}/{target}.
// The mode segment may be empty or any trailing marker such as id_, if_, js_.
var snapshotURLPattern = regexp.MustCompile(`^(https?://[^/]+)/web/(\d{14})([a-z_]*)/(.+)$`)

// NormalizeURL trims whitespace and prepends https:// when the scheme is
// missing. Inputs that already carry http:// or https:// pass through.
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}
	return u
}

// SnapshotURL builds a replay URL for one capture. With ModeNone the result
// is the wrapper URL used in metadata output; any other mode is appended to
// the timestamp with a trailing underscore.
func SnapshotURL(base, timestamp, target, mode string) string {
	if mode == ModeNone {
		return fmt.Sprintf("%s/web/%s/%s", base, timestamp, target)
	}
	return fmt.Sprintf("%s/web/%s%s_/%s", base, timestamp, mode, target)
}

// ConvertToFetchMode rewrites any replay URL variant to the fast-fetch id_
// form, which makes the archive return the original capture body instead of
// the rewritten wrapper page. URLs whose shape or timestamp do not match the
// replay pattern yield an *InvalidURLError; the timestamp must be exactly 14
// digits.
func ConvertToFetchMode(u string) (string, error) {
	m := snapshotURLPattern.FindStringSubmatch(u)
	if m == nil {
		return "", &InvalidURLError{URL: u, Reason: "not a /web/{timestamp}/{target} replay URL"}
	}
	base, timestamp, target := m[1], m[2], m[4]
	return SnapshotURL(base, timestamp, target, ModeFast), nil
}
