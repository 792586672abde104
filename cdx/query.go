// Package cdx implements a client for web-archive CDX index services.
//
// The index API is a single GET endpoint returning capture metadata as
// newline-delimited text or a JSON array-of-arrays with a leading header row.
// Query construction is pure: building never performs network I/O and never
// validates against the live service; invalid combinations surface only when
// the service rejects the executed request.
package cdx

import (
	"net/url"
	"strconv"
	"strings"
)

// MatchType is the URL matching mode for index queries.
type MatchType string

const (
	MatchExact  MatchType = "exact"
	MatchPrefix MatchType = "prefix"
	MatchHost   MatchType = "host"
	MatchDomain MatchType = "domain"
)

// SortType is the sort order for index results.
type SortType string

const (
	// SortRegular is ascending by timestamp.
	SortRegular SortType = "regular"
	// SortReverse is descending by timestamp.
	SortReverse SortType = "reverse"
	// SortClosest orders by proximity to the closest timestamp.
	SortClosest SortType = "closest"
)

// OutputFormat is the response format for index results.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// Query accumulates index query parameters for one target URL.
// Methods return the receiver for chaining. A Query holds plain values and is
// safe to reuse across sequential searches; Clone it before concurrent use.
type Query struct {
	target          string
	matchType       MatchType
	from            string
	to              string
	closest         string
	sort            SortType
	limit           *int
	offset          *int
	fields          []string
	filters         []string
	collapses       []string
	output          OutputFormat
	page            *int
	pageSize        *int
	showResumeKey   bool
	resumeKey       string
	showNumPages    bool
	showDupeCount   bool
	resolveRevisits bool
	fastLatest      *bool
	gzip            *bool
}

// NewQuery creates a query for the given target URL.
func NewQuery(target string) *Query {
	return &Query{target: target}
}

// Target returns the query's target URL.
func (q *Query) Target() string { return q.target }

// MatchType sets the URL matching mode.
func (q *Query) MatchType(mt MatchType) *Query {
	q.matchType = mt
	return q
}

// From sets the inclusive start date (1-14 digit numeric prefix).
func (q *Query) From(date string) *Query {
	q.from = date
	return q
}

// To sets the inclusive end date (1-14 digit numeric prefix).
func (q *Query) To(date string) *Query {
	q.to = date
	return q
}

// Closest sets the timestamp for proximity sorting.
func (q *Query) Closest(timestamp string) *Query {
	q.closest = timestamp
	return q
}

// Sort sets the sort order.
func (q *Query) Sort(st SortType) *Query {
	q.sort = st
	return q
}

// Limit caps the result count. A negative value returns the last N results.
func (q *Query) Limit(n int) *Query {
	q.limit = &n
	return q
}

// Offset skips the first N results.
func (q *Query) Offset(n int) *Query {
	q.offset = &n
	return q
}

// Fields selects the fields to return (the fl parameter, comma-joined).
func (q *Query) Fields(names ...string) *Query {
	q.fields = append([]string{}, names...)
	return q
}

// Filter adds regex filters in the form "[!][~]field:pattern".
// A leading "!" negates; "~" makes it a substring/regex match.
// Each filter is sent as its own repeated query entry.
func (q *Query) Filter(filters ...string) *Query {
	q.filters = append(q.filters, filters...)
	return q
}

// Collapse adds collapse directives in the form "field" or "field:N",
// collapsing consecutive records that share the first N characters of field.
// Each directive is sent as its own repeated query entry.
func (q *Query) Collapse(specs ...string) *Query {
	q.collapses = append(q.collapses, specs...)
	return q
}

// Output sets the response format.
func (q *Query) Output(f OutputFormat) *Query {
	q.output = f
	return q
}

// Page sets the 0-based page number.
func (q *Query) Page(n int) *Query {
	q.page = &n
	return q
}

// PageSize sets the page size.
func (q *Query) PageSize(n int) *Query {
	q.pageSize = &n
	return q
}

// ShowResumeKey requests a resume key in the response.
func (q *Query) ShowResumeKey(show bool) *Query {
	q.showResumeKey = show
	return q
}

// ResumeKey continues a previous query from the given token.
func (q *Query) ResumeKey(key string) *Query {
	q.resumeKey = key
	return q
}

// ShowNumPages requests the total page count instead of records.
func (q *Query) ShowNumPages(show bool) *Query {
	q.showNumPages = show
	return q
}

// ShowDupeCount requests the duplicate-count column.
func (q *Query) ShowDupeCount(show bool) *Query {
	q.showDupeCount = show
	return q
}

// ResolveRevisits requests revisit-record resolution.
func (q *Query) ResolveRevisits(resolve bool) *Query {
	q.resolveRevisits = resolve
	return q
}

// FastLatest enables the fast-latest optimization.
func (q *Query) FastLatest(fast bool) *Query {
	q.fastLatest = &fast
	return q
}

// Gzip enables or disables response compression.
func (q *Query) Gzip(enabled bool) *Query {
	q.gzip = &enabled
	return q
}

// FieldNames returns the effective field-name list for this query: the
// explicit field selection when present, else the service's default 7-field
// set. Used by the text parser, which gets no header row.
func (q *Query) FieldNames(defaults []string) []string {
	if len(q.fields) > 0 {
		return q.fields
	}
	return defaults
}

// Clone returns a deep copy of the query. Iteration helpers clone the
// caller's query so threading resume keys back in never mutates it.
func (q *Query) Clone() *Query {
	c := *q
	c.fields = append([]string{}, q.fields...)
	c.filters = append([]string{}, q.filters...)
	c.collapses = append([]string{}, q.collapses...)
	if q.limit != nil {
		v := *q.limit
		c.limit = &v
	}
	if q.offset != nil {
		v := *q.offset
		c.offset = &v
	}
	if q.page != nil {
		v := *q.page
		c.page = &v
	}
	if q.pageSize != nil {
		v := *q.pageSize
		c.pageSize = &v
	}
	if q.fastLatest != nil {
		v := *q.fastLatest
		c.fastLatest = &v
	}
	if q.gzip != nil {
		v := *q.gzip
		c.gzip = &v
	}
	return &c
}

// Values serializes the query to URL parameters. List-valued parameters
// (filter, collapse) are repeated as multiple same-named entries, never
// comma-joined.
func (q *Query) Values() url.Values {
	v := url.Values{}
	v.Set("url", q.target)

	if q.matchType != "" {
		v.Set("matchType", string(q.matchType))
	}
	if q.from != "" {
		v.Set("from", q.from)
	}
	if q.to != "" {
		v.Set("to", q.to)
	}
	if q.closest != "" {
		v.Set("closest", q.closest)
	}
	if q.sort != "" {
		v.Set("sort", string(q.sort))
	}
	if q.limit != nil {
		v.Set("limit", strconv.Itoa(*q.limit))
	}
	if q.offset != nil {
		v.Set("offset", strconv.Itoa(*q.offset))
	}
	if len(q.fields) > 0 {
		v.Set("fl", strings.Join(q.fields, ","))
	}
	for _, f := range q.filters {
		v.Add("filter", f)
	}
	for _, c := range q.collapses {
		v.Add("collapse", c)
	}
	if q.output != "" {
		v.Set("output", string(q.output))
	}
	if q.page != nil {
		v.Set("page", strconv.Itoa(*q.page))
	}
	if q.pageSize != nil {
		v.Set("pageSize", strconv.Itoa(*q.pageSize))
	}
	if q.showResumeKey {
		v.Set("showResumeKey", "true")
	}
	if q.resumeKey != "" {
		v.Set("resumeKey", q.resumeKey)
	}
	if q.showNumPages {
		v.Set("showNumPages", "true")
	}
	if q.showDupeCount {
		v.Set("showDupeCount", "true")
	}
	if q.resolveRevisits {
		v.Set("resolveRevisits", "true")
	}
	if q.fastLatest != nil {
		v.Set("fastLatest", strconv.FormatBool(*q.fastLatest))
	}
	if q.gzip != nil {
		v.Set("gzip", strconv.FormatBool(*q.gzip))
	}

	return v
}
