// Package types defines core domain types for the Stratum runtime.
//
//nolint:revive // types is a common Go package naming convention
package types

// DefaultFieldNames is the 7-field set the index service returns when no
// explicit field selection is supplied.
var DefaultFieldNames = []string{
	"urlkey", "timestamp", "original", "mimetype",
	"statuscode", "digest", "length",
}

// IndexRecord is a single capture row from the index service.
//
// Field values are kept exactly as received: always strings, no numeric
// coercion. A record is constructed once per response row and never mutated
// afterwards; it is owned by the IndexResponse that produced it.
type IndexRecord struct {
	URLKey     string `json:"urlkey" msgpack:"urlkey"`
	Timestamp  string `json:"timestamp" msgpack:"timestamp"`
	Original   string `json:"original" msgpack:"original"`
	MimeType   string `json:"mimetype" msgpack:"mimetype"`
	StatusCode string `json:"statuscode" msgpack:"statuscode"`
	Digest     string `json:"digest" msgpack:"digest"`
	Length     string `json:"length" msgpack:"length"`

	// Optional columns present only for some query shapes.
	Filename     string `json:"filename,omitempty" msgpack:"filename,omitempty"`
	Offset       string `json:"offset,omitempty" msgpack:"offset,omitempty"`
	DupeCount    string `json:"dupecount,omitempty" msgpack:"dupecount,omitempty"`
	GroupCount   string `json:"groupcount,omitempty" msgpack:"groupcount,omitempty"`
	EndTimestamp string `json:"endtimestamp,omitempty" msgpack:"endtimestamp,omitempty"`

	// Extra holds columns the canonical set does not recognize, keyed by the
	// field name the service reported.
	Extra map[string]string `json:"extra,omitempty" msgpack:"extra,omitempty"`
}

// NewIndexRecord builds a record from a value row and the field-name list
// that defines it. Values beyond the field-name list are ignored; missing
// trailing values leave their fields empty.
func NewIndexRecord(values, fieldNames []string) IndexRecord {
	var r IndexRecord
	for i, name := range fieldNames {
		if i >= len(values) {
			break
		}
		r.setField(name, values[i])
	}
	return r
}

func (r *IndexRecord) setField(name, value string) {
	switch name {
	case "urlkey":
		r.URLKey = value
	case "timestamp":
		r.Timestamp = value
	case "original":
		r.Original = value
	case "mimetype":
		r.MimeType = value
	case "statuscode":
		r.StatusCode = value
	case "digest":
		r.Digest = value
	case "length":
		r.Length = value
	case "filename":
		r.Filename = value
	case "offset":
		r.Offset = value
	case "dupecount":
		r.DupeCount = value
	case "groupcount":
		r.GroupCount = value
	case "endtimestamp":
		r.EndTimestamp = value
	default:
		if r.Extra == nil {
			r.Extra = make(map[string]string)
		}
		r.Extra[name] = value
	}
}

// Field returns the value for a field name, checking the canonical columns
// first and then the extension map.
func (r *IndexRecord) Field(name string) (string, bool) {
	switch name {
	case "urlkey":
		return r.URLKey, true
	case "timestamp":
		return r.Timestamp, true
	case "original":
		return r.Original, true
	case "mimetype":
		return r.MimeType, true
	case "statuscode":
		return r.StatusCode, true
	case "digest":
		return r.Digest, true
	case "length":
		return r.Length, true
	case "filename":
		return r.Filename, r.Filename != ""
	case "offset":
		return r.Offset, r.Offset != ""
	case "dupecount":
		return r.DupeCount, r.DupeCount != ""
	case "groupcount":
		return r.GroupCount, r.GroupCount != ""
	case "endtimestamp":
		return r.EndTimestamp, r.EndTimestamp != ""
	}
	v, ok := r.Extra[name]
	return v, ok
}

// ToMap flattens the record for serialization. Optional columns appear only
// when non-empty; extension columns are merged in last.
func (r *IndexRecord) ToMap() map[string]string {
	m := map[string]string{
		"urlkey":     r.URLKey,
		"timestamp":  r.Timestamp,
		"original":   r.Original,
		"mimetype":   r.MimeType,
		"statuscode": r.StatusCode,
		"digest":     r.Digest,
		"length":     r.Length,
	}
	if r.Filename != "" {
		m["filename"] = r.Filename
	}
	if r.Offset != "" {
		m["offset"] = r.Offset
	}
	if r.DupeCount != "" {
		m["dupecount"] = r.DupeCount
	}
	if r.GroupCount != "" {
		m["groupcount"] = r.GroupCount
	}
	if r.EndTimestamp != "" {
		m["endtimestamp"] = r.EndTimestamp
	}
	for k, v := range r.Extra {
		m[k] = v
	}
	return m
}

// IndexResponse is the parsed result of one index query.
//
// Records holds data rows only; resume-key rows and blank separator rows are
// never counted as records.
type IndexResponse struct {
	// Records are the data rows, in service order.
	Records []IndexRecord
	// FieldNames is the field-name list that defined the records.
	FieldNames []string
	// ResumeKey is the opaque continuation token, empty when the service
	// reported none.
	ResumeKey string
	// NumPages is the total page count when the query asked for it; zero
	// means unknown.
	NumPages int
	// Raw is the unparsed response body, kept for diagnostics.
	Raw string
}

// Len returns the number of data rows.
func (r *IndexResponse) Len() int { return len(r.Records) }
