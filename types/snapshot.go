package types

// Snapshot is the normalized view of a single capture, derived 1:1 from an
// IndexRecord. Wire names follow the metadata output shape consumed by
// downstream callers.
type Snapshot struct {
	// SnapshotURL is the archive replay URL built from timestamp + original URL.
	SnapshotURL string `json:"wayback_url" msgpack:"wayback_url" yaml:"wayback_url"`
	Timestamp   string `json:"timestamp" msgpack:"timestamp" yaml:"timestamp"`
	OriginalURL string `json:"original_url" msgpack:"original_url" yaml:"original_url"`
	MimeType    string `json:"mimetype" msgpack:"mimetype" yaml:"mimetype"`
	StatusCode  string `json:"statuscode" msgpack:"statuscode" yaml:"statuscode"`
	Digest      string `json:"digest" msgpack:"digest" yaml:"digest"`
	Length      string `json:"length" msgpack:"length" yaml:"length"`
	// Year is the first 4 digits of the timestamp, Date the first 8.
	Year string `json:"year" msgpack:"year" yaml:"year"`
	Date string `json:"date" msgpack:"date" yaml:"date"`
}

// SnapshotMetadata is the aggregated snapshot view for one normalized URL.
//
// Snapshots preserve index-response order (ascending by timestamp under the
// regular sort). Latest and Oldest always point into Snapshots; they are
// recomputed from the current sequence, never cached independently.
type SnapshotMetadata struct {
	URL            string     `json:"url" msgpack:"url" yaml:"url"`
	SnapshotsCount int        `json:"snapshots_count" msgpack:"snapshots_count" yaml:"snapshots_count"`
	Snapshots      []Snapshot `json:"snapshots" msgpack:"snapshots" yaml:"snapshots"`
	Latest         *Snapshot  `json:"latest" msgpack:"latest" yaml:"latest"`
	Oldest         *Snapshot  `json:"oldest" msgpack:"oldest" yaml:"oldest"`
}
