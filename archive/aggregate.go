package archive

import "github.com/justapithecus/stratum/types"

// Aggregate folds an index response into snapshot metadata for one normalized
// URL. Records with an empty timestamp are dropped. The index service returns
// captures in ascending timestamp order under the regular sort, so Oldest is
// the first surviving snapshot and Latest the last; Aggregate relies on that
// ordering rather than re-sorting.
func Aggregate(resp *types.IndexResponse, normalizedURL, base string) *types.SnapshotMetadata {
	meta := &types.SnapshotMetadata{URL: normalizedURL}
	if resp == nil {
		return meta
	}

	for _, rec := range resp.Records {
		if rec.Timestamp == "" {
			continue
		}
		meta.Snapshots = append(meta.Snapshots, snapshotFromRecord(rec, normalizedURL, base))
	}

	meta.SnapshotsCount = len(meta.Snapshots)
	if meta.SnapshotsCount > 0 {
		meta.Oldest = &meta.Snapshots[0]
		meta.Latest = &meta.Snapshots[meta.SnapshotsCount-1]
	}
	return meta
}

func snapshotFromRecord(rec types.IndexRecord, normalizedURL, base string) types.Snapshot {
	ts := rec.Timestamp

	year := ""
	if len(ts) >= 4 {
		year = ts[:4]
	}
	date := ts
	if len(ts) >= 8 {
		date = ts[:8]
	}

	return types.Snapshot{
		SnapshotURL: SnapshotURL(base, ts, normalizedURL, ModeNone),
		Timestamp:   ts,
		OriginalURL: normalizedURL,
		MimeType:    rec.MimeType,
		StatusCode:  rec.StatusCode,
		Digest:      rec.Digest,
		Length:      rec.Length,
		Year:        year,
		Date:        date,
	}
}
