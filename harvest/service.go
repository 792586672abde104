// Package harvest is the facade tying the index client, the archive URL
// builder, and the download orchestrator into the two batch operations
// callers actually run: metadata retrieval and snapshot download.
package harvest

import (
	"context"

	"github.com/google/uuid"

	"github.com/justapithecus/stratum/archive"
	"github.com/justapithecus/stratum/cdx"
	"github.com/justapithecus/stratum/download"
	"github.com/justapithecus/stratum/fetch"
	"github.com/justapithecus/stratum/log"
	"github.com/justapithecus/stratum/metrics"
	"github.com/justapithecus/stratum/types"
)

// DefaultCollapse keeps metadata queries to at most one snapshot per year.
const DefaultCollapse = "timestamp:4"

// Service runs harvest operations against one index endpoint.
type Service struct {
	index     *cdx.Client
	orch      *download.Orchestrator
	baseURL   string
	policy    fetch.Policy
	sleep     fetch.Sleeper
	logger    *log.Logger
	collector *metrics.Collector
}

// Config assembles a Service. Index is required; everything else has a
// usable zero value.
type Config struct {
	Index        *cdx.Client
	Orchestrator *download.Orchestrator
	// BaseURL is the archive replay host; archive.DefaultBaseURL when empty.
	BaseURL string
	// Policy is the backoff applied to index retrieval; fetch.DefaultPolicy
	// when zero.
	Policy fetch.Policy
	// Sleeper overrides backoff sleeps, for tests.
	Sleeper   fetch.Sleeper
	Logger    *log.Logger
	Collector *metrics.Collector
}

// NewService creates a harvest service.
func NewService(cfg Config) *Service {
	s := &Service{
		index:     cfg.Index,
		orch:      cfg.Orchestrator,
		baseURL:   cfg.BaseURL,
		policy:    cfg.Policy,
		sleep:     cfg.Sleeper,
		logger:    cfg.Logger,
		collector: cfg.Collector,
	}
	if s.baseURL == "" {
		s.baseURL = archive.DefaultBaseURL
	}
	if s.policy == (fetch.Policy{}) {
		s.policy = fetch.DefaultPolicy()
	}
	if s.sleep == nil {
		s.sleep = fetch.DefaultSleeper
	}
	if s.logger == nil {
		s.logger = log.Nop()
	}
	return s
}

// MetadataOptions narrows a metadata query.
type MetadataOptions struct {
	// From and To bound the capture range, YYYYMMDDhhmmss with trailing
	// digits optional.
	From string
	To   string
	// Collapse limits snapshot density; DefaultCollapse when empty, "none"
	// disables collapsing entirely.
	Collapse string
}

// Metadata retrieves and aggregates snapshot metadata for one URL. The index
// query is the retry boundary for index errors: query failures back off under
// the service policy, and the final error propagates after the budget is
// spent.
func (s *Service) Metadata(ctx context.Context, rawURL string, opts MetadataOptions) (*types.SnapshotMetadata, error) {
	normalized := archive.NormalizeURL(rawURL)

	q := cdx.NewQuery(normalized)
	if opts.From != "" {
		q = q.From(opts.From)
	}
	if opts.To != "" {
		q = q.To(opts.To)
	}
	collapse := opts.Collapse
	if collapse == "" {
		collapse = DefaultCollapse
	}
	if collapse != "none" {
		q = q.Collapse(collapse)
	}

	resp, err := s.searchWithRetry(ctx, q, normalized)
	if err != nil {
		return nil, err
	}

	s.collector.AddRecordsRetrieved(resp.Len())
	return archive.Aggregate(resp, normalized, s.baseURL), nil
}

// searchWithRetry runs one index search under the backoff policy. Only index
// query errors are retried; anything else propagates immediately.
func (s *Service) searchWithRetry(ctx context.Context, q *cdx.Query, target string) (*types.IndexResponse, error) {
	attempts := s.policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		s.collector.IncIndexQuery()
		resp, err := s.index.Search(ctx, q)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		s.collector.IncIndexQueryError()

		if _, ok := cdx.IsQueryError(err); !ok || attempt == attempts {
			break
		}

		wait := s.policy.Wait(attempt)
		s.logger.Warn("index query failed, backing off", map[string]any{
			"target":  target,
			"attempt": attempt,
			"wait_ms": wait.Milliseconds(),
			"error":   err.Error(),
		})
		if err := s.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// BatchReport aggregates the outcome of one download batch.
type BatchReport struct {
	// BatchID correlates the report with the batch's log entries.
	BatchID   string
	Total     int
	Succeeded int
	Failed    int
}

// DownloadSnapshots fetches every snapshot in meta through the orchestrator
// using fast-fetch URLs. Results stay aligned with meta.Snapshots; the report
// counts nil slots as failures.
func (s *Service) DownloadSnapshots(ctx context.Context, meta *types.SnapshotMetadata, opts download.Options) (*BatchReport, []*types.FetchResult, error) {
	urls := make([]string, len(meta.Snapshots))
	for i, snap := range meta.Snapshots {
		urls[i] = archive.SnapshotURL(s.baseURL, snap.Timestamp, snap.OriginalURL, archive.ModeFast)
	}
	return s.downloadAll(ctx, urls, opts, meta.URL)
}

// DownloadURLs fetches arbitrary replay URLs, rewriting each to the
// fast-fetch mode first. A URL that fails to parse takes a nil slot without
// consuming a fetch; it never aborts the batch.
func (s *Service) DownloadURLs(ctx context.Context, rawURLs []string, opts download.Options) (*BatchReport, []*types.FetchResult, error) {
	urls := make([]string, 0, len(rawURLs))
	slots := make([]int, 0, len(rawURLs))
	invalid := 0

	for i, raw := range rawURLs {
		converted, err := archive.ConvertToFetchMode(raw)
		if err != nil {
			invalid++
			s.logger.Warn("skipping unparseable snapshot URL", map[string]any{
				"url":   raw,
				"error": err.Error(),
			})
			continue
		}
		urls = append(urls, converted)
		slots = append(slots, i)
	}

	report, fetched, err := s.downloadAll(ctx, urls, opts, "")
	if err != nil {
		return nil, nil, err
	}

	results := make([]*types.FetchResult, len(rawURLs))
	for i, r := range fetched {
		results[slots[i]] = r
	}
	report.Total = len(rawURLs)
	report.Failed += invalid
	return report, results, nil
}

func (s *Service) downloadAll(ctx context.Context, urls []string, opts download.Options, target string) (*BatchReport, []*types.FetchResult, error) {
	batchID := uuid.NewString()
	s.logger.Info("download batch started", map[string]any{
		"batch_id": batchID,
		"target":   target,
		"tasks":    len(urls),
	})

	results := s.orch.DownloadAll(ctx, urls, opts)

	report := &BatchReport{BatchID: batchID, Total: len(results)}
	for _, r := range results {
		if r != nil {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}

	s.logger.Info("download batch finished", map[string]any{
		"batch_id":  batchID,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
	})
	return report, results, nil
}
