// Package metrics provides per-batch metrics collection.
//
// The Collector accumulates counters during a single harvest batch. It is a
// leaf package with no internal dependencies.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all batch counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Index side
	IndexQueries     int64
	IndexQueryErrors int64
	RecordsRetrieved int64

	// Fetch side
	FetchesStarted   int64
	FetchesSucceeded int64
	FetchesFailed    int64
	FetchRetries     int64
	BytesFetched     int64

	// Dimensions (informational, set at construction)
	Engine  string
	BatchID string
	Target  string
}

// Collector accumulates metrics during a single batch.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	indexQueries     int64
	indexQueryErrors int64
	recordsRetrieved int64

	fetchesStarted   int64
	fetchesSucceeded int64
	fetchesFailed    int64
	fetchRetries     int64
	bytesFetched     int64

	engine  string
	batchID string
	target  string
}

// NewCollector creates a Collector with dimension labels. engine names the
// fetch engine in use; batchID and target are optional dimensions.
func NewCollector(engine, batchID, target string) *Collector {
	return &Collector{
		engine:  engine,
		batchID: batchID,
		target:  target,
	}
}

// --- Index side ---

// IncIndexQuery records one index service query.
func (c *Collector) IncIndexQuery() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.indexQueries++
	c.mu.Unlock()
}

// IncIndexQueryError records a failed index query.
func (c *Collector) IncIndexQueryError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.indexQueryErrors++
	c.mu.Unlock()
}

// AddRecordsRetrieved records index records delivered to the caller.
func (c *Collector) AddRecordsRetrieved(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.recordsRetrieved += int64(n)
	c.mu.Unlock()
}

// --- Fetch side ---

// IncFetchStarted records a fetch task entering the pool.
func (c *Collector) IncFetchStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fetchesStarted++
	c.mu.Unlock()
}

// IncFetchSucceeded records a fetch task that delivered a result.
func (c *Collector) IncFetchSucceeded(bytes int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fetchesSucceeded++
	c.bytesFetched += int64(bytes)
	c.mu.Unlock()
}

// IncFetchFailed records a fetch task that exhausted its retry budget.
func (c *Collector) IncFetchFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fetchesFailed++
	c.mu.Unlock()
}

// IncFetchRetry records one retry of a fetch attempt.
func (c *Collector) IncFetchRetry() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fetchRetries++
	c.mu.Unlock()
}

// Snapshot returns an immutable copy of all counters.
// Nil-receiver safe: returns a zero Snapshot.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		IndexQueries:     c.indexQueries,
		IndexQueryErrors: c.indexQueryErrors,
		RecordsRetrieved: c.recordsRetrieved,
		FetchesStarted:   c.fetchesStarted,
		FetchesSucceeded: c.fetchesSucceeded,
		FetchesFailed:    c.fetchesFailed,
		FetchRetries:     c.fetchRetries,
		BytesFetched:     c.bytesFetched,
		Engine:           c.engine,
		BatchID:          c.batchID,
		Target:           c.target,
	}
}
