package metrics

import (
	"sync"
	"testing"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector("http", "batch-1", "example.com")

	c.IncIndexQuery()
	c.IncIndexQuery()
	c.IncIndexQueryError()
	c.AddRecordsRetrieved(7)

	c.IncFetchStarted()
	c.IncFetchSucceeded(1024)
	c.IncFetchStarted()
	c.IncFetchRetry()
	c.IncFetchRetry()
	c.IncFetchFailed()

	s := c.Snapshot()
	if s.IndexQueries != 2 || s.IndexQueryErrors != 1 || s.RecordsRetrieved != 7 {
		t.Errorf("index counters = %+v", s)
	}
	if s.FetchesStarted != 2 || s.FetchesSucceeded != 1 || s.FetchesFailed != 1 {
		t.Errorf("fetch counters = %+v", s)
	}
	if s.FetchRetries != 2 || s.BytesFetched != 1024 {
		t.Errorf("retry/bytes = %+v", s)
	}
	if s.Engine != "http" || s.BatchID != "batch-1" || s.Target != "example.com" {
		t.Errorf("dimensions = %+v", s)
	}
}

func TestCollector_SnapshotImmutable(t *testing.T) {
	c := NewCollector("http", "", "")
	c.IncFetchStarted()

	before := c.Snapshot()
	c.IncFetchStarted()

	if before.FetchesStarted != 1 {
		t.Errorf("snapshot mutated after later increments: %d", before.FetchesStarted)
	}
	if c.Snapshot().FetchesStarted != 2 {
		t.Error("later increments lost")
	}
}

func TestCollector_NilReceiver(t *testing.T) {
	var c *Collector

	// Must not panic.
	c.IncIndexQuery()
	c.IncIndexQueryError()
	c.AddRecordsRetrieved(3)
	c.IncFetchStarted()
	c.IncFetchSucceeded(10)
	c.IncFetchFailed()
	c.IncFetchRetry()

	if s := c.Snapshot(); s != (Snapshot{}) {
		t.Errorf("nil collector snapshot = %+v, want zero", s)
	}
}

func TestCollector_Concurrent(t *testing.T) {
	c := NewCollector("renderer", "", "")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncFetchStarted()
				c.IncFetchSucceeded(1)
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	if s.FetchesStarted != 800 || s.FetchesSucceeded != 800 || s.BytesFetched != 800 {
		t.Errorf("counters = %+v, want 800 each", s)
	}
}
