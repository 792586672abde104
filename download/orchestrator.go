// Package download fans fetch tasks out across a bounded worker pool.
package download

import (
	"context"
	"sync"
	"time"

	"github.com/justapithecus/stratum/fetch"
	"github.com/justapithecus/stratum/log"
	"github.com/justapithecus/stratum/metrics"
	"github.com/justapithecus/stratum/proxy"
	"github.com/justapithecus/stratum/types"
)

// DefaultConcurrency bounds the worker pool when options carry no value.
const DefaultConcurrency = 5

// Options configures one download batch.
type Options struct {
	// Concurrency is the worker pool size; DefaultConcurrency when <= 0.
	Concurrency int
	// Headers are sent with every fetch, including User-Agent.
	Headers map[string]string
	// Timeout bounds each fetch attempt.
	Timeout time.Duration
	// Pool supplies per-task proxies; nil means direct fetches.
	Pool *proxy.Pool
	// OnProgress, when set, fires once per completed task, success or
	// failure. Calls may arrive from any worker.
	OnProgress func(completed, total int)
}

// Orchestrator runs download batches over a retry-wrapped fetch engine.
type Orchestrator struct {
	engine    fetch.Engine
	logger    *log.Logger
	collector *metrics.Collector
}

// NewOrchestrator creates an orchestrator. engine should already carry the
// retry policy; the orchestrator never retries on its own.
func NewOrchestrator(engine fetch.Engine, logger *log.Logger, collector *metrics.Collector) *Orchestrator {
	if logger == nil {
		logger = log.Nop()
	}
	return &Orchestrator{engine: engine, logger: logger, collector: collector}
}

// DownloadAll fetches every URL through the worker pool and returns results
// aligned with the input: len(out) == len(urls) and out[i] belongs to
// urls[i], whatever order tasks complete in. A task that fails after retry
// exhaustion leaves a nil slot; one failing URL never aborts the batch.
// Cancelling ctx makes in-flight fetches fail fast with the cancellation
// kind, which is never retried.
func (o *Orchestrator) DownloadAll(ctx context.Context, urls []string, opts Options) []*types.FetchResult {
	results := make([]*types.FetchResult, len(urls))
	if len(urls) == 0 {
		return results
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var progressMu sync.Mutex
	completed := 0

	for i, u := range urls {
		wg.Add(1)
		sem <- struct{}{}
		go func(ordinal int, url string) {
			defer func() {
				<-sem
				wg.Done()
			}()
			results[ordinal] = o.runTask(ctx, ordinal, url, opts)

			if opts.OnProgress != nil {
				progressMu.Lock()
				completed++
				done := completed
				progressMu.Unlock()
				opts.OnProgress(done, len(urls))
			}
		}(i, u)
	}
	wg.Wait()

	return results
}

// runTask executes one fetch task, converting any final error into a nil
// result so slots stay aligned.
func (o *Orchestrator) runTask(ctx context.Context, ordinal int, url string, opts Options) *types.FetchResult {
	req := &types.FetchRequest{
		URL:     url,
		Headers: opts.Headers,
		Timeout: opts.Timeout,
		Proxy:   opts.Pool.Assign(ordinal),
	}

	fields := map[string]any{"ordinal": ordinal, "url": url}
	if req.Proxy != nil {
		fields["proxy"] = req.Proxy.Redact()
	}

	o.collector.IncFetchStarted()
	result, err := o.engine.Fetch(ctx, req)
	if err != nil {
		fields["error"] = err.Error()
		o.logger.Warn("download task failed", fields)
		o.collector.IncFetchFailed()
		return nil
	}

	o.collector.IncFetchSucceeded(len(result.Body))
	o.logger.Debug("download task completed", fields)
	return result
}
