package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/justapithecus/stratum/iox"
	"github.com/justapithecus/stratum/log"
	"github.com/justapithecus/stratum/types"
)

// DefaultTimeout bounds a fetch attempt when the request carries none.
const DefaultTimeout = 30 * time.Second

// HTTPEngine fetches archive URLs over plain HTTP. Each attempt builds its
// own transport because the proxy endpoint varies per task.
type HTTPEngine struct {
	logger *log.Logger
}

// NewHTTPEngine creates an HTTP fetch engine.
func NewHTTPEngine(logger *log.Logger) *HTTPEngine {
	if logger == nil {
		logger = log.Nop()
	}
	return &HTTPEngine{logger: logger}
}

// Fetch performs a single HTTP GET for the request. Rejection statuses in
// [400, 600) come back as a *FetchError carrying the partial result.
func (e *HTTPEngine) Fetch(ctx context.Context, req *types.FetchRequest) (*types.FetchResult, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	client := &http.Client{Transport: newTransport(req.Proxy)}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}
	defer iox.DiscardClose(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}

	result := &types.FetchResult{
		Status:  resp.StatusCode,
		Headers: flattenHeaders(resp.Header),
		Body:    body,
	}

	if resp.StatusCode >= 400 {
		e.logger.Warn("fetch rejected", map[string]any{
			"url":    req.URL,
			"status": resp.StatusCode,
		})
		return nil, &FetchError{URL: req.URL, Status: resp.StatusCode, Result: result}
	}

	return result, nil
}

func newTransport(proxy *types.ProxyEndpoint) *http.Transport {
	t := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxy != nil {
		proxyURL := &url.URL{Scheme: "http", Host: proxy.Addr()}
		if proxy.Username != nil && proxy.Password != nil {
			proxyURL.User = url.UserPassword(*proxy.Username, *proxy.Password)
		}
		t.Proxy = http.ProxyURL(proxyURL)
	}
	return t
}

// classifyTransport maps transport failures to the sentinel kinds. The
// per-attempt deadline surfaces as context.DeadlineExceeded; caller
// cancellation as context.Canceled.
func classifyTransport(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.Canceled) || ctx.Err() == context.Canceled:
		return errors.Join(ErrCancelled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return errors.Join(ErrTimeout, err)
	default:
		return err
	}
}

func flattenHeaders(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}
