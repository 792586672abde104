package cdx

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/justapithecus/stratum/iox"
	"github.com/justapithecus/stratum/log"
	"github.com/justapithecus/stratum/types"
)

// DefaultBaseURL is the public CDX endpoint of the Wayback Machine.
const DefaultBaseURL = "https://web.archive.org/cdx/search/cdx"

// Default client settings.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "stratum/" + types.Version
)

// authCookieName is the static API token cookie the index service accepts.
const authCookieName = "cdx-auth-token"

// Config holds index client settings. The zero value is usable: all fields
// default. No process-wide mutable defaults exist; callers hold the config.
type Config struct {
	// BaseURL is the index API endpoint. Defaults to DefaultBaseURL.
	BaseURL string
	// Timeout bounds each request. Defaults to DefaultTimeout.
	Timeout time.Duration
	// AuthToken is an optional static API token, sent as a cookie.
	AuthToken string
	// UserAgent overrides the default request User-Agent.
	UserAgent string
}

// Client queries the CDX index service.
//
// The underlying HTTP connection pool is shared and reused across sequential
// queries; each call is stateless request/response besides the resume token
// the caller threads back explicitly. Safe for concurrent use.
type Client struct {
	baseURL    string
	authToken  string
	userAgent  string
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient creates an index client. A nil logger disables logging.
func NewClient(cfg Config, logger *log.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = log.Nop()
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authToken:  cfg.AuthToken,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Search executes a single index query and parses the response.
// JSON output is requested unless the query explicitly selected text.
func (c *Client) Search(ctx context.Context, q *Query) (*types.IndexResponse, error) {
	eff := q
	if q.output == "" {
		eff = q.Clone().Output(OutputJSON)
	}

	body, _, err := c.get(ctx, "search", eff)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(body)
	if text == "" {
		return &types.IndexResponse{
			FieldNames: eff.FieldNames(types.DefaultFieldNames),
		}, nil
	}

	if eff.output == OutputText {
		return parseTextResponse(text, eff.FieldNames(types.DefaultFieldNames)), nil
	}
	return parseJSONResponse(text)
}

// GetLatest returns the most recent capture of a URL, nil when none exists.
// Uses the negative-limit + fast-latest shortcut.
func (c *Client) GetLatest(ctx context.Context, target string) (*types.IndexRecord, error) {
	resp, err := c.Search(ctx, NewQuery(target).Limit(-1).FastLatest(true))
	if err != nil {
		return nil, err
	}
	if resp.Len() == 0 {
		return nil, nil
	}
	return &resp.Records[0], nil
}

// GetOldest returns the oldest capture of a URL, nil when none exists.
func (c *Client) GetOldest(ctx context.Context, target string) (*types.IndexRecord, error) {
	resp, err := c.Search(ctx, NewQuery(target).Limit(1))
	if err != nil {
		return nil, err
	}
	if resp.Len() == 0 {
		return nil, nil
	}
	return &resp.Records[0], nil
}

// GetClosest returns captures closest to the given timestamp.
func (c *Client) GetClosest(ctx context.Context, target, timestamp string, limit int) (*types.IndexResponse, error) {
	return c.Search(ctx, NewQuery(target).Closest(timestamp).Sort(SortClosest).Limit(limit))
}

// NumPages probes the total page count for a query.
// This is a capability probe, not a guarantee: not every deployment of the
// index service supports page counting.
func (c *Client) NumPages(ctx context.Context, q *Query) (int, error) {
	probe := q.Clone().ShowNumPages(true)

	body, status, err := c.get(ctx, "numpages", probe)
	if err != nil {
		return 0, err
	}

	n, err := strconv.Atoi(strings.TrimSpace(body))
	if err != nil {
		return 0, newQueryError("numpages", status, "page count is not an integer", err)
	}
	return n, nil
}

// IterateAll streams every record for a query through fn, batch by batch,
// threading resume keys between searches. fn returning false stops the
// iteration early without error.
//
// Termination: a batch with fewer than batchSize records, or without a resume
// token, is the last one. The service only emits a resume token when more
// data remains.
func (c *Client) IterateAll(ctx context.Context, q *Query, batchSize int, fn func(types.IndexRecord) bool) error {
	base := q.Clone().Limit(batchSize).ShowResumeKey(true)

	resumeKey := ""
	for {
		batch := base.Clone()
		if resumeKey != "" {
			batch.ResumeKey(resumeKey)
		}

		resp, err := c.Search(ctx, batch)
		if err != nil {
			return err
		}

		for _, rec := range resp.Records {
			if !fn(rec) {
				return nil
			}
		}

		if resp.ResumeKey == "" || resp.Len() < batchSize {
			return nil
		}
		resumeKey = resp.ResumeKey
	}
}

// IteratePages runs one search per page in [0, numPages) and hands each
// response to fn; fn returning false stops early without error.
//
// The initial page-count probe is best-effort: when it fails, the returned
// error matches ErrPaginationUnsupported so callers can fall back to
// IterateAll instead of aborting.
func (c *Client) IteratePages(ctx context.Context, q *Query, fn func(*types.IndexResponse) bool) error {
	numPages, err := c.NumPages(ctx, q)
	if err != nil {
		return newQueryError("numpages", StatusUnknown, "page-count probe failed", joinUnsupported(err))
	}

	for page := 0; page < numPages; page++ {
		resp, err := c.Search(ctx, q.Clone().Page(page))
		if err != nil {
			return err
		}
		if !fn(resp) {
			return nil
		}
	}
	return nil
}

// joinUnsupported chains the probe failure behind the capability sentinel so
// both errors.Is(err, ErrPaginationUnsupported) and QueryError inspection work.
func joinUnsupported(err error) error {
	return &unsupportedError{err: err}
}

type unsupportedError struct {
	err error
}

func (e *unsupportedError) Error() string {
	return ErrPaginationUnsupported.Error() + ": " + e.err.Error()
}

func (e *unsupportedError) Unwrap() []error {
	return []error{ErrPaginationUnsupported, e.err}
}

// get issues one GET and returns the body text and HTTP status.
// Transport failures, non-2xx statuses, and unreadable bodies all surface as
// a QueryError carrying the status when known.
func (c *Client) get(ctx context.Context, op string, q *Query) (string, int, error) {
	reqURL := c.baseURL + "?" + q.Values().Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", StatusUnknown, newQueryError(op, StatusUnknown, "building request failed", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	if c.authToken != "" {
		req.AddCookie(&http.Cookie{Name: authCookieName, Value: c.authToken})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", StatusUnknown, newQueryError(op, StatusUnknown, "request failed", err)
	}
	defer iox.DiscardClose(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, newQueryError(op, resp.StatusCode, "reading response failed", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("index query rejected", map[string]any{
			"op":     op,
			"status": resp.StatusCode,
			"target": q.Target(),
		})
		return "", resp.StatusCode, newQueryError(op, resp.StatusCode, "index service returned error status", nil)
	}

	return string(body), resp.StatusCode, nil
}
