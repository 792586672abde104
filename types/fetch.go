package types

import "time"

// FetchRequest describes a single archive fetch. The fetch engine consumes it
// as-is; the core never configures the engine beyond these fields.
type FetchRequest struct {
	// URL is the target archive URL.
	URL string `json:"url" msgpack:"url"`
	// Headers are the request headers, including User-Agent.
	Headers map[string]string `json:"headers,omitempty" msgpack:"headers,omitempty"`
	// Timeout bounds the whole fetch attempt.
	Timeout time.Duration `json:"timeout_ms" msgpack:"timeout_ms"`
	// Proxy is the resolved proxy endpoint, nil for a direct fetch.
	Proxy *ProxyEndpoint `json:"proxy,omitempty" msgpack:"proxy,omitempty"`
}

// FetchResult is the outcome of one successful fetch: status, headers, body.
//
// In orchestrator output a nil *FetchResult slot marks a task that failed
// after exhausting retries; slots stay index-aligned with the input URLs.
type FetchResult struct {
	Status  int               `json:"status" msgpack:"status"`
	Headers map[string]string `json:"headers,omitempty" msgpack:"headers,omitempty"`
	Body    []byte            `json:"body,omitempty" msgpack:"body,omitempty"`
}

// Header performs a case-insensitive header lookup.
func (r *FetchResult) Header(key string) string {
	if r == nil {
		return ""
	}
	if v, ok := r.Headers[key]; ok {
		return v
	}
	lower := asciiLower(key)
	for k, v := range r.Headers {
		if asciiLower(k) == lower {
			return v
		}
	}
	return ""
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}
