// Package proxy implements the proxy pool tasks draw endpoints from.
package proxy

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/justapithecus/stratum/iox"
	"github.com/justapithecus/stratum/log"
	"github.com/justapithecus/stratum/types"
)

// Pool is an immutable list of proxy endpoints. Assignment is deterministic
// round-robin by task ordinal, so a download batch spreads evenly across the
// pool without shared counters.
type Pool struct {
	endpoints []types.ProxyEndpoint
}

// FromEndpoints builds a pool from already-parsed endpoints.
func FromEndpoints(endpoints []types.ProxyEndpoint) *Pool {
	return &Pool{endpoints: endpoints}
}

// FromFile loads a pool from a line-oriented proxy file: one
// host:port:user:pass (or host:port) per line. Blank lines and # comments are
// skipped; malformed lines are logged and skipped, never fatal, so one bad
// entry cannot take down a whole batch.
func FromFile(path string, logger *log.Logger) (*Pool, error) {
	if logger == nil {
		logger = log.Nop()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open proxy file: %w", err)
	}
	defer iox.DiscardClose(f)

	pool := &Pool{}
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		ep, err := types.ParseProxyLine(line)
		if err != nil {
			logger.Warn("skipping malformed proxy line", map[string]any{
				"path":  path,
				"line":  lineNo,
				"error": err.Error(),
			})
			continue
		}
		pool.endpoints = append(pool.endpoints, *ep)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read proxy file: %w", err)
	}

	return pool, nil
}

// Len returns the number of endpoints. A nil pool is empty.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.endpoints)
}

// Assign returns the endpoint for task ordinal i: endpoints[i mod len].
// Nil for an empty pool, meaning a direct fetch.
func (p *Pool) Assign(i int) *types.ProxyEndpoint {
	if p.Len() == 0 {
		return nil
	}
	return &p.endpoints[i%len(p.endpoints)]
}
