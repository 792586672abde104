// Package fetch provides the single-attempt fetch engines and the retry
// wrapper that turns any engine into a resilient one.
package fetch

import (
	"context"

	"github.com/justapithecus/stratum/types"
)

// Engine performs a single fetch attempt. Implementations never retry; the
// WithRetry wrapper owns that concern. A non-nil error classifies the failure
// for Retryable.
type Engine interface {
	Fetch(ctx context.Context, req *types.FetchRequest) (*types.FetchResult, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, req *types.FetchRequest) (*types.FetchResult, error)

func (f EngineFunc) Fetch(ctx context.Context, req *types.FetchRequest) (*types.FetchResult, error) {
	return f(ctx, req)
}
