package interfaces

import (
	"context"

	"raven-trader/internal/types"
)

type Engine interface {
	Run(ctx context.Context) (*types.CycleResult, error)
}

// Headlines supplies recent market headlines as extra context for the
// sentiment prompt. Optional; failures degrade to an empty list.
type Headlines interface {
	Recent(ctx context.Context, assets []string, max int) ([]string, error)
}
