package execution

import (
	"context"

	"github.com/kvistrand/microsim/internal/domain"
)

// Execution submits order intents and cancels against a deterministic
// simulator run. Unlike a live-exchange client, every implementation
// is in-process: there is no network round trip to fail independently
// of the engine itself.
type Execution interface {
	SubmitLimit(ctx context.Context, req domain.LimitOrderRequest) (uint64, error)
	SubmitMarket(ctx context.Context, req domain.MarketOrderRequest) (uint64, error)
	CancelOrder(ctx context.Context, orderID uint64) error
}
