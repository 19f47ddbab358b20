package strategy

import (
	"github.com/kvistrand/microsim/internal/domain"
	"github.com/kvistrand/microsim/internal/snapshot"
)

// Intent is a signal emitted by a Strategy: exactly one of Market or
// Limit is set.
type Intent struct {
	Market *domain.MarketOrderRequest
	Limit  *domain.LimitOrderRequest
}

// Strategy defines the interface for trading logic driven off the
// same snapshot.Record stream fed to the matching engine.
type Strategy interface {
	// OnBookUpdate is called for every snapshot tick. It returns the
	// number of signals written to the 'out' buffer.
	// Zero-Alloc: caller provides the 'out' slice to avoid heap allocations.
	OnBookUpdate(rec snapshot.Record, out []Intent) int

	// OnOrderUpdate is the hook for state changes (Filled, Cancelled,
	// Rejected, ...) of orders this strategy placed. The Sequencer does
	// not invoke it.
	OnOrderUpdate(order domain.Order)
}
