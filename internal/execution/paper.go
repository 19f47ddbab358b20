package execution

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kvistrand/microsim/internal/domain"
	"github.com/kvistrand/microsim/internal/engine"
)

// SimExecution adapts an in-process engine.Simulator to the Execution
// interface. Submission is synchronous: PlaceLimit/PlaceMarket already
// run the full risk check and locking path before returning, so there
// is no pending-ack state to track here.
type SimExecution struct {
	sim *engine.Simulator
}

// NewSimExecution wraps sim for use behind the Execution interface.
func NewSimExecution(sim *engine.Simulator) *SimExecution {
	return &SimExecution{sim: sim}
}

func (e *SimExecution) SubmitLimit(ctx context.Context, req domain.LimitOrderRequest) (uint64, error) {
	id := e.sim.PlaceLimit(req)
	order, ok := e.sim.OrderByID(id)
	if !ok {
		return id, fmt.Errorf("execution: placed order %d not found after submit", id)
	}
	if order.State == domain.Rejected {
		return id, fmt.Errorf("execution: limit order rejected: %s", order.RejectReason)
	}
	slog.Info("sim execution: limit submitted",
		slog.Uint64("id", id),
		slog.Int64("price_q", int64(req.PriceQ)),
		slog.Int64("qty_q", int64(req.QtyQ)))
	return id, nil
}

func (e *SimExecution) SubmitMarket(ctx context.Context, req domain.MarketOrderRequest) (uint64, error) {
	id := e.sim.PlaceMarket(req)
	order, ok := e.sim.OrderByID(id)
	if !ok {
		return id, fmt.Errorf("execution: placed order %d not found after submit", id)
	}
	if order.State == domain.Rejected {
		return id, fmt.Errorf("execution: market order rejected: %s", order.RejectReason)
	}
	slog.Info("sim execution: market submitted",
		slog.Uint64("id", id),
		slog.Int64("qty_q", int64(req.QtyQ)))
	return id, nil
}

func (e *SimExecution) CancelOrder(ctx context.Context, orderID uint64) error {
	if !e.sim.Cancel(orderID) {
		return fmt.Errorf("execution: order %d could not be canceled", orderID)
	}
	slog.Info("sim execution: canceled", slog.Uint64("id", orderID))
	return nil
}
