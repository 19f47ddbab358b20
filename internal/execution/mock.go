package execution

import (
	"context"
	"log/slog"

	"github.com/kvistrand/microsim/internal/domain"
)

// MockExecution only logs order intents; it never touches an engine.
// Useful for dry-running a strategy's order stream before wiring it
// to a real Simulator.
type MockExecution struct {
	nextID uint64
}

func NewMockExecution() *MockExecution {
	return &MockExecution{}
}

func (m *MockExecution) SubmitLimit(ctx context.Context, req domain.LimitOrderRequest) (uint64, error) {
	m.nextID++
	slog.Info("MOCK EXECUTION: submit limit",
		slog.Uint64("id", m.nextID),
		slog.Int("side", int(req.Side)),
		slog.Int64("price_q", int64(req.PriceQ)),
		slog.Int64("qty_q", int64(req.QtyQ)),
	)
	return m.nextID, nil
}

func (m *MockExecution) SubmitMarket(ctx context.Context, req domain.MarketOrderRequest) (uint64, error) {
	m.nextID++
	slog.Info("MOCK EXECUTION: submit market",
		slog.Uint64("id", m.nextID),
		slog.Int("side", int(req.Side)),
		slog.Int64("qty_q", int64(req.QtyQ)),
	)
	return m.nextID, nil
}

func (m *MockExecution) CancelOrder(ctx context.Context, orderID uint64) error {
	slog.Info("MOCK EXECUTION: cancel", slog.Uint64("id", orderID))
	return nil
}
