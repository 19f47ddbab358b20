package execution

import (
	"context"
	"testing"

	"github.com/kvistrand/microsim/internal/domain"
	"github.com/kvistrand/microsim/internal/engine"
	"github.com/kvistrand/microsim/pkg/quant"
)

func newTestSim(t *testing.T) *engine.Simulator {
	t.Helper()
	params := domain.SimulatorParams{
		OutboundLatency: 100,
		MaxOrders:       64,
		MaxEvents:       1024,
		AlphaPpm:        1_000_000,
		Stp:             domain.StpNone,
		Risk:            domain.RiskLimits{SpotNoShort: true},
	}
	s := engine.New(params)
	if err := s.Reset(0, domain.Ledger{
		CashQ:        1_000_000 * quant.PriceScale,
		PositionQtyQ: 1_000 * quant.QtyScale,
	}); err != nil {
		t.Fatalf("reset: %v", err)
	}
	return s
}

func TestSimExecution_SubmitLimit(t *testing.T) {
	sim := newTestSim(t)
	exec := NewSimExecution(sim)

	id, err := exec.SubmitLimit(context.Background(), domain.LimitOrderRequest{
		Side:   domain.Buy,
		PriceQ: quant.PriceQ(100 * quant.PriceScale),
		QtyQ:   quant.QtyQ(1 * quant.QtyScale),
	})
	if err != nil {
		t.Fatalf("SubmitLimit: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected nonzero order id")
	}

	order, ok := sim.OrderByID(id)
	if !ok {
		t.Fatalf("order %d not found", id)
	}
	if order.State == domain.Rejected {
		t.Fatalf("order unexpectedly rejected: %s", order.RejectReason)
	}
}

func TestSimExecution_SubmitLimit_Rejected(t *testing.T) {
	sim := newTestSim(t)
	exec := NewSimExecution(sim)

	_, err := exec.SubmitLimit(context.Background(), domain.LimitOrderRequest{
		Side:   domain.Buy,
		PriceQ: quant.PriceQ(100 * quant.PriceScale),
		QtyQ:   quant.QtyQ(10_000_000 * quant.QtyScale), // far beyond available cash
	})
	if err == nil {
		t.Fatalf("expected rejection error for an order exceeding available cash")
	}
}

func TestSimExecution_CancelOrder(t *testing.T) {
	sim := newTestSim(t)
	exec := NewSimExecution(sim)

	id, err := exec.SubmitLimit(context.Background(), domain.LimitOrderRequest{
		Side:   domain.Buy,
		PriceQ: quant.PriceQ(100 * quant.PriceScale),
		QtyQ:   quant.QtyQ(1 * quant.QtyScale),
	})
	if err != nil {
		t.Fatalf("SubmitLimit: %v", err)
	}

	if err := exec.CancelOrder(context.Background(), id); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}

	if err := exec.CancelOrder(context.Background(), id); err == nil {
		t.Fatalf("expected error canceling an already-canceled order")
	}
}
