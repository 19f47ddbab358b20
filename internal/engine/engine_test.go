package engine

import (
	"testing"

	"github.com/kvistrand/microsim/internal/domain"
	"github.com/kvistrand/microsim/internal/snapshot"
	"github.com/kvistrand/microsim/pkg/quant"
)

func price(x int64) quant.PriceQ { return quant.PriceQ(x * quant.PriceScale) }
func qty(x int64) quant.QtyQ     { return quant.QtyQ(x * quant.QtyScale) }

// rec builds a Record from parallel (price, qty) level lists, padding
// any unused depth slots with the side's sentinel.
func rec(tsNs quant.Ns, bids, asks [][2]int64) snapshot.Record {
	var r snapshot.Record
	r.TsRecvNs = tsNs
	for i := 0; i < snapshot.Depth; i++ {
		r.Bids[i] = snapshot.Level{PriceQ: quant.BidNullPriceQ, QtyQ: quant.NullQtyQ}
		r.Asks[i] = snapshot.Level{PriceQ: quant.AskNullPriceQ, QtyQ: quant.NullQtyQ}
	}
	for i, lvl := range bids {
		r.Bids[i] = snapshot.Level{PriceQ: price(lvl[0]), QtyQ: qty(lvl[1])}
	}
	for i, lvl := range asks {
		r.Asks[i] = snapshot.Level{PriceQ: price(lvl[0]), QtyQ: qty(lvl[1])}
	}
	return r
}

func newTestSim(t *testing.T, stp domain.StpPolicy) *Simulator {
	t.Helper()
	params := domain.SimulatorParams{
		OutboundLatency: 100,
		MaxOrders:       64,
		MaxEvents:       1024,
		AlphaPpm:        1_000_000, // full attribution for deterministic test expectations
		Stp:             stp,
		Fees:            domain.FeeSchedule{MakerFeePpm: 0, TakerFeePpm: 0},
		Risk:            domain.RiskLimits{SpotNoShort: true},
	}
	s := New(params)
	if err := s.Reset(0, domain.Ledger{CashQ: qtyToI64(1_000_000), PositionQtyQ: qtyToI64(1_000)}); err != nil {
		t.Fatalf("reset: %v", err)
	}
	return s
}

func qtyToI64(x int64) int64 { return x * quant.QtyScale }

// TestLatencyGating: an order does not become Active on the Step that
// observes the record at submission time; it activates only once the
// clock reaches SubmitTs+OutboundLatency.
func TestLatencyGating(t *testing.T) {
	s := newTestSim(t, domain.StpNone)

	id := s.PlaceLimit(domain.LimitOrderRequest{Side: domain.Buy, PriceQ: price(100), QtyQ: qty(1)})
	if id == 0 {
		t.Fatalf("expected accepted order")
	}

	r := rec(50, [][2]int64{{100, 5}}, [][2]int64{{101, 5}})
	s.Step(r)

	o, _ := s.OrderByID(id)
	if o.State != domain.Pending {
		t.Fatalf("expected still Pending before latency elapses, got %v", o.State)
	}

	r2 := rec(100, [][2]int64{{100, 5}}, [][2]int64{{101, 5}})
	s.Step(r2)

	o, _ = s.OrderByID(id)
	if o.State != domain.Active {
		t.Fatalf("expected Active once clock reaches ActivateTs, got %v", o.State)
	}
}

// TestStpRejectIncoming: an incoming order that would cross the
// caller's own resting order on the opposite side is rejected outright.
func TestStpRejectIncoming(t *testing.T) {
	s := newTestSim(t, domain.StpRejectIncoming)

	askID := s.PlaceLimit(domain.LimitOrderRequest{Side: domain.Sell, PriceQ: price(100), QtyQ: qty(1)})
	s.Step(rec(50, nil, nil))
	s.Step(rec(150, nil, nil)) // elapse latency, ask becomes Active

	ask, _ := s.OrderByID(askID)
	if ask.State != domain.Active {
		t.Fatalf("expected resting ask Active, got %v", ask.State)
	}

	buyID := s.PlaceLimit(domain.LimitOrderRequest{Side: domain.Buy, PriceQ: price(101), QtyQ: qty(1)})
	s.Step(rec(260, nil, nil)) // elapse buy's own latency

	buy, _ := s.OrderByID(buyID)
	if buy.State != domain.Rejected {
		t.Fatalf("expected incoming buy rejected by STP, got %v", buy.State)
	}
	if buy.RejectReason != domain.RejectSelfTradePrevention {
		t.Fatalf("expected SELF_TRADE_PREVENTION, got %v", buy.RejectReason)
	}

	ask, _ = s.OrderByID(askID)
	if ask.State != domain.Active {
		t.Fatalf("resting ask must survive a rejected incoming order, got %v", ask.State)
	}
}

// TestStpCancelResting: under CancelResting, the crossing resting
// orders on the opposite side are cancelled and the incoming order
// proceeds to rest (or fill) normally.
func TestStpCancelResting(t *testing.T) {
	s := newTestSim(t, domain.StpCancelResting)

	askID := s.PlaceLimit(domain.LimitOrderRequest{Side: domain.Sell, PriceQ: price(100), QtyQ: qty(2)})
	s.Step(rec(50, nil, nil))
	s.Step(rec(150, nil, nil))

	buyID := s.PlaceLimit(domain.LimitOrderRequest{Side: domain.Buy, PriceQ: price(101), QtyQ: qty(1)})
	s.Step(rec(260, nil, nil))

	ask, _ := s.OrderByID(askID)
	if ask.State != domain.Cancelled {
		t.Fatalf("expected crossing resting ask cancelled, got %v", ask.State)
	}

	buy, _ := s.OrderByID(buyID)
	if buy.State != domain.Active {
		t.Fatalf("expected incoming buy to proceed and rest, got %v", buy.State)
	}
}

// TestPassiveFillFIFO: when observed depletion at a visible price level
// exceeds the quantity ahead of the front resting order, that order
// receives a Maker fill, the ledger reflects it, and a FillEvent is logged.
func TestPassiveFillFIFO(t *testing.T) {
	s := newTestSim(t, domain.StpNone)

	id := s.PlaceLimit(domain.LimitOrderRequest{Side: domain.Buy, PriceQ: price(100), QtyQ: qty(1)})

	// First Step: order is still Pending, but anchors the book state.
	s.Step(rec(10, [][2]int64{{100, 10}}, [][2]int64{{101, 5}}))
	// Second Step: latency elapses, order activates and joins the back
	// of a 10-unit displayed queue (QtyAheadQ = 10).
	s.Step(rec(120, [][2]int64{{100, 10}}, [][2]int64{{101, 5}}))

	o, _ := s.OrderByID(id)
	if o.State != domain.Active || o.QtyAheadQ != qty(10) {
		t.Fatalf("expected Active with 10 qty ahead, got state=%v aheadQ=%v", o.State, o.QtyAheadQ)
	}

	// The level fully depletes to zero: exactly enough to consume the
	// queue ahead of our order, with nothing left over to fill it yet.
	s.Step(rec(220, [][2]int64{{100, 0}}, [][2]int64{{101, 5}}))

	o, _ = s.OrderByID(id)
	if o.QtyAheadQ != 0 || o.State != domain.Active {
		t.Fatalf("expected qty ahead exhausted but no fill yet, got state=%v aheadQ=%v", o.State, o.QtyAheadQ)
	}

	// The level rebuilds (no depletion inferred on an increase), then
	// depletes again: this time the order is already at the front, so
	// the depletion fills it directly.
	s.Step(rec(320, [][2]int64{{100, 4}}, [][2]int64{{101, 5}}))
	s.Step(rec(420, [][2]int64{{100, 0}}, [][2]int64{{101, 5}}))

	o, _ = s.OrderByID(id)
	if o.State != domain.Filled {
		t.Fatalf("expected Filled after full depletion, got %v", o.State)
	}
	if len(s.Fills()) == 0 {
		t.Fatalf("expected at least one fill logged")
	}
	last := s.Fills()[len(s.Fills())-1]
	if last.Liq != domain.Maker {
		t.Fatalf("expected Maker fill, got %v", last.Liq)
	}
}

// TestQueueAdvanceWithoutFill: depletion smaller than qty-ahead only
// advances the queue position; no fill occurs and the order stays Active.
func TestQueueAdvanceWithoutFill(t *testing.T) {
	s := newTestSim(t, domain.StpNone)

	id := s.PlaceLimit(domain.LimitOrderRequest{Side: domain.Buy, PriceQ: price(100), QtyQ: qty(1)})
	s.Step(rec(10, [][2]int64{{100, 10}}, nil))
	s.Step(rec(120, [][2]int64{{100, 10}}, nil))

	o, _ := s.OrderByID(id)
	if o.QtyAheadQ != qty(10) {
		t.Fatalf("expected 10 qty ahead, got %v", o.QtyAheadQ)
	}

	s.Step(rec(220, [][2]int64{{100, 7}}, nil)) // depletion of 3, all absorbed by qty-ahead

	o, _ = s.OrderByID(id)
	if o.State != domain.Active {
		t.Fatalf("expected still Active, got %v", o.State)
	}
	if o.QtyAheadQ != qty(7) {
		t.Fatalf("expected qty ahead reduced to 7, got %v", o.QtyAheadQ)
	}
	if o.FilledQtyQ != 0 {
		t.Fatalf("expected no fill, got filled=%v", o.FilledQtyQ)
	}
}

// TestVanishAndReanchor: a resting order's price drops out of the
// visible top-N (Frozen) and then reappears; on reappearance it
// re-anchors to the newly observed queue state rather than inferring
// depletion across the gap.
func TestVanishAndReanchor(t *testing.T) {
	s := newTestSim(t, domain.StpNone)

	id := s.PlaceLimit(domain.LimitOrderRequest{Side: domain.Buy, PriceQ: price(100), QtyQ: qty(1)})
	s.Step(rec(10, [][2]int64{{100, 10}}, nil))
	s.Step(rec(120, [][2]int64{{100, 10}}, nil))

	o, _ := s.OrderByID(id)
	if o.Visibility != domain.Visible {
		t.Fatalf("expected Visible, got %v", o.Visibility)
	}

	// Price 100 drops out of the top of book entirely (deeper levels only).
	s.Step(rec(220, [][2]int64{{105, 3}}, nil))

	o, _ = s.OrderByID(id)
	if o.Visibility != domain.Frozen {
		t.Fatalf("expected Frozen once price leaves the visible range, got %v", o.Visibility)
	}
	frozenFilled := o.FilledQtyQ

	// Price 100 reappears with a smaller displayed quantity than before
	// it vanished; the order re-anchors instead of treating the gap as
	// depletion, so no fill is inferred from the vanish/reappear alone.
	s.Step(rec(320, [][2]int64{{105, 3}, {100, 2}}, nil))

	o, _ = s.OrderByID(id)
	if o.Visibility != domain.Visible {
		t.Fatalf("expected Visible again after re-anchor, got %v", o.Visibility)
	}
	if o.QtyAheadQ != qty(2) {
		t.Fatalf("expected qty ahead re-anchored to 2, got %v", o.QtyAheadQ)
	}
	if o.FilledQtyQ != frozenFilled {
		t.Fatalf("re-anchor tick must not itself produce a fill, got filled delta")
	}
}

// TestPlaceMarket_AlwaysRejected: market orders are unsupported in
// this version; PlaceMarket always rejects with RejectInvalidParams
// and never creates an order, regardless of book state.
func TestPlaceMarket_AlwaysRejected(t *testing.T) {
	s := newTestSim(t, domain.StpNone)

	s.Step(rec(10, [][2]int64{{99, 5}}, [][2]int64{{100, 1}, {101, 1}}))

	id := s.PlaceMarket(domain.MarketOrderRequest{Side: domain.Buy, QtyQ: qty(5)})
	if id != 0 {
		t.Fatalf("expected market order to be rejected, got order id %d", id)
	}
	if _, ok := s.OrderByID(id); ok {
		t.Fatalf("expected no order to have been created")
	}
}

// TestCancelReleasesLock: cancelling a resting buy limit order releases
// the cash it had locked for its unfilled remainder.
func TestCancelReleasesLock(t *testing.T) {
	s := newTestSim(t, domain.StpNone)
	before := s.Ledger()

	id := s.PlaceLimit(domain.LimitOrderRequest{Side: domain.Buy, PriceQ: price(100), QtyQ: qty(1)})
	locked := s.Ledger()
	if locked.LockedCashQ == before.LockedCashQ {
		t.Fatalf("expected placing a buy limit to lock cash")
	}

	if !s.Cancel(id) {
		t.Fatalf("expected cancel to succeed")
	}
	after := s.Ledger()
	if after.LockedCashQ != before.LockedCashQ {
		t.Fatalf("expected lock fully released after cancel, before=%d after=%d", before.LockedCashQ, after.LockedCashQ)
	}
}
