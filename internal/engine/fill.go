package engine

import (
	"github.com/kvistrand/microsim/internal/domain"
	"github.com/kvistrand/microsim/pkg/quant"
)

// applyFill settles one execution against o: updates the ledger
// (notional, fee, position), releases the proportional share of o's
// lock for this fill's quantity, advances filled/state, and appends a
// FillEvent.
//
// Unlike a literal fill-of-the-day accounting model, the lock release
// happens on every fill, not only at the terminal Filled transition:
// cumulative unlocked must equal cumulative locked exactly once an
// order is fully filled, or every partially-filled order would hold
// dead locked balance for the remainder of the run.
func (s *Simulator) applyFill(o *domain.Order, priceQ quant.PriceQ, qtyQ quant.QtyQ, liq domain.LiquidityFlag) {
	notionalQ := domain.Notional(priceQ, qtyQ)

	feePpm := s.params.Fees.MakerFeePpm
	if liq == domain.Taker {
		feePpm = s.params.Fees.TakerFeePpm
	}
	feeQ := domain.FeeCashQ(notionalQ, feePpm)

	if o.Side == domain.Buy {
		s.ledger.CashQ -= notionalQ
		s.ledger.CashQ -= feeQ
		s.ledger.PositionQtyQ += int64(qtyQ)
	} else {
		s.ledger.CashQ += notionalQ
		s.ledger.CashQ -= feeQ
		s.ledger.PositionQtyQ -= int64(qtyQ)
	}

	if o.Type == domain.Limit {
		s.releaseLockForFill(o, qtyQ)
	}

	o.FilledQtyQ += qtyQ
	if o.FilledQtyQ == o.QtyQ {
		o.State = domain.Filled
	} else {
		o.State = domain.Partial
	}

	s.fills = append(s.fills, domain.FillEvent{
		Ts:            s.now,
		OrderID:       o.ID,
		Side:          o.Side,
		PriceQ:        priceQ,
		QtyQ:          qtyQ,
		Liq:           liq,
		NotionalCashQ: notionalQ,
		FeeCashQ:      feeQ,
	})
}

// releaseLockForFill unlocks the share of o's reservation that this
// fill quantity accounts for: for buys, the increase in the notional of
// the order's filled quantity at its limit price (so the per-fill floors
// add up to exactly the amount locked); for sells, the fill quantity
// itself. It runs before o.FilledQtyQ is advanced.
func (s *Simulator) releaseLockForFill(o *domain.Order, qtyQ quant.QtyQ) {
	if o.Side == domain.Buy {
		delta := domain.Notional(o.PriceQ, o.FilledQtyQ+qtyQ) - domain.Notional(o.PriceQ, o.FilledQtyQ)
		s.ledger.LockedCashQ -= delta
		if s.ledger.LockedCashQ < 0 {
			s.ledger.LockedCashQ = 0
		}
	} else {
		s.ledger.LockedPositionQtyQ -= int64(qtyQ)
		if s.ledger.LockedPositionQtyQ < 0 {
			s.ledger.LockedPositionQtyQ = 0
		}
	}
}
