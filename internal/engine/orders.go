package engine

import (
	"container/heap"

	"github.com/kvistrand/microsim/internal/domain"
	"github.com/kvistrand/microsim/pkg/quant"
	"github.com/kvistrand/microsim/pkg/safe"
)

// PlaceLimit submits a resting limit order. It returns the assigned
// order id, or 0 if the order was rejected (the reject is recorded in
// the event log with the reason).
func (s *Simulator) PlaceLimit(req domain.LimitOrderRequest) uint64 {
	if s.nextOrderID == 0 || s.nextOrderID > s.params.MaxOrders {
		s.pushEvent(s.now, 0, domain.EventReject, domain.Rejected, domain.RejectInsufficientResources)
		return 0
	}
	if uint64(len(s.orders)) >= s.params.MaxOrders {
		s.pushEvent(s.now, 0, domain.EventReject, domain.Rejected, domain.RejectInsufficientResources)
		return 0
	}

	if rr := validateLimit(req); rr != domain.RejectNone {
		s.pushEvent(s.now, 0, domain.EventReject, domain.Rejected, rr)
		return 0
	}

	// Must be able to log the submit for auditability before locking anything.
	if uint64(len(s.events)) >= s.params.MaxEvents {
		s.pushEvent(s.now, 0, domain.EventReject, domain.Rejected, domain.RejectInsufficientResources)
		return 0
	}

	rr := s.riskCheckAndLockLimit(req.Side, req.PriceQ, req.QtyQ)
	if rr != domain.RejectNone {
		s.pushEvent(s.now, 0, domain.EventReject, domain.Rejected, rr)
		return 0
	}

	id := s.nextOrderID
	s.nextOrderID++
	idx := uint64(len(s.orders))

	o := domain.Order{
		ID:            id,
		ClientOrderID: req.ClientOrderID,
		Type:          domain.Limit,
		Side:          req.Side,
		PriceQ:        req.PriceQ,
		QtyQ:          req.QtyQ,
		SubmitTs:      s.now,
		ActivateTs:    s.now + s.params.OutboundLatency,
		State:         domain.Pending,
		LastLevelIdx:  -1,
	}

	s.orders = append(s.orders, o)
	s.idToIndex[id] = idx

	if !s.pushEvent(s.now, id, domain.EventSubmit, domain.Pending, domain.RejectNone) {
		// Unreachable given the pre-check above; roll back deterministically if it ever fires.
		s.idToIndex[id] = domain.InvalidIndex
		s.orders = s.orders[:len(s.orders)-1]
		s.unlockOnCancel(&o)
		return 0
	}

	heap.Push(&s.pending, pendingEntry{activateTs: o.ActivateTs, seq: s.nextSeq, orderID: id})
	s.nextSeq++
	return id
}

// PlaceMarket always rejects: market orders are unsupported in this
// version. No order is created and nothing is logged as Activate or
// Fill; the rejection is recorded in the event log like any other
// RejectInvalidParams case.
func (s *Simulator) PlaceMarket(req domain.MarketOrderRequest) uint64 {
	s.pushEvent(s.now, 0, domain.EventReject, domain.Rejected, domain.RejectInvalidParams)
	return 0
}

// Cancel cancels an order by its simulator id. It returns false if the
// id is unknown or the order is already in a terminal state.
func (s *Simulator) Cancel(orderID uint64) bool {
	if orderID == 0 || orderID >= uint64(len(s.idToIndex)) {
		return false
	}
	idx := s.idToIndex[orderID]
	if idx == domain.InvalidIndex {
		return false
	}

	o := &s.orders[idx]
	if isTerminal(o.State) {
		return false
	}
	if uint64(len(s.events)) >= s.params.MaxEvents {
		return false
	}

	if isResting(o.State) {
		if o.Side == domain.Buy {
			s.removeActiveBid(o.ID, idx)
		} else {
			s.removeActiveAsk(o.ID, idx)
		}
	}

	s.unlockOnCancel(o)
	o.State = domain.Cancelled

	return s.pushEvent(s.now, o.ID, domain.EventCancel, domain.Cancelled, domain.RejectNone)
}

func validateLimit(req domain.LimitOrderRequest) domain.RejectReason {
	if req.QtyQ <= 0 || req.PriceQ <= 0 {
		return domain.RejectInvalidParams
	}
	return domain.RejectNone
}

// riskCheckAndLockLimit validates affordability and reserves the
// order's worst-case balance impact. Buys lock floor(price*qty/scale)
// of cash; sells lock the base quantity itself, checked against the
// unlocked position, only when spot no-short is enabled. Both sides also enforce max_abs_position_qty, the
// inventory cap on the position the order could push the book toward
// if fully filled.
func (s *Simulator) riskCheckAndLockLimit(side domain.Side, priceQ quant.PriceQ, qtyQ quant.QtyQ) domain.RejectReason {
	if priceQ <= 0 || qtyQ <= 0 {
		return domain.RejectInvalidParams
	}

	if rr := s.checkMaxAbsPosition(side, qtyQ); rr != domain.RejectNone {
		return rr
	}

	if side == domain.Buy {
		if safe.MulDivOverflows(int64(priceQ), int64(qtyQ), int64(quant.PriceScale)) {
			return domain.RejectInvalidParams
		}
		required := domain.Notional(priceQ, qtyQ)
		if s.ledger.CashQ-s.ledger.LockedCashQ < required {
			return domain.RejectInsufficientFunds
		}
		s.ledger.LockedCashQ = safe.SafeAdd(s.ledger.LockedCashQ, required)
		return domain.RejectNone
	}

	if s.params.Risk.SpotNoShort {
		if s.ledger.PositionQtyQ-s.ledger.LockedPositionQtyQ < int64(qtyQ) {
			return domain.RejectInsufficientFunds
		}
		s.ledger.LockedPositionQtyQ = safe.SafeAdd(s.ledger.LockedPositionQtyQ, int64(qtyQ))
	}
	return domain.RejectNone
}

// checkMaxAbsPosition enforces the inventory cap: the position this
// order would leave the ledger at if fully filled must not exceed
// max_abs_position_qty in either direction. A zero cap disables the
// check.
func (s *Simulator) checkMaxAbsPosition(side domain.Side, qtyQ quant.QtyQ) domain.RejectReason {
	limit := s.params.Risk.MaxAbsPositionQtyQ
	if limit <= 0 {
		return domain.RejectNone
	}

	var worstCase int64
	if side == domain.Buy {
		worstCase = safe.SafeAdd(s.ledger.PositionQtyQ, int64(qtyQ))
	} else {
		worstCase = safe.SafeSub(s.ledger.PositionQtyQ, int64(qtyQ))
	}

	if worstCase > limit || worstCase < -limit {
		return domain.RejectInvalidParams
	}
	return domain.RejectNone
}

// unlockOnCancel releases whatever portion of a limit order's lock is
// still outstanding for its unfilled remainder. Safe to call on
// partially-filled orders: applyFill already released the
// proportional lock for every filled quantity, so only the remainder
// is left to release here.
func (s *Simulator) unlockOnCancel(o *domain.Order) {
	if o.Type != domain.Limit {
		return
	}
	remaining := o.QtyQ - o.FilledQtyQ
	if remaining <= 0 {
		return
	}

	if o.Side == domain.Buy {
		delta := domain.Notional(o.PriceQ, remaining)
		s.ledger.LockedCashQ -= delta
		if s.ledger.LockedCashQ < 0 {
			s.ledger.LockedCashQ = 0
		}
	} else {
		s.ledger.LockedPositionQtyQ -= int64(remaining)
		if s.ledger.LockedPositionQtyQ < 0 {
			s.ledger.LockedPositionQtyQ = 0
		}
	}
}
