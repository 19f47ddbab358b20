package engine

import "github.com/kvistrand/microsim/internal/domain"

// applyStpOnActivate enforces self-trade prevention at the moment a
// pending order activates; activateDueOrders is its only caller. It
// returns false if
// the order was rejected; callers must stop processing that order
// immediately in that case.
//
// Detection is O(1): it only ever consults the best-active-bid/ask
// summary scalars, never rescans the book.
func (s *Simulator) applyStpOnActivate(incoming *domain.Order) bool {
	if s.params.Stp == domain.StpNone {
		return true
	}

	selfCross := false
	switch {
	case incoming.Type == domain.Market:
		if incoming.Side == domain.Buy {
			selfCross = s.hasActiveAsks
		} else {
			selfCross = s.hasActiveBids
		}
	case incoming.Side == domain.Buy:
		selfCross = s.hasActiveAsks && incoming.PriceQ >= s.bestActiveAskQ
	default:
		selfCross = s.hasActiveBids && incoming.PriceQ <= s.bestActiveBidQ
	}

	if !selfCross {
		return true
	}

	if s.params.Stp == domain.StpRejectIncoming {
		rr := domain.RejectSelfTradePrevention
		if !s.pushEvent(s.now, incoming.ID, domain.EventReject, domain.Rejected, rr) {
			rr = domain.RejectInsufficientResources
		}
		s.unlockOnCancel(incoming)
		incoming.State = domain.Rejected
		incoming.RejectReason = rr
		return false
	}

	// CancelResting: cancel every crossing opposite-side resting order,
	// then let the incoming order proceed.
	var cancelCount uint64
	if incoming.Side == domain.Buy {
		for _, oidx := range s.activeAsks {
			r := &s.orders[oidx]
			if !isResting(r.State) {
				continue
			}
			if incoming.Type == domain.Market || r.PriceQ <= incoming.PriceQ {
				cancelCount++
			}
		}
	} else {
		for _, oidx := range s.activeBids {
			r := &s.orders[oidx]
			if !isResting(r.State) {
				continue
			}
			if incoming.Type == domain.Market || r.PriceQ >= incoming.PriceQ {
				cancelCount++
			}
		}
	}

	if uint64(len(s.events))+cancelCount > s.params.MaxEvents {
		rr := domain.RejectInsufficientResources
		s.pushEvent(s.now, incoming.ID, domain.EventReject, domain.Rejected, rr)
		s.unlockOnCancel(incoming)
		incoming.State = domain.Rejected
		incoming.RejectReason = rr
		return false
	}

	if incoming.Side == domain.Buy {
		i := 0
		for i < len(s.activeAsks) {
			oidx := s.activeAsks[i]
			r := &s.orders[oidx]
			cross := isResting(r.State) && (incoming.Type == domain.Market || r.PriceQ <= incoming.PriceQ)
			if !cross {
				i++
				continue
			}
			s.unlockOnCancel(r)
			r.State = domain.Cancelled
			s.pushEvent(s.now, r.ID, domain.EventCancel, domain.Cancelled, domain.RejectNone)
			s.removeActiveAsk(r.ID, oidx) // swap-pop; do not advance i
		}
	} else {
		i := 0
		for i < len(s.activeBids) {
			oidx := s.activeBids[i]
			r := &s.orders[oidx]
			cross := isResting(r.State) && (incoming.Type == domain.Market || r.PriceQ >= incoming.PriceQ)
			if !cross {
				i++
				continue
			}
			s.unlockOnCancel(r)
			r.State = domain.Cancelled
			s.pushEvent(s.now, r.ID, domain.EventCancel, domain.Cancelled, domain.RejectNone)
			s.removeActiveBid(r.ID, oidx)
		}
	}

	return true
}
