package engine

import (
	"container/heap"

	"github.com/kvistrand/microsim/internal/domain"
	"github.com/kvistrand/microsim/internal/snapshot"
)

// Step advances the simulator by one market data record, in three
// strictly ordered phases:
//
//  1. queue/visibility update and FIFO passive fills for every resting
//     price bucket, driven by observed per-level depletion;
//  2. an aggressive sweep of any resting limit order that now crosses
//     the opposing best quote;
//  3. activation of any order whose outbound-latency deadline has
//     elapsed, gated by self-trade prevention.
//
// Newly activated orders are fill-eligible only starting the next
// Step, never the one that activates them.
func (s *Simulator) Step(rec snapshot.Record) {
	s.lastRecord = rec
	s.haveRecord = true
	s.now = rec.TsRecvNs

	s.deferBucketErase = true

	for i := range s.bidBuckets {
		s.applyPassiveFillsOneBucket(&rec, s.bidPrices[i], &s.bidBuckets[i], domain.Buy)
	}
	for i := range s.askBuckets {
		s.applyPassiveFillsOneBucket(&rec, s.askPrices[i], &s.askBuckets[i], domain.Sell)
	}

	s.applyAggressiveFills(&rec)

	s.deferBucketErase = false
	s.cleanupEmptyBuckets()

	s.activateDueOrders(&rec)
}

// activateDueOrders pops every pending entry whose activation deadline
// has elapsed, runs self-trade prevention, and (if it survives)
// inserts the order into the book.
func (s *Simulator) activateDueOrders(rec *snapshot.Record) {
	for len(s.pending) > 0 && s.pending[0].activateTs <= s.now {
		e := heap.Pop(&s.pending).(pendingEntry)

		if e.orderID == 0 || e.orderID >= uint64(len(s.idToIndex)) {
			continue
		}
		idx := s.idToIndex[e.orderID]
		if idx == domain.InvalidIndex {
			continue
		}

		o := &s.orders[idx]
		if o.State != domain.Pending {
			continue
		}

		if !s.applyStpOnActivate(o) {
			continue
		}

		if !s.pushEvent(s.now, o.ID, domain.EventActivate, domain.Active, domain.RejectNone) {
			s.unlockOnCancel(o)
			o.State = domain.Rejected
			o.RejectReason = domain.RejectInsufficientResources
			continue
		}
		o.State = domain.Active

		initOnActivate(rec, o)

		if o.Side == domain.Buy {
			s.activeBidPos[o.ID] = uint64(len(s.activeBids))
			s.activeBids = append(s.activeBids, idx)

			bidx := s.getOrInsertBidBucketIdx(o.PriceQ)
			syncFreshBucketFromOrder(&s.bidBuckets[bidx], o)
			s.bucketPushBackBid(bidx, idx)

			if !s.hasActiveBids || o.PriceQ > s.bestActiveBidQ {
				s.hasActiveBids = true
				s.bestActiveBidQ = o.PriceQ
			}
		} else {
			s.activeAskPos[o.ID] = uint64(len(s.activeAsks))
			s.activeAsks = append(s.activeAsks, idx)

			aidx := s.getOrInsertAskBucketIdx(o.PriceQ)
			syncFreshBucketFromOrder(&s.askBuckets[aidx], o)
			s.bucketPushBackAsk(aidx, idx)

			if !s.hasActiveAsks || o.PriceQ < s.bestActiveAskQ {
				s.hasActiveAsks = true
				s.bestActiveAskQ = o.PriceQ
			}
		}
	}
}

// syncFreshBucketFromOrder seeds a brand-new bucket's own
// visibility/queue-tracking fields from the order that is about to
// become its first occupant, so the next Step's passive-fill pass
// infers depletion against the same anchor initOnActivate just used
// instead of re-anchoring from the bucket's zero-value Blind default.
// A no-op for a bucket that already has occupants, since those stay
// in sync every tick via applyPassiveFillsOneBucket.
func syncFreshBucketFromOrder(b *bucket, o *domain.Order) {
	if b.size != 0 {
		return
	}
	b.visibility = o.Visibility
	b.lastLevelIdx = o.LastLevelIdx
	b.lastLevelQtyQ = o.LastLevelQtyQ
}

// initOnActivate sets an order's initial queue/visibility state the
// moment it becomes Active: it joins the back of the displayed queue
// if the level is visible and already populated, or becomes "the
// queue" itself (zero qty ahead) if it is the first order to claim a
// newly visible price.
func initOnActivate(rec *snapshot.Record, o *domain.Order) {
	if o.Type != domain.Limit || o.PriceQ <= 0 {
		o.Visibility = domain.Blind
		o.LastLevelIdx = -1
		o.LastLevelQtyQ = 0
		o.QtyAheadQ = 0
		return
	}

	var m levelLookup
	if o.Side == domain.Buy {
		m = bidLevel(rec, o.PriceQ)
	} else {
		m = askLevel(rec, o.PriceQ)
	}

	if !m.withinRange {
		o.Visibility = domain.Blind
		o.LastLevelIdx = -1
		o.LastLevelQtyQ = 0
		o.QtyAheadQ = 0
		return
	}

	o.Visibility = domain.Visible
	if m.found {
		o.LastLevelIdx = m.idx
		o.LastLevelQtyQ = m.qtyQ
		o.QtyAheadQ = m.qtyQ // joins the tail behind the displayed quantity
	} else {
		o.LastLevelIdx = -1
		o.LastLevelQtyQ = 0
		o.QtyAheadQ = 0 // this order is the queue
	}
}
