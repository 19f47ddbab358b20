package engine

import (
	"github.com/kvistrand/microsim/internal/domain"
	"github.com/kvistrand/microsim/internal/snapshot"
	"github.com/kvistrand/microsim/pkg/quant"
)

// applyPassiveFillsOneBucket is the single place that applies
// effective queue depletion to a resting price level: it updates the
// bucket's (and its orders') visibility state against the current
// snapshot, then — only while the level stays Visible — consumes the
// effective depletion first against qty-ahead (FIFO queue advance)
// and then, once an order reaches the front, as a Maker fill.
func (s *Simulator) applyPassiveFillsOneBucket(rec *snapshot.Record, bucketPriceQ quant.PriceQ, b *bucket, side domain.Side) {
	bestBid := rec.BestBidPriceQ()
	bestAsk := rec.BestAskPriceQ()

	var m levelLookup
	if side == domain.Buy {
		m = bidLevel(rec, bucketPriceQ)
	} else {
		m = askLevel(rec, bucketPriceQ)
	}

	// Trade-through signal, applied before any visibility transition:
	// once the opposing best has reached this price, the displayed queue
	// ahead of every member is no longer meaningful.
	if (side == domain.Buy && quant.IsValidAskPrice(bestAsk) && bestAsk <= bucketPriceQ) ||
		(side == domain.Sell && quant.IsValidBidPrice(bestBid) && bestBid >= bucketPriceQ) {
		for cur := b.head; cur != domain.InvalidIndex; cur = s.orders[cur].BucketNext {
			s.orders[cur].QtyAheadQ = 0
		}
	}

	if m.found {
		if b.visibility == domain.Frozen || b.visibility == domain.Blind || b.lastLevelIdx < 0 {
			b.visibility = domain.Visible
			b.lastLevelIdx = m.idx
			b.lastLevelQtyQ = m.qtyQ
			s.reanchorBucketOrders(b, m)
			return // no depletion inferred on a re-anchor tick
		}
	} else {
		s.transitionBucketNotFound(b, m)
		return
	}

	// Contract: passive fills only happen while the level stays Visible.
	if b.visibility != domain.Visible {
		return
	}

	prev := b.lastLevelQtyQ
	now := m.qtyQ
	var depl int64
	if prev > now {
		depl = int64(prev - now)
	}
	ep := effectiveDepletion(depl, s.params.AlphaPpm)

	b.lastLevelIdx = m.idx
	b.lastLevelQtyQ = now

	if ep <= 0 || b.head == domain.InvalidIndex {
		return
	}

	cur := b.head
	for cur != domain.InvalidIndex && ep > 0 {
		o := &s.orders[cur]
		next := o.BucketNext

		if !isResting(o.State) || o.Type != domain.Limit {
			cur = next
			continue
		}

		o.Visibility = b.visibility
		o.LastLevelIdx = b.lastLevelIdx
		o.LastLevelQtyQ = b.lastLevelQtyQ

		// Trade-through signal: once the book has crossed this price, the
		// displayed queue ahead of this order is no longer meaningful.
		if side == domain.Buy {
			if quant.IsValidAskPrice(bestAsk) && bestAsk <= bucketPriceQ {
				o.QtyAheadQ = 0
			}
		} else {
			if quant.IsValidBidPrice(bestBid) && bestBid >= bucketPriceQ {
				o.QtyAheadQ = 0
			}
		}

		if o.QtyAheadQ > 0 {
			consume := o.QtyAheadQ
			if quant.QtyQ(ep) < consume {
				consume = quant.QtyQ(ep)
			}
			o.QtyAheadQ -= consume
			ep -= int64(consume)
			if ep == 0 {
				break
			}
		}

		if o.QtyAheadQ == 0 {
			remaining := o.Remaining()
			if remaining > 0 {
				fill := remaining
				if quant.QtyQ(ep) < fill {
					fill = quant.QtyQ(ep)
				}
				s.applyFill(o, bucketPriceQ, fill, domain.Maker)
				ep -= int64(fill)

				if o.State == domain.Filled {
					if o.Side == domain.Buy {
						s.removeActiveBid(o.ID, cur)
					} else {
						s.removeActiveAsk(o.ID, cur)
					}
				}
			}
		}

		cur = next
	}
}

func (s *Simulator) reanchorBucketOrders(b *bucket, m levelLookup) {
	for cur := b.head; cur != domain.InvalidIndex; cur = s.orders[cur].BucketNext {
		o := &s.orders[cur]
		if !isResting(o.State) || o.Type != domain.Limit {
			continue
		}
		o.Visibility = domain.Visible
		o.LastLevelIdx = m.idx
		o.LastLevelQtyQ = m.qtyQ
		o.QtyAheadQ = m.qtyQ
	}
}

func (s *Simulator) transitionBucketNotFound(b *bucket, m levelLookup) {
	if m.withinRange {
		switch b.visibility {
		case domain.Blind:
			b.visibility = domain.Visible
			b.lastLevelIdx = -1
			b.lastLevelQtyQ = 0
			s.mirrorOntoOrders(b, domain.Visible, true)
		case domain.Visible:
			if b.lastLevelIdx >= 0 {
				b.visibility = domain.Frozen
				b.lastLevelIdx = -1
				b.lastLevelQtyQ = 0
				s.mirrorOntoOrders(b, domain.Frozen, false)
			}
		}
		return
	}

	if b.visibility == domain.Visible {
		b.visibility = domain.Frozen
		b.lastLevelIdx = -1
		b.lastLevelQtyQ = 0
		s.mirrorOntoOrders(b, domain.Frozen, false)
	}
}

func (s *Simulator) mirrorOntoOrders(b *bucket, vis domain.Visibility, resetQtyAhead bool) {
	for cur := b.head; cur != domain.InvalidIndex; cur = s.orders[cur].BucketNext {
		o := &s.orders[cur]
		if !isResting(o.State) || o.Type != domain.Limit {
			continue
		}
		o.Visibility = vis
		o.LastLevelIdx = -1
		o.LastLevelQtyQ = 0
		if resetQtyAhead {
			o.QtyAheadQ = 0
		}
	}
}
