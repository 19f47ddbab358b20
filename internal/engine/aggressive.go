package engine

import (
	"github.com/kvistrand/microsim/internal/domain"
	"github.com/kvistrand/microsim/internal/snapshot"
	"github.com/kvistrand/microsim/pkg/quant"
)

// applyAggressiveFills sweeps any resting limit order whose price
// currently crosses the opposing best quote against the step's
// visible depth, taker-side. A local mutable copy of the visible
// depth is consumed so multiple resting orders in the same step draw
// down the same liquidity deterministically and in price-then-FIFO
// order, never double-spending a displayed level.
func (s *Simulator) applyAggressiveFills(rec *snapshot.Record) {
	if !rec.HasTopOfBook() {
		return
	}

	bestBid := rec.BestBidPriceQ()
	bestAsk := rec.BestAskPriceQ()

	var bidQtyRem, askQtyRem [snapshot.Depth]quant.QtyQ
	for i := 0; i < snapshot.Depth; i++ {
		if quant.IsValidBidPrice(rec.Bids[i].PriceQ) {
			bidQtyRem[i] = rec.Bids[i].QtyQ
		}
		if quant.IsValidAskPrice(rec.Asks[i].PriceQ) {
			askQtyRem[i] = rec.Asks[i].QtyQ
		}
	}

	// Buy takers: any bid bucket priced >= bestAsk is marketable.
	// bidPrices is ascending; scan from the top (best) down.
	if quant.IsValidAskPrice(bestAsk) {
		for pi := len(s.bidPrices); pi > 0; {
			pi--
			limitQ := s.bidPrices[pi]
			if limitQ < bestAsk {
				break // remaining prices are lower, not marketable
			}
			s.sweepBucketBuy(rec, pi, limitQ, &askQtyRem)
		}
	}

	// Sell takers: any ask bucket priced <= bestBid is marketable.
	// askPrices is ascending; scan from the top (best) up.
	if quant.IsValidBidPrice(bestBid) {
		for pi := 0; pi < len(s.askPrices); pi++ {
			limitQ := s.askPrices[pi]
			if limitQ > bestBid {
				break
			}
			s.sweepBucketSell(rec, pi, limitQ, &bidQtyRem)
		}
	}
}

func (s *Simulator) sweepBucketBuy(rec *snapshot.Record, bidx int, limitQ quant.PriceQ, askQtyRem *[snapshot.Depth]quant.QtyQ) {
	b := &s.bidBuckets[bidx]
	cur := b.head
	for cur != domain.InvalidIndex {
		o := &s.orders[cur]
		next := o.BucketNext

		if !isResting(o.State) || o.Side != domain.Buy || o.Type != domain.Limit {
			cur = next
			continue
		}
		remaining := o.Remaining()
		if remaining <= 0 {
			cur = next
			continue
		}

		for lvl := 0; lvl < snapshot.Depth && remaining > 0; lvl++ {
			px := rec.Asks[lvl].PriceQ
			if !quant.IsValidAskPrice(px) {
				break
			}
			if px > limitQ {
				break
			}
			avail := &askQtyRem[lvl]
			if *avail <= 0 {
				continue
			}
			dq := remaining
			if *avail < dq {
				dq = *avail
			}
			s.applyFill(o, px, dq, domain.Taker)
			remaining -= dq
			*avail -= dq

			if o.State == domain.Filled {
				s.removeActiveBid(o.ID, cur)
				break
			}
		}

		cur = next
	}
}

func (s *Simulator) sweepBucketSell(rec *snapshot.Record, aidx int, limitQ quant.PriceQ, bidQtyRem *[snapshot.Depth]quant.QtyQ) {
	b := &s.askBuckets[aidx]
	cur := b.head
	for cur != domain.InvalidIndex {
		o := &s.orders[cur]
		next := o.BucketNext

		if !isResting(o.State) || o.Side != domain.Sell || o.Type != domain.Limit {
			cur = next
			continue
		}
		remaining := o.Remaining()
		if remaining <= 0 {
			cur = next
			continue
		}

		for lvl := 0; lvl < snapshot.Depth && remaining > 0; lvl++ {
			px := rec.Bids[lvl].PriceQ
			if !quant.IsValidBidPrice(px) {
				break
			}
			if px < limitQ {
				break
			}
			avail := &bidQtyRem[lvl]
			if *avail <= 0 {
				continue
			}
			dq := remaining
			if *avail < dq {
				dq = *avail
			}
			s.applyFill(o, px, dq, domain.Taker)
			remaining -= dq
			*avail -= dq

			if o.State == domain.Filled {
				s.removeActiveAsk(o.ID, cur)
				break
			}
		}

		cur = next
	}
}
