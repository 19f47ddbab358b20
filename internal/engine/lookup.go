package engine

import (
	"github.com/kvistrand/microsim/internal/snapshot"
	"github.com/kvistrand/microsim/pkg/quant"
	"github.com/kvistrand/microsim/pkg/safe"
)

// levelLookup is the result of searching one side of a snapshot record
// for a specific price.
type levelLookup struct {
	found       bool // exact price present in top-N
	withinRange bool // within the visible [best,worst] range
	idx         int16
	qtyQ        quant.QtyQ
	bestQ       quant.PriceQ
	worstQ      quant.PriceQ
}

// bidLevel performs a monotone O(depth) scan for priceQ among the
// record's bid levels, stopping at the first sentinel/inactive slot.
func bidLevel(rec *snapshot.Record, priceQ quant.PriceQ) levelLookup {
	var out levelLookup
	best := rec.Bids[0].PriceQ
	if !quant.IsValidBidPrice(best) {
		return out
	}

	worst := best
	lastValid := int16(-1)
	for i := int16(0); i < snapshot.Depth; i++ {
		p := rec.Bids[i].PriceQ
		if !quant.IsValidBidPrice(p) {
			break
		}
		worst = p
		lastValid = i
	}
	out.bestQ = best
	out.worstQ = worst

	if priceQ > best || priceQ < worst {
		return out
	}
	out.withinRange = true

	for i := int16(0); i <= lastValid; i++ {
		p := rec.Bids[i].PriceQ
		if p == priceQ {
			out.found = true
			out.idx = i
			out.qtyQ = rec.Bids[i].QtyQ
			return out
		}
		if p < priceQ {
			return out // passed the price; absent but within range
		}
	}
	return out
}

// askLevel performs a monotone O(depth) scan for priceQ among the
// record's ask levels, stopping at the first sentinel/inactive slot.
func askLevel(rec *snapshot.Record, priceQ quant.PriceQ) levelLookup {
	var out levelLookup
	best := rec.Asks[0].PriceQ
	if !quant.IsValidAskPrice(best) {
		return out
	}

	worst := best
	lastValid := int16(-1)
	for i := int16(0); i < snapshot.Depth; i++ {
		p := rec.Asks[i].PriceQ
		if !quant.IsValidAskPrice(p) {
			break
		}
		worst = p
		lastValid = i
	}
	out.bestQ = best
	out.worstQ = worst

	if priceQ < best || priceQ > worst {
		return out
	}
	out.withinRange = true

	for i := int16(0); i <= lastValid; i++ {
		p := rec.Asks[i].PriceQ
		if p == priceQ {
			out.found = true
			out.idx = i
			out.qtyQ = rec.Asks[i].QtyQ
			return out
		}
		if p > priceQ {
			return out
		}
	}
	return out
}

// effectiveDepletion applies the deterministic min-depletion rule:
// effective = floor(depletionQ * alphaPpm / 1e6), clamped to at least
// 1 whenever depletion and alpha are both positive (so integer
// truncation can never stall the queue indefinitely), and clamped to
// at most depletionQ.
func effectiveDepletion(depletionQ int64, alphaPpm uint64) int64 {
	if depletionQ <= 0 || alphaPpm == 0 {
		return 0
	}

	eff := safe.MulDivFloor(depletionQ, int64(alphaPpm), int64(quant.PpmScale))
	if eff == 0 {
		return 1
	}
	if eff > depletionQ {
		return depletionQ
	}
	return eff
}
