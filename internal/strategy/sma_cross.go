package strategy

import (
	"github.com/kvistrand/microsim/internal/domain"
	"github.com/kvistrand/microsim/internal/snapshot"
	"github.com/kvistrand/microsim/pkg/quant"
	"github.com/kvistrand/microsim/pkg/safe"
)

// SMACrossStrategy implements a simple SMA crossover strategy over
// the top-of-book mid price. It is stateful and deterministic.
// Uses a ring buffer to stay zero-alloc in the hot path.
type SMACrossStrategy struct {
	shortPeriod int
	longPeriod  int
	qtyQ        quant.QtyQ

	prices []int64
	head   int
	count  int
	sum    int64

	prevShortSMA int64
	prevLongSMA  int64
}

// NewSMACrossStrategy creates a new instance. qtyQ is the fixed order
// size emitted on every cross.
func NewSMACrossStrategy(shortPeriod, longPeriod int, qtyQ quant.QtyQ) *SMACrossStrategy {
	if shortPeriod >= longPeriod {
		panic("SMACrossStrategy: shortPeriod must be less than longPeriod")
	}
	return &SMACrossStrategy{
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
		qtyQ:        qtyQ,
		prices:      make([]int64, longPeriod),
	}
}

// OnBookUpdate processes one snapshot tick and writes at most one
// signal into out.
func (s *SMACrossStrategy) OnBookUpdate(rec snapshot.Record, out []Intent) int {
	if !rec.HasTopOfBook() {
		return 0
	}

	midQ := int64(rec.BestBidPriceQ()+rec.BestAskPriceQ()) / 2

	if s.count == s.longPeriod {
		oldest := s.prices[s.head]
		s.sum = safe.SafeSub(s.sum, oldest)
	}

	s.prices[s.head] = midQ
	s.sum = safe.SafeAdd(s.sum, midQ)
	s.head = (s.head + 1) % s.longPeriod

	if s.count < s.longPeriod {
		s.count++
	}

	if s.count < s.longPeriod {
		return 0
	}

	currLongSMA := safe.SafeDiv(s.sum, int64(s.longPeriod))
	currShortSMA := s.calculateShortSMA()

	n := 0
	if s.prevShortSMA != 0 && s.prevLongSMA != 0 && len(out) > 0 {
		switch {
		case s.prevShortSMA <= s.prevLongSMA && currShortSMA > currLongSMA:
			req := domain.LimitOrderRequest{Side: domain.Buy, PriceQ: rec.BestAskPriceQ(), QtyQ: s.qtyQ, Tif: domain.IOC}
			out[0] = Intent{Limit: &req}
			n = 1
		case s.prevShortSMA >= s.prevLongSMA && currShortSMA < currLongSMA:
			req := domain.LimitOrderRequest{Side: domain.Sell, PriceQ: rec.BestBidPriceQ(), QtyQ: s.qtyQ, Tif: domain.IOC}
			out[0] = Intent{Limit: &req}
			n = 1
		}
	}

	s.prevShortSMA = currShortSMA
	s.prevLongSMA = currLongSMA

	return n
}

// OnOrderUpdate is a no-op: this strategy fires-and-forgets IOC limit orders.
func (s *SMACrossStrategy) OnOrderUpdate(order domain.Order) {}

// calculateShortSMA walks backward from head over the ring buffer.
func (s *SMACrossStrategy) calculateShortSMA() int64 {
	var sum int64
	idx := s.head
	for i := 0; i < s.shortPeriod; i++ {
		idx--
		if idx < 0 {
			idx = s.longPeriod - 1
		}
		sum = safe.SafeAdd(sum, s.prices[idx])
	}
	return safe.SafeDiv(sum, int64(s.shortPeriod))
}
