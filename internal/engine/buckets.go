package engine

import (
	"sort"

	"github.com/kvistrand/microsim/internal/domain"
	"github.com/kvistrand/microsim/pkg/quant"
)

// bucket is one price level's resting-order FIFO, plus the book-visible
// observations needed to infer per-level queue depletion.
type bucket struct {
	head uint64
	tail uint64
	size uint32

	lastLevelQtyQ quant.QtyQ
	lastLevelIdx  int16
	visibility    domain.Visibility
}

func newBucket() bucket {
	return bucket{head: domain.InvalidIndex, tail: domain.InvalidIndex, lastLevelIdx: -1, visibility: domain.Blind}
}

// findBidBucketIdx returns the index of the bucket at priceQ among the
// ascending-sorted bid prices, or domain.InvalidIndex if absent.
func (s *Simulator) findBidBucketIdx(priceQ quant.PriceQ) uint64 {
	i := sort.Search(len(s.bidPrices), func(i int) bool { return s.bidPrices[i] >= priceQ })
	if i == len(s.bidPrices) || s.bidPrices[i] != priceQ {
		return domain.InvalidIndex
	}
	return uint64(i)
}

func (s *Simulator) findAskBucketIdx(priceQ quant.PriceQ) uint64 {
	i := sort.Search(len(s.askPrices), func(i int) bool { return s.askPrices[i] >= priceQ })
	if i == len(s.askPrices) || s.askPrices[i] != priceQ {
		return domain.InvalidIndex
	}
	return uint64(i)
}

// getOrInsertBidBucketIdx inserts a new empty bucket at priceQ, keeping
// bidPrices sorted ascending, and returns its index.
func (s *Simulator) getOrInsertBidBucketIdx(priceQ quant.PriceQ) uint64 {
	i := sort.Search(len(s.bidPrices), func(i int) bool { return s.bidPrices[i] >= priceQ })
	if i < len(s.bidPrices) && s.bidPrices[i] == priceQ {
		return uint64(i)
	}
	s.bidPrices = append(s.bidPrices, 0)
	copy(s.bidPrices[i+1:], s.bidPrices[i:])
	s.bidPrices[i] = priceQ

	s.bidBuckets = append(s.bidBuckets, bucket{})
	copy(s.bidBuckets[i+1:], s.bidBuckets[i:])
	s.bidBuckets[i] = newBucket()
	return uint64(i)
}

func (s *Simulator) getOrInsertAskBucketIdx(priceQ quant.PriceQ) uint64 {
	i := sort.Search(len(s.askPrices), func(i int) bool { return s.askPrices[i] >= priceQ })
	if i < len(s.askPrices) && s.askPrices[i] == priceQ {
		return uint64(i)
	}
	s.askPrices = append(s.askPrices, 0)
	copy(s.askPrices[i+1:], s.askPrices[i:])
	s.askPrices[i] = priceQ

	s.askBuckets = append(s.askBuckets, bucket{})
	copy(s.askBuckets[i+1:], s.askBuckets[i:])
	s.askBuckets[i] = newBucket()
	return uint64(i)
}

// eraseBidBucketIfEmpty removes an empty bucket from the sorted index
// and refreshes the best-active-bid summary, unless a matching pass is
// in progress (deferBucketErase), in which case compaction happens
// later via cleanupEmptyBuckets so mid-iteration Bucket references
// never dangle.
func (s *Simulator) eraseBidBucketIfEmpty(bidx uint64) {
	if s.deferBucketErase {
		return
	}
	s.bidPrices = append(s.bidPrices[:bidx], s.bidPrices[bidx+1:]...)
	s.bidBuckets = append(s.bidBuckets[:bidx], s.bidBuckets[bidx+1:]...)

	if len(s.bidPrices) == 0 {
		s.hasActiveBids = false
		s.bestActiveBidQ = 0
	} else {
		s.hasActiveBids = true
		s.bestActiveBidQ = s.bidPrices[len(s.bidPrices)-1]
	}
}

func (s *Simulator) eraseAskBucketIfEmpty(aidx uint64) {
	if s.deferBucketErase {
		return
	}
	s.askPrices = append(s.askPrices[:aidx], s.askPrices[aidx+1:]...)
	s.askBuckets = append(s.askBuckets[:aidx], s.askBuckets[aidx+1:]...)

	if len(s.askPrices) == 0 {
		s.hasActiveAsks = false
		s.bestActiveAskQ = 0
	} else {
		s.hasActiveAsks = true
		s.bestActiveAskQ = s.askPrices[0]
	}
}

// cleanupEmptyBuckets compacts any size-zero buckets left behind while
// deferBucketErase was set, and recomputes the best-active summaries.
func (s *Simulator) cleanupEmptyBuckets() {
	if len(s.bidBuckets) > 0 {
		kept := s.bidPrices[:0]
		keptB := s.bidBuckets[:0]
		for i, b := range s.bidBuckets {
			if b.size == 0 {
				continue
			}
			kept = append(kept, s.bidPrices[i])
			keptB = append(keptB, b)
		}
		s.bidPrices = kept
		s.bidBuckets = keptB
	}
	if len(s.bidPrices) == 0 {
		s.hasActiveBids = false
		s.bestActiveBidQ = 0
	} else {
		s.hasActiveBids = true
		s.bestActiveBidQ = s.bidPrices[len(s.bidPrices)-1]
	}

	if len(s.askBuckets) > 0 {
		kept := s.askPrices[:0]
		keptB := s.askBuckets[:0]
		for i, b := range s.askBuckets {
			if b.size == 0 {
				continue
			}
			kept = append(kept, s.askPrices[i])
			keptB = append(keptB, b)
		}
		s.askPrices = kept
		s.askBuckets = keptB
	}
	if len(s.askPrices) == 0 {
		s.hasActiveAsks = false
		s.bestActiveAskQ = 0
	} else {
		s.hasActiveAsks = true
		s.bestActiveAskQ = s.askPrices[0]
	}
}

// bucketPushBackBid appends orderIdx to the tail of bidx's intrusive FIFO.
func (s *Simulator) bucketPushBackBid(bidx, orderIdx uint64) {
	b := &s.bidBuckets[bidx]
	o := &s.orders[orderIdx]
	o.BucketPrev = b.tail
	o.BucketNext = domain.InvalidIndex
	if b.tail != domain.InvalidIndex {
		s.orders[b.tail].BucketNext = orderIdx
	} else {
		b.head = orderIdx
	}
	b.tail = orderIdx
	b.size++
}

func (s *Simulator) bucketPushBackAsk(aidx, orderIdx uint64) {
	b := &s.askBuckets[aidx]
	o := &s.orders[orderIdx]
	o.BucketPrev = b.tail
	o.BucketNext = domain.InvalidIndex
	if b.tail != domain.InvalidIndex {
		s.orders[b.tail].BucketNext = orderIdx
	} else {
		b.head = orderIdx
	}
	b.tail = orderIdx
	b.size++
}

// bucketEraseBid unlinks orderIdx from bidx's intrusive FIFO.
func (s *Simulator) bucketEraseBid(bidx, orderIdx uint64) {
	b := &s.bidBuckets[bidx]
	o := &s.orders[orderIdx]
	prev, next := o.BucketPrev, o.BucketNext
	if prev != domain.InvalidIndex {
		s.orders[prev].BucketNext = next
	} else {
		b.head = next
	}
	if next != domain.InvalidIndex {
		s.orders[next].BucketPrev = prev
	} else {
		b.tail = prev
	}
	o.BucketPrev, o.BucketNext = domain.InvalidIndex, domain.InvalidIndex
	b.size--
	if b.size == 0 {
		s.eraseBidBucketIfEmpty(bidx)
	}
}

func (s *Simulator) bucketEraseAsk(aidx, orderIdx uint64) {
	b := &s.askBuckets[aidx]
	o := &s.orders[orderIdx]
	prev, next := o.BucketPrev, o.BucketNext
	if prev != domain.InvalidIndex {
		s.orders[prev].BucketNext = next
	} else {
		b.head = next
	}
	if next != domain.InvalidIndex {
		s.orders[next].BucketPrev = prev
	} else {
		b.tail = prev
	}
	o.BucketPrev, o.BucketNext = domain.InvalidIndex, domain.InvalidIndex
	b.size--
	if b.size == 0 {
		s.eraseAskBucketIfEmpty(aidx)
	}
}

// removeActiveBid unlinks a resting bid order from both its price
// bucket and the flat active-bid set, swap-popping activeBids/activeBidPos.
func (s *Simulator) removeActiveBid(orderID, orderIdx uint64) {
	o := &s.orders[orderIdx]
	if bidx := s.findBidBucketIdx(o.PriceQ); bidx != domain.InvalidIndex {
		s.bucketEraseBid(bidx, orderIdx)
	}

	pos := s.activeBidPos[orderID]
	if pos == domain.InvalidIndex {
		return
	}
	last := len(s.activeBids) - 1
	lastIdx := s.activeBids[last]
	s.activeBids[pos] = lastIdx
	s.activeBidPos[s.orders[lastIdx].ID] = pos
	s.activeBids = s.activeBids[:last]
	s.activeBidPos[orderID] = domain.InvalidIndex
}

func (s *Simulator) removeActiveAsk(orderID, orderIdx uint64) {
	o := &s.orders[orderIdx]
	if aidx := s.findAskBucketIdx(o.PriceQ); aidx != domain.InvalidIndex {
		s.bucketEraseAsk(aidx, orderIdx)
	}

	pos := s.activeAskPos[orderID]
	if pos == domain.InvalidIndex {
		return
	}
	last := len(s.activeAsks) - 1
	lastIdx := s.activeAsks[last]
	s.activeAsks[pos] = lastIdx
	s.activeAskPos[s.orders[lastIdx].ID] = pos
	s.activeAsks = s.activeAsks[:last]
	s.activeAskPos[orderID] = domain.InvalidIndex
}
