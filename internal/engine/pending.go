package engine

import "github.com/kvistrand/microsim/pkg/quant"

// pendingEntry is one order waiting to become Active once its
// outbound-latency deadline elapses.
type pendingEntry struct {
	activateTs quant.Ns
	seq        uint64
	orderID    uint64
}

// pendingHeap is a min-heap ordered by (activateTs, seq), giving
// deterministic activation order for orders that mature at the same
// timestamp.
type pendingHeap []pendingEntry

func (h pendingHeap) Len() int { return len(h) }

func (h pendingHeap) Less(i, j int) bool {
	if h[i].activateTs != h[j].activateTs {
		return h[i].activateTs < h[j].activateTs
	}
	return h[i].seq < h[j].seq
}

func (h pendingHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *pendingHeap) Push(x any) {
	*h = append(*h, x.(pendingEntry))
}

func (h *pendingHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
