package domain

import "github.com/kvistrand/microsim/pkg/quant"

// InvalidIndex marks an absent intrusive list pointer or direct-address
// table slot.
const InvalidIndex uint64 = ^uint64(0)

// Order is a single limit or market order tracked by the simulator.
// All monetary/quantity fields are fixed-point int64 (quant.PriceQ /
// quant.QtyQ), never float64.
type Order struct {
	ID            uint64
	ClientOrderID uint64 // caller-supplied correlation id, metadata only
	Type          OrderType
	Side          Side

	PriceQ quant.PriceQ // zero for Market orders
	QtyQ   quant.QtyQ

	FilledQtyQ quant.QtyQ

	// Queueing model: quantity modeled as ahead of this order at its
	// price level (set on activation or re-anchor, then reduced as the
	// level depletes), and the last observed displayed quantity at that
	// level (for depletion inference). LastLevelQtyQ is only
	// meaningful when Visibility != Blind.
	QtyAheadQ     quant.QtyQ
	LastLevelQtyQ quant.QtyQ
	LastLevelIdx  int16 // -1 means no observed slot
	Visibility    Visibility

	SubmitTs   quant.Ns // when the request was accepted
	ActivateTs quant.Ns // SubmitTs + outbound latency

	State        OrderState
	RejectReason RejectReason

	// Intrusive per-price FIFO list pointers; indices into the
	// simulator's order slice. Valid only while Active/Partial and
	// resting in a bucket.
	BucketPrev uint64
	BucketNext uint64
}

// Remaining returns the unfilled quantity.
func (o *Order) Remaining() quant.QtyQ {
	return o.QtyQ - o.FilledQtyQ
}

// IsResting reports whether the order currently occupies a bucket slot.
func (o *Order) IsResting() bool {
	return o.State == Active || o.State == Partial
}
