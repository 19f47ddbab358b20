package domain

import "github.com/kvistrand/microsim/pkg/quant"

// LimitOrderRequest asks the simulator to place a resting order.
type LimitOrderRequest struct {
	Side          Side
	PriceQ        quant.PriceQ
	QtyQ          quant.QtyQ
	Tif           Tif
	ClientOrderID uint64 // not used for lookup; stored as metadata
}

// MarketOrderRequest asks the simulator to place an order that only
// ever sweeps, never rests.
type MarketOrderRequest struct {
	Side          Side
	QtyQ          quant.QtyQ
	Tif           Tif // IOC by convention
	ClientOrderID uint64
}

// CancelRequest asks the simulator to cancel an order by its
// simulator-assigned id.
type CancelRequest struct {
	OrderID uint64
}
