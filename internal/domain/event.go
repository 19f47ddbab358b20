package domain

import "github.com/kvistrand/microsim/pkg/quant"

// Event is a lifecycle log entry: submit, activate, cancel, reject.
type Event struct {
	Ts           quant.Ns
	OrderID      uint64
	Type         EventType
	State        OrderState
	RejectReason RejectReason
}

// FillEvent is a single execution against the book, logged separately
// from the lifecycle event stream.
type FillEvent struct {
	Ts      quant.Ns
	OrderID uint64
	Side    Side
	PriceQ  quant.PriceQ
	QtyQ    quant.QtyQ
	Liq     LiquidityFlag

	NotionalCashQ int64
	FeeCashQ      int64
}
