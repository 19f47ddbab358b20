package domain

import (
	"github.com/kvistrand/microsim/pkg/quant"
	"github.com/kvistrand/microsim/pkg/safe"
)

// Ledger is the portfolio accounting state: free and locked balances
// in both quote cash and base position. All values are fixed-point
// int64; locked_* tracks reservations held against Pending/Active
// orders and is released proportionally as each order fills or
// terminates.
type Ledger struct {
	CashQ        int64 // quote currency free cash
	PositionQtyQ int64 // base currency position

	LockedCashQ        int64
	LockedPositionQtyQ int64
}

// AvailableCashQ returns cash not already reserved against resting orders.
func (l *Ledger) AvailableCashQ() int64 {
	return l.CashQ - l.LockedCashQ
}

// AvailablePositionQtyQ returns base position not already reserved
// against resting sell orders.
func (l *Ledger) AvailablePositionQtyQ() int64 {
	return l.PositionQtyQ - l.LockedPositionQtyQ
}

// Notional computes floor(price_q * qty_q / PriceScale), the one true
// fixed-point notional rule used for both locking and fill accounting.
// Both locking (on order placement) and fill settlement go through
// this same function so the two can never drift apart.
func Notional(priceQ quant.PriceQ, qtyQ quant.QtyQ) int64 {
	return safe.MulDivFloor(int64(priceQ), int64(qtyQ), int64(quant.PriceScale))
}

// FeeCashQ computes floor(notionalQ * feePpm / PpmScale).
func FeeCashQ(notionalQ int64, feePpm uint64) int64 {
	return safe.MulDivFloor(notionalQ, int64(feePpm), int64(quant.PpmScale))
}
