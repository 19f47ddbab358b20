// Package quant defines the fixed-point scalar types shared by the
// simulator core, the snapshot reader, and the storage/replay layers.
// All monetary and quantity values are strictly int64; there is no
// float64 anywhere on the hot path.
package quant

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PriceScale and QtyScale match the on-disk snapshot format: both price
// and quantity are quantised at 1e8 (see internal/snapshot).
const (
	PriceScale int64 = 100_000_000
	QtyScale   int64 = 100_000_000
	PpmScale   int64 = 1_000_000
)

// PriceQ is a price in fixed-point units (real_price * PriceScale).
type PriceQ int64

// QtyQ is a quantity in fixed-point units (real_qty * QtyScale).
type QtyQ int64

// Ns is a simulator-clock timestamp in nanoseconds since epoch.
type Ns int64

// TimeStampMs is an exchange event timestamp in milliseconds since epoch.
type TimeStampMs int64

// Sentinel values for missing snapshot levels (see internal/snapshot).
const (
	BidNullPriceQ PriceQ = 0
	AskNullPriceQ PriceQ = PriceQ(1<<63 - 1)
	NullQtyQ      QtyQ   = 0
)

// String renders a price for logs/CLI output only; never used on the hot path.
func (p PriceQ) String() string {
	return decimal.New(int64(p), 0).Shift(-8).StringFixed(8)
}

// String renders a quantity for logs/CLI output only; never used on the hot path.
func (q QtyQ) String() string {
	return decimal.New(int64(q), 0).Shift(-8).StringFixed(8)
}

func (n Ns) String() string {
	return fmt.Sprintf("%dns", int64(n))
}

// IsValidBidPrice reports whether p is not the bid-null sentinel.
func IsValidBidPrice(p PriceQ) bool { return p != BidNullPriceQ }

// IsValidAskPrice reports whether p is not the ask-null sentinel.
func IsValidAskPrice(p PriceQ) bool { return p != AskNullPriceQ }

// ParsePriceQ parses a decimal string (e.g. "42123.50") into fixed-point
// price units, truncating any precision beyond 1e-8.
func ParsePriceQ(s string) (PriceQ, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("quant: parse price %q: %w", s, err)
	}
	return PriceQ(d.Shift(8).Truncate(0).IntPart()), nil
}

// ParseQtyQ parses a decimal string into fixed-point quantity units,
// truncating any precision beyond 1e-8.
func ParseQtyQ(s string) (QtyQ, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("quant: parse qty %q: %w", s, err)
	}
	return QtyQ(d.Shift(8).Truncate(0).IntPart()), nil
}
