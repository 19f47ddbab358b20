// Package snapshot defines the on-disk layout of top-N L2 order book
// snapshots and a sequential reader over them. The format is a fixed
// header followed by fixed-size records, designed for O(1) random
// access and deterministic replay: no floats, no variable-length
// fields.
package snapshot

import "github.com/kvistrand/microsim/pkg/quant"

// Depth is the number of price levels carried per side in a Record.
const Depth = 20

// Magic identifies a valid snapshot file ("L2BO" as little-endian uint32).
const Magic uint32 = 0x4C32424F

// Version is the only format version this reader understands.
const Version uint16 = 1

// EndianCheck is written by little-endian producers; a reader seeing
// any other value is looking at a foreign-endian file it cannot trust.
const EndianCheck uint32 = 0x01020304

// RecordSize is the on-disk size in bytes of a single Record.
const RecordSize = 8 + 8 + Depth*16 + Depth*16 // 656

// HeaderSize is the on-disk size in bytes of the FileHeader.
const HeaderSize = 4 + 2 + 2 + 4 + 4 + 8 + 8 + 8 // 40

// FileHeader is the fixed 40-byte preamble of a snapshot file.
type FileHeader struct {
	Magic       uint32
	Version     uint16
	Depth       uint16
	RecordSize  uint32
	EndianCheck uint32
	PriceScale  int64
	QtyScale    int64
	RecordCount uint64 // 0 means unknown at write time
}

// Level is one price/quantity pair at a given depth index.
type Level struct {
	PriceQ quant.PriceQ
	QtyQ   quant.QtyQ
}

// Record is one point-in-time L2 snapshot: best bid/ask at index 0,
// bids in non-increasing price order, asks in non-decreasing price
// order. Missing levels carry sentinel values (see IsBidActive /
// IsAskActive).
type Record struct {
	TsEventMs quant.TimeStampMs
	TsRecvNs  quant.Ns
	Bids      [Depth]Level
	Asks      [Depth]Level
}

// IsBidActive reports whether l represents a real resting bid rather
// than a filled-in sentinel for a missing level.
func IsBidActive(l Level) bool {
	return l.QtyQ > 0 && l.PriceQ > 0
}

// IsAskActive reports whether l represents a real resting ask rather
// than a filled-in sentinel for a missing level.
func IsAskActive(l Level) bool {
	return l.QtyQ > 0 && quant.IsValidAskPrice(l.PriceQ)
}

// HasTopOfBook reports whether both best bid and best ask are active.
func (r *Record) HasTopOfBook() bool {
	return IsBidActive(r.Bids[0]) && IsAskActive(r.Asks[0])
}

// BestBidPriceQ returns the top-of-book bid price, or the bid-null
// sentinel if the book is empty on that side.
func (r *Record) BestBidPriceQ() quant.PriceQ { return r.Bids[0].PriceQ }

// BestAskPriceQ returns the top-of-book ask price, or the ask-null
// sentinel if the book is empty on that side.
func (r *Record) BestAskPriceQ() quant.PriceQ { return r.Asks[0].PriceQ }
