// Package engine implements the deterministic matching/queue core:
// latency-gated order activation, FIFO passive fills driven by
// observed per-level depletion, aggressive sweeps against visible
// depth, self-trade prevention, and fixed-point ledger accounting.
//
// The Simulator touches no clock, file, or goroutine — its state
// advances only through Step, PlaceLimit/PlaceMarket, and Cancel, so
// the same call sequence always produces the same orders, events, and
// fills. The Sequencer in this package wraps a Simulator with an inbox
// channel and an optional WAL.
package engine

import (
	"fmt"

	"github.com/kvistrand/microsim/internal/domain"
	"github.com/kvistrand/microsim/internal/snapshot"
	"github.com/kvistrand/microsim/pkg/quant"
)

// Simulator holds all state for one deterministic run: the order
// book (buckets + active sets), the pending-activation heap, the
// ledger, and the lifecycle/fill logs.
type Simulator struct {
	params domain.SimulatorParams

	now    quant.Ns
	ledger domain.Ledger

	// lastRecord is the most recent snapshot handed to Step; no
	// matching path reads it (PlaceMarket rejects without consulting
	// the book).
	lastRecord snapshot.Record
	haveRecord bool

	orders      []domain.Order
	idToIndex   []uint64
	nextOrderID uint64
	nextSeq     uint64

	pending pendingHeap

	activeBids   []uint64
	activeAsks   []uint64
	activeBidPos []uint64
	activeAskPos []uint64

	bidPrices  []quant.PriceQ
	bidBuckets []bucket
	askPrices  []quant.PriceQ
	askBuckets []bucket

	hasActiveBids  bool
	hasActiveAsks  bool
	bestActiveBidQ quant.PriceQ
	bestActiveAskQ quant.PriceQ

	// deferBucketErase is set for the duration of the passive-fill and
	// aggressive-sweep phases of Step, during which bucket slices must
	// not be compacted (a live Bucket pointer would dangle); cleared
	// and reconciled by cleanupEmptyBuckets before pending activation.
	deferBucketErase bool

	events []domain.Event
	fills  []domain.FillEvent
}

// New constructs a Simulator with the given parameters. Call Reset
// before the first Step.
func New(params domain.SimulatorParams) *Simulator {
	return &Simulator{params: params}
}

// Reset reinitializes all simulator state for a fresh deterministic
// run starting at startTs with initialLedger as the opening balances.
func (s *Simulator) Reset(startTs quant.Ns, initialLedger domain.Ledger) error {
	if s.params.MaxOrders == 0 {
		return fmt.Errorf("engine: reset: max_orders must be > 0")
	}
	if s.params.MaxEvents == 0 {
		return fmt.Errorf("engine: reset: max_events must be > 0")
	}
	if s.params.AlphaPpm > uint64(quant.PpmScale) {
		return fmt.Errorf("engine: reset: alpha_ppm %d exceeds %d", s.params.AlphaPpm, quant.PpmScale)
	}
	if initialLedger.LockedCashQ < 0 || initialLedger.LockedPositionQtyQ < 0 {
		return fmt.Errorf("engine: reset: initial ledger has negative locked balance")
	}

	s.now = startTs
	s.ledger = initialLedger
	s.lastRecord = snapshot.Record{}
	s.haveRecord = false

	s.orders = make([]domain.Order, 0, s.params.MaxOrders)
	s.events = make([]domain.Event, 0, s.params.MaxEvents)
	s.fills = nil
	s.pending = nil

	s.nextOrderID = 1
	s.nextSeq = 1

	s.idToIndex = make([]uint64, s.params.MaxOrders+1)
	s.activeBidPos = make([]uint64, s.params.MaxOrders+1)
	s.activeAskPos = make([]uint64, s.params.MaxOrders+1)
	for i := range s.idToIndex {
		s.idToIndex[i] = domain.InvalidIndex
		s.activeBidPos[i] = domain.InvalidIndex
		s.activeAskPos[i] = domain.InvalidIndex
	}

	s.activeBids = make([]uint64, 0, s.params.MaxOrders)
	s.activeAsks = make([]uint64, 0, s.params.MaxOrders)

	s.bidPrices = nil
	s.askPrices = nil
	s.bidBuckets = nil
	s.askBuckets = nil
	s.hasActiveBids = false
	s.hasActiveAsks = false
	s.bestActiveBidQ = 0
	s.bestActiveAskQ = 0
	s.deferBucketErase = false

	return nil
}

// Now returns the simulator clock.
func (s *Simulator) Now() quant.Ns { return s.now }

// Params returns the configured run parameters.
func (s *Simulator) Params() domain.SimulatorParams { return s.params }

// Ledger returns a copy of the current portfolio ledger.
func (s *Simulator) Ledger() domain.Ledger { return s.ledger }

// Orders returns a read-only view of all orders ever placed, in
// submission order. Intended for tests and debug tooling, not the hot
// path.
func (s *Simulator) Orders() []domain.Order { return s.orders }

// Events returns the lifecycle event log.
func (s *Simulator) Events() []domain.Event { return s.events }

// Fills returns the fill log.
func (s *Simulator) Fills() []domain.FillEvent { return s.fills }

// OrderByID looks up an order by its simulator-assigned id. The
// second return value is false if the id is unknown.
func (s *Simulator) OrderByID(id uint64) (domain.Order, bool) {
	if id == 0 || id >= uint64(len(s.idToIndex)) {
		return domain.Order{}, false
	}
	idx := s.idToIndex[id]
	if idx == domain.InvalidIndex {
		return domain.Order{}, false
	}
	return s.orders[idx], true
}

func isTerminal(st domain.OrderState) bool { return st.IsTerminal() }

func isResting(st domain.OrderState) bool {
	return st == domain.Active || st == domain.Partial
}

// pushEvent appends an Event if capacity allows; returns false when
// params.MaxEvents has been reached, in which case the caller must
// deterministically reject or cancel rather than silently drop state.
func (s *Simulator) pushEvent(ts quant.Ns, id uint64, et domain.EventType, st domain.OrderState, rr domain.RejectReason) bool {
	if uint64(len(s.events)) >= s.params.MaxEvents {
		return false
	}
	s.events = append(s.events, domain.Event{Ts: ts, OrderID: id, Type: et, State: st, RejectReason: rr})
	return true
}
