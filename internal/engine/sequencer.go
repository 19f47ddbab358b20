package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/kvistrand/microsim/internal/domain"
	"github.com/kvistrand/microsim/internal/event"
	"github.com/kvistrand/microsim/internal/snapshot"
	"github.com/kvistrand/microsim/internal/storage"
	"github.com/kvistrand/microsim/internal/strategy"
)

// Sequencer is the single-threaded event processor wrapping a
// Simulator: every order intent and book tick, whether arriving live
// off a feed or during WAL replay, runs through the same dispatch
// path, so a replay produces byte-identical Simulator state to the
// original run.
type Sequencer struct {
	inbox   chan event.Event
	sim     *Simulator
	nextSeq uint64
	store   *storage.EventStore

	strategy strategy.Strategy

	// onTick notifies external readers (UI, metrics) of a processed
	// book tick. Never invoked during replay.
	onTick func(snapshot.Record, domain.Ledger)

	halted bool

	mu sync.RWMutex // guards external reads only; Run is single-threaded
}

// NewSequencer creates a new sequencer instance wrapping sim.
func NewSequencer(inboxSize int, sim *Simulator, store *storage.EventStore, strat strategy.Strategy, onTick func(snapshot.Record, domain.Ledger)) *Sequencer {
	return &Sequencer{
		inbox:    make(chan event.Event, inboxSize),
		sim:      sim,
		nextSeq:  1,
		store:    store,
		strategy: strat,
		onTick:   onTick,
	}
}

// RecoverFromWAL restores engine state by replaying every event from
// sequence 1 forward. Same code path as a live run processes them.
func (s *Sequencer) RecoverFromWAL(ctx context.Context) error {
	if s.store == nil {
		slog.Info("no store configured, starting fresh")
		return nil
	}

	lastSeq, err := s.store.GetLastSeq(ctx)
	if err != nil {
		return fmt.Errorf("failed to get last seq: %w", err)
	}

	if lastSeq == 0 {
		slog.Info("WAL is empty, starting fresh")
		return nil
	}

	events, err := s.store.LoadEvents(ctx, 1)
	if err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}

	slog.Info("replaying events from WAL", slog.Int("count", len(events)))

	for _, ev := range events {
		s.ReplayEvent(ev)
	}

	slog.Info("state recovered from WAL", slog.Uint64("next_seq", s.nextSeq))
	return nil
}

// GetNextSeq returns the sequence number the next inbox event must carry.
func (s *Sequencer) GetNextSeq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextSeq
}

// ValidateSequence checks for gaps based on the tolerance policy.
func (s *Sequencer) ValidateSequence(evSeq uint64) {
	expected := s.nextSeq
	if evSeq == expected {
		return
	}

	diff := int64(evSeq) - int64(expected)

	if diff < 0 {
		slog.Warn("SEQUENCE_DUPLICATE_IGNORED", slog.Uint64("expected", expected), slog.Uint64("got", evSeq))
		return
	}

	if diff > 0 {
		if diff <= 10 {
			slog.Warn("SEQUENCE_GAP_TOLERATED",
				slog.Uint64("expected", expected),
				slog.Uint64("got", evSeq),
				slog.Int64("gap", diff))
			s.nextSeq = evSeq
			return
		}

		panic(fmt.Sprintf("SEQUENCE_GAP_FATAL: expected %d, got %d", expected, evSeq))
	}
}

// Inbox returns the event channel. External workers send events here.
func (s *Sequencer) Inbox() chan<- event.Event {
	return s.inbox
}

// Run starts the main event loop. This MUST be run in a single goroutine.
func (s *Sequencer) Run(ctx context.Context) {
	slog.Info("sequencer started")

	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			s.DumpState("panic_dump.json")
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	for {
		if s.halted {
			slog.Info("sequencer halted")
			return
		}
		select {
		case <-ctx.Done():
			slog.Info("sequencer stopping...")
			return
		case ev := <-s.inbox:
			s.processEvent(ev)
		}
	}
}

func (s *Sequencer) processEvent(ev event.Event) {
	s.ValidateSequence(ev.GetSeq())

	if s.store != nil {
		if err := s.store.SaveEvent(context.Background(), ev); err != nil {
			panic(fmt.Sprintf("PERSISTENCE_FAILURE: %v", err))
		}
	}

	s.dispatch(ev, true)
	s.nextSeq++
}

// ReplayEvent processes an event synchronously without WAL logging or
// strategy reactions — those reactions are already present in the WAL
// as their own events from the original live run.
func (s *Sequencer) ReplayEvent(ev event.Event) {
	if ev.GetSeq() != s.nextSeq {
		panic(fmt.Sprintf("REPLAY_GAP_DETECTED: expected %d, got %d", s.nextSeq, ev.GetSeq()))
	}

	s.dispatch(ev, false)
	s.nextSeq++
}

func (s *Sequencer) dispatch(ev event.Event, live bool) {
	switch e := ev.(type) {
	case event.BookUpdateEvent:
		s.handleBookUpdate(&e, live)
	case event.LimitOrderEvent:
		s.sim.PlaceLimit(e.Request)
	case event.MarketOrderEvent:
		s.sim.PlaceMarket(e.Request)
	case event.CancelEvent:
		s.sim.Cancel(e.Request.OrderID)
	case event.SystemHaltEvent:
		slog.Warn("SYSTEM_HALT_RECEIVED", slog.String("reason", e.Reason))
		s.halted = true
	default:
		slog.Warn("unknown event type", slog.Any("type", ev.GetType()))
	}
}

func (s *Sequencer) handleBookUpdate(e *event.BookUpdateEvent, live bool) {
	s.sim.Step(e.Record)

	if s.onTick != nil {
		s.onTick(e.Record, s.sim.Ledger())
	}

	if !live || s.strategy == nil {
		return
	}

	intents := make([]strategy.Intent, 4)
	n := s.strategy.OnBookUpdate(e.Record, intents)
	for i := 0; i < n; i++ {
		s.submitStrategyIntent(intents[i])
	}
}

// submitStrategyIntent turns a strategy signal into its own WAL event
// so a replay sees the exact same order placement without
// re-invoking strategy logic.
func (s *Sequencer) submitStrategyIntent(in strategy.Intent) {
	var ev event.Event
	switch {
	case in.Market != nil:
		ev = event.MarketOrderEvent{
			BaseEvent: event.BaseEvent{Seq: s.nextSeq, Ts: s.sim.Now()},
			Request:   *in.Market,
		}
	case in.Limit != nil:
		ev = event.LimitOrderEvent{
			BaseEvent: event.BaseEvent{Seq: s.nextSeq, Ts: s.sim.Now()},
			Request:   *in.Limit,
		}
	default:
		return
	}

	if s.store != nil {
		if err := s.store.SaveEvent(context.Background(), ev); err != nil {
			panic(fmt.Sprintf("PERSISTENCE_FAILURE: %v", err))
		}
	}
	s.dispatch(ev, false)
	s.nextSeq++
}

// DumpState writes the Simulator's order/event/ledger state to a file
// for post-mortem inspection after a panic.
func (s *Sequencer) DumpState(filename string) {
	slog.Info("dumping internal state...", slog.String("file", filename))

	data := struct {
		NextSeq uint64         `json:"next_seq"`
		Now     int64          `json:"now_ns"`
		Ledger  domain.Ledger  `json:"ledger"`
		Orders  []domain.Order `json:"orders"`
	}{
		NextSeq: s.nextSeq,
		Now:     int64(s.sim.Now()),
		Ledger:  s.sim.Ledger(),
		Orders:  s.sim.Orders(),
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("failed to marshal state", slog.Any("error", err))
		return
	}

	if err := os.WriteFile(filename, b, 0644); err != nil {
		slog.Error("failed to write state dump", slog.Any("error", err))
	}
}
