package engine

import (
	"context"
	"os"
	"testing"

	"github.com/kvistrand/microsim/internal/domain"
	"github.com/kvistrand/microsim/internal/event"
	"github.com/kvistrand/microsim/internal/storage"
)

func TestSequencer_Replay_EmptyWAL(t *testing.T) {
	tempDB := t.TempDir() + "/test_empty.db"
	defer os.Remove(tempDB)

	store, err := storage.NewEventStore(tempDB)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	sim := newTestSim(t, domain.StpNone)
	sequencer := NewSequencer(100, sim, store, nil, nil)

	if err := sequencer.RecoverFromWAL(ctx); err != nil {
		t.Fatalf("RecoverFromWAL failed on empty WAL: %v", err)
	}

	if sequencer.GetNextSeq() != 1 {
		t.Errorf("expected nextSeq=1, got %d", sequencer.GetNextSeq())
	}
}

// TestSequencer_Replay_SingleEvent verifies that replaying a single
// book-update event off the WAL reproduces the same simulator clock
// and sequence position a live run reached.
func TestSequencer_Replay_SingleEvent(t *testing.T) {
	tempDB := t.TempDir() + "/test_single.db"
	defer os.Remove(tempDB)

	store, err := storage.NewEventStore(tempDB)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	sim1 := newTestSim(t, domain.StpNone)
	sequencer1 := NewSequencer(100, sim1, store, nil, nil)

	bookEvent := event.BookUpdateEvent{
		BaseEvent: event.BaseEvent{Seq: 1, Ts: 100},
		Record:    rec(100, [][2]int64{{100, 5}}, [][2]int64{{101, 5}}),
	}
	sequencer1.processEvent(bookEvent)

	originalNow := sim1.Now()
	originalNextSeq := sequencer1.GetNextSeq()

	sim2 := newTestSim(t, domain.StpNone)
	sequencer2 := NewSequencer(100, sim2, store, nil, nil)
	if err := sequencer2.RecoverFromWAL(ctx); err != nil {
		t.Fatalf("RecoverFromWAL failed: %v", err)
	}

	if sim2.Now() != originalNow {
		t.Errorf("now mismatch: original=%d, replayed=%d", originalNow, sim2.Now())
	}
	if sequencer2.GetNextSeq() != originalNextSeq {
		t.Errorf("nextSeq mismatch: original=%d, replayed=%d", originalNextSeq, sequencer2.GetNextSeq())
	}
}
