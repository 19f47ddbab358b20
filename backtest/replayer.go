package backtest

import (
	"context"
	"fmt"

	"github.com/kvistrand/microsim/internal/engine"
	"github.com/kvistrand/microsim/internal/storage"
)

// Replayer reads the WAL and feeds every event into a Sequencer
// through the exact same dispatch path a live run used.
type Replayer struct {
	store *storage.EventStore
}

// NewReplayer opens the WAL at dbPath for replay.
func NewReplayer(dbPath string) (*Replayer, error) {
	store, err := storage.NewEventStore(dbPath)
	if err != nil {
		return nil, err
	}
	return &Replayer{store: store}, nil
}

// Close releases the underlying database handle.
func (r *Replayer) Close() error {
	return r.store.Close()
}

// RunReplay replays every WAL event from sequence 1 into seq.
func (r *Replayer) RunReplay(ctx context.Context, seq *engine.Sequencer) error {
	events, err := r.store.LoadEvents(ctx, 1)
	if err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}

	for _, ev := range events {
		seq.ReplayEvent(ev)
	}

	return nil
}
