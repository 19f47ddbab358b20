// Command feedtap connects to a live L2 depth feed, archives every tick
// to a binary snapshot file, and drives the engine.Simulator off it in
// real time — so a feedtap run's WAL and snapshot file together can
// later be replayed exactly via cmd/replay.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kvistrand/microsim/internal/app"
	"github.com/kvistrand/microsim/internal/engine"
	"github.com/kvistrand/microsim/internal/feed"
	"github.com/kvistrand/microsim/internal/infra"
	"github.com/kvistrand/microsim/internal/snapshot"
)

func main() {
	if err := run(); err != nil {
		slog.Error("feedtap failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	bs := app.NewBootstrap()
	if err := bs.Initialize(); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer bs.Shutdown()

	infra.PrintBanner(bs.Config)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	writer, err := snapshot.Create(bs.Config.Paths.SnapshotFile)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}

	seq := engine.NewSequencer(1024, bs.Sim, bs.EventStore, nil, nil)
	if err := seq.RecoverFromWAL(ctx); err != nil {
		writer.Close()
		return fmt.Errorf("recover from WAL: %w", err)
	}

	depth := bs.Config.Feed.Depth
	if depth <= 0 || depth > snapshot.Depth {
		depth = snapshot.Depth
	}

	worker := feed.NewWorker(bs.Config.Feed.WSURL, bs.Config.Feed.Symbol, depth, seq.Inbox(), writer)
	worker.Start(ctx)

	slog.Info("feedtap streaming",
		slog.String("url", bs.Config.Feed.WSURL),
		slog.String("symbol", bs.Config.Feed.Symbol))

	seq.Run(ctx)

	worker.Stop()
	if err := writer.Close(); err != nil {
		slog.Warn("failed to finalize snapshot file", slog.Any("error", err))
	}

	slog.Info("feedtap stopped", slog.Uint64("next_seq", seq.GetNextSeq()))
	return nil
}
