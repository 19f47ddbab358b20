// Command replay drives the engine.Simulator deterministically against a
// recorded binary L2 snapshot file, persisting every tick to the WAL as it
// goes so the run can later be reproduced exactly via backtest.Replayer.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kvistrand/microsim/internal/app"
	"github.com/kvistrand/microsim/internal/engine"
	"github.com/kvistrand/microsim/internal/event"
	"github.com/kvistrand/microsim/internal/infra"
	"github.com/kvistrand/microsim/internal/snapshot"
	"github.com/kvistrand/microsim/internal/strategy"
	"github.com/kvistrand/microsim/pkg/quant"
)

func main() {
	if err := run(); err != nil {
		slog.Error("replay failed", slog.Any("error", err))
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

	reader, err := snapshot.Open(bs.Config.Paths.SnapshotFile)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer reader.Close()

	var strat strategy.Strategy
	if bs.Config.Simulator.Risk.MaxAbsPositionQtyQ > 0 {
		strat = strategy.NewSMACrossStrategy(5, 20, quant.QtyQ(bs.Config.Simulator.Risk.MaxAbsPositionQtyQ/10))
	}

	seq := engine.NewSequencer(1024, bs.Sim, bs.EventStore, strat, nil)
	if err := seq.RecoverFromWAL(ctx); err != nil {
		return fmt.Errorf("recover from WAL: %w", err)
	}

	resumeAt := seq.GetNextSeq()
	if resumeAt > 1 {
		slog.Info("resuming replay", slog.Uint64("resume_seq", resumeAt))
	}

	runCtx, runCancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		seq.Run(runCtx)
		close(done)
	}()

	var ticks uint64
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			runCancel()
			<-done
			return fmt.Errorf("read record %d: %w", ticks, err)
		}

		ticks++
		if ticks < resumeAt {
			continue
		}

		ev := event.AcquireBookUpdateEvent()
		ev.Seq = ticks
		ev.Ts = rec.TsRecvNs
		ev.Record = rec
		out := *ev
		event.ReleaseBookUpdateEvent(ev)

		select {
		case seq.Inbox() <- out:
		case <-ctx.Done():
			runCancel()
			<-done
			return ctx.Err()
		}
	}

	for seq.GetNextSeq() <= ticks {
		select {
		case <-ctx.Done():
			runCancel()
			<-done
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
	runCancel()
	<-done

	summarize(bs)
	return nil
}

func summarize(bs *app.Bootstrap) {
	ledger := bs.Sim.Ledger()
	fills := bs.Sim.Fills()

	fmt.Println()
	fmt.Println("=== replay summary ===")
	fmt.Printf("fills:            %d\n", len(fills))
	fmt.Printf("cash:             %d\n", ledger.CashQ)
	fmt.Printf("position qty:     %d\n", ledger.PositionQtyQ)
	fmt.Printf("locked cash:      %d\n", ledger.LockedCashQ)
	fmt.Printf("locked position:  %d\n", ledger.LockedPositionQtyQ)
}
