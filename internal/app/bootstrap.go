package app

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/kvistrand/microsim/internal/engine"
	"github.com/kvistrand/microsim/internal/event"
	"github.com/kvistrand/microsim/internal/infra"
	"github.com/kvistrand/microsim/internal/storage"
)

// Bootstrap orchestrates application startup: config, logging,
// workspace directories, the WAL-backed EventStore, and the
// engine.Simulator that a cmd/ binary wraps in its own Sequencer.
type Bootstrap struct {
	Config     *infra.Config
	EventStore *storage.EventStore
	Snapshots  *storage.SnapshotManager
	Sim        *engine.Simulator
	unlock     func()
}

// NewBootstrap creates a new Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logging,
// directories, WAL, engine).
func (b *Bootstrap) Initialize() error {
	event.Warmup()

	cfg, err := infra.LoadConfig(infra.ResolveConfigPath())
	if err != nil {
		return err
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	mode := strings.ToLower(string(cfg.Mode))
	if mode == "" {
		mode = "replay"
	}

	workDir := infra.GetWorkspaceDir()
	dataDir := filepath.Join(workDir, "data", mode)
	logDir := filepath.Join(workDir, "logs", mode)

	if err := infra.EnsureDir(dataDir); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := infra.EnsureDir(logDir); err != nil {
		return fmt.Errorf("failed to create log dir: %w", err)
	}

	unlock, err := infra.CreateLockFile(workDir)
	if err != nil {
		return err
	}
	b.unlock = unlock

	dbPath := cfg.Paths.EventsDB
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "events.db")
	}
	evStore, err := storage.NewEventStore(dbPath)
	if err != nil {
		return err
	}
	b.EventStore = evStore
	slog.Info("event store initialized", "path", dbPath, "mode", mode)

	b.Snapshots = storage.NewSnapshotManager(filepath.Join(dataDir, "checkpoints"))

	sim := engine.New(cfg.Simulator)
	if err := sim.Reset(0, cfg.InitialLedger); err != nil {
		return fmt.Errorf("failed to reset simulator: %w", err)
	}
	b.Sim = sim

	slog.Info("simulator initialized",
		"max_orders", cfg.Simulator.MaxOrders,
		"max_events", cfg.Simulator.MaxEvents)

	return nil
}

// Shutdown releases the instance lock and closes the EventStore.
func (b *Bootstrap) Shutdown() {
	if b.EventStore != nil {
		if err := b.EventStore.Close(); err != nil {
			slog.Warn("failed to close event store", "error", err)
		}
	}
	if b.unlock != nil {
		b.unlock()
	}
}
