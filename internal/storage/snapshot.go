package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kvistrand/microsim/internal/domain"
)

// Checkpoint is a point-in-time capture of ledger state and sequence
// position. It holds no order-book state (orders, buckets, pending
// heap), so it cannot by itself restore a Simulator, and
// Sequencer.RecoverFromWAL does not read checkpoints: recovery always
// replays the WAL from sequence 1.
type Checkpoint struct {
	Seq    uint64        `json:"seq"`
	TsUnix int64         `json:"ts"`
	Ledger domain.Ledger `json:"ledger"`
}

// SnapshotManager handles saving and loading checkpoints.
type SnapshotManager struct {
	dir string
}

// NewSnapshotManager creates a new checkpoint manager.
// dir: directory to store checkpoint files.
func NewSnapshotManager(dir string) *SnapshotManager {
	return &SnapshotManager{dir: dir}
}

// Save writes a checkpoint to disk.
func (sm *SnapshotManager) Save(cp *Checkpoint) error {
	if err := os.MkdirAll(sm.dir, 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint dir: %w", err)
	}

	filename := fmt.Sprintf("checkpoint_%d_%d.json", cp.Seq, cp.TsUnix)
	path := filepath.Join(sm.dir, filename)

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	slog.Info("checkpoint saved",
		slog.Uint64("seq", cp.Seq),
		slog.String("path", path))

	return nil
}

// LoadLatest loads the most recent checkpoint from disk.
// Returns nil if none exists.
func (sm *SnapshotManager) LoadLatest() (*Checkpoint, error) {
	entries, err := os.ReadDir(sm.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint dir: %w", err)
	}

	var latestPath string
	var latestSeq uint64

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		var seq uint64
		var ts int64
		if _, err := fmt.Sscanf(entry.Name(), "checkpoint_%d_%d.json", &seq, &ts); err != nil {
			continue // not a checkpoint file
		}

		if seq >= latestSeq {
			latestSeq = seq
			latestPath = filepath.Join(sm.dir, entry.Name())
		}
	}

	if latestPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(latestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}

	slog.Info("checkpoint loaded",
		slog.Uint64("seq", cp.Seq),
		slog.String("path", latestPath))

	return &cp, nil
}

// NewCheckpoint captures a checkpoint from current ledger state.
func NewCheckpoint(seq uint64, ledger domain.Ledger) *Checkpoint {
	return &Checkpoint{
		Seq:    seq,
		TsUnix: time.Now().Unix(),
		Ledger: ledger,
	}
}

// Cleanup removes old checkpoints, keeping only the latest N.
func (sm *SnapshotManager) Cleanup(keepCount int) error {
	entries, err := os.ReadDir(sm.dir)
	if err != nil {
		return err
	}

	type cpFile struct {
		path string
		seq  uint64
	}
	var files []cpFile

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var seq uint64
		var ts int64
		if _, err := fmt.Sscanf(entry.Name(), "checkpoint_%d_%d.json", &seq, &ts); err == nil {
			files = append(files, cpFile{path: filepath.Join(sm.dir, entry.Name()), seq: seq})
		}
	}

	if len(files) <= keepCount {
		return nil
	}

	for i := 0; i < len(files); i++ {
		for j := i + 1; j < len(files); j++ {
			if files[j].seq > files[i].seq {
				files[i], files[j] = files[j], files[i]
			}
		}
	}

	for i := keepCount; i < len(files); i++ {
		if err := os.Remove(files[i].path); err != nil {
			slog.Warn("failed to remove old checkpoint", slog.String("path", files[i].path))
		} else {
			slog.Info("removed old checkpoint", slog.String("path", files[i].path))
		}
	}

	return nil
}
