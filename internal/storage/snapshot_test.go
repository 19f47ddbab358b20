package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kvistrand/microsim/internal/domain"
)

func TestCheckpoint_SaveAndLoad(t *testing.T) {
	dir := filepath.Join(os.TempDir(), "checkpoint_test")
	defer os.RemoveAll(dir)

	sm := NewSnapshotManager(dir)

	cp := NewCheckpoint(100, domain.Ledger{CashQ: 50000000000, PositionQtyQ: 100000000})

	if err := sm.Save(cp); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := sm.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}

	if loaded == nil {
		t.Fatal("Expected checkpoint, got nil")
	}

	if loaded.Seq != 100 {
		t.Errorf("Expected seq 100, got %d", loaded.Seq)
	}

	if loaded.Ledger.CashQ != 50000000000 {
		t.Errorf("Ledger cash mismatch")
	}
}

func TestCheckpoint_LoadLatest_MultipleCheckpoints(t *testing.T) {
	dir := filepath.Join(os.TempDir(), "checkpoint_test2")
	defer os.RemoveAll(dir)

	sm := NewSnapshotManager(dir)

	for _, seq := range []uint64{10, 50, 30} {
		cp := &Checkpoint{Seq: seq, TsUnix: int64(seq)}
		if err := sm.Save(cp); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	loaded, err := sm.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}

	if loaded.Seq != 50 {
		t.Errorf("Expected latest seq 50, got %d", loaded.Seq)
	}
}

func TestCheckpoint_LoadLatest_NoCheckpoints(t *testing.T) {
	dir := filepath.Join(os.TempDir(), "checkpoint_empty")
	defer os.RemoveAll(dir)

	sm := NewSnapshotManager(dir)

	loaded, err := sm.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}

	if loaded != nil {
		t.Errorf("Expected nil for empty dir, got %v", loaded)
	}
}

func TestCheckpoint_Cleanup(t *testing.T) {
	dir := filepath.Join(os.TempDir(), "checkpoint_cleanup")
	defer os.RemoveAll(dir)

	sm := NewSnapshotManager(dir)

	for seq := uint64(1); seq <= 5; seq++ {
		cp := &Checkpoint{Seq: seq, TsUnix: int64(seq)}
		if err := sm.Save(cp); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	if err := sm.Cleanup(2); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("Expected 2 checkpoints after cleanup, got %d", len(entries))
	}

	loaded, _ := sm.LoadLatest()
	if loaded.Seq != 5 {
		t.Errorf("Expected seq 5 to remain, got %d", loaded.Seq)
	}
}
