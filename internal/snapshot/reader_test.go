package snapshot

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/kvistrand/microsim/pkg/quant"
)

func makeRecord(tsMs int64, bidPx, bidQty, askPx, askQty int64) Record {
	var rec Record
	rec.TsEventMs = quant.TimeStampMs(tsMs)
	rec.TsRecvNs = quant.Ns(tsMs * 1_000_000)
	for i := 0; i < Depth; i++ {
		rec.Bids[i] = EmptyLevel("bid")
		rec.Asks[i] = EmptyLevel("ask")
	}
	rec.Bids[0] = Level{PriceQ: quant.PriceQ(bidPx), QtyQ: quant.QtyQ(bidQty)}
	rec.Asks[0] = Level{PriceQ: quant.PriceQ(askPx), QtyQ: quant.QtyQ(askQty)}
	return rec
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.snap")

	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	want := []Record{
		makeRecord(1000, 100_00000000, 2_00000000, 101_00000000, 3_00000000),
		makeRecord(1001, 100_50000000, 1_50000000, 100_90000000, 1_00000000),
	}
	for _, rec := range want {
		if err := w.Write(rec); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.Header.RecordCount != uint64(len(want)) {
		t.Errorf("record count = %d, want %d", r.Header.RecordCount, len(want))
	}

	for i, exp := range want {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("Next[%d]: %v", i, err)
		}
		if got.TsEventMs != exp.TsEventMs || got.Bids[0] != exp.Bids[0] || got.Asks[0] != exp.Asks[0] {
			t.Errorf("record[%d] = %+v, want %+v", i, got, exp)
		}
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF after last record, got %v", err)
	}
}

func TestHasTopOfBook(t *testing.T) {
	rec := makeRecord(1000, 100_00000000, 2_00000000, 101_00000000, 3_00000000)
	if !rec.HasTopOfBook() {
		t.Error("expected HasTopOfBook true")
	}

	rec.Bids[0] = EmptyLevel("bid")
	if rec.HasTopOfBook() {
		t.Error("expected HasTopOfBook false with empty bid")
	}
}

func TestOpenRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.snap")

	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	w.Close()

	// Corrupt the magic in place.
	f, err := os.OpenFile(path, os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open for corruption: %v", err)
	}
	if _, err := f.WriteAt([]byte{0, 0, 0, 0}, 0); err != nil {
		t.Fatalf("corrupt magic: %v", err)
	}
	f.Close()

	if _, err := Open(path); err == nil {
		t.Error("expected Open to reject bad magic")
	}
}
