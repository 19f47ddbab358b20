package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/kvistrand/microsim/pkg/quant"
)

// Writer produces a snapshot file record-by-record. It is used by
// tests and by feed-tap ingestion to materialize a file this package
// can later read back with Reader.
type Writer struct {
	f       *os.File
	count   uint64
	headerW bool
}

// Create opens path for writing and reserves space for the header,
// which is finalized (with the true record count) on Close.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: create %s: %w", path, err)
	}
	w := &Writer{f: f}
	if err := w.writeHeader(0); err != nil {
		f.Close()
		return nil, err
	}
	// WriteAt leaves the file offset alone; move past the header so
	// records are appended after it.
	if _, err := f.Seek(HeaderSize, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("snapshot: seek past header: %w", err)
	}
	return w, nil
}

func (w *Writer) writeHeader(count uint64) error {
	hb := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(hb[0:4], Magic)
	binary.LittleEndian.PutUint16(hb[4:6], Version)
	binary.LittleEndian.PutUint16(hb[6:8], Depth)
	binary.LittleEndian.PutUint32(hb[8:12], RecordSize)
	binary.LittleEndian.PutUint32(hb[12:16], EndianCheck)
	binary.LittleEndian.PutUint64(hb[16:24], uint64(quant.PriceScale))
	binary.LittleEndian.PutUint64(hb[24:32], uint64(quant.QtyScale))
	binary.LittleEndian.PutUint64(hb[32:40], count)

	if _, err := w.f.WriteAt(hb, 0); err != nil {
		return fmt.Errorf("snapshot: write header: %w", err)
	}
	return nil
}

// Write appends one Record.
func (w *Writer) Write(rec Record) error {
	buf := make([]byte, RecordSize)
	off := 0
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(rec.TsEventMs))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(rec.TsRecvNs))
	off += 8
	for i := 0; i < Depth; i++ {
		encodeLevel(buf[off:off+16], rec.Bids[i])
		off += 16
	}
	for i := 0; i < Depth; i++ {
		encodeLevel(buf[off:off+16], rec.Asks[i])
		off += 16
	}

	if _, err := w.f.Write(buf); err != nil {
		return fmt.Errorf("snapshot: write record: %w", err)
	}
	w.count++
	return nil
}

func encodeLevel(b []byte, l Level) {
	binary.LittleEndian.PutUint64(b[0:8], uint64(l.PriceQ))
	binary.LittleEndian.PutUint64(b[8:16], uint64(l.QtyQ))
}

// Close finalizes the header with the true record count and closes
// the file.
func (w *Writer) Close() error {
	if err := w.writeHeader(w.count); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// EmptyLevel returns the inactive-level sentinel for side ("bid" or
// "ask"), per the file format's null-level contract.
func EmptyLevel(side string) Level {
	if side == "bid" {
		return Level{PriceQ: quant.BidNullPriceQ, QtyQ: quant.NullQtyQ}
	}
	return Level{PriceQ: quant.AskNullPriceQ, QtyQ: quant.NullQtyQ}
}
