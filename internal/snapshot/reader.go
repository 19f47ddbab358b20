package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/kvistrand/microsim/pkg/quant"
)

// Reader streams Records out of a snapshot file sequentially. It does
// not memory-map the file; memory-mapped zero-copy replay is left to
// a higher-throughput consumer than this plumbing reader.
type Reader struct {
	f      *os.File
	Header FileHeader
	buf    []byte
}

// Open validates the file header and returns a Reader positioned at
// the first Record.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", path, err)
	}

	r := &Reader{f: f, buf: make([]byte, RecordSize)}
	if err := r.readHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) readHeader() error {
	hb := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r.f, hb); err != nil {
		return fmt.Errorf("snapshot: read header: %w", err)
	}

	h := FileHeader{
		Magic:       binary.LittleEndian.Uint32(hb[0:4]),
		Version:     binary.LittleEndian.Uint16(hb[4:6]),
		Depth:       binary.LittleEndian.Uint16(hb[6:8]),
		RecordSize:  binary.LittleEndian.Uint32(hb[8:12]),
		EndianCheck: binary.LittleEndian.Uint32(hb[12:16]),
		PriceScale:  int64(binary.LittleEndian.Uint64(hb[16:24])),
		QtyScale:    int64(binary.LittleEndian.Uint64(hb[24:32])),
		RecordCount: binary.LittleEndian.Uint64(hb[32:40]),
	}

	if h.Magic != Magic {
		return fmt.Errorf("snapshot: bad magic %#x, want %#x", h.Magic, Magic)
	}
	if h.Version != Version {
		return fmt.Errorf("snapshot: unsupported version %d, want %d", h.Version, Version)
	}
	if h.Depth != Depth {
		return fmt.Errorf("snapshot: depth %d, want %d", h.Depth, Depth)
	}
	if h.RecordSize != RecordSize {
		return fmt.Errorf("snapshot: record size %d, want %d", h.RecordSize, RecordSize)
	}
	if h.EndianCheck != EndianCheck {
		return fmt.Errorf("snapshot: endian check %#x, want %#x (foreign-endian file?)", h.EndianCheck, EndianCheck)
	}
	if h.PriceScale != int64(quant.PriceScale) {
		return fmt.Errorf("snapshot: price scale %d, want %d", h.PriceScale, quant.PriceScale)
	}
	if h.QtyScale != int64(quant.QtyScale) {
		return fmt.Errorf("snapshot: qty scale %d, want %d", h.QtyScale, quant.QtyScale)
	}

	r.Header = h
	return nil
}

// Next reads the following Record. It returns io.EOF when the file is
// exhausted.
func (r *Reader) Next() (Record, error) {
	var rec Record

	if _, err := io.ReadFull(r.f, r.buf); err != nil {
		if err == io.ErrUnexpectedEOF {
			return rec, fmt.Errorf("snapshot: truncated record: %w", err)
		}
		return rec, err
	}

	off := 0
	rec.TsEventMs = quant.TimeStampMs(int64(binary.LittleEndian.Uint64(r.buf[off : off+8])))
	off += 8
	rec.TsRecvNs = quant.Ns(int64(binary.LittleEndian.Uint64(r.buf[off : off+8])))
	off += 8

	for i := 0; i < Depth; i++ {
		rec.Bids[i] = decodeLevel(r.buf[off : off+16])
		off += 16
	}
	for i := 0; i < Depth; i++ {
		rec.Asks[i] = decodeLevel(r.buf[off : off+16])
		off += 16
	}

	return rec, nil
}

func decodeLevel(b []byte) Level {
	return Level{
		PriceQ: quant.PriceQ(int64(binary.LittleEndian.Uint64(b[0:8]))),
		QtyQ:   quant.QtyQ(int64(binary.LittleEndian.Uint64(b[8:16]))),
	}
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.f.Close()
}
