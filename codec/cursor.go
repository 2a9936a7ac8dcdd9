// Package codec provides the binary primitives §4.1 describes: little-endian
// fixed-width readers/writers and the three length-prefixed string forms.
// Everything here is pure and allocates only for returned strings/slices.
package codec

import (
	"encoding/binary"
	"math"

	"github.com/probechain/papyrus-core/common"
)

// Cursor is a scoped, bounded reader over an in-memory byte buffer. It never
// allocates beyond what it returns, and every primitive read fails with
// *common.Truncated rather than panicking when it would run past the end.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor wraps buf for sequential reading starting at position 0.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Position returns the current read offset.
func (c *Cursor) Position() int { return c.pos }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

// Len returns the total buffer length.
func (c *Cursor) Len() int { return len(c.buf) }

// ReadBytes returns the next n bytes as a fresh copy (no reference to the
// source buffer survives past decode, per §5 resource scoping) and advances
// the cursor. Returns *common.Truncated if n exceeds what remains.
func (c *Cursor) ReadBytes(where string, n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, &common.Truncated{Where: where}
	}
	out := make([]byte, n)
	copy(out, c.buf[c.pos:c.pos+n])
	c.pos += n
	return out, nil
}

// Skip advances the cursor by n bytes without copying, failing the same way
// ReadBytes does if n exceeds what remains.
func (c *Cursor) Skip(where string, n int) error {
	if n < 0 || n > c.Remaining() {
		return &common.Truncated{Where: where}
	}
	c.pos += n
	return nil
}

func (c *Cursor) need(where string, n int) error {
	if n > c.Remaining() {
		return &common.Truncated{Where: where}
	}
	return nil
}

// ReadU8 reads one unsigned byte.
func (c *Cursor) ReadU8(where string) (uint8, error) {
	if err := c.need(where, 1); err != nil {
		return 0, err
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

// ReadI8 reads one signed byte.
func (c *Cursor) ReadI8(where string) (int8, error) {
	v, err := c.ReadU8(where)
	return int8(v), err
}

// ReadU16 reads a little-endian uint16.
func (c *Cursor) ReadU16(where string) (uint16, error) {
	if err := c.need(where, 2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

// ReadI16 reads a little-endian int16.
func (c *Cursor) ReadI16(where string) (int16, error) {
	v, err := c.ReadU16(where)
	return int16(v), err
}

// ReadU32 reads a little-endian uint32.
func (c *Cursor) ReadU32(where string) (uint32, error) {
	if err := c.need(where, 4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

// ReadI32 reads a little-endian int32.
func (c *Cursor) ReadI32(where string) (int32, error) {
	v, err := c.ReadU32(where)
	return int32(v), err
}

// ReadU64 reads a little-endian uint64.
func (c *Cursor) ReadU64(where string) (uint64, error) {
	if err := c.need(where, 8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(c.buf[c.pos:])
	c.pos += 8
	return v, nil
}

// ReadF32 reads a little-endian IEEE-754 float32.
func (c *Cursor) ReadF32(where string) (float32, error) {
	v, err := c.ReadU32(where)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// Writer accumulates little-endian output. It never fails; size mismatches
// are caught by the re-encoder's top-level assertion (§4.4), not here.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer with cap bytes pre-allocated.
func NewWriter(cap int) *Writer {
	return &Writer{buf: make([]byte, 0, cap)}
}

// Bytes returns the accumulated output.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) WriteBytes(b []byte) { w.buf = append(w.buf, b...) }

func (w *Writer) WriteU8(v uint8)   { w.buf = append(w.buf, v) }
func (w *Writer) WriteI8(v int8)    { w.WriteU8(uint8(v)) }

func (w *Writer) WriteU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}
func (w *Writer) WriteI16(v int16) { w.WriteU16(uint16(v)) }

func (w *Writer) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}
func (w *Writer) WriteI32(v int32) { w.WriteU32(uint32(v)) }

func (w *Writer) WriteU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteF32(v float32) { w.WriteU32(math.Float32bits(v)) }
