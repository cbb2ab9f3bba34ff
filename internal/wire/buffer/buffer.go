// Package buffer provides the byte-oriented random-access cursor used by
// package wire to decode and encode DNS messages.
//
// Two concrete variants share one interface: Fixed, a 512-byte backing
// array sized for classic (non-EDNS) UDP responses, and Resizable, a
// growable byte slice used for TCP and EDNS0-signaled UDP responses. The
// codec is written against the Buffer interface only; callers pick the
// concrete variant at the listener.
package buffer

import (
	"encoding/binary"
	"fmt"

	"github.com/resolvd/resolvd/internal/wire/wireerr"
)

// Buffer is a random-access byte cursor with big-endian integer helpers.
// All positions are absolute offsets from the start of the backing store.
type Buffer interface {
	// Pos returns the current cursor position.
	Pos() int
	// Step advances the cursor by n bytes.
	Step(n int) error
	// Seek moves the cursor to an absolute position.
	Seek(pos int) error

	// Get returns the byte at pos without moving the cursor.
	Get(pos int) (byte, error)
	// GetRange returns length bytes starting at pos without moving the cursor.
	GetRange(pos, length int) ([]byte, error)
	// Set overwrites the byte at pos without moving the cursor.
	Set(pos int, value byte) error

	// ReadUint8 reads one byte at the cursor and advances it.
	ReadUint8() (uint8, error)
	// ReadUint16 reads a big-endian uint16 at the cursor and advances it.
	ReadUint16() (uint16, error)
	// ReadUint32 reads a big-endian uint32 at the cursor and advances it.
	ReadUint32() (uint32, error)

	// WriteUint8 appends/writes one byte at the cursor and advances it.
	WriteUint8(v uint8) error
	// WriteUint16 appends/writes a big-endian uint16 and advances the cursor.
	WriteUint16(v uint16) error
	// WriteUint32 appends/writes a big-endian uint32 and advances the cursor.
	WriteUint32(v uint32) error

	// WriteBytes appends/writes raw bytes at the cursor and advances it.
	WriteBytes(b []byte) error

	// SetUint16 back-patches a big-endian uint16 at pos without moving the
	// cursor. Used to fill in a record's data_length placeholder once its
	// payload length is known.
	SetUint16(pos int, v uint16) error

	// Bytes returns the portion of the backing store from 0 up to Pos.
	Bytes() []byte
	// Underlying returns the full backing store (may exceed Pos).
	Underlying() []byte
}

// FixedSize is the size of the Fixed buffer variant, matching the
// classic (no-EDNS) maximum UDP DNS response size.
const FixedSize = 512

// Fixed is a 512-byte backing array with a position cursor. Reads, writes,
// and gets past the 512-byte boundary fail with ErrEndOfBuffer.
type Fixed struct {
	data [FixedSize]byte
	pos  int
}

// NewFixed returns an empty Fixed buffer positioned at 0.
func NewFixed() *Fixed {
	return &Fixed{}
}

// NewFixedFrom copies msg (truncated to FixedSize) into a new Fixed buffer
// positioned at 0, ready for decoding.
func NewFixedFrom(msg []byte) *Fixed {
	b := &Fixed{}
	n := copy(b.data[:], msg)
	_ = n
	return b
}

func (b *Fixed) Pos() int { return b.pos }

func (b *Fixed) Step(n int) error {
	next := b.pos + n
	if next < 0 || next > FixedSize {
		return fmt.Errorf("%w: step past fixed buffer bound", wireerr.ErrEndOfBuffer)
	}
	b.pos = next
	return nil
}

func (b *Fixed) Seek(pos int) error {
	if pos < 0 || pos > FixedSize {
		return fmt.Errorf("%w: seek past fixed buffer bound", wireerr.ErrEndOfBuffer)
	}
	b.pos = pos
	return nil
}

func (b *Fixed) Get(pos int) (byte, error) {
	if pos < 0 || pos >= FixedSize {
		return 0, fmt.Errorf("%w: get at %d", wireerr.ErrEndOfBuffer, pos)
	}
	return b.data[pos], nil
}

func (b *Fixed) GetRange(pos, length int) ([]byte, error) {
	if pos < 0 || length < 0 || pos+length > FixedSize {
		return nil, fmt.Errorf("%w: get_range [%d:%d)", wireerr.ErrEndOfBuffer, pos, pos+length)
	}
	out := make([]byte, length)
	copy(out, b.data[pos:pos+length])
	return out, nil
}

func (b *Fixed) Set(pos int, value byte) error {
	if pos < 0 || pos >= FixedSize {
		return fmt.Errorf("%w: set at %d", wireerr.ErrEndOfBuffer, pos)
	}
	b.data[pos] = value
	return nil
}

func (b *Fixed) SetUint16(pos int, v uint16) error {
	if pos < 0 || pos+2 > FixedSize {
		return fmt.Errorf("%w: set_uint16 at %d", wireerr.ErrEndOfBuffer, pos)
	}
	binary.BigEndian.PutUint16(b.data[pos:pos+2], v)
	return nil
}

func (b *Fixed) ReadUint8() (uint8, error) {
	v, err := b.Get(b.pos)
	if err != nil {
		return 0, err
	}
	b.pos++
	return v, nil
}

func (b *Fixed) ReadUint16() (uint16, error) {
	raw, err := b.GetRange(b.pos, 2)
	if err != nil {
		return 0, err
	}
	b.pos += 2
	return binary.BigEndian.Uint16(raw), nil
}

func (b *Fixed) ReadUint32() (uint32, error) {
	raw, err := b.GetRange(b.pos, 4)
	if err != nil {
		return 0, err
	}
	b.pos += 4
	return binary.BigEndian.Uint32(raw), nil
}

func (b *Fixed) WriteUint8(v uint8) error {
	if err := b.Set(b.pos, v); err != nil {
		return err
	}
	b.pos++
	return nil
}

func (b *Fixed) WriteUint16(v uint16) error {
	if err := b.SetUint16(b.pos, v); err != nil {
		return err
	}
	b.pos += 2
	return nil
}

func (b *Fixed) WriteUint32(v uint32) error {
	if b.pos+4 > FixedSize {
		return fmt.Errorf("%w: write_uint32 at %d", wireerr.ErrEndOfBuffer, b.pos)
	}
	binary.BigEndian.PutUint32(b.data[b.pos:b.pos+4], v)
	b.pos += 4
	return nil
}

func (b *Fixed) WriteBytes(raw []byte) error {
	if b.pos+len(raw) > FixedSize {
		return fmt.Errorf("%w: write %d bytes at %d", wireerr.ErrEndOfBuffer, len(raw), b.pos)
	}
	copy(b.data[b.pos:], raw)
	b.pos += len(raw)
	return nil
}

// Insert shifts the bytes from pos onward one uint16 to the right and
// writes v at pos, without moving the cursor. This is used only by callers
// that need to splice a value into already-written data; the codec itself
// prefers the reserve-then-SetUint16 back-patch pattern (see Record
// encoding in package wire), since Insert is O(n) and shifts everything
// after it.
func (b *Fixed) Insert(pos int, v uint16) error {
	if pos < 0 || pos+2 > FixedSize {
		return fmt.Errorf("%w: insert at %d", wireerr.ErrEndOfBuffer, pos)
	}
	copy(b.data[pos+2:], b.data[pos:FixedSize-2])
	binary.BigEndian.PutUint16(b.data[pos:pos+2], v)
	return nil
}

func (b *Fixed) Bytes() []byte {
	return b.data[:b.pos]
}

func (b *Fixed) Underlying() []byte {
	return b.data[:]
}

// Resizable is a growable byte buffer with a position cursor. It never
// fails on write past the current end (it grows instead), but Get/GetRange
// still fail with ErrEndOfBuffer past the written region.
type Resizable struct {
	data []byte
	pos  int
}

// NewResizable returns an empty Resizable buffer positioned at 0, with an
// initial capacity hint.
func NewResizable(capHint int) *Resizable {
	if capHint < 0 {
		capHint = 0
	}
	return &Resizable{data: make([]byte, 0, capHint)}
}

// NewResizableFrom wraps msg as the backing store of a new Resizable
// buffer positioned at 0, ready for decoding.
func NewResizableFrom(msg []byte) *Resizable {
	data := make([]byte, len(msg))
	copy(data, msg)
	return &Resizable{data: data}
}

func (b *Resizable) Pos() int { return b.pos }

func (b *Resizable) Step(n int) error {
	next := b.pos + n
	if next < 0 || next > len(b.data) {
		return fmt.Errorf("%w: step past resizable buffer bound", wireerr.ErrEndOfBuffer)
	}
	b.pos = next
	return nil
}

func (b *Resizable) Seek(pos int) error {
	if pos < 0 || pos > len(b.data) {
		return fmt.Errorf("%w: seek past resizable buffer bound", wireerr.ErrEndOfBuffer)
	}
	b.pos = pos
	return nil
}

func (b *Resizable) Get(pos int) (byte, error) {
	if pos < 0 || pos >= len(b.data) {
		return 0, fmt.Errorf("%w: get at %d", wireerr.ErrEndOfBuffer, pos)
	}
	return b.data[pos], nil
}

func (b *Resizable) GetRange(pos, length int) ([]byte, error) {
	if pos < 0 || length < 0 || pos+length > len(b.data) {
		return nil, fmt.Errorf("%w: get_range [%d:%d)", wireerr.ErrEndOfBuffer, pos, pos+length)
	}
	out := make([]byte, length)
	copy(out, b.data[pos:pos+length])
	return out, nil
}

func (b *Resizable) Set(pos int, value byte) error {
	if pos < 0 || pos >= len(b.data) {
		return fmt.Errorf("%w: set at %d", wireerr.ErrEndOfBuffer, pos)
	}
	b.data[pos] = value
	return nil
}

func (b *Resizable) SetUint16(pos int, v uint16) error {
	if pos < 0 || pos+2 > len(b.data) {
		return fmt.Errorf("%w: set_uint16 at %d", wireerr.ErrEndOfBuffer, pos)
	}
	binary.BigEndian.PutUint16(b.data[pos:pos+2], v)
	return nil
}

func (b *Resizable) ensure(n int) {
	need := b.pos + n
	if need <= len(b.data) {
		return
	}
	grown := make([]byte, need)
	copy(grown, b.data)
	b.data = grown
}

func (b *Resizable) ReadUint8() (uint8, error) {
	v, err := b.Get(b.pos)
	if err != nil {
		return 0, err
	}
	b.pos++
	return v, nil
}

func (b *Resizable) ReadUint16() (uint16, error) {
	raw, err := b.GetRange(b.pos, 2)
	if err != nil {
		return 0, err
	}
	b.pos += 2
	return binary.BigEndian.Uint16(raw), nil
}

func (b *Resizable) ReadUint32() (uint32, error) {
	raw, err := b.GetRange(b.pos, 4)
	if err != nil {
		return 0, err
	}
	b.pos += 4
	return binary.BigEndian.Uint32(raw), nil
}

func (b *Resizable) WriteUint8(v uint8) error {
	b.ensure(1)
	b.data[b.pos] = v
	b.pos++
	return nil
}

func (b *Resizable) WriteUint16(v uint16) error {
	b.ensure(2)
	binary.BigEndian.PutUint16(b.data[b.pos:b.pos+2], v)
	b.pos += 2
	return nil
}

func (b *Resizable) WriteUint32(v uint32) error {
	b.ensure(4)
	binary.BigEndian.PutUint32(b.data[b.pos:b.pos+4], v)
	b.pos += 4
	return nil
}

func (b *Resizable) WriteBytes(raw []byte) error {
	b.ensure(len(raw))
	copy(b.data[b.pos:], raw)
	b.pos += len(raw)
	return nil
}

// Insert shifts bytes from pos onward right by two bytes (growing the
// buffer) and writes v at pos. A cursor at or past pos is advanced by two
// so it keeps pointing at the same byte.
func (b *Resizable) Insert(pos int, v uint16) error {
	if pos < 0 || pos > len(b.data) {
		return fmt.Errorf("%w: insert at %d", wireerr.ErrEndOfBuffer, pos)
	}
	grown := make([]byte, len(b.data)+2)
	copy(grown, b.data[:pos])
	binary.BigEndian.PutUint16(grown[pos:pos+2], v)
	copy(grown[pos+2:], b.data[pos:])
	b.data = grown
	if b.pos >= pos {
		b.pos += 2
	}
	return nil
}

func (b *Resizable) Bytes() []byte {
	return b.data[:b.pos]
}

func (b *Resizable) Underlying() []byte {
	return b.data
}
