package deltaqueue

import "encoding/binary"

// escapeByte marks a gap that did not fit in a single byte; it is followed
// by a four-byte little-endian gap value.
const escapeByte = 0xFF

// maxInlineGap is the largest gap storable as a single byte.
const maxInlineGap = escapeByte - 1

// Builder accumulates delta-encoded bytes for a monotonically increasing
// sequence of uint32 values. Bytes are appended to a plain slice; the
// finished encoding can be handed to a Cursor directly, or written to disk
// and later memory-mapped back into a Cursor without copying, per
// spec.md §4.2's "loaded bucket regions may be memory-mapped" note.
type Builder struct {
	buf   []byte
	last  uint32
	has   bool
	count int
}

// NewBuilder creates an empty delta-queue builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Append adds the next value. Values must be strictly increasing.
func (b *Builder) Append(v uint32) {
	var gap uint32
	if b.has {
		gap = v - b.last
	} else {
		gap = v
	}
	b.last = v
	b.has = true
	b.count++

	if gap <= maxInlineGap {
		b.buf = append(b.buf, byte(gap))
		return
	}

	var esc [5]byte
	esc[0] = escapeByte
	binary.LittleEndian.PutUint32(esc[1:], gap)
	b.buf = append(b.buf, esc[:]...)
}

// Len returns the number of values appended so far.
func (b *Builder) Len() int { return b.count }

// Bytes returns the encoded byte sequence built so far.
func (b *Builder) Bytes() []byte { return b.buf }

// Cursor returns a cursor over everything appended so far.
func (b *Builder) Cursor() *Cursor {
	return NewCursor(b.buf, b.count)
}

// Cursor walks a delta-encoded byte sequence from the beginning,
// reconstructing absolute values. It holds only a byte-slice reference and
// an explicit integer read position — a plain address, not the pointer
// arithmetic the design notes (spec.md §9) rule out.
type Cursor struct {
	data      []byte
	pos       int
	remaining int
	last      uint32
	sawFirst  bool
}

// NewCursor wraps data (however it is backed — heap slice or a
// memory-mapped region) for reading count values.
func NewCursor(data []byte, count int) *Cursor {
	return &Cursor{data: data, remaining: count}
}

// Next returns the next absolute value and true, or (0, false) at the end.
func (c *Cursor) Next() (uint32, bool) {
	if c.remaining == 0 {
		return 0, false
	}
	c.remaining--

	b := c.data[c.pos]
	c.pos++

	var gap uint32
	if b == escapeByte {
		gap = binary.LittleEndian.Uint32(c.data[c.pos : c.pos+4])
		c.pos += 4
	} else {
		gap = uint32(b)
	}

	if c.sawFirst {
		c.last += gap
	} else {
		c.last = gap
		c.sawFirst = true
	}
	return c.last, true
}

// All decodes every remaining value into a slice. Intended for tests and
// rehash paths, not the query hot path.
func All(data []byte, count int) []uint32 {
	out := make([]uint32, 0, count)
	c := NewCursor(data, count)
	for {
		v, ok := c.Next()
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

// Encode is a convenience wrapper that builds and returns the encoded bytes
// for a strictly increasing slice of values.
func Encode(values []uint32) []byte {
	b := NewBuilder()
	for _, v := range values {
		b.Append(v)
	}
	return b.Bytes()
}
