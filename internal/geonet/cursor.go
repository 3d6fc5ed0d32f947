// Package geonet decodes ETSI ITS GeoNetworking frames (EN 302 636-4-1) into
// routed, application-addressed indications.
//
// All multi-byte fields are big-endian. Every read goes through Cursor, which checks
// the remaining length before touching the buffer, so a hostile frame can only ever
// produce an error.
package geonet

import "encoding/binary"

// Cursor is a bounds-checked, read-only reader over an immutable byte slice.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor returns a cursor positioned at the start of b. The cursor never writes to b.
func NewCursor(b []byte) *Cursor {
	return &Cursor{buf: b}
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.off }

// Offset returns the number of bytes consumed so far.
func (c *Cursor) Offset() int { return c.off }

func (c *Cursor) need(n int) error {
	if n < 0 || n > c.Remaining() {
		return newError(ErrTruncated, "read", "need %d bytes at offset %d, %d remaining", n, c.off, c.Remaining())
	}
	return nil
}

// Uint8 reads one byte.
func (c *Cursor) Uint8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.buf[c.off]
	c.off++
	return v, nil
}

// Uint16 reads a big-endian 16-bit value.
func (c *Cursor) Uint16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(c.buf[c.off:])
	c.off += 2
	return v, nil
}

// Uint32 reads a big-endian 32-bit value.
func (c *Cursor) Uint32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(c.buf[c.off:])
	c.off += 4
	return v, nil
}

// Int32 reads a big-endian two's complement 32-bit value.
func (c *Cursor) Int32() (int32, error) {
	v, err := c.Uint32()
	return int32(v), err
}

// Skip advances past n bytes.
func (c *Cursor) Skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.off += n
	return nil
}

// Bytes returns a view of the next n bytes and advances past them.
// The view aliases the underlying buffer; callers that keep it must copy.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.off : c.off+n : c.off+n]
	c.off += n
	return b, nil
}

// Sub returns a cursor restricted to the next n bytes and advances c past them.
func (c *Cursor) Sub(n int) (*Cursor, error) {
	b, err := c.Bytes(n)
	if err != nil {
		return nil, err
	}
	return NewCursor(b), nil
}
