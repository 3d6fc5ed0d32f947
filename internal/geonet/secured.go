package geonet

import "fmt"

// SecurityVersion is the only secured-packet protocol version understood here.
const SecurityVersion = 3

// maxLengthOctets bounds the long-form length so the accumulator cannot overflow.
const maxLengthOctets = 4

// SecuredPacket describes the envelope that was skipped. None of these fields are
// validated; they exist for diagnostics only.
type SecuredPacket struct {
	Version       uint8
	ContentChoice uint8
	HashID        uint8
	PayloadOpt    uint8
	InnerVersion  uint8
	InnerChoice   uint8
	Length        int
}

// ParseSecuredPacket consumes the security envelope preamble and returns a cursor
// restricted to the declared inner data, which starts at the Common Header.
func ParseSecuredPacket(c *Cursor) (SecuredPacket, *Cursor, error) {
	var sp SecuredPacket
	v, err := c.Uint8()
	if err != nil {
		return sp, nil, fmt.Errorf("secured packet: %w", err)
	}
	sp.Version = v
	if v != SecurityVersion {
		return sp, nil, newError(ErrUnsupportedSecurityVersion, "secured packet", "version %d, want %d", v, SecurityVersion)
	}

	var pre [5]uint8
	for i := range pre {
		if pre[i], err = c.Uint8(); err != nil {
			return sp, nil, fmt.Errorf("secured packet: %w", err)
		}
	}
	sp.ContentChoice = pre[0] & 0x0f
	sp.HashID = pre[1]
	sp.PayloadOpt = pre[2]
	sp.InnerVersion = pre[3]
	sp.InnerChoice = pre[4] & 0x0f

	n, err := ReadLength(c)
	if err != nil {
		return sp, nil, fmt.Errorf("secured packet: %w", err)
	}
	sp.Length = n

	inner, err := c.Sub(n)
	if err != nil {
		return sp, nil, fmt.Errorf("secured packet: %w", err)
	}
	return sp, inner, nil
}

// ReadLength decodes a self-describing length: a first byte with the high bit clear
// is the length itself (0..127); otherwise its low 7 bits count the big-endian
// length bytes that follow. The result is checked against the bytes remaining in c.
func ReadLength(c *Cursor) (int, error) {
	first, err := c.Uint8()
	if err != nil {
		return 0, err
	}
	if first&0x80 == 0 {
		n := int(first & 0x7f)
		if n > c.Remaining() {
			return 0, newError(ErrTruncated, "length", "declared %d bytes, %d remaining", n, c.Remaining())
		}
		return n, nil
	}

	octets := int(first & 0x7f)
	if octets == 0 || octets > maxLengthOctets {
		return 0, newError(ErrMalformedLength, "length", "%d length octets", octets)
	}
	n := 0
	for i := 0; i < octets; i++ {
		b, err := c.Uint8()
		if err != nil {
			return 0, err
		}
		n = n*256 + int(b)
	}
	if n > c.Remaining() {
		return 0, newError(ErrTruncated, "length", "declared %d bytes, %d remaining", n, c.Remaining())
	}
	return n, nil
}
