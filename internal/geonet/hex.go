package geonet

import (
	"encoding/hex"
	"strings"
	"unicode"
)

// BytesFromHexString converts a hex dump such as "12 00 50 0A" into bytes.
// Whitespace is ignored and digits are case-insensitive.
func BytesFromHexString(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if len(s)%2 != 0 {
		return nil, newError(ErrInvalidArgument, "hex", "converting to bytes requires an even number of characters, got %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, newError(ErrInvalidArgument, "hex", "%v", err)
	}
	return b, nil
}
