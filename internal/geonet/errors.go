package geonet

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure returned by this package unwraps to exactly one of them.
var (
	ErrTruncated                  = errors.New("truncated")
	ErrProtocolVersionMismatch    = errors.New("protocol version mismatch")
	ErrUnsupportedSecurityVersion = errors.New("unsupported security version")
	ErrUnknownHeaderType          = errors.New("unknown header type")
	ErrMalformedLength            = errors.New("malformed length field")
	ErrPayloadLengthExceedsBuffer = errors.New("payload length exceeds buffer")
	ErrUpperLayerDecode           = errors.New("upper layer decode failure")
	ErrDuplicatePacket            = errors.New("duplicate packet")
	ErrInvalidArgument            = errors.New("invalid argument")
)

// DecodeError carries the kind of a failure plus enough context to diagnose it.
type DecodeError struct {
	Kind   error
	Op     string
	Detail string
}

func newError(kind error, op, format string, args ...any) *DecodeError {
	return &DecodeError{Kind: kind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("geonet: %s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("geonet: %s: %v: %s", e.Op, e.Kind, e.Detail)
}

func (e *DecodeError) Unwrap() error { return e.Kind }

var reasons = []struct {
	kind  error
	label string
}{
	{ErrTruncated, "truncated"},
	{ErrProtocolVersionMismatch, "version_mismatch"},
	{ErrUnsupportedSecurityVersion, "unsupported_security"},
	{ErrUnknownHeaderType, "unknown_header_type"},
	{ErrMalformedLength, "malformed_length"},
	{ErrPayloadLengthExceedsBuffer, "payload_length"},
	{ErrUpperLayerDecode, "upper_layer"},
	{ErrDuplicatePacket, "duplicate"},
	{ErrInvalidArgument, "invalid_argument"},
}

// Reason maps err onto a short stable label for logs and metrics.
// A nil error yields "" and an error of no known kind yields "other".
func Reason(err error) string {
	if err == nil {
		return ""
	}
	for _, r := range reasons {
		if errors.Is(err, r.kind) {
			return r.label
		}
	}
	return "other"
}
