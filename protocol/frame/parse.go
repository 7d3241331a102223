package frame

import (
	"bytes"
	"encoding/binary"
)

// --------------------------------------------------------------------------
// Parse Outcome
// --------------------------------------------------------------------------

// Outcome is the result of a streaming parse step. Incomplete is not an error:
// the input is a valid prefix and more bytes are needed.
type Outcome uint8

const (
	// Complete means the primitive was fully decoded
	Complete Outcome = iota
	// Incomplete means the input ended before the primitive did
	Incomplete
	// Invalid means the bytes present violate the wire grammar
	Invalid
	// TooLarge means a declared length exceeds the allowed maximum
	TooLarge
)

func (o Outcome) String() string {
	switch o {
	case Complete:
		return "complete"
	case Incomplete:
		return "incomplete"
	case Invalid:
		return "invalid"
	case TooLarge:
		return "too large"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Primitive Parsers
// --------------------------------------------------------------------------

// All parsers consume a prefix of in and return the remaining input. On any
// outcome other than Complete the returned slice is in itself. Parsers never
// allocate, returned payloads alias in.

// ParseMessageStart consumes the message start tag
func ParseMessageStart(in []byte) ([]byte, Outcome) {
	return tag(in, PrefixMessageStart)
}

// ParseFrameLength consumes the frame length tag and its uint64 value
func ParseFrameLength(in []byte) ([]byte, uint64, Outcome) {
	rest, out := tag(in, PrefixFrameLength)
	if out != Complete {
		return in, 0, out
	}
	rest, n, out := be64(rest)
	if out != Complete {
		return in, 0, out
	}
	return rest, n, Complete
}

// ParseMessageType consumes the message type tag and the raw type code.
// Mapping the code onto a MessageType is left to the caller.
func ParseMessageType(in []byte) ([]byte, byte, Outcome) {
	rest, out := tag(in, PrefixMessageType)
	if out != Complete {
		return in, 0, out
	}
	if len(rest) < 1 {
		return in, 0, Incomplete
	}
	return rest[1:], rest[0], Complete
}

// PeekPrefix returns the next tag byte without consuming it
func PeekPrefix(in []byte) (byte, Outcome) {
	if len(in) < 1 {
		return 0, Incomplete
	}
	return in[0], Complete
}

// ParseNull consumes a null marker
func ParseNull(in []byte) ([]byte, Outcome) {
	return tag(in, PrefixNull)
}

// ParseString consumes a string frame and returns its raw payload bytes.
// A max of 0 disables the length check.
func ParseString(in []byte, max uint64) ([]byte, []byte, Outcome) {
	return lengthPrefixed(in, PrefixString, max)
}

// ParseTime consumes a time frame and returns its raw RFC 3339 text
func ParseTime(in []byte, max uint64) ([]byte, []byte, Outcome) {
	return lengthPrefixed(in, PrefixTime, max)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func tag(in []byte, want byte) ([]byte, Outcome) {
	if len(in) < 1 {
		return in, Incomplete
	}
	if in[0] != want {
		return in, Invalid
	}
	return in[1:], Complete
}

func be64(in []byte) ([]byte, uint64, Outcome) {
	if len(in) < LengthSize {
		return in, 0, Incomplete
	}
	return in[LengthSize:], binary.BigEndian.Uint64(in[:LengthSize]), Complete
}

// delimiter matches like a streaming tag: a short input that agrees with the
// delimiter so far is incomplete, any differing byte is invalid.
func delimiter(in []byte) ([]byte, Outcome) {
	n := min(len(in), len(Delimiter))
	if !bytes.Equal(in[:n], Delimiter[:n]) {
		return in, Invalid
	}
	if n < len(Delimiter) {
		return in, Incomplete
	}
	return in[n:], Complete
}

func lengthPrefixed(in []byte, prefix byte, max uint64) ([]byte, []byte, Outcome) {
	rest, out := tag(in, prefix)
	if out != Complete {
		return in, nil, out
	}
	rest, n, out := be64(rest)
	if out != Complete {
		return in, nil, out
	}
	if max > 0 && n > max {
		return in, nil, TooLarge
	}
	if uint64(len(rest)) < n {
		return in, nil, Incomplete
	}
	payload := rest[:n]
	rest, out = delimiter(rest[n:])
	if out != Complete {
		return in, nil, out
	}
	return rest, payload, Complete
}
