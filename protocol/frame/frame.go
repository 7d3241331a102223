package frame

import (
	"encoding/binary"
	"time"
)

// Frame is one wire primitive. Frames only exist while a message is encoded
// or decoded.
type Frame interface {
	// Prefix returns the tag byte written in front of the frame
	Prefix() byte
	// AppendTo appends the wire encoding of the frame to dst
	AppendTo(dst []byte) []byte
}

// MessageStart marks the beginning of a message
type MessageStart struct{}

// Length is the declared length of the message body
type Length uint64

// Type carries the message type code
type Type MessageType

// String is a length prefixed utf8 payload
type String string

// Time is a length prefixed RFC 3339 timestamp
type Time time.Time

// Null marks an absent optional value
type Null struct{}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

func (MessageStart) Prefix() byte { return PrefixMessageStart }
func (Length) Prefix() byte       { return PrefixFrameLength }
func (Type) Prefix() byte         { return PrefixMessageType }
func (String) Prefix() byte       { return PrefixString }
func (Time) Prefix() byte         { return PrefixTime }
func (Null) Prefix() byte         { return PrefixNull }

func (f MessageStart) AppendTo(dst []byte) []byte {
	return append(dst, PrefixMessageStart)
}

func (f Length) AppendTo(dst []byte) []byte {
	dst = append(dst, PrefixFrameLength)
	return binary.BigEndian.AppendUint64(dst, uint64(f))
}

func (f Type) AppendTo(dst []byte) []byte {
	return append(dst, PrefixMessageType, byte(f))
}

func (f String) AppendTo(dst []byte) []byte {
	return appendPayload(dst, PrefixString, []byte(f))
}

func (f Time) AppendTo(dst []byte) []byte {
	var scratch [64]byte
	text := time.Time(f).UTC().AppendFormat(scratch[:0], time.RFC3339Nano)
	return appendPayload(dst, PrefixTime, text)
}

func (f Null) AppendTo(dst []byte) []byte {
	return append(dst, PrefixNull)
}

// appendPayload writes tag, big endian length, payload and delimiter
func appendPayload(dst []byte, prefix byte, payload []byte) []byte {
	dst = append(dst, prefix)
	dst = binary.BigEndian.AppendUint64(dst, uint64(len(payload)))
	dst = append(dst, payload...)
	return append(dst, Delimiter...)
}
