package frame

// --------------------------------------------------------------------------
// Wire Constants
// --------------------------------------------------------------------------

// Prefix tags, one byte each, identify the primitive that follows on the wire.
const (
	PrefixMessageStart byte = '*'
	PrefixFrameLength  byte = '@'
	PrefixMessageType  byte = '#'
	PrefixString       byte = '+'
	PrefixTime         byte = 'T'
	PrefixNull         byte = '|'
)

// LengthSize is the size of every length field (big endian uint64)
const LengthSize = 8

// HeaderLength is the size of message start + frame length, i.e. the bytes
// preceding the part of a message covered by its declared length.
const HeaderLength = 1 + 1 + LengthSize

// Delimiter terminates every variable length payload. It is a framing
// integrity check, the payload length is always taken from the length field.
var Delimiter = []byte("\r\n")
