package message

// Limits constrains the lengths a peer may declare. Oversized lengths are
// rejected as soon as the length field is readable, before the body is
// buffered.
type Limits struct {
	// MaxMessageLength bounds the declared frame length of a message
	MaxMessageLength uint64
	// MaxPayloadLength bounds the length of a single string or time payload
	MaxPayloadLength uint64
}

// DefaultLimits returns 4 MiB per message and 1 MiB per payload
func DefaultLimits() Limits {
	return Limits{
		MaxMessageLength: 4 * 1024 * 1024,
		MaxPayloadLength: 1024 * 1024,
	}
}

// normalize fills zero fields with the defaults
func (l Limits) normalize() Limits {
	d := DefaultLimits()
	if l.MaxMessageLength == 0 {
		l.MaxMessageLength = d.MaxMessageLength
	}
	if l.MaxPayloadLength == 0 {
		l.MaxPayloadLength = d.MaxPayloadLength
	}
	return l
}
