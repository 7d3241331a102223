package message

import (
	"time"
	"unicode/utf8"

	"github.com/ValentinKolb/kvsd/protocol/frame"
	"github.com/pkg/errors"
)

// --------------------------------------------------------------------------
// Message Frames
// --------------------------------------------------------------------------

// MessageFrames is the ordered frame sequence of exactly one message, parsed
// but not yet interpreted. Frames starts with MessageStart, Length and Type,
// followed by the payload frames.
type MessageFrames struct {
	Type   frame.MessageType
	Length uint64
	Frames []frame.Frame
}

// Payload returns the frames following the message type
func (m *MessageFrames) Payload() []frame.Frame {
	if len(m.Frames) < 3 {
		return nil
	}
	return m.Frames[3:]
}

// --------------------------------------------------------------------------
// Two Phase Decode
// --------------------------------------------------------------------------

// Check walks the grammar of exactly one message at the start of buf without
// materializing frames. It returns the number of bytes the message occupies
// when the outcome is Complete. Incomplete means buf is a valid prefix of a
// message; Invalid and TooLarge come with an error describing what was
// expected. Check never modifies buf.
func Check(buf []byte, limits Limits) (int, frame.Outcome, error) {
	return walk(buf, limits, nil)
}

// Parse re-walks a message that Check reported complete and materializes its
// frames. Strings are validated as utf8 and timestamps parsed as RFC 3339,
// both are hard errors.
func Parse(buf []byte, limits Limits) (*MessageFrames, error) {
	frames := &MessageFrames{Frames: make([]frame.Frame, 0, 5)}
	_, out, err := walk(buf, limits, frames.collect)
	if err != nil {
		return nil, err
	}
	if out != frame.Complete {
		return nil, errors.Errorf("parse called on %s message", out)
	}
	return frames, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// token is a raw frame as seen by the walker. Payloads alias the input.
type token struct {
	prefix  byte
	length  uint64
	code    frame.MessageType
	payload []byte
	name    string
}

type emitFunc func(token) error

func (fn emitFunc) emit(t token) error {
	if fn == nil {
		return nil
	}
	return fn(t)
}

// walk is shared by both phases. With a nil emit it only validates and
// measures, otherwise every frame is handed to emit in wire order.
func walk(buf []byte, limits Limits, emit emitFunc) (int, frame.Outcome, error) {
	limits = limits.normalize()

	in, out := frame.ParseMessageStart(buf)
	if out != frame.Complete {
		return 0, out, outcomeError(out, "message_start")
	}

	in, declared, out := frame.ParseFrameLength(in)
	if out != frame.Complete {
		return 0, out, outcomeError(out, "frame_length")
	}
	if declared > limits.MaxMessageLength {
		return 0, frame.TooLarge, errors.Wrapf(ErrFrameTooLarge, "frame_length %d exceeds %d", declared, limits.MaxMessageLength)
	}

	body := in
	_, code, out := frame.ParseMessageType(in)
	if out != frame.Complete {
		return 0, out, outcomeError(out, "message_type")
	}
	msgType, err := frame.MessageTypeFromByte(code)
	if err != nil {
		return 0, frame.Invalid, err
	}
	if declared < 2 {
		return 0, frame.Invalid, errors.Wrapf(ErrLengthMismatch, "frame_length %d cannot hold message_type", declared)
	}
	if uint64(len(body)) < declared {
		return 0, frame.Incomplete, nil
	}

	if err := emit.emit(token{prefix: frame.PrefixMessageStart}); err != nil {
		return 0, frame.Invalid, err
	}
	if err := emit.emit(token{prefix: frame.PrefixFrameLength, length: declared}); err != nil {
		return 0, frame.Invalid, err
	}
	if err := emit.emit(token{prefix: frame.PrefixMessageType, code: msgType}); err != nil {
		return 0, frame.Invalid, err
	}

	rest, err := walkPayload(msgType, body[2:declared], limits, emit)
	if err != nil {
		return 0, frame.Invalid, err
	}
	if len(rest) != 0 {
		return 0, frame.Invalid, errors.Wrapf(ErrLengthMismatch, "%d unparsed bytes inside frame_length", len(rest))
	}

	return frame.HeaderLength + int(declared), frame.Complete, nil
}

// walkPayload walks the type specific payload. Its input is bounded by the
// declared length, so running out of bytes here is a length mismatch.
func walkPayload(msgType frame.MessageType, in []byte, limits Limits, emit emitFunc) ([]byte, error) {
	var err error
	switch msgType {
	case frame.MsgTPing:
		for _, name := range [...]string{"client_timestamp", "server_timestamp"} {
			if in, err = walkOptionalTime(in, name, limits, emit); err != nil {
				return nil, err
			}
		}
		return in, nil

	case frame.MsgTAuthenticate:
		for _, name := range [...]string{"username", "password"} {
			rest, payload, out := frame.ParseString(in, limits.MaxPayloadLength)
			if err := payloadError(out, name); err != nil {
				return nil, err
			}
			if err := emit.emit(token{prefix: frame.PrefixString, payload: payload, name: name}); err != nil {
				return nil, err
			}
			in = rest
		}
		return in, nil

	default:
		// reserved payload grammar, the declared length delimits the body
		return nil, nil
	}
}

func walkOptionalTime(in []byte, name string, limits Limits, emit emitFunc) ([]byte, error) {
	prefix, out := frame.PeekPrefix(in)
	if err := payloadError(out, name); err != nil {
		return nil, err
	}

	switch prefix {
	case frame.PrefixTime:
		rest, text, out := frame.ParseTime(in, limits.MaxPayloadLength)
		if err := payloadError(out, name); err != nil {
			return nil, err
		}
		return rest, emit.emit(token{prefix: frame.PrefixTime, payload: text, name: name})
	case frame.PrefixNull:
		rest, _ := frame.ParseNull(in)
		return rest, emit.emit(token{prefix: frame.PrefixNull, name: name})
	default:
		return nil, &ExpectError{Frame: name + " (time or null)"}
	}
}

func payloadError(out frame.Outcome, name string) error {
	if out == frame.Incomplete {
		return errors.Wrapf(ErrLengthMismatch, "%s truncated by frame_length", name)
	}
	return outcomeError(out, name)
}

// collect materializes tokens into frames
func (m *MessageFrames) collect(t token) error {
	switch t.prefix {
	case frame.PrefixMessageStart:
		m.Frames = append(m.Frames, frame.MessageStart{})
	case frame.PrefixFrameLength:
		m.Length = t.length
		m.Frames = append(m.Frames, frame.Length(t.length))
	case frame.PrefixMessageType:
		m.Type = t.code
		m.Frames = append(m.Frames, frame.Type(t.code))
	case frame.PrefixString:
		if !utf8.Valid(t.payload) {
			return errors.Wrap(ErrInvalidUTF8, t.name)
		}
		m.Frames = append(m.Frames, frame.String(t.payload))
	case frame.PrefixTime:
		ts, err := parseTimestamp(t.payload, t.name)
		if err != nil {
			return err
		}
		m.Frames = append(m.Frames, frame.Time(ts))
	case frame.PrefixNull:
		m.Frames = append(m.Frames, frame.Null{})
	default:
		return errors.Errorf("unexpected token prefix %q", t.prefix)
	}
	return nil
}

func parseTimestamp(text []byte, name string) (time.Time, error) {
	if !utf8.Valid(text) {
		return time.Time{}, errors.Wrap(ErrInvalidUTF8, name)
	}
	ts, err := time.Parse(time.RFC3339, string(text))
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrInvalidTimestamp, "%s: %v", name, err)
	}
	return ts.UTC(), nil
}
