package message

import (
	"encoding/binary"
	"time"

	"github.com/ValentinKolb/kvsd/protocol/frame"
	"github.com/pkg/errors"
)

// Encode returns the wire encoding of msg
func Encode(msg Message) ([]byte, error) {
	return Append(nil, msg)
}

// Append appends the wire encoding of msg to dst. On error dst is returned
// unchanged.
func Append(dst []byte, msg Message) ([]byte, error) {
	payload, err := payloadFrames(msg)
	if err != nil {
		return dst, err
	}

	start := len(dst)
	buf := frame.MessageStart{}.AppendTo(dst)
	buf = frame.Length(0).AppendTo(buf) // patched below
	body := len(buf)

	buf = frame.Type(msg.Type()).AppendTo(buf)
	for _, f := range payload {
		buf = f.AppendTo(buf)
	}

	binary.BigEndian.PutUint64(buf[start+2:start+frame.HeaderLength], uint64(len(buf)-body))
	return buf, nil
}

func payloadFrames(msg Message) ([]frame.Frame, error) {
	switch m := msg.(type) {
	case Ping:
		client, err := optionalTimeFrame(m.ClientTimestamp)
		if err != nil {
			return nil, errors.Wrap(err, "encode: client timestamp")
		}
		server, err := optionalTimeFrame(m.ServerTimestamp)
		if err != nil {
			return nil, errors.Wrap(err, "encode: server timestamp")
		}
		return []frame.Frame{client, server}, nil
	case Authenticate:
		return []frame.Frame{frame.String(m.Username), frame.String(m.Password)}, nil
	case nil:
		return nil, errors.New("encode: nil message")
	case Success, Fail, Set, Get, Delete:
		return nil, &NotImplementedError{Type: m.Type()}
	default:
		return nil, errors.Errorf("encode: unsupported message %T", msg)
	}
}

// optionalTimeFrame encodes an absent timestamp as null. RFC 3339 has four
// year digits, so years outside 0000-9999 cannot be written.
func optionalTimeFrame(t *time.Time) (frame.Frame, error) {
	if t == nil {
		return frame.Null{}, nil
	}
	if year := t.UTC().Year(); year < 0 || year > 9999 {
		return nil, errors.Wrapf(ErrInvalidTimestamp, "year %d", year)
	}
	return frame.Time(*t), nil
}
