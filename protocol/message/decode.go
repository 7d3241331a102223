package message

import (
	"time"

	"github.com/ValentinKolb/kvsd/protocol/frame"
	"github.com/pkg/errors"
)

// Decode maps a parsed frame sequence onto its Message. Reserved message
// types yield a *NotImplementedError.
func Decode(frames *MessageFrames) (Message, error) {
	if frames == nil {
		return nil, errors.New("decode: nil message frames")
	}
	payload := frames.Payload()

	switch frames.Type {
	case frame.MsgTPing:
		if len(payload) != 2 {
			return nil, &ExpectError{Frame: "client_timestamp and server_timestamp"}
		}
		client, err := optionalTimestamp(payload[0], "client_timestamp")
		if err != nil {
			return nil, err
		}
		server, err := optionalTimestamp(payload[1], "server_timestamp")
		if err != nil {
			return nil, err
		}
		return Ping{ClientTimestamp: client, ServerTimestamp: server}, nil

	case frame.MsgTAuthenticate:
		if len(payload) != 2 {
			return nil, &ExpectError{Frame: "username and password"}
		}
		username, ok := payload[0].(frame.String)
		if !ok {
			return nil, &ExpectError{Frame: "username"}
		}
		password, ok := payload[1].(frame.String)
		if !ok {
			return nil, &ExpectError{Frame: "password"}
		}
		return Authenticate{Username: string(username), Password: string(password)}, nil

	case frame.MsgTSuccess, frame.MsgTFail, frame.MsgTSet, frame.MsgTGet, frame.MsgTDelete:
		return nil, &NotImplementedError{Type: frames.Type}

	default:
		return nil, &frame.InvalidMessageTypeError{Code: byte(frames.Type)}
	}
}

// optionalTimestamp keeps absence as nil
func optionalTimestamp(f frame.Frame, name string) (*time.Time, error) {
	switch v := f.(type) {
	case frame.Time:
		t := time.Time(v)
		return &t, nil
	case frame.Null:
		return nil, nil
	default:
		return nil, &ExpectError{Frame: name}
	}
}
