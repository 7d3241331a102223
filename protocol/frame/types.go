package frame

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Message Types
// --------------------------------------------------------------------------

// MessageType identifies the kind of message. It is encoded as a single byte
// right after the message type prefix.
type MessageType byte

const (
	MsgTPing         MessageType = 1
	MsgTAuthenticate MessageType = 2
	MsgTSuccess      MessageType = 3
	MsgTFail         MessageType = 4
	MsgTSet          MessageType = 5
	MsgTGet          MessageType = 6
	MsgTDelete       MessageType = 7
)

// String returns the string representation of the message type
func (t MessageType) String() string {
	switch t {
	case MsgTPing:
		return "Ping"
	case MsgTAuthenticate:
		return "Authenticate"
	case MsgTSuccess:
		return "Success"
	case MsgTFail:
		return "Fail"
	case MsgTSet:
		return "Set"
	case MsgTGet:
		return "Get"
	case MsgTDelete:
		return "Delete"
	default:
		return fmt.Sprintf("MessageType(%d)", byte(t))
	}
}

// MessageTypeFromByte converts a wire byte into a MessageType.
// Unknown codes are rejected with an *InvalidMessageTypeError.
func MessageTypeFromByte(code byte) (MessageType, error) {
	t := MessageType(code)
	switch t {
	case MsgTPing, MsgTAuthenticate, MsgTSuccess, MsgTFail, MsgTSet, MsgTGet, MsgTDelete:
		return t, nil
	default:
		return 0, &InvalidMessageTypeError{Code: code}
	}
}

// InvalidMessageTypeError is returned for type codes outside the defined set
type InvalidMessageTypeError struct {
	Code byte
}

func (e *InvalidMessageTypeError) Error() string {
	return fmt.Sprintf("invalid message type: %d", e.Code)
}
