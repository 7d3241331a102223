package message

import (
	"fmt"

	"github.com/ValentinKolb/kvsd/protocol/frame"
	"github.com/pkg/errors"
)

var (
	ErrFrameTooLarge    = errors.New("declared length exceeds limit")
	ErrLengthMismatch   = errors.New("declared frame length does not match payload")
	ErrInvalidUTF8      = errors.New("invalid utf8")
	ErrInvalidTimestamp = errors.New("invalid rfc3339 timestamp")
)

// ExpectError reports bytes that violate the grammar. Frame names the
// primitive the parser expected at that position.
type ExpectError struct {
	Frame string
}

func (e *ExpectError) Error() string {
	return "expect frame: " + e.Frame
}

// NotImplementedError is returned for message types whose payload grammar is
// reserved. The message is framed correctly, only its content is unsupported.
type NotImplementedError struct {
	Type frame.MessageType
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("message type %s not implemented", e.Type)
}

// IsNotImplemented reports whether err wraps a *NotImplementedError
func IsNotImplemented(err error) bool {
	var target *NotImplementedError
	return errors.As(err, &target)
}

// outcomeError translates a non complete parser outcome into an error.
// Incomplete maps to nil since it is not an error.
func outcomeError(out frame.Outcome, name string) error {
	switch out {
	case frame.Complete, frame.Incomplete:
		return nil
	case frame.TooLarge:
		return errors.Wrap(ErrFrameTooLarge, name)
	default:
		return &ExpectError{Frame: name}
	}
}
