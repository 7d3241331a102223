package message

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/kvsd/protocol/frame"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message is the decoded payload of one protocol exchange. Messages are
// values and are not modified after construction.
type Message interface {
	Type() frame.MessageType
}

// Ping carries optional client and server timestamps. A nil timestamp is
// absent on the wire, it never defaults to the zero time.
type Ping struct {
	ClientTimestamp *time.Time
	ServerTimestamp *time.Time
}

// Authenticate carries credentials. They are decoded verbatim, this layer
// does not validate them.
type Authenticate struct {
	Username string
	Password string
}

// The following types are reserved, their payload grammar is not defined yet.
// Encoding or decoding them returns a *NotImplementedError.
type (
	Success struct{}
	Fail    struct{}
	Set     struct{}
	Get     struct{}
	Delete  struct{}
)

func (Ping) Type() frame.MessageType         { return frame.MsgTPing }
func (Authenticate) Type() frame.MessageType { return frame.MsgTAuthenticate }
func (Success) Type() frame.MessageType      { return frame.MsgTSuccess }
func (Fail) Type() frame.MessageType         { return frame.MsgTFail }
func (Set) Type() frame.MessageType          { return frame.MsgTSet }
func (Get) Type() frame.MessageType          { return frame.MsgTGet }
func (Delete) Type() frame.MessageType       { return frame.MsgTDelete }

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewPing creates a ping stamped with the current client time
func NewPing() Ping {
	now := time.Now().UTC()
	return Ping{ClientTimestamp: &now}
}

// WithServerTimestamp returns a copy of the ping with the server time set
func (p Ping) WithServerTimestamp(t time.Time) Ping {
	t = t.UTC()
	p.ServerTimestamp = &t
	return p
}

// String formats both timestamps, absent ones as "-"
func (p Ping) String() string {
	format := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("Ping{client: %s, server: %s}", format(p.ClientTimestamp), format(p.ServerTimestamp))
}

// NewAuthenticate creates an authenticate request
func NewAuthenticate(username, password string) Authenticate {
	return Authenticate{Username: username, Password: password}
}

// String hides the password so the message can be logged
func (a Authenticate) String() string {
	return fmt.Sprintf("Authenticate{username: %q}", a.Username)
}
