package server

import (
	"time"

	"github.com/ValentinKolb/kvsd/protocol/message"
)

// SessionInfo identifies the connection a message was received on
type SessionInfo struct {
	ID         uint64
	RemoteAddr string
}

// IMessageHandler processes decoded messages of one session
type IMessageHandler interface {
	// Handle processes msg and returns the reply to send back or nil if
	// nothing should be sent. An error closes the session.
	Handle(session SessionInfo, msg message.Message) (message.Message, error)
}

// HandlerFunc adapts an ordinary function to the IMessageHandler interface
type HandlerFunc func(session SessionInfo, msg message.Message) (message.Message, error)

func (f HandlerFunc) Handle(session SessionInfo, msg message.Message) (message.Message, error) {
	return f(session, msg)
}

// --------------------------------------------------------------------------
// Default Handler
// --------------------------------------------------------------------------

type defaultHandler struct {
	now func() time.Time
}

// NewDefaultHandler returns the handler used by kvsd serve.
//
//   - Ping is echoed with the server timestamp set
//   - Authenticate is logged, credentials are not checked and no reply is sent
func NewDefaultHandler() IMessageHandler {
	return &defaultHandler{now: time.Now}
}

func (h *defaultHandler) Handle(session SessionInfo, msg message.Message) (message.Message, error) {
	switch m := msg.(type) {
	case message.Ping:
		Logger.Debugf("session %d: %s", session.ID, m)
		return m.WithServerTimestamp(h.now()), nil
	case message.Authenticate:
		Logger.Infof("session %d: authenticate request for user %q", session.ID, m.Username)
		return nil, nil
	default:
		Logger.Warningf("session %d: no handler for %s message", session.ID, msg.Type())
		return nil, nil
	}
}
