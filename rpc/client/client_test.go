package client

import (
	"net"
	"testing"
	"time"

	"github.com/ValentinKolb/kvsd/protocol/connection"
	"github.com/ValentinKolb/kvsd/protocol/message"
	"github.com/ValentinKolb/kvsd/rpc/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeConnector hands out the client end of a net.Pipe
type pipeConnector struct {
	conn     net.Conn
	err      error
	upgraded bool
}

func (c *pipeConnector) GetName() string { return "pipe" }

func (c *pipeConnector) Connect(common.ClientTransportConfig, time.Duration) (net.Conn, error) {
	return c.conn, c.err
}

func (c *pipeConnector) UpgradeConnection(net.Conn, common.ClientTransportConfig) error {
	c.upgraded = true
	return nil
}

func newPipeClient(t *testing.T, timeoutSec int) (*RPCClient, *connection.Connection) {
	t.Helper()
	clientEnd, serverEnd := net.Pipe()
	t.Cleanup(func() { _ = serverEnd.Close() })

	connector := &pipeConnector{conn: clientEnd}
	c, err := NewRPCClient(common.ClientConfig{TimeoutSecond: timeoutSec}, connector)
	require.NoError(t, err)
	assert.True(t, connector.upgraded)
	t.Cleanup(func() { _ = c.Close() })

	return c, connection.New(serverEnd, 64)
}

func TestPing(t *testing.T) {
	c, server := newPipeClient(t, 2)
	serverTime := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	go func() {
		msg, err := server.ReadMessage()
		if err != nil {
			return
		}
		_ = server.WriteMessage(msg.(message.Ping).WithServerTimestamp(serverTime))
	}()

	reply, rtt, err := c.Ping()
	require.NoError(t, err)
	require.NotNil(t, reply.ServerTimestamp)
	assert.True(t, reply.ServerTimestamp.Equal(serverTime))
	assert.NotNil(t, reply.ClientTimestamp)
	assert.Positive(t, rtt)
}

func TestPingUnexpectedReply(t *testing.T) {
	c, server := newPipeClient(t, 2)

	go func() {
		if _, err := server.ReadMessage(); err != nil {
			return
		}
		_ = server.WriteMessage(message.NewAuthenticate("not", "a pong"))
	}()

	_, _, err := c.Ping()
	var unexpected *UnexpectedReplyError
	require.ErrorAs(t, err, &unexpected)
	assert.Equal(t, "unexpected reply: got Authenticate, expected Ping", err.Error())
}

func TestPingTimeout(t *testing.T) {
	c, server := newPipeClient(t, 1)

	// read the ping but never answer
	go func() { _, _ = server.ReadMessage() }()

	_, _, err := c.Ping()
	assert.ErrorIs(t, err, connection.ErrReadTimeout)
}

func TestAuthenticate(t *testing.T) {
	c, server := newPipeClient(t, 2)

	received := make(chan message.Message, 1)
	go func() {
		msg, err := server.ReadMessage()
		if err == nil {
			received <- msg
		}
	}()

	require.NoError(t, c.Authenticate("alice", "secret"))
	select {
	case msg := <-received:
		assert.Equal(t, message.NewAuthenticate("alice", "secret"), msg)
	case <-time.After(2 * time.Second):
		t.Fatal("authenticate was not received")
	}
}

func TestConnectError(t *testing.T) {
	cause := errors.New("connection refused")
	_, err := NewRPCClient(common.ClientConfig{}, &pipeConnector{err: cause})
	assert.ErrorIs(t, err, cause)
}
