package client

import (
	"net"
	"time"

	"github.com/ValentinKolb/kvsd/protocol/connection"
	"github.com/ValentinKolb/kvsd/protocol/message"
	"github.com/ValentinKolb/kvsd/rpc/common"
	"github.com/ValentinKolb/kvsd/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/pkg/errors"
)

var (
	Logger = logger.GetLogger("rpc")
)

// UnexpectedReplyError is returned when the server answers with a message of
// another type than requested
type UnexpectedReplyError struct {
	Expected message.Message
	Got      message.Message
}

func (e *UnexpectedReplyError) Error() string {
	return "unexpected reply: got " + e.Got.Type().String() + ", expected " + e.Expected.Type().String()
}

// RPCClient speaks the wire protocol over a single connection
type RPCClient struct {
	config common.ClientConfig
	conn   net.Conn
	proto  *connection.Connection
}

// NewRPCClient dials the configured endpoint through the connector
//
// Usage:
//
//	c, err := client.NewRPCClient(*config, tcp.NewClientConnector())
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	reply, rtt, err := c.Ping()
func NewRPCClient(config common.ClientConfig, connector transport.IClientConnector) (*RPCClient, error) {
	conn, err := connector.Connect(config.Transport, config.Timeout())
	if err != nil {
		return nil, err
	}

	if err := connector.UpgradeConnection(conn, config.Transport); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to upgrade connection")
	}

	Logger.Debugf("connected to %s via %s", config.Transport.Endpoint, connector.GetName())

	return &RPCClient{
		config: config,
		conn:   conn,
		proto:  connection.NewWithLimits(conn, config.Protocol.BufferSizeOrDefault(), config.Protocol.Limits()),
	}, nil
}

// Ping sends a ping carrying the local time and waits for the echo. It
// returns the reply and the measured round trip time.
func (c *RPCClient) Ping() (message.Ping, time.Duration, error) {
	req := message.NewPing()
	start := time.Now()

	if err := c.send(req); err != nil {
		return message.Ping{}, 0, err
	}

	reply, err := c.receive()
	if err != nil {
		return message.Ping{}, 0, err
	}
	rtt := time.Since(start)

	pong, ok := reply.(message.Ping)
	if !ok {
		return message.Ping{}, 0, &UnexpectedReplyError{Expected: req, Got: reply}
	}
	return pong, rtt, nil
}

// Authenticate sends the credentials. The server does not answer, so the
// call returns once the message is written.
func (c *RPCClient) Authenticate(username, password string) error {
	return c.send(message.NewAuthenticate(username, password))
}

// Close closes the underlying connection
func (c *RPCClient) Close() error {
	return c.conn.Close()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (c *RPCClient) send(msg message.Message) error {
	if timeout := c.config.Timeout(); timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return errors.Wrap(err, "failed to set write deadline")
		}
	}
	if err := c.proto.WriteMessage(msg); err != nil {
		return errors.Wrapf(err, "failed to send %s", msg.Type())
	}
	return nil
}

func (c *RPCClient) receive() (message.Message, error) {
	if timeout := c.config.Timeout(); timeout > 0 {
		return c.proto.ReadMessageWithTimeout(timeout)
	}
	return c.proto.ReadMessage()
}
