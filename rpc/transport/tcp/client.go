package tcp

import (
	"net"
	"time"

	"github.com/ValentinKolb/kvsd/rpc/common"
	"github.com/ValentinKolb/kvsd/rpc/transport"
	"github.com/pkg/errors"
)

// clientConnector implements the IClientConnector interface for TCP sockets
type clientConnector struct{}

// NewClientConnector creates a new TCP client connector
func NewClientConnector() transport.IClientConnector {
	return &clientConnector{}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "tcp"
}

func (c *clientConnector) Connect(config common.ClientTransportConfig, timeout time.Duration) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", config.Endpoint, timeout)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", config.Endpoint)
	}
	return conn, nil
}

func (c *clientConnector) UpgradeConnection(conn net.Conn, config common.ClientTransportConfig) error {
	return upgrade(conn, config.SocketConf, config.TCPConf)
}
