// Package transport defines the connector abstractions the kvsd server and
// client use to obtain byte streams. The wire protocol itself lives in the
// protocol packages; a connector only knows how to listen, dial and tune a
// socket.
//
// Key Components:
//
//   - IServerConnector: creates a listener and upgrades accepted connections
//     (socket buffers, TCP options).
//
//   - IClientConnector: dials an endpoint and upgrades the new connection.
//
// Implementations live in the tcp and unix subpackages.
package transport
