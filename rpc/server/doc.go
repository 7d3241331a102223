// Package server implements the kvsd protocol server.
//
// An RPCServer listens through a transport.IServerConnector (tcp or unix),
// wraps every accepted connection in a connection.Connection and passes the
// decoded messages to an IMessageHandler. Replies returned by the handler
// are written back on the same connection.
//
// Session lifecycle:
//
//   - end of stream closes the session quietly
//   - a read timeout with nothing buffered closes an idle session; with a
//     partial message buffered the server keeps waiting
//   - messages of reserved types are logged and skipped
//   - malformed input, transport and handler errors close the session
//
// Open sessions are tracked so Shutdown can close them. The session gauge and
// counters are registered with github.com/VictoriaMetrics/metrics.
package server
