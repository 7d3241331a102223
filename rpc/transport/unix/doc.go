// Package unix implements the Unix domain socket connectors of the kvsd
// transport layer, for clients running on the same machine as the server.
//
// The server connector removes a stale socket file before listening. Both
// connectors apply the socket buffer sizes of common.SocketConf.
package unix
