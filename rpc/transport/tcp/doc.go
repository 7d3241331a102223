// Package tcp implements the TCP connectors of the kvsd transport layer.
//
// Accepted and dialed connections are tuned from common.TCPConf and
// common.SocketConf: TCP_NODELAY, keep-alive period, linger and the socket
// read and write buffer sizes. A zero buffer size keeps the OS default, a
// negative linger keeps the OS linger behaviour.
package tcp
