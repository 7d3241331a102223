// Package common provides configuration structures and logging shared by
// the kvsd server, client and command line tools.
//
// Key Components:
//
//   - ServerConfig / ClientConfig: configuration of the listener or dialer,
//     the wire protocol (buffer size, message limits) and timeouts. Both
//     print a readable summary through String().
//
//   - ProtocolConf: connection buffer size and the maximum lengths a peer may
//     declare, converted to message.Limits.
//
//   - Logger: custom implementation of dragonboats logger.ILogger so every
//     named logger (protocol, rpc, transport/rpc) shares one format. Output
//     goes to stdout or to a rotated log file.
package common
