// Package rpc groups the network side of kvsd: everything that turns the
// protocol packages into a running server and a client.
//
// The package is organized into several subpackages:
//
//   - common: configuration structures and the shared logger factory.
//
//   - transport: connector interfaces with tcp and unix implementations.
//
//   - server: the protocol server, accepting connections and dispatching
//     decoded messages to a handler.
//
//   - client: a sequential protocol client for ping and authenticate.
package rpc
