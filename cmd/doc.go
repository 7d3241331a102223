// Package cmd implements the command-line interface of kvsd. It provides a
// hierarchical command structure for running the server and talking to it
// as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Command for starting and configuring the kvsd server
//   - client: Commands for sending ping and authenticate messages
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See kvsd -help for a list of all commands.
package cmd
