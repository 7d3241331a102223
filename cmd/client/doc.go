// Package client implements the kvsd ping and auth commands.
package client
