// Package serve implements the kvsd serve command, which starts the protocol
// server on a tcp or unix endpoint and optionally exposes prometheus metrics.
package serve
