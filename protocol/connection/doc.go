// Package connection drives the kvsd wire protocol over a duplex byte stream.
//
// A Connection accumulates received bytes in a growable buffer until the
// message package reports a complete message, advances the buffer past it
// and returns the decoded Message. Anything received beyond that message
// stays buffered for the next read.
//
// Read results:
//
//   - a Message, when one was decoded
//   - io.EOF, when the peer closed with nothing buffered
//   - ErrResetByPeer, when the peer closed in the middle of a message
//   - ErrReadTimeout, when ReadMessageWithTimeout ran out of time; the
//     buffer is intact and the read can be retried
//   - any other error is fatal for the connection
//
// Usage:
//
//	conn := connection.New(netConn, connection.DefaultBufferSize)
//	msg, err := conn.ReadMessageWithTimeout(5 * time.Second)
//	if errors.Is(err, io.EOF) {
//	    return nil // peer is gone
//	}
//	...
//	err = conn.WriteMessage(reply)
//
// Counters for messages, bytes, timeouts, resets and decode errors are
// registered with github.com/VictoriaMetrics/metrics.
package connection
