package connection

import (
	"bufio"
	"io"
	"net"
	"os"
	"time"

	"github.com/ValentinKolb/kvsd/protocol/frame"
	"github.com/ValentinKolb/kvsd/protocol/message"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/pkg/errors"
)

var Logger = logger.GetLogger("protocol")

const (
	// DefaultBufferSize is the initial receive buffer capacity
	DefaultBufferSize = 4 * 1024
	minBufferSize     = 64

	// maxEmptyReads mirrors bufio: give up on a transport returning (0, nil)
	maxEmptyReads = 100
)

var (
	// ErrResetByPeer is returned when the transport closes while a message
	// is only partially received
	ErrResetByPeer = errors.New("connection reset by peer")
	// ErrReadTimeout is returned when a bounded read exceeds its deadline.
	// Buffered bytes are kept, the read may be retried.
	ErrReadTimeout = errors.New("read timeout")
)

// deadlineReader is implemented by every net.Conn
type deadlineReader interface {
	SetReadDeadline(t time.Time) error
}

// receiveResult is the outcome of one receive running in the background
type receiveResult struct {
	data []byte
	err  error
}

// --------------------------------------------------------------------------
// Connection
// --------------------------------------------------------------------------

// Connection reads and writes framed messages over a duplex transport.
//
// It owns a growable receive buffer and a buffered writer over the transport.
// The receive buffer always holds a prefix of a valid or still incomplete
// message and only advances past bytes that were decoded into MessageFrames.
//
// A Connection supports one reader and one writer, which may run on different
// goroutines. It is not safe for concurrent reads or concurrent writes.
type Connection struct {
	transport io.ReadWriter
	writer    *bufio.Writer
	limits    message.Limits

	// read side
	buffer     []byte
	readSize   int
	pending    chan receiveResult // receive left running by a timed out read
	eof        bool
	err        error // sticky fatal read error
	emptyReads int

	// write side
	scratch []byte
}

// New creates a connection with the default message limits
func New(transport io.ReadWriter, bufferSize int) *Connection {
	return NewWithLimits(transport, bufferSize, message.DefaultLimits())
}

// NewWithLimits creates a connection whose receive buffer starts at
// bufferSize bytes and grows as needed up to the size of one message.
func NewWithLimits(transport io.ReadWriter, bufferSize int, limits message.Limits) *Connection {
	if bufferSize < minBufferSize {
		bufferSize = minBufferSize
	}
	return &Connection{
		transport: transport,
		writer:    bufio.NewWriterSize(transport, bufferSize),
		limits:    limits,
		buffer:    make([]byte, 0, bufferSize),
		readSize:  bufferSize,
	}
}

// --------------------------------------------------------------------------
// Read Path
// --------------------------------------------------------------------------

// ReadMessage blocks until one complete message is decoded.
//
// It returns io.EOF when the peer closed the transport between messages and
// ErrResetByPeer when it closed in the middle of one. Grammar, decode and
// transport errors are fatal: they are returned again by every later read.
// A *message.NotImplementedError is not fatal, the message was consumed and
// reading may continue.
func (c *Connection) ReadMessage() (message.Message, error) {
	return c.readMessage(nil)
}

// ReadMessageWithTimeout is ReadMessage bounded by timeout. Exceeding it
// returns ErrReadTimeout. Bytes received before the deadline stay buffered,
// so a later read resumes exactly where framing left off.
//
// Transports with read deadlines (net.Conn) are bounded through
// SetReadDeadline. For any other transport the receive runs in a goroutine;
// if the deadline fires first it keeps running and its bytes are appended on
// the next read.
func (c *Connection) ReadMessageWithTimeout(timeout time.Duration) (message.Message, error) {
	if dr, ok := c.transport.(deadlineReader); ok && c.pending == nil {
		if err := dr.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, errors.Wrap(err, "set read deadline")
		}
		defer func() {
			if err := dr.SetReadDeadline(time.Time{}); err != nil {
				Logger.Warningf("failed to clear read deadline: %v", err)
			}
		}()
		return c.readMessage(nil)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	return c.readMessage(timer.C)
}

// Buffered returns the number of received bytes not yet consumed
func (c *Connection) Buffered() int {
	return len(c.buffer)
}

func (c *Connection) readMessage(timeout <-chan time.Time) (message.Message, error) {
	if c.err != nil {
		return nil, c.err
	}

	for {
		msg, err := c.decodeBuffered()
		if err != nil {
			if message.IsNotImplemented(err) {
				return nil, err
			}
			return nil, c.fail(err)
		}
		if msg != nil {
			messagesRead.Inc()
			return msg, nil
		}

		if c.eof {
			if len(c.buffer) == 0 {
				return nil, io.EOF
			}
			resetsByPeer.Inc()
			return nil, c.fail(ErrResetByPeer)
		}

		if err := c.receive(timeout); err != nil {
			if errors.Is(err, ErrReadTimeout) {
				readTimeouts.Inc()
				Logger.Debugf("read timed out with %d bytes buffered", len(c.buffer))
				return nil, err
			}
			return nil, c.fail(err)
		}
	}
}

// decodeBuffered runs check then parse over the buffer. It returns a nil
// message without error when the buffered bytes are incomplete.
func (c *Connection) decodeBuffered() (message.Message, error) {
	n, out, err := message.Check(c.buffer, c.limits)
	switch out {
	case frame.Complete:
	case frame.Incomplete:
		return nil, nil
	default:
		decodeErrors.Inc()
		return nil, errors.Wrap(err, "read message frames")
	}

	frames, err := message.Parse(c.buffer[:n], c.limits)
	if err != nil {
		decodeErrors.Inc()
		return nil, errors.Wrap(err, "parse message frames")
	}
	c.advance(n)
	Logger.Debugf("decoded %s message of %d bytes, %d bytes buffered", frames.Type, n, len(c.buffer))

	msg, err := message.Decode(frames)
	if err != nil {
		decodeErrors.Inc()
		return nil, errors.Wrap(err, "decode message")
	}
	return msg, nil
}

// advance discards the first n buffered bytes
func (c *Connection) advance(n int) {
	remaining := copy(c.buffer, c.buffer[n:])
	c.buffer = c.buffer[:remaining]
}

// fail records a fatal read error
func (c *Connection) fail(err error) error {
	c.err = err
	Logger.Debugf("connection failed: %v", err)
	return err
}

// --------------------------------------------------------------------------
// Receive Helper
// --------------------------------------------------------------------------

// receive performs exactly one read from the transport and appends what it
// got. A nil timeout reads directly into the buffer.
func (c *Connection) receive(timeout <-chan time.Time) error {
	if timeout == nil && c.pending == nil {
		return c.readDirect()
	}

	if c.pending == nil {
		c.pending = c.startReceive()
	}

	select {
	case res := <-c.pending:
		c.pending = nil
		c.buffer = append(c.buffer, res.data...)
		return c.handleRead(len(res.data), res.err)
	case <-timeout:
		return ErrReadTimeout
	}
}

func (c *Connection) readDirect() error {
	if cap(c.buffer)-len(c.buffer) < minBufferSize {
		grown := make([]byte, len(c.buffer), max(2*cap(c.buffer), len(c.buffer)+c.readSize))
		copy(grown, c.buffer)
		c.buffer = grown
	}

	n, err := c.transport.Read(c.buffer[len(c.buffer):cap(c.buffer)])
	c.buffer = c.buffer[:len(c.buffer)+n]
	return c.handleRead(n, err)
}

// startReceive reads into a private chunk so that a receive abandoned by a
// timeout never touches the buffer
func (c *Connection) startReceive() chan receiveResult {
	ch := make(chan receiveResult, 1)
	chunk := make([]byte, c.readSize)
	go func() {
		n, err := c.transport.Read(chunk)
		ch <- receiveResult{data: chunk[:n], err: err}
	}()
	return ch
}

// handleRead classifies the error of a read whose n bytes are already
// buffered
func (c *Connection) handleRead(n int, err error) error {
	if n > 0 {
		bytesReceived.Add(n)
		c.emptyReads = 0
		Logger.Debugf("received %d bytes, %d bytes buffered", n, len(c.buffer))
	}

	switch {
	case err == nil:
		if n == 0 {
			c.emptyReads++
			if c.emptyReads >= maxEmptyReads {
				return errors.Wrap(io.ErrNoProgress, "read message io")
			}
		}
		return nil
	case errors.Is(err, io.EOF):
		c.eof = true
		return nil
	case isTimeout(err):
		return ErrReadTimeout
	default:
		return errors.Wrap(err, "read message io")
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// --------------------------------------------------------------------------
// Write Path
// --------------------------------------------------------------------------

// WriteMessage encodes msg, writes it through the buffered writer and
// flushes. Errors are plain I/O errors.
func (c *Connection) WriteMessage(msg message.Message) error {
	buf, err := message.Append(c.scratch[:0], msg)
	if err != nil {
		return errors.Wrap(err, "encode message")
	}
	c.scratch = buf

	if _, err := c.writer.Write(buf); err != nil {
		return errors.Wrap(err, "write message io")
	}
	if err := c.writer.Flush(); err != nil {
		return errors.Wrap(err, "flush message io")
	}

	messagesWritten.Inc()
	bytesSent.Add(len(buf))
	Logger.Debugf("wrote %s message of %d bytes", msg.Type(), len(buf))
	return nil
}
