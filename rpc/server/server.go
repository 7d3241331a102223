package server

import (
	"context"
	"io"
	"net"
	"os/signal"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ValentinKolb/kvsd/protocol/connection"
	"github.com/ValentinKolb/kvsd/protocol/message"
	"github.com/ValentinKolb/kvsd/rpc/common"
	"github.com/ValentinKolb/kvsd/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc")

// ErrServerClosed is returned by Serve after Shutdown was called
var ErrServerClosed = errors.New("rpc: server closed")

var (
	openSessions    atomic.Int64
	sessionsOpened  = metrics.NewCounter("kvsd_server_sessions_opened_total")
	sessionsIdle    = metrics.NewCounter("kvsd_server_sessions_idle_closed_total")
	handlerFailures = metrics.NewCounter("kvsd_server_handler_errors_total")
	_               = metrics.NewGauge("kvsd_server_sessions_open", func() float64 {
		return float64(openSessions.Load())
	})
)

// session is one accepted connection
type session struct {
	id   uint64
	conn net.Conn
}

func (s *session) info() SessionInfo {
	return SessionInfo{ID: s.id, RemoteAddr: s.conn.RemoteAddr().String()}
}

// RPCServer accepts connections through a connector and runs the wire
// protocol on each of them
type RPCServer struct {
	config    common.ServerConfig
	connector transport.IServerConnector
	handler   IMessageHandler

	mu       sync.Mutex
	listener net.Listener
	closing  atomic.Bool

	sessions      *xsync.MapOf[uint64, *session]
	nextSessionID atomic.Uint64
	wg            sync.WaitGroup
}

// NewRPCServer creates a new protocol server
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewServerConnector(),
//		server.NewDefaultHandler(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	connector transport.IServerConnector,
	handler IMessageHandler,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	if handler == nil {
		handler = NewDefaultHandler()
	}

	return &RPCServer{
		config:    config,
		connector: connector,
		handler:   handler,
		sessions:  xsync.NewMapOf[uint64, *session](),
	}
}

// Listen creates the listener without accepting connections yet.
// Serve calls it if it was not called before.
func (s *RPCServer) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing.Load() {
		return ErrServerClosed
	}
	if s.listener != nil {
		return nil
	}

	listener, err := s.connector.Listen(s.config.Transport)
	if err != nil {
		return errors.Wrap(err, "failed to create listener")
	}
	s.listener = listener
	return nil
}

// Addr returns the address of the listener or nil before Listen
func (s *RPCServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until Shutdown is called. It always returns a
// non-nil error; after Shutdown the error is ErrServerClosed.
func (s *RPCServer) Serve() error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	Logger.Infof("Starting %s server on %s", s.connector.GetName(), listener.Addr())

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.closing.Load() || errors.Is(err, net.ErrClosed) {
				return ErrServerClosed
			}
			Logger.Errorf("Accept error: %v", err)
			continue
		}

		if err := s.connector.UpgradeConnection(conn, s.config.Transport); err != nil {
			Logger.Warningf("failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
		}

		sess := &session{id: s.nextSessionID.Add(1), conn: conn}
		if !s.trackSession(sess) {
			// accepted while shutting down
			_ = conn.Close()
			return ErrServerClosed
		}
		go s.handleConnection(sess)
	}
}

// Shutdown closes the listener and all open sessions and waits for their
// goroutines to finish or ctx to expire
func (s *RPCServer) Shutdown(ctx context.Context) error {
	// no session is tracked once closing is set under mu, so every session
	// is either closed below or never started
	s.mu.Lock()
	s.closing.Store(true)
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.mu.Unlock()

	s.sessions.Range(func(id uint64, sess *session) bool {
		_ = sess.conn.Close()
		return true
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		Logger.Infof("server stopped")
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection reads messages of one session until the peer closes,
// the session idles out or an error occurs
func (s *RPCServer) handleConnection(sess *session) {
	defer s.wg.Done()
	defer s.dropSession(sess)

	Logger.Debugf("session %d: accepted connection from %s", sess.id, sess.conn.RemoteAddr())

	conn := connection.NewWithLimits(sess.conn, s.config.Protocol.BufferSizeOrDefault(), s.config.Protocol.Limits())
	readTimeout := time.Duration(s.config.ReadTimeoutSecond) * time.Second
	writeTimeout := time.Duration(s.config.WriteTimeoutSecond) * time.Second

	for {
		var msg message.Message
		var err error
		if readTimeout > 0 {
			msg, err = conn.ReadMessageWithTimeout(readTimeout)
		} else {
			msg, err = conn.ReadMessage()
		}

		switch {
		case err == nil:
		// Case EOF: Connection closed by client
		case errors.Is(err, io.EOF):
			Logger.Debugf("session %d: connection closed by client", sess.id)
			return
		case errors.Is(err, connection.ErrReadTimeout):
			if conn.Buffered() == 0 {
				Logger.Infof("session %d: idle for %s, closing", sess.id, readTimeout)
				sessionsIdle.Inc()
				return
			}
			Logger.Debugf("session %d: waiting for the rest of a message (%d bytes buffered)", sess.id, conn.Buffered())
			continue
		case message.IsNotImplemented(err):
			Logger.Warningf("session %d: %v", sess.id, err)
			continue
		default:
			if !s.closing.Load() {
				Logger.Errorf("session %d: closing connection: %v", sess.id, err)
			}
			return
		}

		reply, err := s.handler.Handle(sess.info(), msg)
		if err != nil {
			handlerFailures.Inc()
			Logger.Errorf("session %d: handler failed for %s message: %v", sess.id, msg.Type(), err)
			return
		}
		if reply == nil {
			continue
		}

		if writeTimeout > 0 {
			if err := sess.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				Logger.Errorf("session %d: failed to set write deadline: %v", sess.id, err)
				return
			}
		}
		if err := conn.WriteMessage(reply); err != nil {
			Logger.Errorf("session %d: failed to write %s reply: %v", sess.id, reply.Type(), err)
			return
		}
	}
}

// trackSession registers a session and its goroutine. It returns false once
// Shutdown has started.
func (s *RPCServer) trackSession(sess *session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing.Load() {
		return false
	}
	s.sessions.Store(sess.id, sess)
	s.wg.Add(1)
	openSessions.Add(1)
	sessionsOpened.Inc()
	return true
}

// dropSession closes the connection and forgets the session
func (s *RPCServer) dropSession(sess *session) {
	if _, ok := s.sessions.LoadAndDelete(sess.id); !ok {
		return
	}
	openSessions.Add(-1)
	if err := sess.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		Logger.Debugf("session %d: close: %v", sess.id, err)
	}
}

// Sessions returns the number of open sessions
func (s *RPCServer) Sessions() int {
	return s.sessions.Size()
}
