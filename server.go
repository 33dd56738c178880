package stomp

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Handler serves the frames of every connection accepted by a Server.
// ServeFrame is called from the connection's read loop, one frame at a time;
// f.Body is only readable until it returns. Returning an error closes the
// connection.
type Handler interface {
	ServeFrame(c *Conn, f *Frame) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(c *Conn, f *Frame) error

// ServeFrame calls fn(c, f).
func (fn HandlerFunc) ServeFrame(c *Conn, f *Frame) error {
	return fn(c, f)
}

// Server accepts STOMP connections over TCP.
type Server struct {
	listener        *net.TCPListener
	logger          Logger
	shutdownTimeout time.Duration
	connOpts        []Option

	mu          sync.Mutex
	shutdown    bool
	shutdownNow chan struct{} // signals immediate shutdown, bypassing timeout
	conns       sync.WaitGroup
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// ServerLoggerOption sets the logger for the server and its connections.
func ServerLoggerOption(logger Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// ServerShutdownTimeoutOption sets the graceful shutdown timeout.
// When the context is canceled the server keeps accepting for up to this
// long before it closes the listener and cancels its connections.
// Default is 0 (immediate shutdown).
func ServerShutdownTimeoutOption(timeout time.Duration) ServerOption {
	return func(s *Server) {
		s.shutdownTimeout = timeout
	}
}

// ServerConnOptions sets options applied to every accepted connection.
// The frame handler is always the one passed to Serve.
func ServerConnOptions(opts ...Option) ServerOption {
	return func(s *Server) {
		s.connOpts = append(s.connOpts, opts...)
	}
}

// New creates a new server bound to the specified address.
func New(addr *net.TCPAddr, opts ...ServerOption) (*Server, error) {
	listener, err := net.ListenTCP(addr.Network(), addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s", addr)
	}

	s := &Server{
		listener:    listener,
		logger:      slog.Default(),
		shutdownNow: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Serve accepts connections and runs each one with handler until ctx is
// canceled or accepting fails. It waits for its connections to finish
// before returning. Call Close to skip the shutdown timeout.
func (s *Server) Serve(ctx context.Context, handler Handler) error {
	s.logger.Info("server started", "addr", s.listener.Addr())

	connCtx, cancelConns := context.WithCancel(context.Background())
	defer func() {
		cancelConns()
		s.conns.Wait()
	}()

	go func() {
		<-ctx.Done()

		if s.shutdownTimeout > 0 {
			s.logger.Info("graceful shutdown initiated", "timeout", s.shutdownTimeout)
			select {
			case <-time.After(s.shutdownTimeout):
			case <-s.shutdownNow:
				s.logger.Debug("shutdown timeout bypassed via Close()")
			}
		}

		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		// Set a deadline to unblock Accept
		_ = s.listener.SetDeadline(time.Now())
	}()

	for {
		conn, err := s.listener.AcceptTCP()
		if err != nil {
			s.mu.Lock()
			isShutdown := s.shutdown
			s.mu.Unlock()

			if isShutdown {
				s.logger.Info("server stopped", "addr", s.listener.Addr())
				return ctx.Err()
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			s.logger.Error("accept error", "error", err)
			return err
		}

		s.logger.Debug("accepted connection", "remote_addr", conn.RemoteAddr())
		_ = conn.SetNoDelay(true)

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.serveConn(connCtx, conn, handler)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, raw *net.TCPConn, handler Handler) {
	var c *Conn
	opts := make([]Option, 0, len(s.connOpts)+2)
	opts = append(opts, LoggerOption(s.logger))
	opts = append(opts, s.connOpts...)
	opts = append(opts, OnFrameOption(func(f *Frame) error {
		return handler.ServeFrame(c, f)
	}))

	c, err := NewConn(raw, opts...)
	if err != nil {
		s.logger.Error("create connection", "remote_addr", raw.RemoteAddr(), "error", err)
		_ = raw.Close()
		return
	}

	_ = c.Run(ctx)
}

// Close stops the server by closing the underlying listener.
// If a shutdown timeout is configured, Close() bypasses the remaining timeout.
func (s *Server) Close() error {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()

	select {
	case s.shutdownNow <- struct{}{}:
	default:
	}

	return s.listener.Close()
}

// Addr returns the listener's network address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
