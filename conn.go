// Package stomp is a streaming codec for the STOMP text protocol.
//
// A Reader turns a byte stream into frames whose bodies are read lazily
// from the same stream, and a Writer encodes frames back onto a byte sink.
// Bodies are never buffered in memory. Conn and Server wrap the codec in a
// TCP transport with read/write loops and idle timeouts.
package stomp

import (
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Errors returned by connection operations.
var (
	// ErrInvalidOnFrame is returned when no frame handler is provided.
	ErrInvalidOnFrame = errors.New("invalid on frame callback")
	// ErrConnectionClosed is returned when operating on a closed connection.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrBufferFull is returned when the send queue cannot take another
	// message. Use WriteBlocking or WriteTimeout to wait for space instead.
	ErrBufferFull = errors.New("send buffer full")
)

// Conn is a STOMP connection. A read loop decodes incoming frames and hands
// them to the frame handler one at a time; a write loop encodes queued
// messages.
type Conn struct {
	id      string
	rawConn net.Conn
	reader  *Reader
	writer  *Writer
	logger  Logger

	opts options

	sendMsg chan Message
	closed  atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Default configuration values.
const (
	defaultBufferSize  = 1
	defaultIdleTimeout = 30 * time.Second
)

// NewConn wraps conn. OnFrameOption is required.
func NewConn(conn net.Conn, opt ...Option) (*Conn, error) {
	var opts options
	for _, o := range opt {
		o(&opts)
	}

	err := checkOptions(&opts)
	if err != nil {
		return nil, err
	}

	return newConnWithOptions(conn, opts), nil
}

// checkOptions validates and sets default values for connection options.
func checkOptions(opts *options) error {
	if opts.onFrame == nil {
		return ErrInvalidOnFrame
	}

	if opts.bufferSize <= 0 {
		opts.bufferSize = defaultBufferSize
	}

	if opts.idleTimeout <= 0 {
		opts.idleTimeout = defaultIdleTimeout
	}

	if opts.onError == nil {
		opts.onError = func(err error) ErrorAction { return Disconnect }
	}

	if opts.logger == nil {
		opts.logger = defaultLogger()
	}

	return nil
}

func newConnWithOptions(c net.Conn, opts options) *Conn {
	id := uuid.New().String()
	return &Conn{
		id:      id,
		rawConn: c,
		reader:  NewReader(c),
		writer:  NewWriter(c),
		logger:  withFields(opts.logger, "conn_id", id, "addr", c.RemoteAddr()),
		opts:    opts,
		sendMsg: make(chan Message, opts.bufferSize),
	}
}

// ID returns the unique id of the connection.
func (c *Conn) ID() string {
	return c.id
}

// Run starts the read and write loops and blocks until one of them fails or
// ctx is canceled. The connection is closed when Run returns.
func (c *Conn) Run(ctx context.Context) error {
	c.logger.Info("connection established")
	c.logger.Debug("connection options",
		"buffer_size", c.opts.bufferSize,
		"idle_timeout", c.opts.idleTimeout,
		"heartbeat", c.opts.heartbeat)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	group, child := errgroup.WithContext(ctx)

	// A blocked read does not watch the context.
	stop := context.AfterFunc(child, func() {
		_ = c.rawConn.Close()
	})
	defer stop()

	group.Go(func() error {
		return c.readLoop(child)
	})

	group.Go(func() error {
		return c.writeLoop(child)
	})

	err := group.Wait()
	c.closeConn()

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		c.logger.Info("connection closed with error", "error", err)
	} else {
		c.logger.Info("connection closed")
	}

	return err
}

// Close closes the connection. Safe to call multiple times.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return c.rawConn.Close()
}

// IsClosed returns true if the connection has been closed.
func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

// Write queues message without blocking. It returns ErrBufferFull when the
// queue is full; the message is then dropped.
func (c *Conn) Write(message Message) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	select {
	case c.sendMsg <- message:
		return nil
	default:
		return ErrBufferFull
	}
}

// WriteBlocking queues message, waiting for space until ctx is done.
func (c *Conn) WriteBlocking(ctx context.Context, message Message) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	select {
	case c.sendMsg <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WriteTimeout queues message, waiting at most timeout for space. It returns
// ErrBufferFull when the timeout expires.
func (c *Conn) WriteTimeout(message Message, timeout time.Duration) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case c.sendMsg <- message:
		return nil
	case <-timer.C:
		return ErrBufferFull
	}
}

// Addr returns the remote address of the connection.
func (c *Conn) Addr() net.Addr {
	return c.rawConn.RemoteAddr()
}

// readLoop reads frames until the context is canceled or reading fails.
// Every frame body is released before the next frame is read.
func (c *Conn) readLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			_ = c.rawConn.SetReadDeadline(time.Now().Add(c.opts.idleTimeout * 2))

			var (
				frame      *Frame
				handlerErr error
			)
			err := c.reader.Next(func(f *Frame) error {
				frame = f
				if f.IsHeartbeat() && !c.opts.deliverHeartbeats {
					return nil
				}
				handlerErr = c.opts.onFrame(f)
				return handlerErr
			})

			if frame != nil && frame.Body.Discarded() > 0 {
				c.logger.Debug("unread body discarded",
					"command", frame.Command.String(),
					"bytes", frame.Body.Discarded())
			}

			if handlerErr != nil {
				return handlerErr
			}
			if err == nil {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}

			c.logger.Debug("read error", "error", err)
			if isStreamFatal(err) || c.opts.onError(err) == Disconnect {
				return err
			}
		}
	}
}

// isStreamFatal reports errors after which no further frame can be read.
func isStreamFatal(err error) bool {
	var te *TransportError
	return errors.Is(err, io.EOF) || errors.As(err, &te)
}

// writeLoop encodes queued messages and, if enabled, periodic heart-beats.
func (c *Conn) writeLoop(ctx context.Context) error {
	var beat <-chan time.Time
	if c.opts.heartbeat > 0 {
		ticker := time.NewTicker(c.opts.heartbeat)
		defer ticker.Stop()
		beat = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case message := <-c.sendMsg:
			if err := c.write(message); err != nil {
				return err
			}
		case <-beat:
			if err := c.writeHeartbeat(); err != nil {
				return err
			}
		}
	}
}

// write encodes one message with a deadline. The error is propagated only
// if onError asks for a disconnect.
func (c *Conn) write(message Message) error {
	_ = c.rawConn.SetWriteDeadline(time.Now().Add(c.opts.idleTimeout * 2))

	err := c.writer.WriteFrame(message.Command, message.Header, message.Body)
	if err != nil {
		c.logger.Debug("write error", "command", message.Command.String(), "error", err)
		if c.opts.onError(err) == Disconnect {
			return err
		}
	}

	return nil
}

func (c *Conn) writeHeartbeat() error {
	_ = c.rawConn.SetWriteDeadline(time.Now().Add(c.opts.idleTimeout * 2))

	if err := c.writer.WriteHeartbeat(); err != nil {
		c.logger.Debug("heartbeat error", "error", err)
		return err
	}
	return nil
}

// closeConn marks the connection as closed and closes the underlying connection.
func (c *Conn) closeConn() {
	c.closed.Store(true)
	_ = c.rawConn.Close()
}
