package stomp

import (
	"time"
)

// ErrorAction defines the action to take when an error occurs.
type ErrorAction int

const (
	// Disconnect closes the connection when an error occurs.
	Disconnect ErrorAction = iota
	// Continue suppresses the error and continues processing.
	Continue
)

// options holds the configuration for a connection.
type options struct {
	logger Logger

	onFrame func(*Frame) error
	// onError sees frame errors and write failures.
	// Returns Disconnect to close the connection, Continue to suppress the error.
	onError func(error) ErrorAction

	bufferSize        int           // size of the outgoing message queue
	idleTimeout       time.Duration // read/write deadlines are twice this
	heartbeat         time.Duration // interval of outgoing heart-beats, 0 disables
	deliverHeartbeats bool
}

// Option is a function that configures connection options.
type Option func(*options)

// BufferSizeOption returns an Option that sets the size of the send queue.
func BufferSizeOption(size int) Option {
	return func(o *options) {
		o.bufferSize = size
	}
}

// IdleTimeoutOption returns an Option that sets the idle timeout. A peer
// that sends nothing, not even a heart-beat, for twice this long is
// disconnected.
func IdleTimeoutOption(timeout time.Duration) Option {
	return func(o *options) {
		o.idleTimeout = timeout
	}
}

// HeartbeatOption returns an Option that makes the connection send a
// heart-beat at the given interval.
func HeartbeatOption(interval time.Duration) Option {
	return func(o *options) {
		o.heartbeat = interval
	}
}

// DeliverHeartbeatsOption returns an Option that passes incoming heart-beats
// to the frame handler instead of dropping them.
func DeliverHeartbeatsOption(deliver bool) Option {
	return func(o *options) {
		o.deliverHeartbeats = deliver
	}
}

// OnErrorOption returns an Option that sets the error callback.
// Return Disconnect to close the connection, or Continue to suppress the
// error. Transport failures and the end of the stream always disconnect.
func OnErrorOption(cb func(error) ErrorAction) Option {
	return func(o *options) {
		o.onError = cb
	}
}

// OnFrameOption returns an Option that sets the frame handler. It is
// required. The frame body is only readable until the handler returns; what
// the handler leaves unread is skipped.
func OnFrameOption(cb func(*Frame) error) Option {
	return func(o *options) {
		o.onFrame = cb
	}
}

// LoggerOption returns an Option that sets the logger.
// If not set, the default slog logger will be used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
