package stomp

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errors returned by the codec. Callers match them with errors.Is; the
// returned values carry extra context about where the failure happened.
var (
	// ErrMalformedFrame is returned for a bad command line, an unterminated
	// header block, an unknown escape sequence or an invalid content-length.
	// The stream position afterwards is undefined.
	ErrMalformedFrame = errors.New("stomp: malformed frame")
	// ErrTruncatedBody is returned when the stream ends before the declared
	// content-length or the frame terminator was reached.
	ErrTruncatedBody = errors.New("stomp: truncated body")
	// ErrLockHeld is returned by ReadFrame while the body of the previous
	// frame has been neither drained nor closed.
	ErrLockHeld = errors.New("stomp: previous frame body not released")
	// ErrInvalidBody is returned by the writer when a terminator-delimited
	// body contains a NUL byte, or a body is shorter than its declared length.
	ErrInvalidBody = errors.New("stomp: invalid body")
	// ErrBodyClosed is returned when reading a body after Close.
	ErrBodyClosed = errors.New("stomp: read on closed body")
)

// Phase names the part of a frame being processed when an error occurred.
type Phase string

const (
	PhaseHeader Phase = "header"
	PhaseBody   Phase = "body"
	PhaseWrite  Phase = "write"
)

// TransportError wraps an I/O error from the underlying byte source or sink.
// The codec never reinterprets it; after a TransportError the stream should
// be discarded.
type TransportError struct {
	Phase Phase
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("stomp: %s: %v", e.Phase, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func transportError(phase Phase, err error) error {
	return &TransportError{Phase: phase, Err: err}
}

func malformed(phase Phase, format string, args ...interface{}) error {
	return errors.Wrapf(ErrMalformedFrame, string(phase)+": "+format, args...)
}
