package stomp

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// BodyMode tells how the end of a body is found.
type BodyMode uint8

const (
	// LengthBounded bodies end after exactly content-length bytes and a NUL.
	LengthBounded BodyMode = iota + 1
	// TerminatorBounded bodies end at the first NUL byte.
	TerminatorBounded
)

func (m BodyMode) String() string {
	switch m {
	case LengthBounded:
		return "length-bounded"
	case TerminatorBounded:
		return "terminator-bounded"
	default:
		return "none"
	}
}

// BodyState is the lifecycle position of a Body.
type BodyState uint8

const (
	// BodyArmed bodies have not been read yet.
	BodyArmed BodyState = iota
	// BodyStreaming bodies have been partially read.
	BodyStreaming
	// BodyDrained bodies were read through their terminator.
	BodyDrained
	// BodyClosed bodies were closed, skipping the rest of the body, or failed.
	// Err reports which.
	BodyClosed
)

func (s BodyState) String() string {
	switch s {
	case BodyArmed:
		return "armed"
	case BodyStreaming:
		return "streaming"
	case BodyDrained:
		return "drained"
	case BodyClosed:
		return "closed"
	default:
		return "invalid"
	}
}

// Body streams the payload of a frame directly from the underlying source.
// Nothing is buffered: bytes are handed to the caller as they are read.
//
// Until the body is read to io.EOF or closed it holds its Reader's stream
// lock and the Reader refuses to parse another frame. A Body is not safe for
// concurrent use.
type Body struct {
	r         *Reader
	mode      BodyMode
	state     BodyState
	remaining int64
	consumed  int64
	discarded int64

	err         error
	errReported bool
}

// Mode reports how the body is delimited.
func (b *Body) Mode() BodyMode { return b.mode }

// State reports where the body is in its lifecycle.
func (b *Body) State() BodyState { return b.state }

// Remaining returns the number of body bytes left for a length-bounded body
// and -1 for a terminator-bounded one.
func (b *Body) Remaining() int64 {
	if b.mode != LengthBounded {
		return -1
	}
	return b.remaining
}

// Consumed returns the number of body bytes returned by Read.
func (b *Body) Consumed() int64 { return b.consumed }

// Discarded returns the number of body bytes skipped by Close.
func (b *Body) Discarded() int64 { return b.discarded }

// Err returns the error that poisoned the body, if any.
func (b *Body) Err() error { return b.err }

// Read reads up to len(p) bytes of the body. Once the end of the body is
// reached the frame terminator is consumed and io.EOF returned, after which
// the Reader may parse the next frame.
func (b *Body) Read(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	switch b.state {
	case BodyClosed:
		return 0, ErrBodyClosed
	case BodyDrained:
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	b.state = BodyStreaming
	n, err := b.read(p)
	b.consumed += int64(n)
	return n, err
}

// Close skips whatever is left of the body, including the terminator, and
// releases the stream lock. On a failed body the first Close returns the
// stored error. Calling Close again is a no-op.
func (b *Body) Close() error {
	if b.err != nil {
		if b.errReported {
			return nil
		}
		b.errReported = true
		return b.err
	}
	switch b.state {
	case BodyClosed:
		return nil
	case BodyDrained:
		b.state = BodyClosed
		return nil
	}

	err := b.discard()
	b.state = BodyClosed
	if err == io.EOF {
		return nil
	}
	b.errReported = true
	return err
}

func (b *Body) discard() error {
	scratch := b.r.scratch[:]
	for {
		n, err := b.read(scratch)
		b.discarded += int64(n)
		if err != nil {
			return err
		}
	}
}

func (b *Body) read(p []byte) (int, error) {
	if b.mode == LengthBounded {
		return b.readBounded(p)
	}
	return b.readDelimited(p)
}

func (b *Body) readBounded(p []byte) (int, error) {
	var n int
	if b.remaining > 0 {
		if int64(len(p)) > b.remaining {
			p = p[:b.remaining]
		}

		var err error
		n, err = b.r.src.Read(p)
		b.remaining -= int64(n)
		if err != nil && (err != io.EOF || b.remaining > 0) {
			return n, b.fail(b.readError(err))
		}
		if b.remaining > 0 {
			return n, nil
		}
	}

	if err := b.expectTerminator(); err != nil {
		return n, err
	}
	return n, io.EOF
}

func (b *Body) expectTerminator() error {
	c, err := b.r.src.ReadByte()
	if err != nil {
		return b.fail(b.readError(err))
	}
	if c != 0 {
		return b.fail(malformed(PhaseBody, "byte %#02x after declared content-length, want NUL", c))
	}
	b.drained()
	return nil
}

func (b *Body) readDelimited(p []byte) (int, error) {
	if br, ok := b.r.src.(*bufio.Reader); ok {
		return b.readDelimitedBuffered(br, p)
	}

	for n := 0; n < len(p); n++ {
		c, err := b.r.src.ReadByte()
		if err != nil {
			return n, b.fail(b.readError(err))
		}
		if c == 0 {
			b.drained()
			return n, io.EOF
		}
		p[n] = c
	}
	return len(p), nil
}

// readDelimitedBuffered scans the bufio buffer for the terminator instead of
// reading byte by byte. It blocks at most once per call.
func (b *Body) readDelimitedBuffered(br *bufio.Reader, p []byte) (int, error) {
	if _, err := br.Peek(1); err != nil {
		return 0, b.fail(b.readError(err))
	}

	buf, _ := br.Peek(br.Buffered())
	end := bytes.IndexByte(buf, 0)
	if end >= 0 {
		buf = buf[:end]
	}

	n := copy(p, buf)
	_, _ = br.Discard(n)
	if end >= 0 && n == end {
		_, _ = br.Discard(1)
		b.drained()
		return n, io.EOF
	}
	return n, nil
}

func (b *Body) drained() {
	b.state = BodyDrained
	b.r.lock.release(b)
}

// fail poisons the body and closes it. The lock is released so the caller
// can observe the failure through the Reader, but the stream position is no
// longer known.
func (b *Body) fail(err error) error {
	b.err = err
	b.state = BodyClosed
	b.r.lock.release(b)
	return err
}

func (b *Body) readError(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		if b.mode == LengthBounded {
			return errors.Wrapf(ErrTruncatedBody, "%d bytes short of content-length", b.remaining)
		}
		return errors.Wrap(ErrTruncatedBody, "stream ended before NUL terminator")
	}
	return transportError(PhaseBody, err)
}
