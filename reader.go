package stomp

import (
	"bufio"
	"io"
)

// byteSource is what the codec reads from. Sources that already provide
// ReadByte are used as they are, so the codec never reads ahead of the byte
// it needs.
type byteSource interface {
	io.Reader
	io.ByteReader
}

// Reader parses frames from a byte stream. Each frame's body is read lazily
// from the same stream, so a frame must be drained or closed before the next
// one is read. A Reader is not safe for concurrent use.
type Reader struct {
	src     byteSource
	lock    streamLock
	scratch [4096]byte
}

// NewReader returns a Reader for r. If r does not implement io.ByteReader
// it is wrapped in a bufio.Reader, which may read ahead of the current frame.
func NewReader(r io.Reader) *Reader {
	src, ok := r.(byteSource)
	if !ok {
		src = bufio.NewReader(r)
	}
	return &Reader{src: src}
}

// Locked reports whether the body of the last frame is still unresolved.
func (r *Reader) Locked() bool {
	return r.lock.held()
}

// ReadFrame reads the command and headers of the next frame and returns it
// with an armed body. It fails with ErrLockHeld while the previous body is
// neither drained nor closed, and returns io.EOF when the stream ends
// cleanly between frames.
func (r *Reader) ReadFrame() (*Frame, error) {
	if r.lock.held() {
		return nil, ErrLockHeld
	}

	cmd, h, err := ParseHeaders(r.src)
	if err != nil {
		return nil, err
	}
	if cmd.IsHeartbeat() {
		return &Frame{Command: cmd, Body: &Body{r: r, state: BodyDrained}}, nil
	}

	body := &Body{r: r, mode: TerminatorBounded}
	n, ok, err := h.ContentLength()
	if err != nil {
		return nil, err
	}
	if ok {
		body.mode = LengthBounded
		body.remaining = n
	}
	if err := r.lock.acquire(body); err != nil {
		return nil, err
	}
	return &Frame{Command: cmd, Header: h, Body: body}, nil
}

// Next reads one frame and passes it to fn. The body is closed when fn
// returns or panics, so whatever fn leaves unread is skipped and the stream
// stays aligned on frame boundaries. An error from fn takes precedence over
// one from closing the body.
func (r *Reader) Next(fn func(*Frame) error) (err error) {
	f, err := r.ReadFrame()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Body.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}
