package stomp

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// sized is implemented by bytes.Buffer, bytes.Reader and strings.Reader.
type sized interface {
	Len() int
}

// Writer encodes frames onto a byte sink. Every frame is flushed as a whole.
// A Writer is not safe for concurrent use.
type Writer struct {
	sink *countingWriter
	w    *bufio.Writer
	err  error
	buf  [4096]byte
}

// countingWriter counts the bytes that reached the sink.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// NewWriter returns a Writer for w.
func NewWriter(w io.Writer) *Writer {
	sink := &countingWriter{w: w}
	return &Writer{sink: sink, w: bufio.NewWriter(sink)}
}

// WriteFrame writes cmd, h and body followed by the NUL terminator.
//
// The content-length header is derived from body when it can be: a nil body
// forces any caller supplied content-length to 0, and a body with a Len
// method gets its exact length. Other bodies are trusted to match a caller
// supplied content-length; without one they are streamed up to io.EOF and
// must not contain a NUL byte. h itself is never modified.
//
// A frame that fails before any of it reached the sink is dropped and the
// Writer stays usable. Once part of a frame has reached the sink the error
// is sticky and every later call returns it.
func (w *Writer) WriteFrame(cmd Command, h Header, body io.Reader) error {
	if w.err != nil {
		return w.err
	}
	start := w.sink.n
	if err := w.writeFrame(cmd, h, body); err != nil {
		return w.abort(start, err)
	}
	return nil
}

func (w *Writer) writeFrame(cmd Command, h Header, body io.Reader) error {
	if cmd.IsHeartbeat() {
		return w.writeHeartbeat()
	}

	h = h.Clone()
	length := int64(-1)
	switch b := body.(type) {
	case nil:
		if _, ok := h.Get(HdrContentLength); ok {
			h.Set(HdrContentLength, "0")
		}
	case sized:
		length = int64(b.Len())
		h.Set(HdrContentLength, strconv.FormatInt(length, 10))
	default:
		n, ok, err := h.ContentLength()
		if err != nil {
			return errors.Wrap(ErrInvalidBody, err.Error())
		}
		if ok {
			length = n
		}
	}

	if err := WriteHeaders(w.w, cmd, h); err != nil {
		return err
	}
	if body != nil {
		if err := w.copyBody(body, length); err != nil {
			return err
		}
	}
	if err := w.w.WriteByte(0); err != nil {
		return transportError(PhaseWrite, err)
	}
	return w.flush()
}

// WriteHeartbeat writes a single end-of-line.
func (w *Writer) WriteHeartbeat() error {
	if w.err != nil {
		return w.err
	}
	start := w.sink.n
	if err := w.writeHeartbeat(); err != nil {
		return w.abort(start, err)
	}
	return nil
}

func (w *Writer) writeHeartbeat() error {
	if err := w.w.WriteByte('\n'); err != nil {
		return transportError(PhaseWrite, err)
	}
	return w.flush()
}

// abort discards the buffered part of a failed frame. If some of the frame
// already reached the sink the stream is broken and the Writer is stopped.
func (w *Writer) abort(start int64, err error) error {
	if w.sink.n == start {
		w.w.Reset(w.sink)
		return err
	}
	w.err = errors.Wrapf(err, "stomp: writer stopped after %d bytes of a frame", w.sink.n-start)
	return w.err
}

func (w *Writer) flush() error {
	if err := w.w.Flush(); err != nil {
		return transportError(PhaseWrite, err)
	}
	return nil
}

// copyBody copies exactly n bytes of body, or everything up to io.EOF when n
// is negative. In the latter case a NUL byte is rejected before it is
// written.
func (w *Writer) copyBody(body io.Reader, n int64) error {
	var written int64
	for n < 0 || written < n {
		p := w.buf[:]
		if n >= 0 && int64(len(p)) > n-written {
			p = p[:n-written]
		}

		m, rerr := body.Read(p)
		if m > 0 {
			if n < 0 && bytes.IndexByte(p[:m], 0) >= 0 {
				return errors.Wrap(ErrInvalidBody, "NUL byte in body without content-length")
			}
			if _, err := w.w.Write(p[:m]); err != nil {
				return transportError(PhaseWrite, err)
			}
			written += int64(m)
		}

		switch {
		case rerr == io.EOF:
			if n >= 0 && written < n {
				return errors.Wrapf(ErrInvalidBody, "body ended after %d of %d bytes", written, n)
			}
			return nil
		case rerr != nil:
			return errors.Wrap(rerr, "stomp: read body")
		}
	}
	return nil
}

// WriteFrame writes a single frame to w. See Writer.WriteFrame.
func WriteFrame(w io.Writer, cmd Command, h Header, body io.Reader) error {
	return NewWriter(w).WriteFrame(cmd, h, body)
}

// WriteHeartbeat writes a heart-beat to w.
func WriteHeartbeat(w io.Writer) error {
	return NewWriter(w).WriteHeartbeat()
}
