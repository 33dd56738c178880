package stomp

import (
	"bytes"
	"io"
)

// Message is an outgoing frame queued on a Conn. It is encoded by the
// connection's write loop, so Body is read after the Write call returns and
// must stay valid until then. Bodies borrowed from an incoming Frame do not:
// copy them first.
type Message struct {
	Command Command
	Header  Header
	Body    io.Reader
}

// NewMessage builds a Message with an in-memory body. A nil body produces a
// frame without one.
func NewMessage(cmd Command, body []byte, header ...string) Message {
	m := Message{Command: cmd, Header: NewHeader(header...)}
	if body != nil {
		m.Body = bytes.NewReader(body)
	}
	return m
}
