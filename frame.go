package stomp

import (
	"strings"
)

// Frame is a decoded STOMP frame. Body is never nil for frames returned by a
// Reader; heartbeats carry an already drained body.
type Frame struct {
	Command Command
	Header  Header
	Body    *Body
}

// IsHeartbeat reports whether f is an empty heart-beat frame.
func (f *Frame) IsHeartbeat() bool {
	return f.Command.IsHeartbeat()
}

// Close skips the unread part of the body.
func (f *Frame) Close() error {
	if f.Body == nil {
		return nil
	}
	return f.Body.Close()
}

const redacted = "<redacted>"

// String renders the command and headers on one line for logging. Body
// contents are never included and the passcode header is masked.
func (f *Frame) String() string {
	if f.IsHeartbeat() {
		return "heartbeat"
	}

	var b strings.Builder
	b.WriteString(f.Command.String())
	for _, field := range f.Header {
		b.WriteByte(' ')
		b.WriteString(field.Name)
		b.WriteByte('=')
		if field.Name == HdrPasscode {
			b.WriteString(redacted)
			continue
		}
		b.WriteString(field.Value)
	}
	if f.Body != nil {
		b.WriteString(" body=")
		b.WriteString(f.Body.Mode().String())
	}
	return b.String()
}
