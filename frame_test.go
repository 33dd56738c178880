package stomp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_String(t *testing.T) {
	r := NewReader(strings.NewReader("SEND\ndestination:/q\ncontent-length:2\n\nhi\x00\n"))

	f, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "SEND destination=/q content-length=2 body=length-bounded", f.String())
	assert.False(t, f.IsHeartbeat())
	require.NoError(t, f.Close())

	f, err = r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "heartbeat", f.String())
}

func TestFrame_StringMasksPasscode(t *testing.T) {
	f := &Frame{Command: CmdConnect, Header: NewHeader(HdrLogin, "guest", HdrPasscode, "s3cret")}

	s := f.String()
	assert.NotContains(t, s, "s3cret")
	assert.Equal(t, "CONNECT login=guest passcode=<redacted>", s)
}

func TestFrame_CloseWithoutBody(t *testing.T) {
	f := &Frame{Command: CmdSend}
	assert.NoError(t, f.Close())
	assert.Equal(t, "SEND", f.String())
}

func TestBodyMode_String(t *testing.T) {
	assert.Equal(t, "length-bounded", LengthBounded.String())
	assert.Equal(t, "terminator-bounded", TerminatorBounded.String())
	assert.Equal(t, "none", BodyMode(0).String())
	assert.Equal(t, "armed", BodyArmed.String())
	assert.Equal(t, "closed", BodyClosed.String())
}
