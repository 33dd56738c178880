package stomp

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestEscape_Symmetry(t *testing.T) {
	values := []string{
		"",
		"plain",
		"a:b",
		"line\nbreak",
		"carriage\rreturn",
		`back\slash`,
		`\c is not a colon`,
		"::\n\r\\\\",
		"ünïcødé",
	}

	for _, v := range values {
		enc := encodeValue(v)
		assert.NotContains(t, enc, ":", "encoded %q", v)
		assert.NotContains(t, enc, "\n", "encoded %q", v)
		assert.NotContains(t, enc, "\r", "encoded %q", v)

		dec, ok := decodeValue(enc)
		require.True(t, ok, "decode %q", enc)
		assert.Equal(t, v, dec)
	}
}

func TestDecodeValue_Invalid(t *testing.T) {
	for _, s := range []string{`\t`, `abc\`, `\`, `a\xb`} {
		_, ok := decodeValue(s)
		assert.False(t, ok, "decode %q", s)
	}
}

func TestParseHeaders(t *testing.T) {
	src := bytes.NewReader([]byte("SEND\ndestination:/queue/a\nreceipt:r\\c1\nk:a:b\n\nrest"))

	cmd, h, err := ParseHeaders(src)
	require.NoError(t, err)
	assert.Equal(t, CmdSend, cmd)
	assert.Equal(t, Header{
		{Name: "destination", Value: "/queue/a"},
		{Name: "receipt", Value: "r:1"},
		{Name: "k", Value: "a:b"},
	}, h)
	assert.Equal(t, 4, src.Len(), "only the header block is consumed")
}

func TestParseHeaders_CRLF(t *testing.T) {
	cmd, h, err := ParseHeaders(bufio.NewReader(strings.NewReader("MESSAGE\r\nfoo:bar\r\n\r\n")))
	require.NoError(t, err)
	assert.Equal(t, CmdMessage, cmd)
	assert.Equal(t, Header{{Name: "foo", Value: "bar"}}, h)
}

func TestParseHeaders_NoHeaders(t *testing.T) {
	cmd, h, err := ParseHeaders(bytes.NewReader([]byte("DISCONNECT\n\n")))
	require.NoError(t, err)
	assert.Equal(t, CmdDisconnect, cmd)
	assert.Empty(t, h)
}

func TestParseHeaders_Heartbeat(t *testing.T) {
	for _, in := range []string{"\n", "\r\n", "\x00"} {
		src := bytes.NewReader([]byte(in + "SEND\n\n"))
		cmd, h, err := ParseHeaders(src)
		require.NoError(t, err, "input %q", in)
		assert.True(t, cmd.IsHeartbeat(), "input %q", in)
		assert.Nil(t, h)
		assert.Equal(t, 6, src.Len(), "input %q", in)
	}
}

func TestParseHeaders_EOF(t *testing.T) {
	_, _, err := ParseHeaders(bytes.NewReader(nil))
	assert.Equal(t, io.EOF, err)
}

func TestParseHeaders_Malformed(t *testing.T) {
	cases := map[string]string{
		"missing colon":   "SEND\nnocolon\n\n",
		"empty name":      "SEND\n:value\n\n",
		"unknown escape":  "SEND\nk:\\t\n\n",
		"dangling escape": "SEND\nk:v\\\n\n",
		"escaped name":    "SEND\n\\x:v\n\n",
		"invalid utf-8":   "SEND\nk:\xff\xfe\n\n",
		"eof in headers":  "SEND\nk:v\n",
		"eof in command":  "SEND",
		"no blank line":   "SEND\nk:v",
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := ParseHeaders(bytes.NewReader([]byte(in)))
			assert.ErrorIs(t, err, ErrMalformedFrame)
		})
	}
}

func TestParseHeaders_TransportError(t *testing.T) {
	src := bufio.NewReader(io.MultiReader(strings.NewReader("SEND\nk"), iotest.ErrReader(errBoom)))

	_, _, err := ParseHeaders(src)
	require.Error(t, err)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, PhaseHeader, te.Phase)
	assert.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, ErrMalformedFrame)
}

func TestWriteHeaders_RoundTrip(t *testing.T) {
	h := Header{
		{Name: "destination", Value: "/queue/a"},
		{Name: "odd:name", Value: "multi\nline\r\nvalue"},
		{Name: "path", Value: `C:\temp`},
		{Name: "dup", Value: "1"},
		{Name: "dup", Value: "2"},
		{Name: "empty", Value: ""},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteHeaders(&buf, CmdSend, h))
	assert.True(t, strings.HasSuffix(buf.String(), "\n\n"))

	cmd, got, err := ParseHeaders(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, CmdSend, cmd)
	assert.Equal(t, h, got)
}

func TestWriteHeaders_Heartbeat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHeaders(&buf, CmdHeartbeat, nil))
	assert.Equal(t, "\n", buf.String())
}

func TestWriteHeaders_InvalidCommand(t *testing.T) {
	for _, cmd := range []Command{{}, ParseCommand("BAD\nCMD")} {
		var buf bytes.Buffer
		err := WriteHeaders(&buf, cmd, nil)
		assert.ErrorIs(t, err, ErrMalformedFrame)
		assert.Zero(t, buf.Len())
	}
}

func TestHeader_Accessors(t *testing.T) {
	h := NewHeader("a", "1", "b", "2", "a", "3", "dangling")
	assert.Len(t, h, 3)

	v, ok := h.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	assert.Equal(t, []string{"1", "3"}, h.Values("a"))

	_, ok = h.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, h.Values("missing"))

	clone := h.Clone()
	clone.Set("a", "x")
	assert.Equal(t, Header{{Name: "a", Value: "x"}, {Name: "b", Value: "2"}}, clone)
	assert.Equal(t, []string{"1", "3"}, h.Values("a"), "clone must not share storage")

	clone.Set("c", "4")
	assert.Equal(t, Field{Name: "c", Value: "4"}, clone[len(clone)-1])

	clone.Add("b", "5")
	clone.Del("b")
	assert.Equal(t, Header{{Name: "a", Value: "x"}, {Name: "c", Value: "4"}}, clone)

	assert.Nil(t, Header(nil).Clone())
}

func TestHeader_ContentLength(t *testing.T) {
	n, ok, err := NewHeader(HdrContentLength, "42", HdrContentLength, "7").ContentLength()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 42, n)

	_, ok, err = NewHeader("x", "y").ContentLength()
	require.NoError(t, err)
	assert.False(t, ok)

	for _, bad := range []string{"", "abc", "-1", "1.5", " 3", "0x10"} {
		_, ok, err = NewHeader(HdrContentLength, bad).ContentLength()
		assert.True(t, ok)
		assert.ErrorIs(t, err, ErrMalformedFrame, "content-length %q", bad)
	}
}
