package stomp

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Well-known header names.
const (
	HdrContentLength = "content-length"
	HdrContentType   = "content-type"
	HdrReceipt       = "receipt"
	HdrAcceptVersion = "accept-version"
	HdrHost          = "host"
	HdrVersion       = "version"
	HdrLogin         = "login"
	HdrPasscode      = "passcode"
	HdrHeartBeat     = "heart-beat"
	HdrSession       = "session"
	HdrServer        = "server"
	HdrDestination   = "destination"
	HdrID            = "id"
	HdrAck           = "ack"
	HdrTransaction   = "transaction"
	HdrReceiptID     = "receipt-id"
	HdrSubscription  = "subscription"
	HdrMessageID     = "message-id"
	HdrMessage       = "message"
)

// Field is a single decoded header line.
type Field struct {
	Name  string
	Value string
}

// Header is the ordered header block of a frame. Repeated names are kept;
// readers honour the first occurrence.
type Header []Field

// NewHeader builds a Header from alternating name/value pairs. A trailing
// name without a value is ignored.
func NewHeader(pairs ...string) Header {
	h := make(Header, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		h = append(h, Field{Name: pairs[i], Value: pairs[i+1]})
	}
	return h
}

// Get returns the value of the first field named name.
func (h Header) Get(name string) (string, bool) {
	for _, f := range h {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Values returns every value of name in order.
func (h Header) Values(name string) []string {
	var vs []string
	for _, f := range h {
		if f.Name == name {
			vs = append(vs, f.Value)
		}
	}
	return vs
}

// Add appends a field, keeping existing fields with the same name.
func (h *Header) Add(name, value string) {
	*h = append(*h, Field{Name: name, Value: value})
}

// Set replaces the first field named name and drops the others. The field is
// appended if name is absent.
func (h *Header) Set(name, value string) {
	out := (*h)[:0]
	found := false
	for _, f := range *h {
		if f.Name != name {
			out = append(out, f)
			continue
		}
		if !found {
			out = append(out, Field{Name: name, Value: value})
			found = true
		}
	}
	if !found {
		out = append(out, Field{Name: name, Value: value})
	}
	*h = out
}

// Del removes every field named name.
func (h *Header) Del(name string) {
	out := (*h)[:0]
	for _, f := range *h {
		if f.Name != name {
			out = append(out, f)
		}
	}
	*h = out
}

// Clone returns a copy that shares no storage with h.
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	return append(Header(nil), h...)
}

// ContentLength parses the first content-length field. ok is false when the
// header is absent; err is non-nil when it is present but not a non-negative
// decimal integer.
func (h Header) ContentLength() (n int64, ok bool, err error) {
	v, ok := h.Get(HdrContentLength)
	if !ok {
		return 0, false, nil
	}
	n, err = strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, true, malformed(PhaseHeader, "invalid content-length %q", v)
	}
	return n, true, nil
}

// ParseHeaders reads a command line and the header block that follows it,
// up to and including the blank separator line. An empty command line, or a
// bare NUL in its place, is a heartbeat and yields CmdHeartbeat with a nil
// Header. io.EOF is returned untouched when the stream ends before the first
// byte of a frame.
func ParseHeaders(r io.ByteReader) (Command, Header, error) {
	first, err := r.ReadByte()
	if err != nil {
		if err == io.EOF {
			return Command{}, nil, io.EOF
		}
		return Command{}, nil, transportError(PhaseHeader, err)
	}
	if first == 0 || first == '\n' {
		return CmdHeartbeat, nil, nil
	}

	rest, err := readLine(r)
	if err != nil {
		return Command{}, nil, headerReadError(err)
	}
	line := trimCR(append([]byte{first}, rest...))
	if len(line) == 0 {
		return CmdHeartbeat, nil, nil
	}
	cmd := ParseCommand(string(line))

	var h Header
	for {
		line, err := readLine(r)
		if err != nil {
			return Command{}, nil, headerReadError(err)
		}
		line = trimCR(line)
		if len(line) == 0 {
			break
		}

		f, err := parseField(line)
		if err != nil {
			return Command{}, nil, err
		}
		h = append(h, f)
	}
	return cmd, h, nil
}

func parseField(line []byte) (Field, error) {
	if !utf8.Valid(line) {
		return Field{}, malformed(PhaseHeader, "header line is not valid UTF-8")
	}
	i := bytes.IndexByte(line, ':')
	if i < 0 {
		return Field{}, malformed(PhaseHeader, "missing colon in %q", line)
	}
	if i == 0 {
		return Field{}, malformed(PhaseHeader, "empty header name in %q", line)
	}

	name, ok := decodeValue(string(line[:i]))
	if !ok {
		return Field{}, malformed(PhaseHeader, "bad escape in header name %q", line[:i])
	}
	value, ok := decodeValue(string(line[i+1:]))
	if !ok {
		return Field{}, malformed(PhaseHeader, "bad escape in value of %q", name)
	}
	return Field{Name: name, Value: value}, nil
}

func headerReadError(err error) error {
	if err == io.EOF {
		return malformed(PhaseHeader, "unterminated header block: %v", io.ErrUnexpectedEOF)
	}
	return transportError(PhaseHeader, err)
}

// readLine reads up to and excluding the next '\n'. A line cut short by the
// end of the stream returns io.EOF.
func readLine(r io.ByteReader) ([]byte, error) {
	if br, ok := r.(*bufio.Reader); ok {
		line, err := br.ReadBytes('\n')
		if err != nil {
			return nil, err
		}
		return line[:len(line)-1], nil
	}

	var line []byte
	for {
		c, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if c == '\n' {
			return line, nil
		}
		line = append(line, c)
	}
}

func trimCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		return b[:n-1]
	}
	return b
}

// WriteHeaders writes the command line, every field escaped, and the blank
// line ending the header block. The heartbeat command writes a lone EOL.
func WriteHeaders(w io.Writer, cmd Command, h Header) error {
	if cmd.IsHeartbeat() {
		_, err := io.WriteString(w, "\n")
		return wrapWrite(err)
	}

	tok := cmd.String()
	if tok == "" || strings.ContainsAny(tok, "\r\n\x00") {
		return malformed(PhaseWrite, "invalid command %q", tok)
	}

	var buf bytes.Buffer
	buf.WriteString(tok)
	buf.WriteByte('\n')
	for _, f := range h {
		buf.WriteString(encodeValue(f.Name))
		buf.WriteByte(':')
		buf.WriteString(encodeValue(f.Value))
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')

	_, err := w.Write(buf.Bytes())
	return wrapWrite(err)
}

func wrapWrite(err error) error {
	if err == nil {
		return nil
	}
	return transportError(PhaseWrite, err)
}
