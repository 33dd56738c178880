package stomp

import "strings"

var escaper = strings.NewReplacer(
	"\\", "\\\\",
	"\r", "\\r",
	"\n", "\\n",
	":", "\\c",
)

// encodeValue escapes a header name or value for the wire.
func encodeValue(s string) string {
	return escaper.Replace(s)
}

// decodeValue reverses encodeValue. It reports false for an unknown escape
// sequence or a trailing lone backslash.
func decodeValue(s string) (string, bool) {
	if strings.IndexByte(s, '\\') < 0 {
		return s, true
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}

		i++
		if i == len(s) {
			return "", false
		}
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'c':
			b.WriteByte(':')
		default:
			return "", false
		}
	}
	return b.String(), true
}
