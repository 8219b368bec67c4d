package event

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-json-experiment/json/jsontext"
)

// ErrInvalidEscape is returned by Unescape for malformed escape sequences.
var ErrInvalidEscape = errors.New("event: invalid escape sequence")

// Escape renders s as the body of a JSON string literal, without the
// surrounding quotes. Quotes, backslashes and control characters are
// escaped; invalid UTF-8 is replaced with U+FFFD.
func Escape(s string) string {
	return string(AppendEscaped(make([]byte, 0, len(s)+2), s))
}

// AppendEscaped appends the escaped form of s to dst.
func AppendEscaped(dst []byte, s string) []byte {
	start := len(dst)
	// invalid UTF-8 is reported after being replaced, so the error carries nothing new
	dst, _ = jsontext.AppendQuote(dst, s)

	body := dst[start+1 : len(dst)-1]
	n := copy(dst[start:], body)
	return dst[:start+n]
}

// Unescape reverses Escape. It also accepts the escapes a JSON parser
// would, such as \/ and surrogate pairs.
func Unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	quoted := make([]byte, 0, len(s)+2)
	quoted = append(quoted, '"')
	quoted = append(quoted, s...)
	quoted = append(quoted, '"')

	out, err := jsontext.AppendUnquote(make([]byte, 0, len(s)), quoted)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEscape, err)
	}
	return string(out), nil
}
