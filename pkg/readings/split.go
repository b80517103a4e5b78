package readings

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrUnclosedQuote is returned when a quoted field is not closed
	ErrUnclosedQuote = errors.New("unclosed quote in reading")

	// ErrTrailingEscape is returned when a line ends with a backslash
	ErrTrailingEscape = errors.New("trailing escape character in reading")
)

// Split breaks a reading line into fields.
//
// Fields are separated by whitespace. Single quotes keep their content
// literally, double quotes honor backslash escapes of `"` and `\`, and a
// backslash outside quotes escapes the next character. A quoted empty string
// yields an empty field. Field bytes are copied unchanged, so invalid UTF-8
// in an ID survives splitting.
//
//	Split(`7821 123.4 W`)            => ["7821", "123.4", "W"]
//	Split(`531C "washing machine"`)  => ["531C", "washing machine"]
func Split(line string) ([]string, error) {
	fields := []string{}
	var cur strings.Builder
	var quote byte // 0, '\'' or '"'
	inField := false

	for i := 0; i < len(line); {
		ch, size := utf8.DecodeRuneInString(line[i:])
		raw := line[i : i+size]
		i += size

		switch {
		case ch == '\\' && quote != '\'':
			if i >= len(line) {
				return nil, ErrTrailingEscape
			}
			_, nextSize := utf8.DecodeRuneInString(line[i:])
			next := line[i : i+nextSize]
			i += nextSize
			if quote == '"' && next != `"` && next != `\` {
				cur.WriteByte('\\')
			}
			cur.WriteString(next)
			inField = true

		case quote != 0 && size == 1 && raw[0] == quote:
			quote = 0

		case quote == 0 && (ch == '\'' || ch == '"'):
			quote = raw[0]
			inField = true

		case quote == 0 && unicode.IsSpace(ch):
			if inField {
				fields = append(fields, cur.String())
				cur.Reset()
				inField = false
			}

		default:
			// raw keeps invalid UTF-8 bytes as they were received.
			cur.WriteString(raw)
			inField = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("%w: %c", ErrUnclosedQuote, quote)
	}
	if inField {
		fields = append(fields, cur.String())
	}
	return fields, nil
}
