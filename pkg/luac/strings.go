package luac

import (
	"fmt"
	"strings"
)

// Quote returns s as a double-quoted literal that Unquote accepts.
// Printable ASCII is written as is; everything else is escaped, using the
// short forms where Lua has them and \ddd (decimal) otherwise.
func Quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if c >= 0x20 && c < 0x7F {
				sb.WriteByte(c)
			} else {
				fmt.Fprintf(&sb, `\%03d`, c)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// Unquote parses a double-quoted literal produced by Quote (or written by
// hand) and returns the raw bytes it denotes. Supported escapes are
// \a \b \f \n \r \t \v \\ \" \' , \ddd with up to three decimal digits,
// and \xhh.
func Unquote(lit string) (string, error) {
	if len(lit) < 2 || lit[0] != '"' || lit[len(lit)-1] != '"' {
		return "", fmt.Errorf("expected quoted string, got %s", lit)
	}
	body := lit[1 : len(lit)-1]

	var sb strings.Builder
	sb.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '"' {
			return "", fmt.Errorf("unescaped quote in string %s", lit)
		}
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("unterminated escape in string %s", lit)
		}
		switch e := body[i]; e {
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'v':
			sb.WriteByte('\v')
		case '\\', '"', '\'':
			sb.WriteByte(e)
		case 'x':
			if i+2 >= len(body) {
				return "", fmt.Errorf("short \\x escape in string %s", lit)
			}
			hi, ok1 := hexValue(body[i+1])
			lo, ok2 := hexValue(body[i+2])
			if !ok1 || !ok2 {
				return "", fmt.Errorf("invalid \\x escape in string %s", lit)
			}
			sb.WriteByte(hi<<4 | lo)
			i += 2
		default:
			if !isDecimal(e) {
				return "", fmt.Errorf("invalid escape \\%c in string %s", e, lit)
			}
			v := 0
			j := i
			for j < len(body) && j < i+3 && isDecimal(body[j]) {
				v = v*10 + int(body[j]-'0')
				j++
			}
			if v > 255 {
				return "", fmt.Errorf("escape \\%s too large in string %s", body[i:j], lit)
			}
			sb.WriteByte(byte(v))
			i = j - 1
		}
	}
	return sb.String(), nil
}

func isDecimal(c byte) bool {
	return c >= '0' && c <= '9'
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
