package fetch

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// UnescapeJava decodes Java string-literal escapes: \b \t \n \f \r \" \' \\,
// octal \0 to \377 and \uXXXX (any number of u's). UTF-16 surrogate pairs are
// joined. A backslash before any other character, or at the end of s, is
// dropped. Malformed \u sequences are kept verbatim.
func UnescapeJava(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '\\' {
			sb.WriteByte(s[i])
			i++
			continue
		}
		if i+1 >= len(s) {
			break
		}

		c := s[i+1]
		switch c {
		case 'b':
			sb.WriteByte('\b')
			i += 2
		case 't':
			sb.WriteByte('\t')
			i += 2
		case 'n':
			sb.WriteByte('\n')
			i += 2
		case 'f':
			sb.WriteByte('\f')
			i += 2
		case 'r':
			sb.WriteByte('\r')
			i += 2
		case '"', '\'', '\\':
			sb.WriteByte(c)
			i += 2
		case 'u':
			r, n, ok := unicodeEscape(s[i:])
			if !ok {
				sb.WriteString(s[i : i+n])
				i += n
				continue
			}
			i += n
			if utf16.IsSurrogate(r) {
				if low, m, ok := unicodeEscape(s[i:]); ok {
					if joined := utf16.DecodeRune(r, low); joined != utf8.RuneError {
						sb.WriteRune(joined)
						i += m
						continue
					}
				}
			}
			sb.WriteRune(r)
		default:
			if c >= '0' && c <= '7' {
				v, n := octalEscape(s[i+1:])
				sb.WriteRune(rune(v))
				i += 1 + n
				continue
			}
			i++
		}
	}
	return sb.String()
}

// unicodeEscape parses \u+XXXX at the start of s and returns the rune and the
// consumed length. When ok is false the returned length covers the backslash
// and u's, which the caller copies through unchanged.
func unicodeEscape(s string) (rune, int, bool) {
	if len(s) < 2 || s[0] != '\\' || s[1] != 'u' {
		return 0, 0, false
	}
	j := 1
	for j < len(s) && s[j] == 'u' {
		j++
	}
	if j+4 > len(s) {
		return 0, j, false
	}
	v, err := strconv.ParseUint(s[j:j+4], 16, 32)
	if err != nil {
		return 0, j, false
	}
	return rune(v), j + 4, true
}

// octalEscape reads up to three octal digits, staying at or below \377.
func octalEscape(s string) (int, int) {
	v, n := 0, 0
	limit := 3
	if s[0] > '3' {
		limit = 2
	}
	for n < limit && n < len(s) && s[n] >= '0' && s[n] <= '7' {
		v = v*8 + int(s[n]-'0')
		n++
	}
	return v, n
}
