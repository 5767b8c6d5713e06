package codec

import "time"

// Byte classes for the header name/value grammar (RFC 7230 §3.2, §3.2.6).
// Token characters: any visible ASCII character except the separators
// listed in RFC 7230's obs-text-free token definition.
var isTokenChar [256]bool

func init() {
	const separators = "()<>@,;:\\\"/[]?={} \t"
	for c := 0x21; c <= 0x7e; c++ {
		isTokenChar[c] = true
	}
	for i := 0; i < len(separators); i++ {
		isTokenChar[separators[i]] = false
	}
}

// isCR/isLF/isSP/isHT are named for readability at call sites that check
// the folding pattern CR LF (SP|HT).
func isCR(b byte) bool { return b == '\r' }
func isLF(b byte) bool { return b == '\n' }
func isSP(b byte) bool { return b == ' ' }
func isHT(b byte) bool { return b == '\t' }

// validateHeaderName reports whether name satisfies the HTTP token grammar:
// one or more characters, all drawn from the token set, no control
// characters, no separators, no non-ASCII.
func validateHeaderName(name string) bool {
	if len(name) == 0 {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isTokenChar[name[i]] {
			return false
		}
	}
	return true
}

// validateHeaderValue reports whether value satisfies the header-value
// grammar: no NUL/VT/FF, embedded CR/LF only as the folding pattern
// "CR LF (SP|HT)", and the value must not terminate on CR or LF.
func validateHeaderValue(value string) bool {
	n := len(value)
	if n == 0 {
		return true
	}
	if isCR(value[n-1]) || isLF(value[n-1]) {
		return false
	}
	for i := 0; i < n; i++ {
		c := value[i]
		switch c {
		case 0x00, 0x0b, 0x0c:
			return false
		case '\r':
			if i+2 >= n || !isLF(value[i+1]) || !(isSP(value[i+2]) || isHT(value[i+2])) {
				return false
			}
			i += 2
		case '\n':
			return false
		}
	}
	return true
}

// imfFixdateLayout is the RFC 7231 §7.1.1.1 "IMF-fixdate" format, equivalent
// to the Go reference layout below.
const imfFixdateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// formatIMFFixdate formats t as an IMF-fixdate string in GMT, the format
// every Date/Expires/Last-Modified typed setter produces.
func formatIMFFixdate(t time.Time) string {
	return t.UTC().Format(imfFixdateLayout)
}

// parseIMFFixdate parses an IMF-fixdate string, returning an error if it
// does not match. Typed header accessors use this for Date-family fields.
func parseIMFFixdate(s string) (time.Time, error) {
	return time.Parse(imfFixdateLayout, s)
}

// ASCII-fold a header value for outbound serialization: bytes above 0x7e
// or the C0 control range become '?', matching the encoder's "ASCII only"
// serialization rule.
func asciiFold(dst []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c > 0x7e {
			c = '?'
		}
		dst = append(dst, c)
	}
	return dst
}

// isDigit reports whether b is an ASCII decimal digit.
func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// isHexDigit reports whether b is an ASCII hex digit, case-insensitive.
func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
