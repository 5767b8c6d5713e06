package codec

import (
	"strconv"
	"strings"
)

// Version is an HTTP protocol version: a protocol name plus a major/minor
// pair, with a per-version keep-alive default (HTTP/1.1 defaults to
// keep-alive, HTTP/1.0 does not).
type Version struct {
	protocol        string
	major           int
	minor           int
	keepAliveDefault bool
}

// HTTP/1.0 and HTTP/1.1 are the two canonical constants this codec
// targets; ParseVersion returns other (protocol, major, minor) triples
// too, but they never compare equal to these.
var (
	HTTP10 = Version{protocol: "HTTP", major: 1, minor: 0, keepAliveDefault: false}
	HTTP11 = Version{protocol: "HTTP", major: 1, minor: 1, keepAliveDefault: true}
)

// ParseVersion parses "TOKEN/digits.digits", returning ErrInvalidInitialLine
// if the grammar does not match.
func ParseVersion(s string) (Version, error) {
	proto, rest, ok := strings.Cut(s, "/")
	if !ok || proto == "" {
		return Version{}, wrapf(ErrInvalidInitialLine, "malformed version %q", s)
	}
	majStr, minStr, ok := strings.Cut(rest, ".")
	if !ok {
		return Version{}, wrapf(ErrInvalidInitialLine, "malformed version %q", s)
	}
	major, err := strconv.Atoi(majStr)
	if err != nil || major < 0 {
		return Version{}, wrapf(ErrInvalidInitialLine, "malformed version major %q", s)
	}
	minor, err := strconv.Atoi(minStr)
	if err != nil || minor < 0 {
		return Version{}, wrapf(ErrInvalidInitialLine, "malformed version minor %q", s)
	}
	if strings.EqualFold(proto, "HTTP") {
		if major == 1 && minor == 1 {
			return HTTP11, nil
		}
		if major == 1 && minor == 0 {
			return HTTP10, nil
		}
	}
	return Version{protocol: proto, major: major, minor: minor, keepAliveDefault: major > 1}, nil
}

// String returns the canonical "PROTOCOL/major.minor" form.
func (v Version) String() string {
	return v.protocol + "/" + strconv.Itoa(v.major) + "." + strconv.Itoa(v.minor)
}

// IsKeepAliveDefault reports whether connections using this version
// default to keep-alive absent an explicit Connection header.
func (v Version) IsKeepAliveDefault() bool { return v.keepAliveDefault }

// Major and Minor expose the numeric components.
func (v Version) Major() int { return v.major }
func (v Version) Minor() int { return v.minor }

// Equal compares protocol/major/minor; keepAliveDefault is derived so it
// never needs comparing separately.
func (v Version) Equal(other Version) bool {
	return v.protocol == other.protocol && v.major == other.major && v.minor == other.minor
}
