package codec

// Method is an HTTP request method token. The nine standard verbs are
// interned as package-level values; any other token is still a valid
// Method (constructed via Method(s)), just not one of the interned set.
// Comparison is case-sensitive per RFC 7231 §4.1.
type Method string

// Interned standard methods, RFC 7231 §4 + RFC 5789 (PATCH).
const (
	MethodGET     Method = "GET"
	MethodHEAD    Method = "HEAD"
	MethodPOST    Method = "POST"
	MethodPUT     Method = "PUT"
	MethodDELETE  Method = "DELETE"
	MethodCONNECT Method = "CONNECT"
	MethodOPTIONS Method = "OPTIONS"
	MethodTRACE   Method = "TRACE"
	MethodPATCH   Method = "PATCH"
)

// safeMethods and idempotentMethods back Safe/Idempotent; declared as
// lookup sets rather than switch statements since the set rarely changes
// and a map gives an O(1) membership test.
var safeMethods = map[Method]bool{
	MethodGET:     true,
	MethodHEAD:    true,
	MethodOPTIONS: true,
	MethodTRACE:   true,
}

var idempotentMethods = map[Method]bool{
	MethodGET:     true,
	MethodHEAD:    true,
	MethodPUT:     true,
	MethodDELETE:  true,
	MethodOPTIONS: true,
	MethodTRACE:   true,
}

// Safe reports whether the method is defined as safe by RFC 7231 §4.2.1
// (read-only, no observable side effects intended by the client).
func (m Method) Safe() bool { return safeMethods[m] }

// Idempotent reports whether the method is defined as idempotent by
// RFC 7231 §4.2.2.
func (m Method) Idempotent() bool { return idempotentMethods[m] }

// String satisfies fmt.Stringer.
func (m Method) String() string { return string(m) }
