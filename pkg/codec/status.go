package codec

import "strconv"

// StatusClass is the first digit of a status code's class.
type StatusClass uint8

const (
	StatusClassInformational StatusClass = 1
	StatusClassSuccess       StatusClass = 2
	StatusClassRedirection   StatusClass = 3
	StatusClassClientError   StatusClass = 4
	StatusClassServerError   StatusClass = 5
	StatusClassUnknown       StatusClass = 0
)

// Status is an HTTP status code paired with its reason phrase.
type Status struct {
	Code   int
	Reason string
}

// NewStatus constructs a Status, filling in the IANA reason phrase for
// code if reason is empty.
func NewStatus(code int, reason string) Status {
	if reason == "" {
		reason = StatusText(code)
	}
	return Status{Code: code, Reason: reason}
}

// Class derives the status class from Code/100, per the data model.
func (s Status) Class() StatusClass {
	switch s.Code / 100 {
	case 1:
		return StatusClassInformational
	case 2:
		return StatusClassSuccess
	case 3:
		return StatusClassRedirection
	case 4:
		return StatusClassClientError
	case 5:
		return StatusClassServerError
	default:
		return StatusClassUnknown
	}
}

// String renders "code reason".
func (s Status) String() string {
	return strconv.Itoa(s.Code) + " " + s.Reason
}

// Canonical statuses used directly by the aggregator and upgrade handlers.
var (
	StatusContinue              = NewStatus(100, "")
	StatusSwitchingProtocols    = NewStatus(101, "")
	StatusOK                    = NewStatus(200, "")
	StatusNoContent             = NewStatus(204, "")
	StatusNotModified           = NewStatus(304, "")
	StatusBadRequest            = NewStatus(400, "")
	StatusExpectationFailed     = NewStatus(417, "")
	StatusRequestEntityTooLarge = NewStatus(413, "")
	StatusInternalServerError   = NewStatus(500, "")
)

// reasonPhrases is the IANA HTTP status code registry's reason phrase for
// every status this codec is likely to see on the wire. StatusText falls
// back to "" for anything not listed, matching net/http's StatusText
// contract so callers can apply the same "unknown status" handling.
var reasonPhrases = map[int]string{
	100: "Continue",
	101: "Switching Protocols",
	102: "Processing",
	103: "Early Hints",

	200: "OK",
	201: "Created",
	202: "Accepted",
	203: "Non-Authoritative Information",
	204: "No Content",
	205: "Reset Content",
	206: "Partial Content",
	207: "Multi-Status",
	208: "Already Reported",
	226: "IM Used",

	300: "Multiple Choices",
	301: "Moved Permanently",
	302: "Found",
	303: "See Other",
	304: "Not Modified",
	305: "Use Proxy",
	307: "Temporary Redirect",
	308: "Permanent Redirect",

	400: "Bad Request",
	401: "Unauthorized",
	402: "Payment Required",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	406: "Not Acceptable",
	407: "Proxy Authentication Required",
	408: "Request Timeout",
	409: "Conflict",
	410: "Gone",
	411: "Length Required",
	412: "Precondition Failed",
	413: "Request Entity Too Large",
	414: "Request-URI Too Long",
	415: "Unsupported Media Type",
	416: "Requested Range Not Satisfiable",
	417: "Expectation Failed",
	418: "I'm a Teapot",
	421: "Misdirected Request",
	422: "Unprocessable Entity",
	423: "Locked",
	424: "Failed Dependency",
	425: "Too Early",
	426: "Upgrade Required",
	428: "Precondition Required",
	429: "Too Many Requests",
	431: "Request Header Fields Too Large",
	451: "Unavailable For Legal Reasons",

	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
	505: "HTTP Version Not Supported",
	506: "Variant Also Negotiates",
	507: "Insufficient Storage",
	508: "Loop Detected",
	510: "Not Extended",
	511: "Network Authentication Required",
}

// StatusText returns the IANA reason phrase for code, or "" if unknown.
func StatusText(code int) string {
	return reasonPhrases[code]
}

// isBodylessResponse reports whether a response with this status never
// carries a body, per RFC 7230 §3.3.3: 1xx, 204, and 304.
func isBodylessResponse(code int) bool {
	class := code / 100
	return class == 1 || code == 204 || code == 304
}
