package codec

import (
	"strconv"
	"strings"
)

// encoderState is the outbound encoder's state set.
type encoderState uint8

const (
	stateInit encoderState = iota
	stateContentNonChunk
	stateContentChunk
	stateContentAlwaysEmpty
)

// EncoderKind selects whether an Encoder serializes RequestHead or
// ResponseHead initial lines.
type EncoderKind uint8

const (
	EncodeRequests EncoderKind = iota
	EncodeResponses
)

// Encoder is the outbound state machine: it serializes a stream of
// RequestHead|ResponseHead, *Content, *LastContent values to bytes,
// choosing chunked vs. fixed-length framing from the head it just wrote.
//
// Encoder is not safe for concurrent use.
type Encoder struct {
	kind  EncoderKind
	state encoderState
	// alwaysEmptyOverride is set by MarkNextAlwaysEmpty and consumed by
	// the next head written, forcing CONTENT_ALWAYS_EMPTY for it; beyond
	// that explicit marker, the encoder decides always-empty purely from
	// the message it is given (1xx/204/304 responses).
	alwaysEmptyOverride bool
}

// NewEncoder constructs an Encoder of the given kind.
func NewEncoder(kind EncoderKind) *Encoder {
	return &Encoder{kind: kind}
}

// MarkNextAlwaysEmpty tells the encoder the next head it writes is for a
// response with no body regardless of framing headers (a HEAD response),
// consumed once it is used.
func (e *Encoder) MarkNextAlwaysEmpty() {
	e.alwaysEmptyOverride = true
}

// Encode serializes one message, returning the bytes to write to the
// wire. msg must be *RequestHead, *ResponseHead, *Content, or
// *LastContent, appearing in the order INIT expects: one head, then zero
// or more Content, then exactly one LastContent.
func (e *Encoder) Encode(msg any) ([]byte, error) {
	switch m := msg.(type) {
	case *RequestHead:
		return e.encodeHead(m, nil)
	case *ResponseHead:
		return e.encodeHead(nil, m)
	case *LastContent:
		return e.encodeLastContent(m)
	case *Content:
		return e.encodeContent(m)
	default:
		return nil, wrapf(ErrInvalidInitialLine, "encoder: unsupported message type %T", msg)
	}
}

func (e *Encoder) encodeHead(req *RequestHead, resp *ResponseHead) ([]byte, error) {
	var out []byte
	var headers *Headers
	alwaysEmpty := e.alwaysEmptyOverride
	e.alwaysEmptyOverride = false

	if req != nil {
		out = append(out, []byte(req.Method)...)
		out = append(out, ' ')
		out = append(out, []byte(normalizeRequestTarget(req.URI))...)
		out = append(out, ' ')
		out = append(out, []byte(req.Version.String())...)
		out = append(out, crlf...)
		headers = req.Headers
	} else {
		out = append(out, []byte(resp.Version.String())...)
		out = append(out, ' ')
		out = append(out, []byte(strconv.Itoa(resp.Status.Code))...)
		out = append(out, ' ')
		out = append(out, []byte(resp.Status.Reason)...)
		out = append(out, crlf...)
		headers = resp.Headers
		alwaysEmpty = alwaysEmpty || resp.IsBodyless()
	}

	headers.VisitAll(func(name, value string) {
		out = append(out, []byte(name)...)
		out = append(out, ':', ' ')
		out = asciiFold(out, value)
		out = append(out, crlf...)
	})
	out = append(out, crlf...)

	switch {
	case alwaysEmpty:
		e.state = stateContentAlwaysEmpty
	case headers.ContainsValue(HeaderTransferEncoding, tokenChunked, true):
		e.state = stateContentChunk
	default:
		e.state = stateContentNonChunk
	}
	return out, nil
}

// normalizeRequestTarget ensures a bare path begins with "/" and that an
// absolute-form URL with an empty path segment gains one before any query
// string, per the request initial-line formatting rule. Query strings are
// preserved verbatim.
func normalizeRequestTarget(uri string) string {
	if uri == "" {
		return "/"
	}
	if uri == "*" || strings.HasPrefix(uri, "/") {
		return uri
	}
	if strings.Contains(uri, "://") {
		schemeEnd := strings.Index(uri, "://") + 3
		rest := uri[schemeEnd:]
		pathStart := strings.IndexAny(rest, "/?#")
		if pathStart < 0 {
			return uri + "/"
		}
		if rest[pathStart] != '/' {
			return uri[:schemeEnd+pathStart] + "/" + uri[schemeEnd+pathStart:]
		}
		return uri
	}
	return "/" + uri
}

func (e *Encoder) encodeContent(c *Content) ([]byte, error) {
	switch e.state {
	case stateContentAlwaysEmpty:
		return nil, nil
	case stateContentChunk:
		return encodeChunk(c.Bytes()), nil
	case stateContentNonChunk:
		if c.Len() == 0 {
			return nil, nil
		}
		return append([]byte(nil), c.Bytes()...), nil
	default:
		return nil, wrapf(ErrInvalidInitialLine, "encoder: Content received outside a content state")
	}
}

func (e *Encoder) encodeLastContent(lc *LastContent) ([]byte, error) {
	var out []byte
	switch e.state {
	case stateContentAlwaysEmpty:
		// drop payload silently, still consume the LastContent
	case stateContentChunk:
		if lc.Len() > 0 {
			out = append(out, encodeChunk(lc.Bytes())...)
		}
		out = append(out, []byte(tokenZero)...)
		out = append(out, crlf...)
		lc.Trailing.VisitAll(func(name, value string) {
			out = append(out, []byte(name)...)
			out = append(out, ':', ' ')
			out = asciiFold(out, value)
			out = append(out, crlf...)
		})
		out = append(out, crlf...)
	case stateContentNonChunk:
		if lc.Len() > 0 {
			out = append(out, lc.Bytes()...)
		}
	default:
		return nil, wrapf(ErrInvalidInitialLine, "encoder: LastContent received outside a content state")
	}
	e.state = stateInit
	return out, nil
}

// encodeChunk serializes one chunked-transfer chunk: "hex-size CRLF bytes
// CRLF". An empty chunk encodes to nothing; the terminating zero-chunk is
// written by encodeLastContent instead.
func encodeChunk(payload []byte) []byte {
	if len(payload) == 0 {
		return nil
	}
	out := []byte(strconv.FormatInt(int64(len(payload)), 16))
	out = append(out, crlf...)
	out = append(out, payload...)
	out = append(out, crlf...)
	return out
}

// EncodeHead is a pure function counterpart to the stateful Encoder,
// serializing a single head (request or response, exactly one non-nil)
// and reporting which content state follows it. It lets the combined
// codec and tests drive a single head transition without constructing a
// full Encoder, grounded on the teacher's split between a hot stateful
// path and a cold pure-function path for status-line formatting.
func EncodeHead(req *RequestHead, resp *ResponseHead) ([]byte, encoderState, error) {
	e := &Encoder{}
	out, err := e.encodeHead(req, resp)
	return out, e.state, err
}

// EncodeContent is the pure-function counterpart for a single content
// write, given the content state returned by a prior EncodeHead call.
func EncodeContent(state encoderState, msg any) ([]byte, error) {
	e := &Encoder{state: state}
	switch m := msg.(type) {
	case *LastContent:
		return e.encodeLastContent(m)
	case *Content:
		return e.encodeContent(m)
	default:
		return nil, wrapf(ErrInvalidInitialLine, "EncodeContent: unsupported message type %T", msg)
	}
}
