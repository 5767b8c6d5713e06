package codec

import "github.com/yourusername/wavecodec/pkg/netbuf"

// DecodeResult is carried on every message the decoder emits: either
// success, or a failure with the cause that set it. Downstream stages may
// still choose to propagate a failed message rather than drop it.
type DecodeResult struct {
	cause error
}

// decodeSuccess is the zero DecodeResult.
var decodeSuccess = DecodeResult{}

// DecodeFailure wraps cause into a failed DecodeResult.
func DecodeFailure(cause error) DecodeResult { return DecodeResult{cause: cause} }

// Success reports whether decoding succeeded.
func (r DecodeResult) Success() bool { return r.cause == nil }

// Cause returns the failure cause, or nil on success.
func (r DecodeResult) Cause() error { return r.cause }

// RequestHead is the head of an HTTP request: method, request-target URI,
// protocol version, and headers.
type RequestHead struct {
	Version Version
	Method  Method
	URI     string
	Headers *Headers
	Result  DecodeResult
}

// NewRequestHead constructs a RequestHead with validating headers and a
// successful DecodeResult.
func NewRequestHead(method Method, uri string, version Version) *RequestHead {
	return &RequestHead{Method: method, URI: uri, Version: version, Headers: NewHeaders(), Result: decodeSuccess}
}

// KeepAlive reports whether the connection should persist after this
// message, honoring an explicit Connection header over the version
// default, per the [FULL] supplemental rule pulled from the decoder spec.
func (h *RequestHead) KeepAlive() bool {
	return headersKeepAlive(h.Headers, h.Version)
}

// ResponseHead is the head of an HTTP response: protocol version, status,
// and headers.
type ResponseHead struct {
	Version Version
	Status  Status
	Headers *Headers
	Result  DecodeResult
}

// NewResponseHead constructs a ResponseHead with validating headers and a
// successful DecodeResult.
func NewResponseHead(version Version, status Status) *ResponseHead {
	return &ResponseHead{Version: version, Status: status, Headers: NewHeaders(), Result: decodeSuccess}
}

// KeepAlive reports whether the connection should persist after this
// response, honoring an explicit Connection header over the version
// default.
func (h *ResponseHead) KeepAlive() bool {
	return headersKeepAlive(h.Headers, h.Version)
}

// IsBodyless reports whether a response with this head never carries a
// body (1xx/204/304; HEAD and CONNECT 2xx are request-context-dependent
// and handled by the caller, which knows the paired request method).
func (h *ResponseHead) IsBodyless() bool {
	return isBodylessResponse(h.Status.Code)
}

func headersKeepAlive(h *Headers, v Version) bool {
	if h.ContainsValue(HeaderConnection, tokenClose, true) {
		return false
	}
	if h.ContainsValue(HeaderConnection, tokenKeepAlive, true) {
		return true
	}
	return v.IsKeepAliveDefault()
}

// Content is one chunk of a message body, backed by a ref-counted buffer.
// copy/duplicate/retainedDuplicate/retain/release/touch all delegate to
// the buffer's own ref-counting (pkg/netbuf.Buffer), per the message
// type's polymorphic buffer operations.
type Content struct {
	buf *netbuf.Buffer
}

// NewContent wraps buf (which must already carry a reference this Content
// now owns) as a Content chunk.
func NewContent(buf *netbuf.Buffer) *Content { return &Content{buf: buf} }

// Bytes returns the chunk's unread payload.
func (c *Content) Bytes() []byte { return c.buf.Bytes() }

// Len returns the chunk's unread payload length.
func (c *Content) Len() int { return c.buf.Len() }

// Copy deep-copies the payload into a new Content with a fresh buffer.
func (c *Content) Copy() *Content { return &Content{buf: c.buf.Copy()} }

// Duplicate returns an aliasing view sharing the underlying buffer and its
// reference count.
func (c *Content) Duplicate() *Content { return &Content{buf: c.buf.Duplicate()} }

// RetainedDuplicate is Duplicate plus an increment of the shared count.
func (c *Content) RetainedDuplicate() *Content { return &Content{buf: c.buf.RetainedDuplicate()} }

// ReplaceContent returns a new Content wrapping buf in place of the
// receiver's current payload.
func (c *Content) ReplaceContent(buf *netbuf.Buffer) *Content { return &Content{buf: buf} }

// Retain increments the reference count and returns the receiver.
func (c *Content) Retain() *Content { c.buf.Retain(); return c }

// Release decrements the reference count, returning storage to the
// allocator at zero. It reports whether this call released storage.
func (c *Content) Release() bool { return c.buf.Release() }

// Touch is a debugging hook for leak tracing; see pkg/netbuf.Buffer.Touch.
func (c *Content) Touch(hint string) *Content { c.buf.Touch(hint); return c }

// LastContent is the terminating chunk of a message: it may carry a final
// (possibly empty) payload and always carries a trailing-headers
// container, defaulting to the shared EmptyHeaders singleton.
type LastContent struct {
	Content
	Trailing *Headers
}

// EmptyLastContent returns a LastContent with an empty buffer and the
// shared EmptyHeaders trailing-header set — the sentinel most bodyless
// messages and chunk terminators emit.
func EmptyLastContent() *LastContent {
	return &LastContent{Content: Content{buf: netbuf.New()}, Trailing: EmptyHeaders()}
}

// NewLastContent wraps buf with the given trailing headers.
func NewLastContent(buf *netbuf.Buffer, trailing *Headers) *LastContent {
	if trailing == nil {
		trailing = EmptyHeaders()
	}
	return &LastContent{Content: Content{buf: buf}, Trailing: trailing}
}

// FullRequest is a RequestHead plus one content buffer plus trailing
// headers, atomically reference-counted through its single buffer.
type FullRequest struct {
	*RequestHead
	content  *Content
	Trailing *Headers
}

// NewFullRequest assembles a FullRequest, defaulting Content-Length to the
// buffer's size if the head did not already declare one, per data model
// invariant 4.
func NewFullRequest(head *RequestHead, buf *netbuf.Buffer, trailing *Headers) *FullRequest {
	if trailing == nil {
		trailing = EmptyHeaders()
	}
	if !head.Headers.Contains(HeaderContentLength) {
		head.Headers.SetInt(HeaderContentLength, buf.Len())
	}
	return &FullRequest{RequestHead: head, content: &Content{buf: buf}, Trailing: trailing}
}

// Body returns the request's buffered body.
func (f *FullRequest) Body() *Content { return f.content }

// Release releases the underlying buffer.
func (f *FullRequest) Release() bool { return f.content.Release() }

// FullResponse is a ResponseHead plus one content buffer plus trailing
// headers.
type FullResponse struct {
	*ResponseHead
	content  *Content
	Trailing *Headers
}

// NewFullResponse assembles a FullResponse, defaulting Content-Length to
// the buffer's size if the head did not already declare one.
func NewFullResponse(head *ResponseHead, buf *netbuf.Buffer, trailing *Headers) *FullResponse {
	if trailing == nil {
		trailing = EmptyHeaders()
	}
	if !head.Headers.Contains(HeaderContentLength) {
		head.Headers.SetInt(HeaderContentLength, buf.Len())
	}
	return &FullResponse{ResponseHead: head, content: &Content{buf: buf}, Trailing: trailing}
}

// Body returns the response's buffered body.
func (f *FullResponse) Body() *Content { return f.content }

// Release releases the underlying buffer.
func (f *FullResponse) Release() bool { return f.content.Release() }
