package codec

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// Sentinel errors. These are declared with the standard library's
// errors.New, not github.com/pkg/errors, so errors.Is comparisons against
// them remain simple identity checks; context is layered on with
// github.com/pkg/errors.WithMessage at the point a caller needs to add it, per
// the wrapping policy in the package's error-handling notes.
var (
	// ErrInvalidInitialLine indicates a request or status line that could
	// not be split into the required tokens (an over-long line is
	// reported as ErrInitialLineTooLong instead).
	ErrInvalidInitialLine = stderrors.New("codec: invalid initial line")

	// ErrInitialLineTooLong indicates the initial line exceeded the
	// configured max-initial-line-length before a CRLF was found.
	ErrInitialLineTooLong = stderrors.New("codec: initial line too long")

	// ErrHeaderTooLong indicates a single header line exceeded
	// max-header-size.
	ErrHeaderTooLong = stderrors.New("codec: header line too long")

	// ErrInvalidHeaderName indicates a header name failed the token
	// grammar.
	ErrInvalidHeaderName = stderrors.New("codec: invalid header name")

	// ErrInvalidHeaderValue indicates a header value failed the value
	// grammar (embedded NUL/VT/FF, or unterminated CR/LF fold).
	ErrInvalidHeaderValue = stderrors.New("codec: invalid header value")

	// ErrForbiddenTrailerName indicates an attempt to set Content-Length,
	// Transfer-Encoding, or Trailer on a trailing-headers container.
	ErrForbiddenTrailerName = stderrors.New("codec: forbidden trailing header name")

	// ErrInvalidContentLength indicates a non-numeric, negative, or
	// conflicting Content-Length value.
	ErrInvalidContentLength = stderrors.New("codec: invalid Content-Length")

	// ErrContentLengthWithTransferEncoding indicates a message declared
	// both Content-Length and a chunked Transfer-Encoding, the classic
	// CL.TE request-smuggling vector (RFC 7230 §3.3.3).
	ErrContentLengthWithTransferEncoding = stderrors.New("codec: message has both Content-Length and chunked Transfer-Encoding")

	// ErrDuplicateContentLength indicates two differing Content-Length
	// header values on the same message.
	ErrDuplicateContentLength = stderrors.New("codec: duplicate Content-Length headers with different values")

	// ErrInvalidChunkSize indicates a chunk-size line that did not parse
	// as a hexadecimal integer.
	ErrInvalidChunkSize = stderrors.New("codec: invalid chunk size")

	// ErrChunkSizeTooLarge indicates a chunk-size line describing a chunk
	// larger than the decoder is configured to accept in one piece. The
	// decoder does not return it: it honors such a chunk by splitting its
	// emissions at max-chunk-size, and no setting rejects it outright.
	ErrChunkSizeTooLarge = stderrors.New("codec: chunk size exceeds configured maximum")

	// ErrMissingChunkDelimiter indicates a chunk body was not followed by
	// the required trailing CRLF.
	ErrMissingChunkDelimiter = stderrors.New("codec: missing CRLF after chunk data")

	// ErrBadMessage indicates the decoder is in BAD_MESSAGE state and is
	// discarding input until reset.
	ErrBadMessage = stderrors.New("codec: decoder is discarding a malformed message")

	// ErrContentTooLarge indicates the aggregator's max-content-length was
	// exceeded by a request body.
	ErrContentTooLarge = stderrors.New("codec: aggregated content exceeds configured maximum")

	// ErrResponseTooLarge indicates max-content-length was exceeded by a
	// response body on the client side.
	ErrResponseTooLarge = stderrors.New("codec: aggregated response content exceeds configured maximum")

	// ErrPrematureChannelClosure indicates a combined client codec's
	// connection closed while outbound requests were still awaiting a
	// response.
	ErrPrematureChannelClosure = stderrors.New("codec: connection closed with requests still awaiting a response")

	// ErrUpgradePending indicates an outbound write was attempted on a
	// client upgrade handler while a prior upgrade request is still
	// awaiting its response.
	ErrUpgradePending = stderrors.New("codec: write attempted while upgrade handshake is pending")

	// ErrInvalidRefCount indicates Release was called on a buffer whose
	// reference count had already reached zero.
	ErrInvalidRefCount = stderrors.New("codec: buffer released with non-positive reference count")

	// ErrUnsupportedEncoding indicates a Content-Encoding or
	// Accept-Encoding token names a coding this package does not
	// implement.
	ErrUnsupportedEncoding = stderrors.New("codec: unsupported content coding")
)

// wrap attaches call-site context to a sentinel error without losing the
// ability to recover it with errors.Cause/errors.Is.
func wrap(cause error, message string) error {
	return errors.WithMessage(cause, message)
}

// wrapf is wrap with a formatted message.
func wrapf(cause error, format string, args ...any) error {
	return errors.WithMessagef(cause, format, args...)
}
