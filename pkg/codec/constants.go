// Package codec implements an HTTP/1.x message codec for a handler-chain
// based network transport: a strict header container, an inbound decoder
// and outbound encoder expressed as explicit state machines, an object
// aggregator, content compression, and protocol upgrade negotiation.
//
// The package depends on two external collaborator packages shipped
// alongside it — pkg/netbuf for ref-counted buffers and pkg/pipeline for
// the handler chain — but does not depend on net or net/http: everything
// here operates on byte slices and pkg/netbuf.Buffer, never a socket.
package codec

// CRLF is the line terminator used throughout HTTP/1.x start-lines,
// header lines, and chunk framing.
var crlf = []byte("\r\n")

const (
	// DefaultMaxInitialLineLength bounds the request/status line.
	DefaultMaxInitialLineLength = 4096
	// DefaultMaxHeaderSize bounds the combined length of one header line.
	DefaultMaxHeaderSize = 8192
	// DefaultMaxChunkSize bounds the size of a single emitted Content
	// chunk when reading chunked transfer coding; larger wire chunks are
	// split across multiple Content emissions.
	DefaultMaxChunkSize = 8192
	// DefaultInitialBufferSize sizes the decoder's line accumulator.
	DefaultInitialBufferSize = 128
	// DefaultMaxContentLength bounds the object aggregator's buffered body.
	DefaultMaxContentLength = 2 * 1024 * 1024
)

// Well-known header names, declared once so every package file compares
// against the same string constant rather than a fresh literal.
const (
	HeaderContentLength    = "Content-Length"
	HeaderTransferEncoding = "Transfer-Encoding"
	HeaderTrailer          = "Trailer"
	HeaderConnection       = "Connection"
	HeaderHost             = "Host"
	HeaderUpgrade          = "Upgrade"
	HeaderExpect           = "Expect"
	HeaderContentEncoding  = "Content-Encoding"
	HeaderAcceptEncoding   = "Accept-Encoding"
	HeaderDate             = "Date"
	HeaderLastModified     = "Last-Modified"
	HeaderExpires          = "Expires"
	HeaderIfModifiedSince  = "If-Modified-Since"
)

// Header value tokens compared case-insensitively during framing decisions.
const (
	tokenChunked    = "chunked"
	tokenClose      = "close"
	tokenKeepAlive  = "keep-alive"
	tokenUpgrade    = "upgrade"
	tokenContinue   = "100-continue"
	tokenIdentity   = "identity"
	tokenGzip       = "gzip"
	tokenDeflate    = "deflate"
	tokenBrotli     = "br"
	tokenWildcard   = "*"
	tokenZero       = "0"
	expectContinue  = "100-continue"
	wsProtocolToken = "websocket"
)

// The forbidden trailing-header names are declared as a package-level
// value rather than recomputed per call; the set is small enough that pre-compiling them buys nothing beyond readability at the
// call site, matching the teacher's habit of naming even small constants.
var forbiddenTrailerNames = map[string]bool{
	HeaderContentLength:    true,
	HeaderTransferEncoding: true,
	HeaderTrailer:          true,
}
