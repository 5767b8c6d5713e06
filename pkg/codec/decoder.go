package codec

import (
	"strconv"
	"strings"

	"github.com/yourusername/wavecodec/pkg/netbuf"
)

// decoderState is the inbound decoder's state set, exactly as named in
// the component design: SKIP_CONTROL_CHARS through UPGRADED.
type decoderState uint8

const (
	stateSkipControlChars decoderState = iota
	stateReadInitial
	stateReadHeader
	stateReadVariableLengthContent
	stateReadFixedLengthContent
	stateReadChunkSize
	stateReadChunkedContent
	stateReadChunkDelimiter
	stateReadChunkFooter
	stateBadMessage
	stateUpgraded
)

// DecoderKind selects whether a Decoder builds RequestHead or ResponseHead
// messages from the initial line.
type DecoderKind uint8

const (
	DecodeRequests DecoderKind = iota
	DecodeResponses
)

// DecoderConfig holds the decoder's configurable limits, mirroring the
// Configuration section of the external interfaces: max-initial-line-length,
// max-header-size, max-chunk-size, validate-headers, initial-buffer-size.
type DecoderConfig struct {
	MaxInitialLineLength int
	MaxHeaderSize        int
	MaxChunkSize         int
	InitialBufferSize    int
	ValidateHeaders      bool
}

// DefaultDecoderConfig returns the package's default limits.
func DefaultDecoderConfig() DecoderConfig {
	return DecoderConfig{
		MaxInitialLineLength: DefaultMaxInitialLineLength,
		MaxHeaderSize:        DefaultMaxHeaderSize,
		MaxChunkSize:         DefaultMaxChunkSize,
		InitialBufferSize:    DefaultInitialBufferSize,
		ValidateHeaders:      true,
	}
}

// Decoder is a resumable byte-stream parser: Decode appends to an internal
// accumulator and returns every message the new bytes complete. State
// survives across calls; not finishing a message in one call is normal.
//
// Decoder is not safe for concurrent use; one Decoder serves one
// connection direction, matching the single-threaded-per-connection
// model in the concurrency design.
type Decoder struct {
	kind  DecoderKind
	cfg   DecoderConfig
	state decoderState

	acc []byte
	pos int

	curReqHead  *RequestHead
	curRespHead *ResponseHead

	contentRemaining int64
	chunkRemaining   int64
	trailing         *Headers

	// nextResponseBodyless is consumed once by the response decoder to
	// mark a response as bodyless regardless of Content-Length, for the
	// HEAD-response and CONNECT-2xx cases the combined codec (§4.H)
	// tracks via its outbound-method FIFO.
	nextResponseBodyless bool

	// BeforeResponseHead, if set, is called exactly once per response as
	// its header block completes, before framing is decided, with that
	// response's status code; returning true forces the response
	// bodyless. The combined client codec uses this to consult its
	// outbound-method FIFO (HEAD, 2xx CONNECT) without a race against
	// multiple responses decoded in one call.
	BeforeResponseHead func(status int) (forceBodyless bool)
}

// NewDecoder constructs a Decoder of the given kind with cfg.
func NewDecoder(kind DecoderKind, cfg DecoderConfig) *Decoder {
	return &Decoder{
		kind: kind,
		cfg:  cfg,
		acc:  make([]byte, 0, cfg.InitialBufferSize),
	}
}

// SetNextResponseBodyless marks the next ResponseHead this decoder
// completes as carrying no body, overriding Content-Length/chunked
// framing. The flag is consumed (reset to false) once used.
func (d *Decoder) SetNextResponseBodyless() {
	d.nextResponseBodyless = true
}

// state_ returns the decoder's current state, primarily for tests asserting
// on transition behavior.
func (d *Decoder) state_() decoderState { return d.state }

// Reset returns the decoder to SKIP_CONTROL_CHARS without discarding
// unread bytes, for the aggregator to call after rejecting an oversize
// request and expecting a new one on the same connection.
func (d *Decoder) Reset() {
	d.state = stateSkipControlChars
	d.curReqHead = nil
	d.curRespHead = nil
	d.contentRemaining = 0
	d.chunkRemaining = 0
	d.trailing = nil
}

// Decode appends data to the internal accumulator and parses as far as
// possible, returning every message completed or partially emitted as a
// result. Emitted values are one of *RequestHead, *ResponseHead, *Content,
// *LastContent. No error is ever returned for malformed wire input: a
// decode failure is attached to the relevant message's DecodeResult and
// the decoder enters BAD_MESSAGE, per the package's failure semantics.
func (d *Decoder) Decode(data []byte) []any {
	d.acc = append(d.acc, data...)
	var out []any
	for {
		emitted, progressed := d.step()
		out = append(out, emitted...)
		if !progressed {
			break
		}
	}
	d.compact()
	return out
}

// HandleClose notifies the decoder that the connection has become
// inactive, letting READ_VARIABLE_LENGTH_CONTENT terminate with a final
// LastContent.
func (d *Decoder) HandleClose() []any {
	if d.state == stateReadVariableLengthContent {
		var out []any
		if d.pos < len(d.acc) {
			out = append(out, NewContent(netbuf.NewFrom(d.acc[d.pos:])))
			d.pos = len(d.acc)
		}
		out = append(out, EmptyLastContent())
		d.state = stateSkipControlChars
		d.compact()
		return out
	}
	return nil
}

func (d *Decoder) compact() {
	if d.pos == 0 {
		return
	}
	n := copy(d.acc, d.acc[d.pos:])
	d.acc = d.acc[:n]
	d.pos = 0
}

func (d *Decoder) remaining() []byte { return d.acc[d.pos:] }

// step attempts one transition in the current state. It reports the
// messages produced (if any) and whether it made progress; the Decode
// loop stops once a step makes no progress, meaning more bytes are needed.
func (d *Decoder) step() ([]any, bool) {
	switch d.state {
	case stateSkipControlChars:
		return d.stepSkipControlChars()
	case stateReadInitial:
		return d.stepReadInitial()
	case stateReadHeader:
		return d.stepReadHeader()
	case stateReadVariableLengthContent:
		return d.stepReadVariableLengthContent()
	case stateReadFixedLengthContent:
		return d.stepReadFixedLengthContent()
	case stateReadChunkSize:
		return d.stepReadChunkSize()
	case stateReadChunkedContent:
		return d.stepReadChunkedContent()
	case stateReadChunkDelimiter:
		return d.stepReadChunkDelimiter()
	case stateReadChunkFooter:
		return d.stepReadChunkFooter()
	case stateBadMessage:
		d.pos = len(d.acc)
		return nil, false
	case stateUpgraded:
		return d.stepUpgraded()
	}
	return nil, false
}

func (d *Decoder) stepSkipControlChars() ([]any, bool) {
	buf := d.remaining()
	i := 0
	for i < len(buf) {
		c := buf[i]
		if isCR(c) || isLF(c) || isSP(c) || isHT(c) {
			i++
			continue
		}
		break
	}
	if i == 0 {
		if len(buf) == 0 {
			return nil, false
		}
		d.state = stateReadInitial
		return nil, true
	}
	d.pos += i
	d.state = stateReadInitial
	return nil, true
}

// findLine locates the next line terminator (CRLF or bare LF) in
// d.remaining(), returning the line content (without terminator), the
// total byte length including the terminator, and whether one was found.
func findLine(buf []byte) (line []byte, total int, ok bool) {
	for i := 0; i < len(buf); i++ {
		if buf[i] == '\n' {
			end := i
			if end > 0 && buf[end-1] == '\r' {
				end--
			}
			return buf[:end], i + 1, true
		}
	}
	return nil, 0, false
}

func (d *Decoder) stepReadInitial() ([]any, bool) {
	buf := d.remaining()
	line, total, ok := findLine(buf)
	if !ok {
		if len(buf) > d.cfg.MaxInitialLineLength {
			return d.failInitialLine(len(buf))
		}
		return nil, false
	}
	if len(line) > d.cfg.MaxInitialLineLength {
		return d.failInitialLine(total)
	}
	d.pos += total
	return d.parseInitialLine(string(line))
}

func (d *Decoder) failInitialLine(consume int) ([]any, bool) {
	d.pos += consume
	d.state = stateBadMessage
	if d.kind == DecodeRequests {
		h := &RequestHead{Headers: NewPermissiveHeaders(), Result: DecodeFailure(ErrInitialLineTooLong)}
		return []any{h}, true
	}
	h := &ResponseHead{Headers: NewPermissiveHeaders(), Result: DecodeFailure(ErrInitialLineTooLong)}
	return []any{h}, true
}

func (d *Decoder) parseInitialLine(line string) ([]any, bool) {
	if d.kind == DecodeRequests {
		parts := strings.SplitN(line, " ", 3)
		if len(parts) != 3 {
			d.state = stateBadMessage
			h := &RequestHead{Headers: NewPermissiveHeaders(), Result: DecodeFailure(wrapf(ErrInvalidInitialLine, "request line %q", line))}
			return []any{h}, true
		}
		version, err := ParseVersion(parts[2])
		if err != nil {
			d.state = stateBadMessage
			h := &RequestHead{Headers: NewPermissiveHeaders(), Result: DecodeFailure(err)}
			return []any{h}, true
		}
		d.curReqHead = &RequestHead{
			Method:  Method(parts[0]),
			URI:     parts[1],
			Version: version,
			Headers: d.newHeaderContainer(),
			Result:  decodeSuccess,
		}
		d.state = stateReadHeader
		return nil, true
	}

	// Response: allow three-or-more tokens; the reason phrase may itself
	// contain spaces or be empty.
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		d.state = stateBadMessage
		h := &ResponseHead{Headers: NewPermissiveHeaders(), Result: DecodeFailure(wrapf(ErrInvalidInitialLine, "status line %q", line))}
		return []any{h}, true
	}
	version, err := ParseVersion(parts[0])
	if err != nil {
		d.state = stateBadMessage
		h := &ResponseHead{Headers: NewPermissiveHeaders(), Result: DecodeFailure(err)}
		return []any{h}, true
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil {
		d.state = stateBadMessage
		h := &ResponseHead{Headers: NewPermissiveHeaders(), Result: DecodeFailure(wrapf(ErrInvalidInitialLine, "status code %q", parts[1]))}
		return []any{h}, true
	}
	reason := ""
	if len(parts) == 3 {
		reason = parts[2]
	}
	d.curRespHead = &ResponseHead{
		Version: version,
		Status:  NewStatus(code, reason),
		Headers: d.newHeaderContainer(),
		Result:  decodeSuccess,
	}
	d.state = stateReadHeader
	return nil, true
}

func (d *Decoder) newHeaderContainer() *Headers {
	if d.cfg.ValidateHeaders {
		return NewHeaders()
	}
	return NewPermissiveHeaders()
}

func (d *Decoder) currentHeaders() *Headers {
	if d.kind == DecodeRequests {
		return d.curReqHead.Headers
	}
	return d.curRespHead.Headers
}

func (d *Decoder) stepReadHeader() ([]any, bool) {
	buf := d.remaining()
	line, total, ok := findLine(buf)
	if !ok {
		if len(buf) > d.cfg.MaxHeaderSize {
			return d.failHeader(len(buf))
		}
		return nil, false
	}
	if len(line) > d.cfg.MaxHeaderSize {
		return d.failHeader(total)
	}
	d.pos += total

	if len(line) == 0 {
		return d.finishHeaders()
	}

	if isSP(line[0]) || isHT(line[0]) {
		// Obsolete line folding: append to the previous header's value
		// with one SP, per RFC 7230 §3.2.4.
		d.appendContinuation(strings.TrimSpace(string(line)))
		return nil, true
	}

	name, value, ok := strings.Cut(string(line), ":")
	if !ok {
		return d.failHeaderGrammar(wrapf(ErrInvalidHeaderName, "header line %q missing colon", line))
	}
	value = strings.TrimSpace(value)
	if err := d.currentHeaders().Add(name, value); err != nil {
		return d.failHeaderGrammar(err)
	}
	return nil, true
}

func (d *Decoder) appendContinuation(cont string) {
	h := d.currentHeaders()
	if n := len(h.entries); n > 0 {
		h.entries[n-1].value = h.entries[n-1].value + " " + cont
	}
}

func (d *Decoder) failHeader(consume int) ([]any, bool) {
	d.pos += consume
	return d.failHeaderGrammar(ErrHeaderTooLong)
}

func (d *Decoder) failHeaderGrammar(cause error) ([]any, bool) {
	d.state = stateBadMessage
	if d.kind == DecodeRequests {
		d.curReqHead.Result = DecodeFailure(cause)
		h := d.curReqHead
		d.curReqHead = nil
		return []any{h}, true
	}
	d.curRespHead.Result = DecodeFailure(cause)
	h := d.curRespHead
	d.curRespHead = nil
	return []any{h}, true
}

// finishHeaders runs at the end-of-headers blank line: validates framing,
// emits the head, and decides the next state.
func (d *Decoder) finishHeaders() ([]any, bool) {
	headers := d.currentHeaders()

	clValues := headers.GetAll(HeaderContentLength)
	distinctCL := map[string]bool{}
	for _, v := range clValues {
		distinctCL[strings.TrimSpace(v)] = true
	}
	if len(distinctCL) > 1 {
		return d.failHeaderGrammar(ErrDuplicateContentLength)
	}

	teValue, hasTE := headers.Get(HeaderTransferEncoding)
	chunked := hasTE && isChunkedTerminal(teValue)

	hasCL := len(distinctCL) == 1
	var contentLength int64
	if hasCL {
		n, err := strconv.ParseInt(strings.TrimSpace(clValues[0]), 10, 64)
		if err != nil || n < 0 {
			return d.failHeaderGrammar(ErrInvalidContentLength)
		}
		contentLength = n
	}

	if chunked && hasCL {
		return d.failHeaderGrammar(ErrContentLengthWithTransferEncoding)
	}
	if chunked {
		// Stripping Content-Length when chunked wins is moot here since
		// hasCL+chunked already failed above; RFC 7230 §3.3.3 additionally
		// asks implementations to strip a *non-conflicting* duplicate
		// Content-Length sent alongside chunked — already excluded by the
		// single-value dedup above.
		headers.Remove(HeaderContentLength)
	}

	if d.kind == DecodeRequests {
		return d.finishRequestHeaders(chunked, hasCL, contentLength)
	}
	return d.finishResponseHeaders(chunked, hasCL, contentLength)
}

func isChunkedTerminal(teValue string) bool {
	tokens := strings.Split(teValue, ",")
	if len(tokens) == 0 {
		return false
	}
	last := strings.TrimSpace(tokens[len(tokens)-1])
	return strings.EqualFold(last, tokenChunked)
}

func (d *Decoder) finishRequestHeaders(chunked, hasCL bool, contentLength int64) ([]any, bool) {
	head := d.curReqHead
	d.curReqHead = nil

	bodyless := !chunked && (!hasCL || contentLength == 0)
	if bodyless {
		d.state = stateSkipControlChars
		return []any{head, EmptyLastContent()}, true
	}
	if chunked {
		d.state = stateReadChunkSize
		return []any{head}, true
	}
	d.state = stateReadFixedLengthContent
	d.contentRemaining = contentLength
	return []any{head}, true
}

func (d *Decoder) finishResponseHeaders(chunked, hasCL bool, contentLength int64) ([]any, bool) {
	head := d.curRespHead
	d.curRespHead = nil

	forcedBodyless := d.nextResponseBodyless
	d.nextResponseBodyless = false
	if d.BeforeResponseHead != nil {
		forcedBodyless = forcedBodyless || d.BeforeResponseHead(head.Status.Code)
	}

	bodyless := forcedBodyless || head.IsBodyless()
	if bodyless {
		d.state = stateSkipControlChars
		return []any{head, EmptyLastContent()}, true
	}
	if chunked {
		d.state = stateReadChunkSize
		return []any{head}, true
	}
	if hasCL {
		d.state = stateReadFixedLengthContent
		d.contentRemaining = contentLength
		return []any{head}, true
	}
	d.state = stateReadVariableLengthContent
	return []any{head}, true
}

func (d *Decoder) stepReadFixedLengthContent() ([]any, bool) {
	if d.contentRemaining == 0 {
		d.state = stateSkipControlChars
		return []any{EmptyLastContent()}, true
	}
	buf := d.remaining()
	if len(buf) == 0 {
		return nil, false
	}
	n := int64(len(buf))
	if n > d.contentRemaining {
		n = d.contentRemaining
	}
	chunk := buf[:n]
	d.pos += int(n)
	d.contentRemaining -= n
	out := []any{NewContent(netbuf.NewFrom(chunk))}
	if d.contentRemaining == 0 {
		d.state = stateSkipControlChars
		out = append(out, EmptyLastContent())
	}
	return out, true
}

func (d *Decoder) stepReadVariableLengthContent() ([]any, bool) {
	buf := d.remaining()
	if len(buf) == 0 {
		return nil, false
	}
	d.pos += len(buf)
	return []any{NewContent(netbuf.NewFrom(buf))}, true
}

func (d *Decoder) stepReadChunkSize() ([]any, bool) {
	buf := d.remaining()
	line, total, ok := findLine(buf)
	if !ok {
		return nil, false
	}
	d.pos += total
	sizeStr := string(line)
	if idx := strings.IndexByte(sizeStr, ';'); idx >= 0 {
		// Chunk-extension: ignored per the spec's stated default.
		sizeStr = sizeStr[:idx]
	}
	sizeStr = strings.TrimSpace(sizeStr)
	if sizeStr == "" {
		return d.failHeaderGrammar(ErrInvalidChunkSize)
	}
	size, err := strconv.ParseInt(sizeStr, 16, 64)
	if err != nil || size < 0 {
		return d.failHeaderGrammar(ErrInvalidChunkSize)
	}
	if size == 0 {
		d.state = stateReadChunkFooter
		return nil, true
	}
	d.chunkRemaining = size
	d.state = stateReadChunkedContent
	return nil, true
}

func (d *Decoder) stepReadChunkedContent() ([]any, bool) {
	buf := d.remaining()
	if len(buf) == 0 {
		return nil, false
	}
	max := int64(d.cfg.MaxChunkSize)
	n := int64(len(buf))
	if n > d.chunkRemaining {
		n = d.chunkRemaining
	}
	if max > 0 && n > max {
		n = max
	}
	chunk := buf[:n]
	d.pos += int(n)
	d.chunkRemaining -= n
	out := []any{NewContent(netbuf.NewFrom(chunk))}
	if d.chunkRemaining == 0 {
		d.state = stateReadChunkDelimiter
	}
	return out, true
}

func (d *Decoder) stepReadChunkDelimiter() ([]any, bool) {
	buf := d.remaining()
	line, total, ok := findLine(buf)
	if !ok {
		if len(buf) > 2 {
			return d.failHeaderGrammar(ErrMissingChunkDelimiter)
		}
		return nil, false
	}
	if len(line) != 0 {
		return d.failHeaderGrammar(ErrMissingChunkDelimiter)
	}
	d.pos += total
	d.state = stateReadChunkSize
	return nil, true
}

func (d *Decoder) stepReadChunkFooter() ([]any, bool) {
	if d.trailing == nil {
		d.trailing = NewPermissiveHeaders()
	}
	buf := d.remaining()
	line, total, ok := findLine(buf)
	if !ok {
		if len(buf) > d.cfg.MaxHeaderSize {
			return d.failHeaderGrammar(ErrHeaderTooLong)
		}
		return nil, false
	}
	d.pos += total

	if len(line) == 0 {
		trailing := d.trailing
		d.trailing = nil
		d.state = stateSkipControlChars
		if trailing.Len() == 0 {
			return []any{EmptyLastContent()}, true
		}
		return []any{NewLastContent(netbuf.New(), trailing)}, true
	}

	if isSP(line[0]) || isHT(line[0]) {
		if n := len(d.trailing.entries); n > 0 {
			d.trailing.entries[n-1].value = d.trailing.entries[n-1].value + " " + strings.TrimSpace(string(line))
		}
		return nil, true
	}

	name, value, ok := strings.Cut(string(line), ":")
	if !ok {
		return d.failHeaderGrammar(wrapf(ErrInvalidHeaderName, "trailer line %q missing colon", line))
	}
	value = strings.TrimSpace(value)
	if forbiddenTrailerNames[canonicalTrailerName(name)] {
		// Trailing headers filter these names rather than rejecting the
		// message: RFC 7230 §4.1.2 forbids a trailer from re-declaring
		// framing headers, so they are silently dropped.
		return nil, true
	}
	d.trailing.entries = append(d.trailing.entries, entry{name: name, value: value})
	return nil, true
}

func (d *Decoder) stepUpgraded() ([]any, bool) {
	buf := d.remaining()
	if len(buf) == 0 {
		return nil, false
	}
	d.pos += len(buf)
	return []any{NewContent(netbuf.NewFrom(buf))}, true
}

// Upgrade transitions the decoder to UPGRADED: remaining and all future
// bytes pass through unchanged. Used after a successful CONNECT 2xx or
// protocol-switch handshake.
func (d *Decoder) Upgrade() {
	d.state = stateUpgraded
}
