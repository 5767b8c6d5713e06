package codec

import (
	"bytes"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"

	"github.com/yourusername/wavecodec/pkg/netbuf"
	"github.com/yourusername/wavecodec/pkg/pipeline"
)

// Coding is a supported Content-Encoding/Accept-Encoding token.
type Coding string

const (
	CodingIdentity Coding = "identity"
	CodingGzip     Coding = "gzip"
	CodingDeflate  Coding = "deflate"
	CodingBrotli   Coding = "br"
)

// CompressionFactory returns embedded transform pairs for the supported
// codings, backed by klauspost/compress (gzip, flate) and
// andybalholm/brotli. It satisfies the "compression codec factory"
// collaborator contract named in §6.
type CompressionFactory struct{}

// NewDecompressReader wraps r with a streaming decompressor for coding.
func (CompressionFactory) NewDecompressReader(coding Coding, r io.Reader) (io.ReadCloser, error) {
	switch coding {
	case CodingGzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, wrap(err, "compression: open gzip reader")
		}
		return gr, nil
	case CodingDeflate:
		return flate.NewReader(r), nil
	case CodingBrotli:
		return io.NopCloser(brotli.NewReader(r)), nil
	default:
		return nil, wrapf(ErrUnsupportedEncoding, "coding %q", coding)
	}
}

// NewCompressWriter wraps w with a streaming compressor for coding.
func (CompressionFactory) NewCompressWriter(coding Coding, w io.Writer) (io.WriteCloser, error) {
	switch coding {
	case CodingGzip:
		return gzip.NewWriter(w), nil
	case CodingDeflate:
		return flate.NewWriter(w, flate.DefaultCompression)
	case CodingBrotli:
		return brotli.NewWriter(w), nil
	default:
		return nil, wrapf(ErrUnsupportedEncoding, "coding %q", coding)
	}
}

// qValue pairs a coding token with its parsed q-weight.
type qValue struct {
	token  string
	weight float64
}

// negotiateAcceptEncoding parses an Accept-Encoding header value and
// returns the preferred supported coding, or CodingIdentity if none
// qualifies. Selection is deterministic in input token order and weight;
// ties go to gzip, per the testable-properties invariant. A parse
// failure on a q= weight defaults that token's weight to 0.0, per the
// component design.
func negotiateAcceptEncoding(header string, supported []Coding) Coding {
	if strings.TrimSpace(header) == "" {
		return CodingIdentity
	}

	parsed := make([]qValue, 0, 4)
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		token, params, _ := strings.Cut(part, ";")
		token = strings.ToLower(strings.TrimSpace(token))
		weight := 1.0
		if params != "" {
			for _, p := range strings.Split(params, ";") {
				p = strings.TrimSpace(p)
				if k, v, ok := strings.Cut(p, "="); ok && strings.TrimSpace(k) == "q" {
					w, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
					if err != nil {
						w = 0.0
					}
					weight = w
				}
			}
		}
		parsed = append(parsed, qValue{token: token, weight: weight})
	}

	supportedSet := make(map[string]bool, len(supported))
	for _, c := range supported {
		supportedSet[string(c)] = true
	}

	var wildcardWeight float64 = -1
	best := ""
	bestWeight := 0.0
	for _, qv := range parsed {
		if qv.token == tokenWildcard {
			wildcardWeight = qv.weight
			continue
		}
		if !supportedSet[qv.token] || qv.weight <= 0 {
			continue
		}
		if qv.weight > bestWeight || (qv.weight == bestWeight && preferGzip(qv.token, best)) {
			best = qv.token
			bestWeight = qv.weight
		}
	}

	if best == "" && wildcardWeight > 0 {
		// Honor '*' as a wildcard fallback among the supported codings
		// not explicitly named in the header: gzip if it is one of them,
		// otherwise the first of them in alphabetical order.
		named := make(map[string]bool, len(parsed))
		for _, qv := range parsed {
			named[qv.token] = true
		}
		names := make([]string, 0, len(supported))
		for _, c := range supported {
			names = append(names, string(c))
		}
		sort.Strings(names)
		for _, c := range names {
			if !named[c] && (best == "" || preferGzip(c, best)) {
				best = c
			}
		}
	}

	if best == "" {
		return CodingIdentity
	}
	return Coding(best)
}

func preferGzip(candidate, current string) bool {
	if current == "" {
		return true
	}
	return candidate == string(CodingGzip) && current != string(CodingGzip)
}

// ContentDecompressor is an inbound decorator handler: it inspects
// Content-Encoding on an incoming head and, if it names a supported
// coding, transparently decompresses the Content stream that follows,
// rewriting Content-Length (stripped — correct value known only after
// full decode) and Content-Encoding (set to identity).
type ContentDecompressor struct {
	pipeline.HandlerAdapter

	factory CompressionFactory
	active  bool
	reader  *decompressPipe
}

// decompressPipe feeds incoming compressed chunks to an io.Reader-based
// decompressor via an in-memory staging buffer, since the decoder only
// hands us discrete Content chunks rather than a blocking stream.
type decompressPipe struct {
	staged  bytes.Buffer
	decoder io.ReadCloser
	coding  Coding
	factory CompressionFactory
	opened  bool
}

func (p *decompressPipe) feed(factory CompressionFactory, coding Coding, data []byte) ([]byte, error) {
	p.staged.Write(data)
	if !p.opened {
		r, err := factory.NewDecompressReader(coding, &p.staged)
		if err != nil {
			if coding == CodingGzip {
				// Not enough bytes yet to read the gzip header; wait for more.
				return nil, nil
			}
			return nil, err
		}
		p.decoder = r
		p.opened = true
	}
	out, err := io.ReadAll(p.decoder)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return out, nil
}

// ChannelRead decompresses Content-Encoding-wrapped bodies transparently.
func (d *ContentDecompressor) ChannelRead(ctx *pipeline.Context, msg any) error {
	switch m := msg.(type) {
	case *RequestHead:
		d.onHead(m.Headers)
		return ctx.FireChannelRead(m)
	case *ResponseHead:
		if m.Status.Code == StatusContinue.Code || isBodylessResponse(m.Status.Code) {
			d.active = false
			return ctx.FireChannelRead(m)
		}
		d.onHead(m.Headers)
		return ctx.FireChannelRead(m)
	case *LastContent:
		if !d.active {
			return ctx.FireChannelRead(m)
		}
		out, err := d.reader.feed(d.factory, d.reader.coding, m.Bytes())
		m.Release()
		if err != nil {
			return ctx.FireException(wrap(err, "compression: decompress final chunk"))
		}
		d.active = false
		return ctx.FireChannelRead(NewLastContent(netbuf.NewFrom(out), m.Trailing))
	case *Content:
		if !d.active {
			return ctx.FireChannelRead(m)
		}
		out, err := d.reader.feed(d.factory, d.reader.coding, m.Bytes())
		m.Release()
		if err != nil {
			return ctx.FireException(wrap(err, "compression: decompress chunk"))
		}
		if len(out) == 0 {
			return nil
		}
		return ctx.FireChannelRead(NewContent(netbuf.NewFrom(out)))
	default:
		return ctx.FireChannelRead(msg)
	}
}

func (d *ContentDecompressor) onHead(h *Headers) {
	enc, ok := h.Get(HeaderContentEncoding)
	coding := Coding(strings.ToLower(strings.TrimSpace(enc)))
	if !ok || coding == "" || coding == CodingIdentity || !supportedCoding(coding) {
		d.active = false
		return
	}
	d.active = true
	d.reader = &decompressPipe{coding: coding, factory: d.factory}
	h.Remove(HeaderContentLength)
	h.Set(HeaderContentEncoding, string(CodingIdentity))
}

func supportedCoding(c Coding) bool {
	switch c {
	case CodingGzip, CodingDeflate, CodingBrotli:
		return true
	default:
		return false
	}
}

// ContentCompressor is an outbound decorator handler: given the requested
// Accept-Encoding (set via SetAcceptEncoding, typically from the paired
// inbound request), it compresses an outgoing response's body and forces
// chunked framing, unless the response is a 100-continue, a HEAD
// response, or already carries a non-identity Content-Encoding.
type ContentCompressor struct {
	pipeline.HandlerAdapter

	factory  CompressionFactory
	accepted string

	active bool
	coding Coding
	staged bytes.Buffer
	writer io.WriteCloser
	skip   bool
}

// SetAcceptEncoding records the Accept-Encoding header value of the
// request this compressor's next response answers.
func (c *ContentCompressor) SetAcceptEncoding(header string) { c.accepted = header }

// SetSkipNext marks the next response as never-to-be-compressed (a HEAD
// response), consumed once.
func (c *ContentCompressor) SetSkipNext() { c.skip = true }

// Write implements the outbound half of pipeline.Handler.
func (c *ContentCompressor) Write(ctx *pipeline.Context, msg any) error {
	switch m := msg.(type) {
	case *ResponseHead:
		return c.onHead(ctx, m)
	case *LastContent:
		return c.onLastContent(ctx, m)
	case *Content:
		return c.onContent(ctx, m)
	default:
		return ctx.WritePrev(msg)
	}
}

func (c *ContentCompressor) onHead(ctx *pipeline.Context, head *ResponseHead) error {
	skip := c.skip
	c.skip = false
	c.active = false

	alreadyEncoded := head.Headers.Contains(HeaderContentEncoding) &&
		!strings.EqualFold(head.Headers.GetString(HeaderContentEncoding), string(CodingIdentity))

	if skip || head.Status.Code == StatusContinue.Code || isBodylessResponse(head.Status.Code) || alreadyEncoded {
		return ctx.WritePrev(head)
	}

	coding := negotiateAcceptEncoding(c.accepted, []Coding{CodingGzip, CodingDeflate, CodingBrotli})
	if coding == CodingIdentity {
		return ctx.WritePrev(head)
	}

	w, err := c.factory.NewCompressWriter(coding, &c.staged)
	if err != nil {
		return ctx.WritePrev(head)
	}
	c.active = true
	c.coding = coding
	c.writer = w
	head.Headers.Set(HeaderContentEncoding, string(coding))
	head.Headers.Remove(HeaderContentLength)
	head.Headers.Set(HeaderTransferEncoding, tokenChunked)
	return ctx.WritePrev(head)
}

func (c *ContentCompressor) onContent(ctx *pipeline.Context, content *Content) error {
	if !c.active {
		return ctx.WritePrev(content)
	}
	if _, err := c.writer.Write(content.Bytes()); err != nil {
		return ctx.FireException(wrap(err, "compression: write chunk"))
	}
	content.Release()
	return c.drain(ctx)
}

func (c *ContentCompressor) onLastContent(ctx *pipeline.Context, lc *LastContent) error {
	if !c.active {
		return ctx.WritePrev(lc)
	}
	if lc.Len() > 0 {
		if _, err := c.writer.Write(lc.Bytes()); err != nil {
			return ctx.FireException(wrap(err, "compression: write final chunk"))
		}
	}
	lc.Release()
	if err := c.writer.Close(); err != nil {
		return ctx.FireException(wrap(err, "compression: close compressor"))
	}
	if err := c.drain(ctx); err != nil {
		return err
	}
	c.active = false
	return ctx.WritePrev(NewLastContent(netbuf.New(), lc.Trailing))
}

// drain flushes any compressed bytes the writer has produced so far out
// as a Content chunk.
func (c *ContentCompressor) drain(ctx *pipeline.Context) error {
	if c.staged.Len() == 0 {
		return nil
	}
	out := append([]byte(nil), c.staged.Bytes()...)
	c.staged.Reset()
	return ctx.WritePrev(NewContent(netbuf.NewFrom(out)))
}
