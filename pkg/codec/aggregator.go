package codec

import (
	"github.com/yourusername/wavecodec/pkg/netbuf"
	"github.com/yourusername/wavecodec/pkg/pipeline"
	"github.com/yourusername/wavecodec/pkg/wavelog"
	"github.com/yourusername/wavecodec/pkg/wavemetrics"
)

// AggregatorKind selects whether an Aggregator assembles FullRequest or
// FullResponse values.
type AggregatorKind uint8

const (
	AggregateRequests AggregatorKind = iota
	AggregateResponses
)

// AggregatorConfig holds the object aggregator's configuration.
type AggregatorConfig struct {
	MaxContentLength         int64
	CloseOnExpectationFailed bool
}

// DefaultAggregatorConfig returns the package's default aggregator limits.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{MaxContentLength: DefaultMaxContentLength}
}

// ExpectationFailedEvent is fired as a user event when a request's
// Expect: 100-continue could not be satisfied because its declared length
// exceeds max-content-length.
type ExpectationFailedEvent struct {
	Request *RequestHead
}

// Aggregator plugs after a Decoder in the inbound direction: it consumes
// a head, zero or more Content, and a LastContent, and emits a single
// Full* message. It also mediates Expect: 100-continue and oversize-body
// rejection, writing responses outbound through the same pipeline
// Context it received the inbound event on.
type Aggregator struct {
	pipeline.HandlerAdapter

	kind   AggregatorKind
	cfg    AggregatorConfig
	logger wavelog.Logger

	// ResetDecoder, if set, is called after an oversize request is
	// rejected without closing the connection, so the paired Decoder can
	// be returned to SKIP_CONTROL_CHARS for the next pipelined request.
	ResetDecoder func()

	buf       *netbuf.Buffer
	reqHead   *RequestHead
	respHead  *ResponseHead
	oversize  bool
	closeAfter bool
}

// NewAggregator constructs an Aggregator. A zero wavelog.Logger is
// replaced with wavelog.Nop() so callers may omit it.
func NewAggregator(kind AggregatorKind, cfg AggregatorConfig, logger wavelog.Logger) *Aggregator {
	if logger == (wavelog.Logger{}) {
		logger = wavelog.Nop()
	}
	return &Aggregator{kind: kind, cfg: cfg, logger: logger}
}

// ChannelRead implements pipeline.Handler, assembling the accumulation
// state machine described by §4.E.
func (a *Aggregator) ChannelRead(ctx *pipeline.Context, msg any) error {
	switch m := msg.(type) {
	case *RequestHead:
		return a.onRequestHead(ctx, m)
	case *ResponseHead:
		return a.onResponseHead(ctx, m)
	case *LastContent:
		return a.onLastContent(ctx, &m.Content, m.Trailing)
	case *Content:
		return a.onContent(ctx, m)
	default:
		return ctx.FireChannelRead(msg)
	}
}

func (a *Aggregator) resetState() {
	a.buf = nil
	a.reqHead = nil
	a.respHead = nil
	a.oversize = false
	a.closeAfter = false
}

func (a *Aggregator) onRequestHead(ctx *pipeline.Context, head *RequestHead) error {
	a.resetState()
	a.reqHead = head
	a.buf = netbuf.New()

	declared, hasCL, err := declaredContentLength(head.Headers)
	if err != nil {
		return ctx.FireException(err)
	}

	if head.Headers.ContainsValue(HeaderExpect, expectContinue, true) {
		if !hasCL || declared <= a.cfg.MaxContentLength {
			if err := a.writeResponse(ctx, NewResponseHead(head.Version, StatusContinue)); err != nil {
				return err
			}
		} else {
			return a.rejectExpectationFailed(ctx, head)
		}
	}
	if hasCL && declared > a.cfg.MaxContentLength {
		return a.rejectOversizeRequest(ctx)
	}
	return nil
}

func (a *Aggregator) onResponseHead(ctx *pipeline.Context, head *ResponseHead) error {
	a.resetState()
	a.respHead = head
	a.buf = netbuf.New()

	declared, hasCL, err := declaredContentLength(head.Headers)
	if err != nil {
		return ctx.FireException(err)
	}
	if hasCL && declared > a.cfg.MaxContentLength {
		return a.rejectOversizeResponse(ctx)
	}
	return nil
}

func declaredContentLength(h *Headers) (int64, bool, error) {
	if !h.Contains(HeaderContentLength) {
		return 0, false, nil
	}
	n, err := h.GetInt64(HeaderContentLength)
	if err != nil {
		return 0, true, err
	}
	return n, true, nil
}

func (a *Aggregator) onContent(ctx *pipeline.Context, c *Content) error {
	if a.oversize || a.buf == nil {
		c.Release()
		return nil
	}
	a.buf.Write(c.Bytes())
	c.Release()
	if int64(a.buf.Len()) > a.cfg.MaxContentLength {
		if a.kind == AggregateRequests {
			return a.rejectOversizeRequest(ctx)
		}
		return a.rejectOversizeResponse(ctx)
	}
	return nil
}

func (a *Aggregator) onLastContent(ctx *pipeline.Context, c *Content, trailing *Headers) error {
	if a.buf == nil {
		c.Release()
		return nil
	}
	if !a.oversize {
		a.buf.Write(c.Bytes())
	}
	c.Release()

	if a.oversize {
		closeAfter := a.closeAfter
		a.resetState()
		if closeAfter {
			return ctx.ClosePrev()
		}
		if a.ResetDecoder != nil {
			a.ResetDecoder()
		}
		return nil
	}

	buf := a.buf
	wavemetrics.AggregatedMessageBytes.Observe(float64(buf.Len()))

	if a.kind == AggregateRequests {
		full := NewFullRequest(a.reqHead, buf, trailing)
		a.resetState()
		return ctx.FireChannelRead(full)
	}
	full := NewFullResponse(a.respHead, buf, trailing)
	a.resetState()
	return ctx.FireChannelRead(full)
}

func (a *Aggregator) rejectOversizeRequest(ctx *pipeline.Context) error {
	a.oversize = true
	wavemetrics.AggregatorOversizeTotal.WithLabelValues("request").Inc()
	a.logger.Warnf("codec: rejecting oversize request (max-content-length=%d)", a.cfg.MaxContentLength)

	keepAlive := a.reqHead != nil && a.reqHead.KeepAlive()
	alreadyReceiving := a.buf != nil && a.buf.Len() > 0
	a.closeAfter = !keepAlive || alreadyReceiving

	resp := NewResponseHead(HTTP11, StatusRequestEntityTooLarge)
	resp.Headers.SetInt(HeaderContentLength, 0)
	return a.writeResponse(ctx, resp)
}

func (a *Aggregator) rejectOversizeResponse(ctx *pipeline.Context) error {
	a.oversize = true
	wavemetrics.AggregatorOversizeTotal.WithLabelValues("response").Inc()
	a.logger.Warnf("codec: response exceeded max-content-length=%d, closing connection", a.cfg.MaxContentLength)
	if err := ctx.ClosePrev(); err != nil {
		return err
	}
	return ctx.FireException(ErrResponseTooLarge)
}

func (a *Aggregator) rejectExpectationFailed(ctx *pipeline.Context, head *RequestHead) error {
	wavemetrics.AggregatorExpectationFailedTotal.Inc()
	a.logger.Warnf("codec: Expect: 100-continue exceeds max-content-length=%d", a.cfg.MaxContentLength)

	a.oversize = true
	a.closeAfter = a.cfg.CloseOnExpectationFailed

	resp := NewResponseHead(head.Version, StatusExpectationFailed)
	resp.Headers.SetInt(HeaderContentLength, 0)
	if err := a.writeResponse(ctx, resp); err != nil {
		return err
	}
	return ctx.FireUserEvent(ExpectationFailedEvent{Request: head})
}

// writeResponse serializes head (with an empty LastContent body) through
// ctx toward the head of the pipeline, where an Encoder handler is
// expected to turn it into bytes.
func (a *Aggregator) writeResponse(ctx *pipeline.Context, head *ResponseHead) error {
	if err := ctx.WritePrev(head); err != nil {
		return err
	}
	if err := ctx.WritePrev(EmptyLastContent()); err != nil {
		return err
	}
	return ctx.FlushPrev()
}
