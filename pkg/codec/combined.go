package codec

import (
	"github.com/google/uuid"

	"github.com/yourusername/wavecodec/pkg/netbuf"
	"github.com/yourusername/wavecodec/pkg/pipeline"
	"github.com/yourusername/wavecodec/pkg/wavelog"
	"github.com/yourusername/wavecodec/pkg/wavemetrics"
)

// CombinedKind selects which side of a connection a CombinedCodec
// occupies: the client variant tracks outbound request methods so it can
// tell its decoder when a response will have no body; the server variant
// just pairs a request decoder with a response encoder.
type CombinedKind uint8

const (
	CombinedClient CombinedKind = iota
	CombinedServer
)

// CombinedCodec pairs a Decoder and Encoder as one handler, tagging each
// logical request/response round-trip with a correlation ID threaded
// through its log lines so pipelined reordering bugs are diagnosable from
// logs alone.
type CombinedCodec struct {
	pipeline.HandlerAdapter

	kind    CombinedKind
	decoder *Decoder
	encoder *Encoder
	logger  wavelog.Logger

	// FailOnMissingResponse, when true (client only), causes
	// ChannelInactive to fire ErrPrematureChannelClosure if any outbound request is still
	// awaiting its response.
	FailOnMissingResponse bool

	methodQueue   []Method
	correlationID string
}

// NewCombinedClientCodec constructs a client-side CombinedCodec: its
// decoder parses responses, its encoder serializes requests, and it
// maintains the outbound-method FIFO described in §4.H.
func NewCombinedClientCodec(decCfg DecoderConfig, logger wavelog.Logger) *CombinedCodec {
	c := &CombinedCodec{
		kind:    CombinedClient,
		decoder: NewDecoder(DecodeResponses, decCfg),
		encoder: NewEncoder(EncodeRequests),
		logger:  logger,
	}
	c.decoder.BeforeResponseHead = c.onBeforeResponseHead
	return c
}

// NewCombinedServerCodec constructs a server-side CombinedCodec: its
// decoder parses requests, its encoder serializes responses.
func NewCombinedServerCodec(decCfg DecoderConfig, logger wavelog.Logger) *CombinedCodec {
	return &CombinedCodec{
		kind:    CombinedServer,
		decoder: NewDecoder(DecodeRequests, decCfg),
		encoder: NewEncoder(EncodeResponses),
		logger:  logger,
	}
}

func (c *CombinedCodec) onBeforeResponseHead(status int) bool {
	if len(c.methodQueue) == 0 {
		return false
	}
	method := c.methodQueue[0]
	c.methodQueue = c.methodQueue[1:]
	if method == MethodHEAD {
		return true
	}
	if method == MethodCONNECT && status/100 == 2 {
		// A successful CONNECT response carries no body. The decoder is
		// not switched to UPGRADED here: bytes that follow the response
		// are still decoded as HTTP messages.
		return true
	}
	return false
}

// ChannelRead implements the inbound half: it expects raw bytes
// (*netbuf.Buffer) from the transport and feeds them to the decoder,
// forwarding every decoded message downstream.
func (c *CombinedCodec) ChannelRead(ctx *pipeline.Context, msg any) error {
	buf, ok := msg.(*netbuf.Buffer)
	if !ok {
		return ctx.FireChannelRead(msg)
	}
	data := append([]byte(nil), buf.Bytes()...)
	buf.Release()

	for _, decoded := range c.decoder.Decode(data) {
		if resp, ok := decoded.(*ResponseHead); ok && c.kind == CombinedClient {
			c.correlationID = uuid.NewString()
			c.logger.Infow("codec: response head decoded", "correlation_id", c.correlationID, "status", resp.Status.Code)
		}
		if err := ctx.FireChannelRead(decoded); err != nil {
			return err
		}
	}
	return nil
}

// Write implements the outbound half: for the client variant it enqueues
// the request method before serializing; both variants run the message
// through the encoder and forward the resulting bytes.
func (c *CombinedCodec) Write(ctx *pipeline.Context, msg any) error {
	if req, ok := msg.(*RequestHead); ok && c.kind == CombinedClient {
		c.methodQueue = append(c.methodQueue, req.Method)
		c.correlationID = uuid.NewString()
		c.logger.Infow("codec: request head encoded", "correlation_id", c.correlationID, "method", string(req.Method), "uri", req.URI)
	}
	out, err := c.encoder.Encode(msg)
	if err != nil {
		return err
	}
	if len(out) == 0 {
		return nil
	}
	return ctx.WritePrev(netbuf.NewFrom(out))
}

// ChannelInactive implements the "premature channel closure" detection:
// if the client variant still has outbound requests awaiting a response
// when the channel goes inactive, it fires ErrPrematureChannelClosure.
func (c *CombinedCodec) ChannelInactive(ctx *pipeline.Context) error {
	if emitted := c.decoder.HandleClose(); len(emitted) > 0 {
		for _, m := range emitted {
			if err := ctx.FireChannelRead(m); err != nil {
				return err
			}
		}
	}
	if c.kind == CombinedClient && c.FailOnMissingResponse && len(c.methodQueue) > 0 {
		wavemetrics.PrematureClosureTotal.Inc()
		missing := len(c.methodQueue)
		c.methodQueue = nil
		if err := ctx.FireException(wrapf(ErrPrematureChannelClosure, "%d response(s) still outstanding", missing)); err != nil {
			return err
		}
	}
	return ctx.FireChannelInactive()
}
