package codec

import (
	"fmt"

	"github.com/yourusername/wavecodec/pkg/pipeline"
	"github.com/yourusername/wavecodec/pkg/wavelog"
	"github.com/yourusername/wavecodec/pkg/wavemetrics"
)

// UpgradeCodecFactory resolves a requested protocol token to the codec
// that handles it, used by ServerUpgradeHandler to pick among multiple
// registered protocols in the client's preference order.
type UpgradeCodecFactory struct {
	codecs map[string]UpgradeCodec
}

// NewUpgradeCodecFactory builds a factory from the given codecs.
func NewUpgradeCodecFactory(codecs ...UpgradeCodec) *UpgradeCodecFactory {
	f := &UpgradeCodecFactory{codecs: make(map[string]UpgradeCodec, len(codecs))}
	for _, c := range codecs {
		f.codecs[c.Protocol()] = c
	}
	return f
}

// Match returns the first registered codec found among protocols, in the
// order the client listed them, plus whether one matched.
func (f *UpgradeCodecFactory) Match(protocols []string) (UpgradeCodec, bool) {
	for _, p := range protocols {
		if c, ok := f.codecs[p]; ok {
			return c, true
		}
	}
	return nil, false
}

// ServerUpgradeHandler is the server side of the upgrade handshake. It
// expects to receive aggregated *FullRequest values (it sits after an
// Aggregator in the inbound chain) and, on a valid upgrade request,
// writes a 101 response and swaps its own HTTP handlers out for the
// negotiated protocol's.
type ServerUpgradeHandler struct {
	pipeline.HandlerAdapter

	factory *UpgradeCodecFactory
	logger  wavelog.Logger

	// RemoveHandlerNames lists the names of the HTTP codec handlers
	// (decoder, aggregator, encoder, this handler) to remove from the
	// pipeline once the upgrade succeeds.
	RemoveHandlerNames []string
}

// NewServerUpgradeHandler constructs a handler that negotiates against
// factory's registered protocols.
func NewServerUpgradeHandler(factory *UpgradeCodecFactory, logger wavelog.Logger) *ServerUpgradeHandler {
	return &ServerUpgradeHandler{factory: factory, logger: logger}
}

// ChannelRead implements the inbound half: negotiate, respond, swap.
func (s *ServerUpgradeHandler) ChannelRead(ctx *pipeline.Context, msg any) error {
	req, ok := msg.(*FullRequest)
	if !ok {
		return ctx.FireChannelRead(msg)
	}

	upgradeHeader, hasUpgrade := req.Headers.Get(HeaderUpgrade)
	if !hasUpgrade {
		return ctx.FireChannelRead(msg)
	}

	protocols := parseUpgradeProtocols(upgradeHeader)
	upgradeCodec, matched := s.factory.Match(protocols)
	if !matched || !connectionListsUpgrade(req.Headers) || !s.hasRequiredHeaders(upgradeCodec, req.Headers) {
		return ctx.FireChannelRead(msg)
	}

	respHeaders := NewHeaders()
	if err := upgradeCodec.PrepareResponseHeaders(req, respHeaders); err != nil {
		s.logger.Warnf("codec: upgrade to %q rejected: %v", upgradeCodec.Protocol(), err)
		return ctx.FireChannelRead(msg)
	}

	resp := NewResponseHead(req.Version, StatusSwitchingProtocols)
	resp.Headers.Set(HeaderConnection, tokenUpgrade)
	resp.Headers.Set(HeaderUpgrade, upgradeCodec.Protocol())
	resp.Headers.SetInt(HeaderContentLength, 0)
	respHeaders.VisitAll(func(name, value string) { resp.Headers.Set(name, value) })

	if err := ctx.WritePrev(resp); err != nil {
		return err
	}
	if err := ctx.WritePrev(EmptyLastContent()); err != nil {
		return err
	}
	if err := ctx.FlushPrev(); err != nil {
		return err
	}

	for _, name := range s.RemoveHandlerNames {
		if ctx.Pipeline().Get(name) != nil {
			if err := ctx.Pipeline().Remove(name); err != nil {
				return err
			}
		}
	}
	for i, h := range upgradeCodec.UpgradeHandlers() {
		if err := ctx.Pipeline().AddLast(upgradeHandlerName(upgradeCodec.Protocol(), i), h); err != nil {
			return err
		}
	}

	wavemetrics.UpgradeOutcomeTotal.WithLabelValues("successful").Inc()
	s.logger.Infof("codec: server upgrade to %q successful", upgradeCodec.Protocol())
	return ctx.FireUserEvent(UpgradeEvent{Protocol: upgradeCodec.Protocol(), Request: req})
}

// upgradeHandlerName assigns a unique pipeline name to the i-th handler a
// codec's UpgradeHandlers() returns. A codec contributing a single handler
// keeps the readable "<protocol>-handler" name; a codec contributing more
// than one is disambiguated by index, since Pipeline.AddLast rejects a
// name already present.
func upgradeHandlerName(protocol string, i int) string {
	if i == 0 {
		return protocol + "-handler"
	}
	return fmt.Sprintf("%s-handler-%d", protocol, i)
}

func (s *ServerUpgradeHandler) hasRequiredHeaders(codec UpgradeCodec, h *Headers) bool {
	for _, name := range codec.RequiredHeaders() {
		if !h.Contains(name) {
			return false
		}
	}
	return true
}
