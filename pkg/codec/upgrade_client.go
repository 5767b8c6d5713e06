package codec

import (
	"strings"

	"github.com/yourusername/wavecodec/pkg/pipeline"
	"github.com/yourusername/wavecodec/pkg/wavelog"
	"github.com/yourusername/wavecodec/pkg/wavemetrics"
)

// ClientUpgradeHandler is the client side of the upgrade handshake: on
// the first outbound RequestHead it rewrites the request to ask for a
// protocol switch, then inspects the next aggregated response (it must
// sit after an Aggregator in the inbound chain) to see whether the
// server accepted.
type ClientUpgradeHandler struct {
	pipeline.HandlerAdapter

	codec  UpgradeCodec
	logger wavelog.Logger

	pending bool

	// RemoveHandlerNames lists the names of the HTTP codec handlers
	// (decoder, aggregator, encoder) to remove from the pipeline once
	// the upgrade succeeds, mirroring ServerUpgradeHandler's field of
	// the same name. This handler always removes itself in addition.
	RemoveHandlerNames []string
}

// NewClientUpgradeHandler constructs a handler that will request codec's
// protocol on the next outbound request it sees.
func NewClientUpgradeHandler(codec UpgradeCodec, logger wavelog.Logger) *ClientUpgradeHandler {
	return &ClientUpgradeHandler{codec: codec, logger: logger}
}

// Write implements the outbound half: it issues the upgrade request once,
// then fails fast on any further outbound write (head or otherwise) while
// the handshake is pending, per the "write while upgrade pending"
// error-handling row.
func (c *ClientUpgradeHandler) Write(ctx *pipeline.Context, msg any) error {
	head, ok := msg.(*RequestHead)
	if !ok {
		if c.pending {
			return wrap(ErrUpgradePending, "codec: non-head write while upgrade pending")
		}
		return ctx.WritePrev(msg)
	}
	if c.pending {
		return wrap(ErrUpgradePending, "codec: second upgrade request issued before the first resolved")
	}

	protocol := c.codec.Protocol()
	head.Headers.Set(HeaderUpgrade, protocol)
	conn := append(append([]string(nil), c.codec.RequiredHeaders()...), tokenUpgrade)
	head.Headers.Set(HeaderConnection, strings.Join(conn, ", "))
	c.codec.PrepareRequestHeaders(head.Headers)

	c.pending = true
	if err := ctx.WritePrev(head); err != nil {
		return err
	}
	wavemetrics.UpgradeOutcomeTotal.WithLabelValues("issued").Inc()
	return ctx.FireUserEvent(UpgradeIssuedEvent{Protocol: protocol})
}

// ChannelRead implements the inbound half: it inspects the aggregated
// response that answers the upgrade request.
func (c *ClientUpgradeHandler) ChannelRead(ctx *pipeline.Context, msg any) error {
	resp, ok := msg.(*FullResponse)
	if !ok || !c.pending {
		return ctx.FireChannelRead(msg)
	}
	c.pending = false

	protocol := c.codec.Protocol()
	upgradeHeader, _ := resp.Headers.Get(HeaderUpgrade)
	accepted := resp.Status.Code == StatusSwitchingProtocols.Code && strings.EqualFold(upgradeHeader, protocol)

	if !accepted {
		wavemetrics.UpgradeOutcomeTotal.WithLabelValues("rejected").Inc()
		if err := ctx.FireUserEvent(UpgradeRejectedEvent{Protocol: protocol}); err != nil {
			return err
		}
		if err := ctx.FireChannelRead(msg); err != nil {
			return err
		}
		return ctx.Pipeline().Remove(ctx.Name())
	}

	for i, h := range c.codec.UpgradeHandlers() {
		if err := ctx.Pipeline().AddLast(upgradeHandlerName(protocol, i), h); err != nil {
			return err
		}
	}
	wavemetrics.UpgradeOutcomeTotal.WithLabelValues("successful").Inc()
	c.logger.Infof("codec: client upgrade to %q successful", protocol)
	if err := ctx.FireUserEvent(UpgradeSuccessfulEvent{Protocol: protocol}); err != nil {
		return err
	}

	for _, name := range c.RemoveHandlerNames {
		if ctx.Pipeline().Get(name) != nil {
			if err := ctx.Pipeline().Remove(name); err != nil {
				return err
			}
		}
	}
	return ctx.Pipeline().Remove(ctx.Name())
}
