package codec

import (
	"strings"

	"github.com/yourusername/wavecodec/pkg/pipeline"
)

// UpgradeCodec is the collaborator that knows how to negotiate and then
// install a specific protocol's handlers into the pipeline once a 101
// handshake completes. pkg/wsupgrade ships the one concrete
// implementation this module provides (WebSocket).
type UpgradeCodec interface {
	// Protocol is the Upgrade header token this codec answers for, e.g.
	// "websocket".
	Protocol() string
	// RequiredHeaders lists header names (besides the Upgrade header
	// itself) that must be present on the request/response for this
	// protocol's handshake to be considered valid.
	RequiredHeaders() []string
	// PrepareRequestHeaders lets the client side add protocol-specific
	// request headers (e.g. Sec-WebSocket-Key) before the request is sent.
	PrepareRequestHeaders(h *Headers)
	// PrepareResponseHeaders lets the server side validate the request
	// and add protocol-specific response headers (e.g.
	// Sec-WebSocket-Accept). Returning an error rejects the upgrade.
	PrepareResponseHeaders(req *FullRequest, h *Headers) error
	// UpgradeHandlers returns the handlers to install in place of the
	// HTTP codec once the switch succeeds.
	UpgradeHandlers() []pipeline.Handler
}

// Upgrade handshake outcome events, surfaced to the application via
// pipeline.Context.FireUserEvent.
type (
	// UpgradeIssuedEvent fires when a client upgrade handler rewrites an
	// outbound request to request a protocol switch.
	UpgradeIssuedEvent struct{ Protocol string }

	// UpgradeSuccessfulEvent fires once a 101 response accepting the
	// requested protocol has been processed and the pipeline swapped.
	UpgradeSuccessfulEvent struct{ Protocol string }

	// UpgradeRejectedEvent fires when the server answered with anything
	// other than a matching 101.
	UpgradeRejectedEvent struct{ Protocol string }

	// UpgradeEvent fires on the server side once the pipeline has been
	// swapped, carrying the original request that triggered it.
	UpgradeEvent struct {
		Protocol string
		Request  *FullRequest
	}
)

// parseUpgradeProtocols splits a comma-separated Upgrade header value
// into its requested protocol tokens, trimmed and in order.
func parseUpgradeProtocols(value string) []string {
	var out []string
	for _, tok := range strings.Split(value, ",") {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// connectionListsUpgrade reports whether a Connection header value's
// comma-separated token list includes "upgrade", case-insensitively.
func connectionListsUpgrade(h *Headers) bool {
	return h.ContainsValue(HeaderConnection, tokenUpgrade, true)
}
