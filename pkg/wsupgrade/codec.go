// Package wsupgrade implements codec.UpgradeCodec for the WebSocket
// protocol (RFC 6455 section 1.3 and 4), the one concrete upgrade target
// this module ships. It only computes the handshake; framing a live
// WebSocket connection is out of scope.
package wsupgrade

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"strings"

	"github.com/pkg/errors"

	"github.com/yourusername/wavecodec/pkg/codec"
	"github.com/yourusername/wavecodec/pkg/pipeline"
)

const acceptGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

var (
	// ErrBadSecWebSocketKey is returned when the request's
	// Sec-WebSocket-Key header is missing or malformed.
	ErrBadSecWebSocketKey = errors.New("wsupgrade: missing or invalid Sec-WebSocket-Key")
	// ErrUnsupportedVersion is returned when Sec-WebSocket-Version is not 13.
	ErrUnsupportedVersion = errors.New("wsupgrade: unsupported Sec-WebSocket-Version")
)

const (
	headerSecWebSocketKey     = "Sec-WebSocket-Key"
	headerSecWebSocketAccept  = "Sec-WebSocket-Accept"
	headerSecWebSocketVersion = "Sec-WebSocket-Version"
	headerSecWebSocketProto   = "Sec-WebSocket-Protocol"
	supportedVersion          = "13"
)

// Codec implements codec.UpgradeCodec for WebSocket. Subprotocols, when
// set, are offered by the client in preference order and the server
// picks the first one it also supports.
type Codec struct {
	Subprotocols []string

	// generatedKey is stashed by PrepareRequestHeaders so a client-side
	// caller can later validate the Sec-WebSocket-Accept it receives;
	// ClientUpgradeHandler itself does not check that header.
	generatedKey string
}

// New constructs a WebSocket upgrade codec offering the given
// subprotocols, in preference order (may be empty).
func New(subprotocols ...string) *Codec {
	return &Codec{Subprotocols: subprotocols}
}

func (c *Codec) Protocol() string { return "websocket" }

func (c *Codec) RequiredHeaders() []string {
	return []string{headerSecWebSocketKey, headerSecWebSocketVersion}
}

// PrepareRequestHeaders adds a fresh, random Sec-WebSocket-Key and the
// fixed version token, plus the requested subprotocol list if any.
func (c *Codec) PrepareRequestHeaders(h *codec.Headers) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		// crypto/rand failing is not recoverable; degrade to a
		// deterministic key rather than panic, the server will simply
		// reject the handshake on mismatch.
		copy(raw[:], "wavecodec-upgrad")
	}
	key := base64.StdEncoding.EncodeToString(raw[:])
	c.generatedKey = key

	h.Set(headerSecWebSocketKey, key)
	h.Set(headerSecWebSocketVersion, supportedVersion)
	if len(c.Subprotocols) > 0 {
		h.Set(headerSecWebSocketProto, strings.Join(c.Subprotocols, ", "))
	}
}

// PrepareResponseHeaders validates the handshake request and, if valid,
// sets Sec-WebSocket-Accept (and a negotiated subprotocol, if any) on h.
func (c *Codec) PrepareResponseHeaders(req *codec.FullRequest, h *codec.Headers) error {
	if req.Method != codec.MethodGET {
		return errors.New("wsupgrade: upgrade request method must be GET")
	}
	version, _ := req.Headers.Get(headerSecWebSocketVersion)
	if version != supportedVersion {
		return ErrUnsupportedVersion
	}
	key, ok := req.Headers.Get(headerSecWebSocketKey)
	if !ok || !validKey(key) {
		return ErrBadSecWebSocketKey
	}

	h.Set(headerSecWebSocketAccept, acceptKey(key))

	if len(c.Subprotocols) > 0 {
		requested, _ := req.Headers.Get(headerSecWebSocketProto)
		if proto := negotiateSubprotocol(requested, c.Subprotocols); proto != "" {
			h.Set(headerSecWebSocketProto, proto)
		}
	}
	return nil
}

// UpgradeHandlers returns no handlers: once the 101 handshake completes,
// the connection is handed off raw and framing is the caller's concern.
func (c *Codec) UpgradeHandlers() []pipeline.Handler { return nil }

func acceptKey(clientKey string) string {
	h := sha1.New()
	h.Write([]byte(clientKey))
	h.Write([]byte(acceptGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func validKey(key string) bool {
	decoded, err := base64.StdEncoding.DecodeString(key)
	return err == nil && len(decoded) == 16
}

func negotiateSubprotocol(requestedCSV string, supported []string) string {
	for _, want := range strings.Split(requestedCSV, ",") {
		want = strings.TrimSpace(want)
		for _, have := range supported {
			if want == have {
				return have
			}
		}
	}
	return ""
}
