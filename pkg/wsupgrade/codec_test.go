package wsupgrade

import (
	"encoding/base64"
	"testing"

	"github.com/yourusername/wavecodec/pkg/codec"
	"github.com/yourusername/wavecodec/pkg/netbuf"
)

func TestPrepareRequestHeadersSetsValidKeyAndVersion(t *testing.T) {
	c := New()
	h := codec.NewHeaders()
	c.PrepareRequestHeaders(h)

	key, ok := h.Get(headerSecWebSocketKey)
	if !ok {
		t.Fatal("expected Sec-WebSocket-Key to be set")
	}
	decoded, err := base64.StdEncoding.DecodeString(key)
	if err != nil || len(decoded) != 16 {
		t.Fatalf("expected a base64-encoded 16-byte key, got %q (%v)", key, err)
	}
	if v, _ := h.Get(headerSecWebSocketVersion); v != supportedVersion {
		t.Fatalf("expected version 13, got %q", v)
	}
}

func TestPrepareRequestHeadersOffersSubprotocols(t *testing.T) {
	c := New("chat", "superchat")
	h := codec.NewHeaders()
	c.PrepareRequestHeaders(h)
	if v, _ := h.Get(headerSecWebSocketProto); v != "chat, superchat" {
		t.Fatalf("unexpected Sec-WebSocket-Protocol: %q", v)
	}
}

// TestPrepareResponseHeadersKnownVector uses the RFC 6455 section 1.3
// worked example: key "dGhlIHNhbXBsZSBub25jZQ==" must accept-key to
// "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=".
func TestPrepareResponseHeadersKnownVector(t *testing.T) {
	c := New()
	req := codec.NewFullRequest(codec.NewRequestHead(codec.MethodGET, "/ws", codec.HTTP11), netbuf.New(), nil)
	req.Headers.Set(headerSecWebSocketKey, "dGhlIHNhbXBsZSBub25jZQ==")
	req.Headers.Set(headerSecWebSocketVersion, supportedVersion)

	h := codec.NewHeaders()
	if err := c.PrepareResponseHeaders(req, h); err != nil {
		t.Fatalf("PrepareResponseHeaders: %v", err)
	}
	got, _ := h.Get(headerSecWebSocketAccept)
	if got != "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=" {
		t.Fatalf("accept key = %q, want the RFC 6455 worked example value", got)
	}
}

func TestPrepareResponseHeadersRejectsNonGet(t *testing.T) {
	c := New()
	req := codec.NewFullRequest(codec.NewRequestHead(codec.MethodPOST, "/ws", codec.HTTP11), netbuf.New(), nil)
	req.Headers.Set(headerSecWebSocketKey, "dGhlIHNhbXBsZSBub25jZQ==")
	req.Headers.Set(headerSecWebSocketVersion, supportedVersion)

	h := codec.NewHeaders()
	if err := c.PrepareResponseHeaders(req, h); err == nil {
		t.Fatal("expected an error for a non-GET upgrade request")
	}
}

func TestPrepareResponseHeadersRejectsWrongVersion(t *testing.T) {
	c := New()
	req := codec.NewFullRequest(codec.NewRequestHead(codec.MethodGET, "/ws", codec.HTTP11), netbuf.New(), nil)
	req.Headers.Set(headerSecWebSocketKey, "dGhlIHNhbXBsZSBub25jZQ==")
	req.Headers.Set(headerSecWebSocketVersion, "8")

	h := codec.NewHeaders()
	if err := c.PrepareResponseHeaders(req, h); err != ErrUnsupportedVersion {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestPrepareResponseHeadersRejectsMalformedKey(t *testing.T) {
	c := New()
	req := codec.NewFullRequest(codec.NewRequestHead(codec.MethodGET, "/ws", codec.HTTP11), netbuf.New(), nil)
	req.Headers.Set(headerSecWebSocketKey, "not-base64!!")
	req.Headers.Set(headerSecWebSocketVersion, supportedVersion)

	h := codec.NewHeaders()
	if err := c.PrepareResponseHeaders(req, h); err != ErrBadSecWebSocketKey {
		t.Fatalf("expected ErrBadSecWebSocketKey, got %v", err)
	}
}

func TestNegotiateSubprotocolPicksFirstSupportedMatch(t *testing.T) {
	got := negotiateSubprotocol("foo, chat, bar", []string{"chat", "superchat"})
	if got != "chat" {
		t.Fatalf("expected chat, got %q", got)
	}
	if got := negotiateSubprotocol("foo, bar", []string{"chat"}); got != "" {
		t.Fatalf("expected no match, got %q", got)
	}
}
