package codec

import (
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/yourusername/wavecodec/pkg/netbuf"
	"github.com/yourusername/wavecodec/pkg/pipeline"
)

func TestNegotiateAcceptEncodingPicksHighestWeight(t *testing.T) {
	supported := []Coding{CodingGzip, CodingDeflate, CodingBrotli}
	got := negotiateAcceptEncoding("deflate;q=0.5, gzip;q=0.8, br;q=0.2", supported)
	if got != CodingGzip {
		t.Fatalf("expected gzip to win on weight, got %q", got)
	}
}

func TestNegotiateAcceptEncodingTiesPreferGzip(t *testing.T) {
	supported := []Coding{CodingGzip, CodingDeflate}
	got := negotiateAcceptEncoding("deflate;q=0.7, gzip;q=0.7", supported)
	if got != CodingGzip {
		t.Fatalf("expected a tie to prefer gzip, got %q", got)
	}
}

func TestNegotiateAcceptEncodingWildcardFallback(t *testing.T) {
	supported := []Coding{CodingGzip, CodingDeflate}
	got := negotiateAcceptEncoding("identity;q=0, *;q=0.3", supported)
	if got == CodingIdentity {
		t.Fatal("expected the wildcard to select some supported coding")
	}
}

func TestNegotiateAcceptEncodingNoHeaderIsIdentity(t *testing.T) {
	if got := negotiateAcceptEncoding("", []Coding{CodingGzip}); got != CodingIdentity {
		t.Fatalf("expected identity for empty header, got %q", got)
	}
}

func TestNegotiateAcceptEncodingZeroWeightExcludes(t *testing.T) {
	got := negotiateAcceptEncoding("gzip;q=0", []Coding{CodingGzip})
	if got != CodingIdentity {
		t.Fatalf("q=0 must exclude gzip, got %q", got)
	}
}

// TestContentCompressorRoundTrip drives a response head plus two content
// chunks through a ContentCompressor and confirms the staged gzip bytes
// decompress back to the original payload, guarding against chunks being
// silently dropped by drain.
func TestContentCompressorRoundTrip(t *testing.T) {
	sink := &memSink{}
	p := pipeline.New(sink)
	c := &ContentCompressor{}
	c.SetAcceptEncoding("gzip")
	if err := p.AddLast("compressor", c); err != nil {
		t.Fatalf("AddLast: %v", err)
	}

	head := NewResponseHead(HTTP11, StatusOK)
	head.Headers.SetInt(HeaderContentLength, 11)
	if err := p.Write(head); err != nil {
		t.Fatalf("Write(head): %v", err)
	}
	if err := p.Write(NewContent(netbuf.NewFrom([]byte("hello ")))); err != nil {
		t.Fatalf("Write(content): %v", err)
	}
	if err := p.Write(NewLastContent(netbuf.NewFrom([]byte("world")), nil)); err != nil {
		t.Fatalf("Write(lastcontent): %v", err)
	}
	if err := p.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if got := head.Headers.GetString(HeaderContentEncoding); got != string(CodingGzip) {
		t.Fatalf("expected Content-Encoding: gzip on head, got %q", got)
	}

	var compressed bytes.Buffer
	for _, w := range sink.writes {
		switch m := w.(type) {
		case *Content:
			compressed.Write(m.Bytes())
		case *LastContent:
			compressed.Write(m.Bytes())
		}
	}
	if compressed.Len() == 0 {
		t.Fatal("expected at least one compressed chunk to reach the sink")
	}

	gr, err := gzip.NewReader(&compressed)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	var out bytes.Buffer
	if _, err := out.ReadFrom(gr); err != nil {
		t.Fatalf("reading decompressed body: %v", err)
	}
	if out.String() != "hello world" {
		t.Fatalf("round trip mismatch, got %q", out.String())
	}
}

func TestContentCompressorSkipsHeadResponse(t *testing.T) {
	sink := &memSink{}
	p := pipeline.New(sink)
	c := &ContentCompressor{}
	c.SetAcceptEncoding("gzip")
	c.SetSkipNext()
	if err := p.AddLast("compressor", c); err != nil {
		t.Fatalf("AddLast: %v", err)
	}

	head := NewResponseHead(HTTP11, StatusOK)
	if err := p.Write(head); err != nil {
		t.Fatalf("Write(head): %v", err)
	}
	if head.Headers.Contains(HeaderContentEncoding) {
		t.Fatal("a skipped response must not gain Content-Encoding")
	}
}

func TestContentCompressorLeavesBodylessAlone(t *testing.T) {
	sink := &memSink{}
	p := pipeline.New(sink)
	c := &ContentCompressor{}
	c.SetAcceptEncoding("gzip")
	if err := p.AddLast("compressor", c); err != nil {
		t.Fatalf("AddLast: %v", err)
	}

	head := NewResponseHead(HTTP11, StatusNoContent)
	if err := p.Write(head); err != nil {
		t.Fatalf("Write(head): %v", err)
	}
	if head.Headers.Contains(HeaderContentEncoding) {
		t.Fatal("204 responses must not be compressed")
	}
}

// TestContentDecompressorRoundTrip feeds a gzip-compressed request body
// through ContentDecompressor and confirms the downstream handler observes
// the original plaintext with Content-Encoding stripped to identity.
func TestContentDecompressorRoundTrip(t *testing.T) {
	var compressed bytes.Buffer
	gw := gzip.NewWriter(&compressed)
	if _, err := gw.Write([]byte("decompress me")); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	sink := &memSink{}
	p := pipeline.New(sink)
	if err := p.AddLast("decompressor", &ContentDecompressor{}); err != nil {
		t.Fatalf("AddLast: %v", err)
	}
	rec := &recorder{}
	if err := p.AddLast("recorder", rec); err != nil {
		t.Fatalf("AddLast: %v", err)
	}

	head := NewRequestHead(MethodPOST, "/submit", HTTP11)
	head.Headers.Set(HeaderContentEncoding, "gzip")
	head.Headers.SetInt(HeaderContentLength, compressed.Len())
	if err := p.FireChannelRead(head); err != nil {
		t.Fatalf("FireChannelRead(head): %v", err)
	}
	if err := p.FireChannelRead(NewLastContent(netbuf.NewFrom(compressed.Bytes()), nil)); err != nil {
		t.Fatalf("FireChannelRead(lastcontent): %v", err)
	}

	if head.Headers.Contains(HeaderContentLength) {
		t.Fatal("Content-Length must be stripped once the body is decompressed inline")
	}
	if got := head.Headers.GetString(HeaderContentEncoding); got != string(CodingIdentity) {
		t.Fatalf("expected Content-Encoding rewritten to identity, got %q", got)
	}

	var plain bytes.Buffer
	for _, r := range rec.reads {
		if lc, ok := r.(*LastContent); ok {
			plain.Write(lc.Bytes())
		}
	}
	if plain.String() != "decompress me" {
		t.Fatalf("decompressed body = %q", plain.String())
	}
}
