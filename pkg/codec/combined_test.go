package codec

import (
	"errors"
	"strings"
	"testing"

	"github.com/yourusername/wavecodec/pkg/netbuf"
	"github.com/yourusername/wavecodec/pkg/pipeline"
	"github.com/yourusername/wavecodec/pkg/wavelog"
)

func TestCombinedServerCodecRoundTrip(t *testing.T) {
	sink := &memSink{}
	p := pipeline.New(sink)
	if err := p.AddLast("codec", NewCombinedServerCodec(DefaultDecoderConfig(), wavelog.Nop())); err != nil {
		t.Fatalf("AddLast: %v", err)
	}
	rec := &recorder{}
	if err := p.AddLast("recorder", rec); err != nil {
		t.Fatalf("AddLast: %v", err)
	}

	raw := "GET / HTTP/1.1\r\nHost: x\r\n\r\n"
	if err := p.FireChannelRead(netbuf.NewFrom([]byte(raw))); err != nil {
		t.Fatalf("FireChannelRead: %v", err)
	}
	if len(rec.reads) != 2 {
		t.Fatalf("expected head+lastcontent forwarded, got %d", len(rec.reads))
	}

	resp := NewResponseHead(HTTP11, StatusOK)
	resp.Headers.SetInt(HeaderContentLength, 2)
	if err := p.Write(resp); err != nil {
		t.Fatalf("Write(resp): %v", err)
	}
	if err := p.Write(NewContent(netbuf.NewFrom([]byte("ok")))); err != nil {
		t.Fatalf("Write(content): %v", err)
	}

	var wire strings.Builder
	for _, w := range sink.writes {
		buf, ok := w.(*netbuf.Buffer)
		if !ok {
			t.Fatalf("expected outbound bytes as *netbuf.Buffer, got %T", w)
		}
		wire.Write(buf.Bytes())
	}
	if !strings.Contains(wire.String(), "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("missing status line in encoded output: %q", wire.String())
	}
	if !strings.HasSuffix(wire.String(), "ok") {
		t.Fatalf("missing body bytes in encoded output: %q", wire.String())
	}
}

func TestCombinedClientCodecForcesHeadResponseBodyless(t *testing.T) {
	sink := &memSink{}
	p := pipeline.New(sink)
	if err := p.AddLast("codec", NewCombinedClientCodec(DefaultDecoderConfig(), wavelog.Nop())); err != nil {
		t.Fatalf("AddLast: %v", err)
	}
	rec := &recorder{}
	if err := p.AddLast("recorder", rec); err != nil {
		t.Fatalf("AddLast: %v", err)
	}

	req := NewRequestHead(MethodHEAD, "/", HTTP11)
	if err := p.Write(req); err != nil {
		t.Fatalf("Write(req): %v", err)
	}

	raw := "HTTP/1.1 200 OK\r\nContent-Length: 1000\r\n\r\n"
	if err := p.FireChannelRead(netbuf.NewFrom([]byte(raw))); err != nil {
		t.Fatalf("FireChannelRead: %v", err)
	}

	if len(rec.reads) != 2 {
		t.Fatalf("expected head+lastcontent (forced bodyless), got %d: %#v", len(rec.reads), rec.reads)
	}
	if _, ok := rec.reads[1].(*LastContent); !ok {
		t.Fatalf("expected the HEAD response to terminate immediately, got %T", rec.reads[1])
	}
}

func TestCombinedClientCodecDetectsPrematureClosure(t *testing.T) {
	sink := &memSink{}
	p := pipeline.New(sink)
	combined := NewCombinedClientCodec(DefaultDecoderConfig(), wavelog.Nop())
	combined.FailOnMissingResponse = true
	if err := p.AddLast("codec", combined); err != nil {
		t.Fatalf("AddLast: %v", err)
	}
	rec := &recorder{}
	if err := p.AddLast("recorder", rec); err != nil {
		t.Fatalf("AddLast: %v", err)
	}

	req := NewRequestHead(MethodGET, "/", HTTP11)
	if err := p.Write(req); err != nil {
		t.Fatalf("Write(req): %v", err)
	}

	if err := p.FireChannelInactive(); err != nil {
		t.Fatalf("FireChannelInactive: %v", err)
	}

	if len(rec.exceptions) != 1 {
		t.Fatalf("expected one exception for the outstanding request, got %d", len(rec.exceptions))
	}
	if !errors.Is(rec.exceptions[0], ErrPrematureChannelClosure) {
		t.Fatalf("expected ErrPrematureChannelClosure, got %v", rec.exceptions[0])
	}
}

func TestCombinedClientCodecNoFalsePositiveWhenAnswered(t *testing.T) {
	sink := &memSink{}
	p := pipeline.New(sink)
	combined := NewCombinedClientCodec(DefaultDecoderConfig(), wavelog.Nop())
	combined.FailOnMissingResponse = true
	if err := p.AddLast("codec", combined); err != nil {
		t.Fatalf("AddLast: %v", err)
	}
	rec := &recorder{}
	if err := p.AddLast("recorder", rec); err != nil {
		t.Fatalf("AddLast: %v", err)
	}

	req := NewRequestHead(MethodGET, "/", HTTP11)
	if err := p.Write(req); err != nil {
		t.Fatalf("Write(req): %v", err)
	}
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"
	if err := p.FireChannelRead(netbuf.NewFrom([]byte(raw))); err != nil {
		t.Fatalf("FireChannelRead: %v", err)
	}

	if err := p.FireChannelInactive(); err != nil {
		t.Fatalf("FireChannelInactive: %v", err)
	}
	if len(rec.exceptions) != 0 {
		t.Fatalf("an answered request must not trigger premature-closure detection, got %v", rec.exceptions)
	}
}
