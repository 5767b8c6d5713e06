package codec

import (
	"testing"

	"github.com/yourusername/wavecodec/pkg/netbuf"
	"github.com/yourusername/wavecodec/pkg/pipeline"
	"github.com/yourusername/wavecodec/pkg/wavelog"
)

// memSink records every message an Aggregator writes back toward the head
// of the pipeline, standing in for an Encoder + transport during tests.
type memSink struct {
	writes  []any
	flushed int
	closed  bool
}

func (s *memSink) Write(msg any) error { s.writes = append(s.writes, msg); return nil }
func (s *memSink) Flush() error        { s.flushed++; return nil }
func (s *memSink) Close() error        { s.closed = true; return nil }

// recorder sits after the Aggregator and captures whatever it forwards
// inbound (Full* messages), exceptions, and user events.
type recorder struct {
	pipeline.HandlerAdapter
	reads      []any
	exceptions []error
	events     []any
}

func (r *recorder) ChannelRead(ctx *pipeline.Context, msg any) error {
	r.reads = append(r.reads, msg)
	return nil
}

func (r *recorder) ExceptionCaught(ctx *pipeline.Context, err error) error {
	r.exceptions = append(r.exceptions, err)
	return nil
}

func (r *recorder) UserEventTriggered(ctx *pipeline.Context, event any) error {
	r.events = append(r.events, event)
	return nil
}

func newAggregatorPipeline(t *testing.T, kind AggregatorKind, cfg AggregatorConfig) (*pipeline.Pipeline, *memSink, *recorder) {
	t.Helper()
	sink := &memSink{}
	p := pipeline.New(sink)
	rec := &recorder{}
	if err := p.AddLast("aggregator", NewAggregator(kind, cfg, wavelog.Nop())); err != nil {
		t.Fatalf("AddLast aggregator: %v", err)
	}
	if err := p.AddLast("recorder", rec); err != nil {
		t.Fatalf("AddLast recorder: %v", err)
	}
	return p, sink, rec
}

func TestAggregatorAssemblesFullRequest(t *testing.T) {
	p, _, rec := newAggregatorPipeline(t, AggregateRequests, DefaultAggregatorConfig())

	head := NewRequestHead(MethodPOST, "/submit", HTTP11)
	head.Headers.SetInt(HeaderContentLength, 5)
	if err := p.FireChannelRead(head); err != nil {
		t.Fatalf("FireChannelRead(head): %v", err)
	}
	if err := p.FireChannelRead(NewContent(netbuf.NewFrom([]byte("hel")))); err != nil {
		t.Fatalf("FireChannelRead(content): %v", err)
	}
	if err := p.FireChannelRead(NewLastContent(netbuf.NewFrom([]byte("lo")), nil)); err != nil {
		t.Fatalf("FireChannelRead(lastcontent): %v", err)
	}

	if len(rec.reads) != 1 {
		t.Fatalf("expected exactly one aggregated message, got %d", len(rec.reads))
	}
	full, ok := rec.reads[0].(*FullRequest)
	if !ok {
		t.Fatalf("expected *FullRequest, got %T", rec.reads[0])
	}
	if string(full.Body().Bytes()) != "hello" {
		t.Fatalf("unexpected aggregated body: %q", full.Body().Bytes())
	}
}

func TestAggregatorExpectContinueWritesInterim(t *testing.T) {
	p, sink, _ := newAggregatorPipeline(t, AggregateRequests, DefaultAggregatorConfig())

	head := NewRequestHead(MethodPOST, "/submit", HTTP11)
	head.Headers.SetInt(HeaderContentLength, 5)
	head.Headers.Set(HeaderExpect, expectContinue)
	if err := p.FireChannelRead(head); err != nil {
		t.Fatalf("FireChannelRead(head): %v", err)
	}

	if len(sink.writes) != 2 {
		t.Fatalf("expected a 100-continue head+lastcontent write, got %d", len(sink.writes))
	}
	resp, ok := sink.writes[0].(*ResponseHead)
	if !ok || resp.Status.Code != StatusContinue.Code {
		t.Fatalf("expected 100 Continue response, got %#v", sink.writes[0])
	}
	if sink.flushed != 1 {
		t.Fatalf("expected one flush, got %d", sink.flushed)
	}
}

func TestAggregatorRejectsOversizeRequest(t *testing.T) {
	cfg := AggregatorConfig{MaxContentLength: 4}
	p, sink, rec := newAggregatorPipeline(t, AggregateRequests, cfg)

	head := NewRequestHead(MethodPOST, "/submit", HTTP11)
	head.Headers.SetInt(HeaderContentLength, 1000)
	if err := p.FireChannelRead(head); err != nil {
		t.Fatalf("FireChannelRead(head): %v", err)
	}

	resp, ok := sink.writes[0].(*ResponseHead)
	if !ok || resp.Status.Code != StatusRequestEntityTooLarge.Code {
		t.Fatalf("expected 413 response, got %#v", sink.writes[0])
	}
	if len(rec.reads) != 0 {
		t.Fatal("an oversize request must never reach the aggregated-message stage")
	}
}

func TestAggregatorRejectsExpectationFailedWhenOversize(t *testing.T) {
	cfg := AggregatorConfig{MaxContentLength: 4}
	p, sink, rec := newAggregatorPipeline(t, AggregateRequests, cfg)

	head := NewRequestHead(MethodPOST, "/submit", HTTP11)
	head.Headers.SetInt(HeaderContentLength, 1000)
	head.Headers.Set(HeaderExpect, expectContinue)
	if err := p.FireChannelRead(head); err != nil {
		t.Fatalf("FireChannelRead(head): %v", err)
	}

	resp, ok := sink.writes[0].(*ResponseHead)
	if !ok || resp.Status.Code != StatusExpectationFailed.Code {
		t.Fatalf("expected 417 response, got %#v", sink.writes[0])
	}
	if len(rec.events) != 1 {
		t.Fatalf("expected one ExpectationFailedEvent, got %d", len(rec.events))
	}
}
