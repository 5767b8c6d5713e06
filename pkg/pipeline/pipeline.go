// Package pipeline is the generic handler-chain runtime the codec core
// plugs into. It is deliberately small: one connection owns one Pipeline,
// every handler in it runs on whatever goroutine drives the connection, and
// nothing here is safe for concurrent use from two goroutines at once. The
// codec core (pkg/codec) never imports net or net/http from this package;
// it only depends on the Handler/Context/Pipeline contract.
package pipeline

import "fmt"

// Handler is the unit of work in a Pipeline. Implementations embed
// HandlerAdapter to get no-op defaults for the methods they don't care
// about, the same way the teacher pack's middleware chains only override
// the hooks they need.
type Handler interface {
	HandlerAdded(ctx *Context) error
	HandlerRemoved(ctx *Context) error
	ChannelActive(ctx *Context) error
	ChannelInactive(ctx *Context) error
	ChannelRead(ctx *Context, msg any) error
	Write(ctx *Context, msg any) error
	Flush(ctx *Context) error
	Close(ctx *Context) error
	Read(ctx *Context) error
	UserEventTriggered(ctx *Context, event any) error
	ExceptionCaught(ctx *Context, err error) error
}

// HandlerAdapter gives every Handler method a no-op/pass-through default.
// Embed it and override only the methods a given handler needs.
type HandlerAdapter struct{}

func (HandlerAdapter) HandlerAdded(ctx *Context) error   { return nil }
func (HandlerAdapter) HandlerRemoved(ctx *Context) error { return nil }
func (HandlerAdapter) ChannelActive(ctx *Context) error  { return ctx.FireChannelActive() }
func (HandlerAdapter) ChannelInactive(ctx *Context) error {
	return ctx.FireChannelInactive()
}
func (HandlerAdapter) ChannelRead(ctx *Context, msg any) error {
	return ctx.FireChannelRead(msg)
}
func (HandlerAdapter) Write(ctx *Context, msg any) error { return ctx.WritePrev(msg) }
func (HandlerAdapter) Flush(ctx *Context) error          { return ctx.FlushPrev() }
func (HandlerAdapter) Close(ctx *Context) error          { return ctx.ClosePrev() }
func (HandlerAdapter) Read(ctx *Context) error           { return ctx.ReadPrev() }
func (HandlerAdapter) UserEventTriggered(ctx *Context, event any) error {
	return ctx.FireUserEvent(event)
}
func (HandlerAdapter) ExceptionCaught(ctx *Context, err error) error {
	return ctx.FireException(err)
}

// Context is the per-call handle a Handler uses to propagate an operation
// to its neighbor, mirroring ChannelHandlerContext's role in §9 of
// SPEC_FULL.md: a parameter passed into each call, never owned state held
// by the handler itself.
type Context struct {
	name     string
	handler  Handler
	pipeline *Pipeline
	index    int
}

// Name returns the handler's name within the pipeline.
func (c *Context) Name() string { return c.name }

// Pipeline returns the owning Pipeline.
func (c *Context) Pipeline() *Pipeline { return c.pipeline }

// FireChannelActive propagates to the next handler toward the tail.
func (c *Context) FireChannelActive() error {
	if n := c.pipeline.next(c.index); n != nil {
		return n.handler.ChannelActive(n)
	}
	return nil
}

// FireChannelInactive propagates to the next handler toward the tail.
func (c *Context) FireChannelInactive() error {
	if n := c.pipeline.next(c.index); n != nil {
		return n.handler.ChannelInactive(n)
	}
	return nil
}

// FireChannelRead propagates an inbound message toward the tail.
func (c *Context) FireChannelRead(msg any) error {
	if n := c.pipeline.next(c.index); n != nil {
		return n.handler.ChannelRead(n, msg)
	}
	return nil
}

// FireUserEvent propagates a user event toward the tail.
func (c *Context) FireUserEvent(event any) error {
	if n := c.pipeline.next(c.index); n != nil {
		return n.handler.UserEventTriggered(n, event)
	}
	return nil
}

// FireException propagates an exception toward the tail.
func (c *Context) FireException(err error) error {
	if n := c.pipeline.next(c.index); n != nil {
		return n.handler.ExceptionCaught(n, err)
	}
	return nil
}

// WritePrev propagates an outbound write toward the head.
func (c *Context) WritePrev(msg any) error {
	if p := c.pipeline.prev(c.index); p != nil {
		return p.handler.Write(p, msg)
	}
	return c.pipeline.sink.Write(msg)
}

// FlushPrev propagates a flush toward the head.
func (c *Context) FlushPrev() error {
	if p := c.pipeline.prev(c.index); p != nil {
		return p.handler.Flush(p)
	}
	return c.pipeline.sink.Flush()
}

// ClosePrev propagates a close toward the head.
func (c *Context) ClosePrev() error {
	if p := c.pipeline.prev(c.index); p != nil {
		return p.handler.Close(p)
	}
	return c.pipeline.sink.Close()
}

// ReadPrev propagates a read request toward the head.
func (c *Context) ReadPrev() error {
	if p := c.pipeline.prev(c.index); p != nil {
		return p.handler.Read(p)
	}
	return nil
}

// Sink is the connection-facing end of a Pipeline: the thing outbound
// writes, flushes and closes eventually reach. Inbound data does not come
// from it; the transport feeds it in with FireChannelRead. A real
// transport implements it over a net.Conn; tests implement it by
// recording the messages written to it.
type Sink interface {
	Write(msg any) error
	Flush() error
	Close() error
}

// Pipeline is an ordered list of handlers attached to one connection.
type Pipeline struct {
	contexts []*Context
	sink     Sink
}

// New creates an empty Pipeline writing through sink.
func New(sink Sink) *Pipeline {
	return &Pipeline{sink: sink}
}

func (p *Pipeline) next(index int) *Context {
	if index+1 < len(p.contexts) {
		return p.contexts[index+1]
	}
	return nil
}

func (p *Pipeline) prev(index int) *Context {
	if index-1 >= 0 {
		return p.contexts[index-1]
	}
	return nil
}

// AddLast appends a named handler at the tail of the inbound order (and
// therefore the head of the outbound order), firing HandlerAdded.
func (p *Pipeline) AddLast(name string, h Handler) error {
	if p.indexOf(name) >= 0 {
		return fmt.Errorf("pipeline: handler %q already present", name)
	}
	ctx := &Context{name: name, handler: h, pipeline: p, index: len(p.contexts)}
	p.contexts = append(p.contexts, ctx)
	return h.HandlerAdded(ctx)
}

// AddFirst inserts a named handler at the head of the inbound order.
func (p *Pipeline) AddFirst(name string, h Handler) error {
	if p.indexOf(name) >= 0 {
		return fmt.Errorf("pipeline: handler %q already present", name)
	}
	ctx := &Context{name: name, handler: h, pipeline: p}
	p.contexts = append([]*Context{ctx}, p.contexts...)
	p.reindex()
	return h.HandlerAdded(ctx)
}

// Remove detaches the named handler, firing HandlerRemoved. Used by the
// upgrade handlers (§4.G) to remove themselves and the handlers named in
// their RemoveHandlerNames once an upgrade succeeds.
func (p *Pipeline) Remove(name string) error {
	idx := p.indexOf(name)
	if idx < 0 {
		return fmt.Errorf("pipeline: handler %q not found", name)
	}
	ctx := p.contexts[idx]
	p.contexts = append(p.contexts[:idx], p.contexts[idx+1:]...)
	p.reindex()
	return ctx.handler.HandlerRemoved(ctx)
}

// Get returns the named handler's context, or nil if absent.
func (p *Pipeline) Get(name string) *Context {
	if idx := p.indexOf(name); idx >= 0 {
		return p.contexts[idx]
	}
	return nil
}

func (p *Pipeline) indexOf(name string) int {
	for i, c := range p.contexts {
		if c.name == name {
			return i
		}
	}
	return -1
}

func (p *Pipeline) reindex() {
	for i, c := range p.contexts {
		c.index = i
	}
}

// FireChannelActive starts inbound propagation from the head.
func (p *Pipeline) FireChannelActive() error {
	if len(p.contexts) == 0 {
		return nil
	}
	return p.contexts[0].handler.ChannelActive(p.contexts[0])
}

// FireChannelInactive starts inbound propagation from the head.
func (p *Pipeline) FireChannelInactive() error {
	if len(p.contexts) == 0 {
		return nil
	}
	return p.contexts[0].handler.ChannelInactive(p.contexts[0])
}

// FireChannelRead starts inbound propagation from the head. The transport
// calls this once per read of raw bytes off the wire.
func (p *Pipeline) FireChannelRead(msg any) error {
	if len(p.contexts) == 0 {
		return nil
	}
	return p.contexts[0].handler.ChannelRead(p.contexts[0], msg)
}

// FireUserEvent starts inbound propagation from the head.
func (p *Pipeline) FireUserEvent(event any) error {
	if len(p.contexts) == 0 {
		return nil
	}
	return p.contexts[0].handler.UserEventTriggered(p.contexts[0], event)
}

// FireException starts inbound propagation from the head.
func (p *Pipeline) FireException(err error) error {
	if len(p.contexts) == 0 {
		return nil
	}
	return p.contexts[0].handler.ExceptionCaught(p.contexts[0], err)
}

// Write starts outbound propagation from the tail. Application code calls
// this (not FireChannelRead) to send a message out through the chain.
func (p *Pipeline) Write(msg any) error {
	if len(p.contexts) == 0 {
		return p.sink.Write(msg)
	}
	last := p.contexts[len(p.contexts)-1]
	return last.handler.Write(last, msg)
}

// Flush starts outbound propagation from the tail.
func (p *Pipeline) Flush() error {
	if len(p.contexts) == 0 {
		return p.sink.Flush()
	}
	last := p.contexts[len(p.contexts)-1]
	return last.handler.Flush(last)
}

// WriteAndFlush is the common case: Write followed by Flush.
func (p *Pipeline) WriteAndFlush(msg any) error {
	if err := p.Write(msg); err != nil {
		return err
	}
	return p.Flush()
}

// Close starts outbound propagation from the tail.
func (p *Pipeline) Close() error {
	if len(p.contexts) == 0 {
		return p.sink.Close()
	}
	last := p.contexts[len(p.contexts)-1]
	return last.handler.Close(last)
}
