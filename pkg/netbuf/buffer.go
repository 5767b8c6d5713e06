// Package netbuf provides the reference-counted byte buffer primitive the
// codec core treats as an external collaborator.
//
// Buffer backs its storage with a pooled byte slice (valyala/bytebufferpool)
// and layers reference counting and zero-copy duplication on top, matching
// the ownership rules a handler chain depends on: every emitted message
// owns its buffer with an initial count of 1, duplicate() shares storage,
// retainedDuplicate() shares and increments, and release() only returns
// storage to the pool once the count reaches zero.
package netbuf

import (
	"sync/atomic"

	"github.com/valyala/bytebufferpool"
)

var pool bytebufferpool.Pool

// Buffer is a reference-counted, appendable byte buffer with a read cursor.
// Zero value is not usable; construct with New or NewFrom.
//
// Buffer is not safe for concurrent use. The codec's concurrency model
// runs one connection's handlers serially, so a
// buffer is only ever touched by one goroutine at a time.
type Buffer struct {
	bb    *bytebufferpool.ByteBuffer
	off   int
	count *int32
}

// New acquires a pooled buffer with an initial reference count of 1.
func New() *Buffer {
	n := int32(1)
	return &Buffer{bb: pool.Get(), count: &n}
}

// NewFrom acquires a pooled buffer pre-populated with a copy of p.
func NewFrom(p []byte) *Buffer {
	b := New()
	b.Write(p)
	return b
}

// Write appends p to the buffer. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	return b.bb.Write(p)
}

// WriteString appends s to the buffer.
func (b *Buffer) WriteString(s string) (int, error) {
	return b.bb.WriteString(s)
}

// Bytes returns the unread portion of the buffer. The slice is only valid
// until the next mutating call or Release.
func (b *Buffer) Bytes() []byte {
	return b.bb.B[b.off:]
}

// Len returns the number of unread bytes.
func (b *Buffer) Len() int {
	return len(b.bb.B) - b.off
}

// WritableBytes reports how much capacity remains before the next Write
// forces a reallocation. It is advisory only.
func (b *Buffer) WritableBytes() int {
	return cap(b.bb.B) - len(b.bb.B)
}

// Next consumes and returns the next n unread bytes, advancing the read
// cursor. If n exceeds Len, it returns all unread bytes, mirroring
// bytes.Buffer.Next.
func (b *Buffer) Next(n int) []byte {
	if n > b.Len() {
		n = b.Len()
	}
	p := b.bb.B[b.off : b.off+n]
	b.off += n
	return p
}

// Discard drops the already-read prefix so Bytes() starts compacting from
// the current cursor; call it periodically on long-lived buffers.
func (b *Buffer) Discard() {
	if b.off == 0 {
		return
	}
	remaining := b.bb.B[b.off:]
	copy(b.bb.B, remaining)
	b.bb.B = b.bb.B[:len(remaining)]
	b.off = 0
}

// Reset clears the buffer for reuse without returning it to the pool.
func (b *Buffer) Reset() {
	b.bb.Reset()
	b.off = 0
}

// RefCount returns the current reference count.
func (b *Buffer) RefCount() int32 {
	return atomic.LoadInt32(b.count)
}

// Retain increments the reference count and returns the receiver, so
// callers can write `buf = buf.Retain()` at a hand-off boundary.
func (b *Buffer) Retain() *Buffer {
	atomic.AddInt32(b.count, 1)
	return b
}

// Duplicate returns a new Buffer view sharing this buffer's storage and
// reference count, with its own independent read cursor. It does not
// increment the count: the duplicate and the original are considered one
// logical owner until one of them is retained.
func (b *Buffer) Duplicate() *Buffer {
	return &Buffer{bb: b.bb, off: b.off, count: b.count}
}

// RetainedDuplicate is Duplicate followed by Retain on the shared count.
func (b *Buffer) RetainedDuplicate() *Buffer {
	d := b.Duplicate()
	atomic.AddInt32(b.count, 1)
	return d
}

// Copy deep-copies the unread bytes into a freshly pooled buffer with its
// own reference count of 1.
func (b *Buffer) Copy() *Buffer {
	return NewFrom(b.Bytes())
}

// Touch is a debugging hook for leak tracing; it returns the receiver
// unchanged. Real leak detectors can wrap Buffer and override this.
func (b *Buffer) Touch(hint string) *Buffer {
	return b
}

// Release decrements the reference count and, if it reaches zero, returns
// the backing storage to the pool. It reports whether this call caused the
// storage to be released. Releasing an already-released buffer (count
// already at zero) is a caller bug and panics, matching the "surface the
// exception upward" policy for invalid ref-count operations.
func (b *Buffer) Release() bool {
	n := atomic.AddInt32(b.count, -1)
	if n < 0 {
		panic("netbuf: release of buffer with non-positive reference count")
	}
	if n == 0 {
		pool.Put(b.bb)
		b.bb = nil
		return true
	}
	return false
}
