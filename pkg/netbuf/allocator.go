package netbuf

// Allocator satisfies the codec's buffer-allocator contract: buffer()
// returns an empty buffer, buffer(capacity) returns one pre-sized to avoid
// early reallocation. There is exactly one concrete Allocator; it holds no
// state of its own because the underlying bytebufferpool.Pool is itself a
// package-level singleton shared by every Buffer.
type Allocator struct{}

// DefaultAllocator is a ready-to-use Allocator value. The codec package
// itself calls New and NewFrom directly rather than going through it.
var DefaultAllocator Allocator

// Buffer returns a new empty, zero-length Buffer.
func (Allocator) Buffer() *Buffer {
	return New()
}

// BufferSize returns a new empty Buffer whose backing array has been grown
// to at least capacity bytes up front.
func (Allocator) BufferSize(capacity int) *Buffer {
	b := New()
	if capacity > 0 && cap(b.bb.B) < capacity {
		b.bb.B = make([]byte, 0, capacity)
	}
	return b
}
