package dns

import "sync"

// Allocator is the single indirection over allocation described in
// spec §4.H: {alloc(ctx, size), free(ctx, ptr), ctx}. Go's garbage
// collector makes Free usually a no-op, but the interface is kept so a
// caller wiring pooled, packet-scoped buffers (PoolContext below) has
// somewhere to return them.
type Allocator interface {
	Alloc(size int) []byte
	Free(buf []byte)
}

// MemoryContext is passed by value into long-lived constructors
// (Packet, RR vectors) and copied into the owning object, so the
// object's lifetime is decoupled from whoever constructed it (spec
// §4.H).
type MemoryContext struct {
	Allocator Allocator
}

// HeapContext is the default memory context: allocation goes straight
// to the Go heap and Free is a no-op. This is the right baseline for a
// garbage-collected language — pooling is opt-in via PoolContext, not
// the default the way a manual-allocator C library would need it to
// be.
var HeapContext = MemoryContext{Allocator: heapAllocator{}}

type heapAllocator struct{}

func (heapAllocator) Alloc(size int) []byte { return make([]byte, size) }
func (heapAllocator) Free([]byte)           {}

// PoolContext returns a MemoryContext backed by a sync.Pool of
// buffers, for arena-style reuse of packet-scoped allocations (spec
// §4.H: "Enables arena allocation for packet-scoped data ... without
// per-allocation bookkeeping"). Buffers returned by Alloc must be
// exactly maxSize-sized to be eligible for pooling; callers asking for
// a different size get a fresh, unpooled slice.
func PoolContext(maxSize int) MemoryContext {
	pool := &sync.Pool{New: func() interface{} {
		b := make([]byte, maxSize)
		return &b
	}}
	return MemoryContext{Allocator: &poolAllocator{pool: pool, size: maxSize}}
}

type poolAllocator struct {
	pool *sync.Pool
	size int
}

func (p *poolAllocator) Alloc(size int) []byte {
	if size != p.size {
		return make([]byte, size)
	}
	bufp := p.pool.Get().(*[]byte)
	buf := *bufp
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

func (p *poolAllocator) Free(buf []byte) {
	if len(buf) != p.size {
		return
	}
	p.pool.Put(&buf)
}
