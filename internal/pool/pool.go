// Package pool provides typed wrappers around sync.Pool for the datagram
// buffers the server and forwarder allocate on every request.
package pool

import "sync"

// Pool is a generic wrapper around sync.Pool.
type Pool[T any] struct {
	internal sync.Pool
}

// New creates a new Pool with the given constructor.
func New[T any](newFn func() T) *Pool[T] {
	return &Pool[T]{
		internal: sync.Pool{
			New: func() any {
				return newFn()
			},
		},
	}
}

// Get retrieves an item from the pool.
func (p *Pool[T]) Get() T {
	return p.internal.Get().(T)
}

// Put returns an item to the pool.
func (p *Pool[T]) Put(item T) {
	p.internal.Put(item)
}

// Buffers pools fixed-size byte buffers. Pointers are pooled so Put does not
// allocate.
type Buffers struct {
	size int
	p    *Pool[*[]byte]
}

// NewBuffers returns a pool of buffers of exactly size bytes.
func NewBuffers(size int) *Buffers {
	return &Buffers{
		size: size,
		p: New(func() *[]byte {
			buf := make([]byte, size)
			return &buf
		}),
	}
}

// Size is the length of every buffer handed out by Get.
func (b *Buffers) Size() int { return b.size }

// Get returns a buffer of Size bytes. Its contents are unspecified.
func (b *Buffers) Get() *[]byte {
	return b.p.Get()
}

// Put returns buf to the pool, restoring its full length. Buffers of another
// capacity are left to the garbage collector.
func (b *Buffers) Put(buf *[]byte) {
	if buf == nil || cap(*buf) != b.size {
		return
	}
	*buf = (*buf)[:b.size]
	b.p.Put(buf)
}
