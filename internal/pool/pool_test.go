package pool_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jroosing/triedns/internal/pool"
)

// =============================================================================
// Pool Tests
// =============================================================================

func TestPool_ConstructorCalled(t *testing.T) {
	callCount := 0
	p := pool.New(func() int {
		callCount++
		return callCount
	})

	// Nothing was put back, so every Get constructs.
	assert.Equal(t, 1, p.Get())
	assert.Equal(t, 2, p.Get())
	assert.Equal(t, 2, callCount)
}

func TestPool_PutThenGet(t *testing.T) {
	type item struct{ id int }
	p := pool.New(func() *item { return &item{} })

	i1 := p.Get()
	i1.id = 42
	p.Put(i1)

	// The pool may or may not hand back i1; either way Get never returns nil.
	assert.NotNil(t, p.Get())
}

// =============================================================================
// Buffers Tests
// =============================================================================

func TestBuffers_Size(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"classic UDP", 512},
		{"forwarded reply", 4096},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := pool.NewBuffers(tt.size)

			buf := b.Get()
			require.NotNil(t, buf)
			assert.Len(t, *buf, tt.size)
			assert.Equal(t, tt.size, b.Size())
		})
	}
}

func TestBuffers_PutRestoresLength(t *testing.T) {
	b := pool.NewBuffers(512)

	buf := b.Get()
	*buf = (*buf)[:12]
	b.Put(buf)

	// Whatever comes back next is full length.
	assert.Len(t, *b.Get(), 512)
	assert.Len(t, *buf, 512)
}

func TestBuffers_PutIgnoresForeignBuffers(t *testing.T) {
	b := pool.NewBuffers(512)

	foreign := make([]byte, 64)
	b.Put(&foreign)
	b.Put(nil)

	assert.Len(t, foreign, 64)
	assert.Len(t, *b.Get(), 512)
}

func TestBuffers_ConcurrentAccess(t *testing.T) {
	b := pool.NewBuffers(256)

	var wg sync.WaitGroup
	const goroutines = 50
	const iterations = 500

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range iterations {
				buf := b.Get()
				if len(*buf) != 256 {
					t.Errorf("buffer length %d", len(*buf))
				}
				(*buf)[0] = 1
				b.Put(buf)
			}
		}()
	}

	wg.Wait()
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkBuffers_Parallel(b *testing.B) {
	p := pool.NewBuffers(512)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			buf := p.Get()
			p.Put(buf)
		}
	})
}
