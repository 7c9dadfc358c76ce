package pools

import (
	"slices"
	"sync"
	"sync/atomic"
)

// BytePool hands out read buffers in a few size classes. A buffer taken with
// Get belongs to the caller until it is passed back to Put; the connection
// that reads into it keeps it for the whole request.
type BytePool struct {
	pools []*sync.Pool
	sizes []int

	gets   atomic.Uint64
	puts   atomic.Uint64
	misses atomic.Uint64
}

// DefaultBufferSize is the read buffer size used when none is configured.
const DefaultBufferSize = 100 * 1024

var defaultSizes = []int{
	4 * 1024,
	16 * 1024,
	64 * 1024,
	DefaultBufferSize,
}

// NewBytePool creates a pool with the given size classes. With no sizes the
// default classes are used.
func NewBytePool(sizes ...int) *BytePool {
	if len(sizes) == 0 {
		sizes = defaultSizes
	}
	sizes = slices.Clone(sizes)
	slices.Sort(sizes)
	sizes = slices.Compact(sizes)

	bp := &BytePool{
		pools: make([]*sync.Pool, len(sizes)),
		sizes: sizes,
	}
	for i, size := range sizes {
		bp.pools[i] = &sync.Pool{
			New: func() any {
				buf := make([]byte, size)
				return &buf
			},
		}
	}
	return bp
}

// Get returns a buffer with len >= size. Sizes above the largest class are
// allocated directly and dropped by Put.
func (bp *BytePool) Get(size int) *[]byte {
	bp.gets.Add(1)
	for i, poolSize := range bp.sizes {
		if size <= poolSize {
			return bp.pools[i].Get().(*[]byte)
		}
	}

	bp.misses.Add(1)
	buf := make([]byte, size)
	return &buf
}

// Put returns a buffer obtained from Get. The caller must not touch it (or
// any string viewing it) afterwards.
func (bp *BytePool) Put(buf *[]byte) {
	if buf == nil {
		return
	}
	capacity := cap(*buf)
	for i, poolSize := range bp.sizes {
		if capacity == poolSize {
			*buf = (*buf)[:capacity]
			bp.puts.Add(1)
			bp.pools[i].Put(buf)
			return
		}
	}
}

// Sizes returns the configured size classes in ascending order.
func (bp *BytePool) Sizes() []int {
	return slices.Clone(bp.sizes)
}

// BytePoolStats is a snapshot of pool usage.
type BytePoolStats struct {
	Gets   uint64
	Puts   uint64
	Misses uint64 // requests larger than every class
}

// Stats returns a snapshot of pool usage.
func (bp *BytePool) Stats() BytePoolStats {
	return BytePoolStats{
		Gets:   bp.gets.Load(),
		Puts:   bp.puts.Load(),
		Misses: bp.misses.Load(),
	}
}
