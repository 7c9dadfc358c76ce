package pools

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_Basic(t *testing.T) {
	pool := NewWorkerPool(4)

	var counter atomic.Int64
	for i := 0; i < 100; i++ {
		require.True(t, pool.Submit(func() { counter.Add(1) }))
	}
	pool.Close()

	assert.Equal(t, int64(100), counter.Load())
	stats := pool.Stats()
	assert.Equal(t, uint64(100), stats.Submitted)
	assert.Equal(t, uint64(100), stats.Completed)
	assert.Equal(t, 4, stats.NumWorkers)
}

func TestWorkerPool_InlineWhenFull(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	pool.Submit(func() {
		close(started)
		<-block
	})
	<-started

	for i := 0; i < DefaultQueueSize; i++ {
		pool.Submit(func() {})
	}

	// The single queue is full now; the next task runs on this goroutine.
	ranInline := false
	pool.Submit(func() { ranInline = true })
	assert.True(t, ranInline)
	assert.Equal(t, uint64(1), pool.Stats().Inline)

	close(block)
}

func TestWorkerPool_SubmitAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close()

	assert.False(t, pool.Submit(func() {}))

	var wg sync.WaitGroup
	wg.Add(1)
	pool.Go(func() { wg.Done() })

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("task scheduled after Close never ran")
	}
}

func TestGoScheduler(t *testing.T) {
	var s Scheduler = GoScheduler{}
	done := make(chan struct{})
	s.Go(func() { close(done) })

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("task never ran")
	}
}

func BenchmarkWorkerPool_Submit(b *testing.B) {
	pool := NewWorkerPool(8)
	defer pool.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.Submit(func() {})
	}
}
