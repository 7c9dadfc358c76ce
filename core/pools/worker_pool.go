package pools

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Task is one connection's worth of work.
type Task func()

// Scheduler runs connection tasks. Implementations never queue without bound
// and never drop a task.
type Scheduler interface {
	Go(task Task)
}

// GoScheduler runs every task on its own goroutine.
type GoScheduler struct{}

func (GoScheduler) Go(task Task) { go task() }

// WorkerPool is a fixed set of goroutines, each with a small queue. Idle
// workers steal from their neighbours. When every queue tried is full the
// task runs inline on the submitting goroutine, so submission applies
// backpressure instead of queueing.
type WorkerPool struct {
	numWorkers int
	queues     []chan Task

	mu     sync.RWMutex // guards closed against queue sends
	closed bool
	wg     sync.WaitGroup
	next   atomic.Uint64

	submitted atomic.Uint64
	completed atomic.Uint64
	inline    atomic.Uint64
	steals    atomic.Uint64
}

// DefaultQueueSize is the per-worker queue length.
const DefaultQueueSize = 64

// NewWorkerPool starts numWorkers workers (runtime.NumCPU() when <= 0).
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	p := &WorkerPool{
		numWorkers: numWorkers,
		queues:     make([]chan Task, numWorkers),
	}
	for i := range p.queues {
		p.queues[i] = make(chan Task, DefaultQueueSize)
	}

	p.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go p.run(i)
	}
	return p
}

// Go implements Scheduler. After Close the task runs on a fresh goroutine.
func (p *WorkerPool) Go(task Task) {
	if !p.Submit(task) {
		go task()
	}
}

// Submit hands task to a worker, or runs it inline when the two queues tried
// are full. It returns false once the pool is closed.
func (p *WorkerPool) Submit(task Task) bool {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return false
	}
	p.submitted.Add(1)

	idx := int(p.next.Add(1) % uint64(p.numWorkers))
	for attempt := 0; attempt < 2; attempt++ {
		select {
		case p.queues[idx] <- task:
			p.mu.RUnlock()
			return true
		default:
			idx = (idx + 1) % p.numWorkers
		}
	}
	p.mu.RUnlock()

	p.inline.Add(1)
	p.exec(task)
	return true
}

func (p *WorkerPool) run(id int) {
	defer p.wg.Done()
	own := p.queues[id]

	for {
		select {
		case task, ok := <-own:
			if !ok {
				return
			}
			p.exec(task)
			continue
		default:
		}

		if p.steal(id) {
			continue
		}

		task, ok := <-own
		if !ok {
			return
		}
		p.exec(task)
	}
}

// steal takes one task from another worker's queue.
func (p *WorkerPool) steal(id int) bool {
	for i := 1; i < p.numWorkers; i++ {
		victim := p.queues[(id+i)%p.numWorkers]
		select {
		case task, ok := <-victim:
			if ok {
				p.steals.Add(1)
				p.exec(task)
				return true
			}
		default:
		}
	}
	return false
}

func (p *WorkerPool) exec(task Task) {
	defer p.completed.Add(1)
	task()
}

// Close stops accepting tasks, lets the workers drain their queues and
// waits for them to exit.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for _, q := range p.queues {
		close(q)
	}
	p.mu.Unlock()

	p.wg.Wait()
}

// WorkerPoolStats is a snapshot of pool counters.
type WorkerPoolStats struct {
	NumWorkers int
	Submitted  uint64
	Completed  uint64
	Inline     uint64
	Steals     uint64
}

// Stats returns a snapshot of pool counters.
func (p *WorkerPool) Stats() WorkerPoolStats {
	return WorkerPoolStats{
		NumWorkers: p.numWorkers,
		Submitted:  p.submitted.Load(),
		Completed:  p.completed.Load(),
		Inline:     p.inline.Load(),
		Steals:     p.steals.Load(),
	}
}
