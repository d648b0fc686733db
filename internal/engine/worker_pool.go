package engine

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// workerPool runs one goroutine per shard, each draining its own bounded
// queue. Jobs submitted under the same key land on the same shard and are
// therefore processed in submission order.
type workerPool[T any] struct {
	queues  []chan T
	process func(ctx context.Context, t T)
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// newWorkerPool creates and starts a pool with n shards of depth queued jobs each.
func newWorkerPool[T any](ctx context.Context, n, depth int, fn func(context.Context, T)) *workerPool[T] {
	if n < 1 {
		n = 1
	}
	p := &workerPool[T]{
		queues:  make([]chan T, n),
		process: fn,
	}
	for i := range p.queues {
		q := make(chan T, depth)
		p.queues[i] = q
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx, q)
		}()
	}
	return p
}

func (p *workerPool[T]) run(ctx context.Context, q <-chan T) {
	for {
		select {
		case j, ok := <-q:
			if !ok {
				return
			}
			p.process(ctx, j)
		case <-ctx.Done():
			return
		}
	}
}

// Submit enqueues t on key's shard without blocking (returns false if full or drained).
func (p *workerPool[T]) Submit(key string, t T) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.queues[p.shard(key)] <- t:
		return true
	default:
		return false
	}
}

func (p *workerPool[T]) shard(key string) int {
	return int(xxhash.Sum64String(key) % uint64(len(p.queues)))
}

// Drain closes the queues and waits for all workers to finish.
func (p *workerPool[T]) Drain() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		for _, q := range p.queues {
			close(q)
		}
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// QueueLen returns how many jobs are currently queued across shards.
func (p *workerPool[T]) QueueLen() int {
	n := 0
	for _, q := range p.queues {
		n += len(q)
	}
	return n
}

// QueueCap returns the total queue capacity across shards.
func (p *workerPool[T]) QueueCap() int {
	n := 0
	for _, q := range p.queues {
		n += cap(q)
	}
	return n
}
