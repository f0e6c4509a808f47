// Package worker provides a fixed-size goroutine pool. Work submitted to
// the pool hands back a Future that resolves once the work has run.
package worker

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// QueueDepthPerWorker bounds how many submitted tasks may wait per worker
// before Submit blocks.
const QueueDepthPerWorker = 16

var (
	ErrPoolClosed   = errors.New("worker pool is closed")
	ErrTaskPanicked = errors.New("worker task panicked")
)

// Pool runs tasks on a fixed number of goroutines.
type Pool struct {
	size  int
	tasks chan func()
	g     errgroup.Group

	mu     sync.RWMutex
	closed bool
}

// NewPool starts a pool with size workers. A size below 1 is treated as 1.
func NewPool(size int) *Pool {
	size = max(1, size)
	p := &Pool{
		size:  size,
		tasks: make(chan func(), size*QueueDepthPerWorker),
	}
	for i := 0; i < size; i++ {
		p.g.Go(func() error {
			for task := range p.tasks {
				task()
			}
			return nil
		})
	}
	log.Debug().Int("workers", size).Msg("worker-pool-started")
	return p
}

// Size is the number of worker goroutines.
func (p *Pool) Size() int {
	return p.size
}

// Close stops accepting work and waits for queued tasks to finish.
// Calling Close more than once is harmless.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	err := p.g.Wait()
	log.Debug().Int("workers", p.size).Msg("worker-pool-closed")
	return err
}

// Future is the pending result of a submitted task.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Get blocks until the task has run and returns its result.
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.val, f.err
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Submit queues fn on the pool. It blocks while the queue is full. A panic
// inside fn is recovered and reported through the future as ErrTaskPanicked.
func Submit[T any](p *Pool, fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		f.err = ErrPoolClosed
		close(f.done)
		return f
	}
	p.tasks <- func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
			}
		}()
		f.val, f.err = fn()
	}
	return f
}
