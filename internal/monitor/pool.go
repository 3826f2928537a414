package monitor

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
)

// ErrPoolClosed is returned by Submit once the pool has been closed.
var ErrPoolClosed = errors.New("worker pool is closed")

// WorkerPool runs submitted tasks on a fixed number of goroutines.
// It is shared by every fan-out in a Fleet, so the number of tasks running at
// once never exceeds its size.
type WorkerPool struct {
	tasks chan func()
	size  int
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool starts size workers. A size below 1 is treated as 1.
func NewWorkerPool(size int) *WorkerPool {
	if size < 1 {
		size = 1
	}
	p := &WorkerPool{
		tasks: make(chan func()),
		size:  size,
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Size returns the number of workers.
func (p *WorkerPool) Size() int {
	return p.size
}

// Close stops accepting tasks and waits for the workers to drain. It is safe
// to call more than once.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

// PanicError is the error a Handle reports when its task panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Handle is the pending result of one submitted task.
type Handle[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Wait blocks until the task finishes. err is a *PanicError if the task
// panicked and nil otherwise.
func (h *Handle[T]) Wait() (T, error) {
	<-h.done
	return h.value, h.err
}

// Submit queues fn on p. It blocks until a worker takes the task, so callers
// never queue more than the pool can run.
func Submit[T any](p *WorkerPool, fn func() T) (*Handle[T], error) {
	h := &Handle[T]{done: make(chan struct{})}
	task := func() {
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				h.err = &PanicError{Value: r, Stack: debug.Stack()}
			}
		}()
		h.value = fn()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrPoolClosed
	}
	p.tasks <- task
	return h, nil
}

// Await waits for every handle and returns values and errors index-aligned
// with handles. A nil handle yields ErrPoolClosed.
func Await[T any](handles []*Handle[T]) ([]T, []error) {
	values := make([]T, len(handles))
	errs := make([]error, len(handles))
	for i, h := range handles {
		if h == nil {
			errs[i] = ErrPoolClosed
			continue
		}
		values[i], errs[i] = h.Wait()
	}
	return values, errs
}
