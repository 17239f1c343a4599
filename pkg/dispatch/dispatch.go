package dispatch

import (
	"context"
	"fmt"
	"sync"
)

// Pool executes blocking external calls (embedding, search, completion,
// transcription, synthesis) on a small fixed set of workers so the
// request-handling goroutines never stall each other. One Pool is shared
// process-wide by all front ends.
type Pool struct {
	jobs chan job

	closeOnce sync.Once
	done      chan struct{}
}

type job struct {
	ctx  context.Context
	fn   func(ctx context.Context) (interface{}, error)
	task *Task
}

// Task is a handle for one submitted call. Wait delivers the result exactly
// once; later calls return the same outcome.
type Task struct {
	ch chan outcome

	mu     sync.Mutex
	result outcome
	filled bool
}

type outcome struct {
	value interface{}
	err   error
}

// NewPool starts workers goroutines. workers must be >= 1; values <= 0 fall
// back to 4, matching the original deployment's executor size.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 4
	}
	p := &Pool{
		jobs: make(chan job),
		done: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for {
		select {
		case <-p.done:
			return
		case j := <-p.jobs:
			if err := j.ctx.Err(); err != nil {
				j.task.deliver(nil, err)
				continue
			}
			value, err := j.fn(j.ctx)
			j.task.deliver(value, err)
		}
	}
}

// Submit queues fn for execution and returns immediately. The function runs
// with the submitted context; if that context is already cancelled when a
// worker picks the job up, the task fails with the context error without
// calling fn.
func (p *Pool) Submit(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) *Task {
	t := &Task{ch: make(chan outcome, 1)}
	j := job{ctx: ctx, fn: fn, task: t}

	select {
	case p.jobs <- j:
	case <-ctx.Done():
		t.deliver(nil, ctx.Err())
	case <-p.done:
		t.deliver(nil, fmt.Errorf("dispatch: pool closed"))
	}
	return t
}

// Run is Submit followed by Wait, for callers with nothing to overlap.
func (p *Pool) Run(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	return p.Submit(ctx, fn).Wait(ctx)
}

// Close stops the workers. In-flight calls finish; queued-but-unstarted
// submissions from other goroutines fail.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
}

func (t *Task) deliver(value interface{}, err error) {
	t.ch <- outcome{value: value, err: err}
}

// Wait blocks until the task completes or ctx is cancelled. Cancellation
// returns promptly with ctx.Err(); the underlying call keeps running on its
// worker but its result is retained for any later Wait.
func (t *Task) Wait(ctx context.Context) (interface{}, error) {
	t.mu.Lock()
	if t.filled {
		defer t.mu.Unlock()
		return t.result.value, t.result.err
	}
	t.mu.Unlock()

	select {
	case o := <-t.ch:
		t.mu.Lock()
		t.result = o
		t.filled = true
		t.mu.Unlock()
		return o.value, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
