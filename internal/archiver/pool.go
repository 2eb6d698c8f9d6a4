package archiver

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/partar/partar/internal/debug"
)

// Task is one unit of work run by a TaskPool. Directory walks and file loads
// are both tasks.
type Task func(ctx context.Context) error

// TaskPool runs tasks on a fixed number of worker goroutines. Tasks may submit
// further tasks while running. The queue is unbounded, so Submit never blocks
// and a worker can always hand off the directories it discovers.
type TaskPool struct {
	workers int

	m       sync.Mutex
	cond    *sync.Cond
	queue   []Task
	pending int // submitted but not yet finished
	sealed  bool
}

// NewTaskPool returns a pool with the given number of workers. Values below
// one are treated as one.
func NewTaskPool(workers int) *TaskPool {
	if workers < 1 {
		workers = 1
	}

	p := &TaskPool{workers: workers}
	p.cond = sync.NewCond(&p.m)
	return p
}

// Submit queues fn for execution.
func (p *TaskPool) Submit(fn Task) {
	p.m.Lock()
	p.queue = append(p.queue, fn)
	p.pending++
	p.m.Unlock()

	p.cond.Signal()
}

// Seal marks the end of the initial submissions. Once sealed, the pool is
// done as soon as no task is queued or running.
func (p *TaskPool) Seal() {
	p.m.Lock()
	p.sealed = true
	p.m.Unlock()

	p.cond.Broadcast()
}

// Run starts the workers and blocks until the pool is sealed and all tasks
// have finished, or until the first task fails. The first error is returned,
// the remaining queued tasks are dropped.
func (p *TaskPool) Run(ctx context.Context) error {
	wg, ctx := errgroup.WithContext(ctx)

	// wake up idle workers when the context is cancelled
	stop := context.AfterFunc(ctx, func() {
		p.m.Lock()
		p.m.Unlock()
		p.cond.Broadcast()
	})
	defer stop()

	debug.Log("start %d workers", p.workers)
	for i := 0; i < p.workers; i++ {
		wg.Go(func() error {
			return p.worker(ctx)
		})
	}

	err := wg.Wait()

	p.m.Lock()
	dropped := len(p.queue)
	p.queue = nil
	p.m.Unlock()

	if dropped > 0 {
		debug.Log("dropped %d queued tasks: %v", dropped, err)
	}
	return err
}

func (p *TaskPool) worker(ctx context.Context) error {
	for {
		fn, ok := p.next(ctx)
		if !ok {
			return ctx.Err()
		}

		err := fn(ctx)
		p.done()
		if err != nil {
			return err
		}
	}
}

// next returns the most recently submitted task. Working the queue from the
// back keeps it short for deep trees.
func (p *TaskPool) next(ctx context.Context) (Task, bool) {
	p.m.Lock()
	defer p.m.Unlock()

	for {
		if ctx.Err() != nil {
			return nil, false
		}

		if n := len(p.queue); n > 0 {
			fn := p.queue[n-1]
			p.queue[n-1] = nil
			p.queue = p.queue[:n-1]
			return fn, true
		}

		if p.sealed && p.pending == 0 {
			return nil, false
		}

		p.cond.Wait()
	}
}

func (p *TaskPool) done() {
	p.m.Lock()
	p.pending--
	finished := p.sealed && p.pending == 0
	p.m.Unlock()

	if finished {
		p.cond.Broadcast()
	}
}
