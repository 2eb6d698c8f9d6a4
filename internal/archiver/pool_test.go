package archiver

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/partar/partar/internal/errors"
	rtest "github.com/partar/partar/internal/test"
)

// submitTree submits a task which submits fanout children, down to depth.
func submitTree(pool *TaskPool, depth, fanout int, fn func()) {
	pool.Submit(func(_ context.Context) error {
		fn()
		if depth > 0 {
			for i := 0; i < fanout; i++ {
				submitTree(pool, depth-1, fanout, fn)
			}
		}
		return nil
	})
}

func TestTaskPoolRunsSubmittedTasks(t *testing.T) {
	for _, workers := range []int{1, 2, 8} {
		t.Run(fmt.Sprintf("workers-%d", workers), func(t *testing.T) {
			pool := NewTaskPool(workers)

			var count, running, peak atomic.Int64
			task := func() {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(50 * time.Microsecond)
				count.Add(1)
				running.Add(-1)
			}

			// 1 + 3 + 9 + 27 + 81 tasks per tree
			submitTree(pool, 4, 3, task)
			submitTree(pool, 4, 3, task)
			pool.Seal()

			rtest.OK(t, pool.Run(context.Background()))
			rtest.Equals(t, int64(2*121), count.Load())
			rtest.Assert(t, peak.Load() <= int64(workers),
				"%d tasks ran concurrently with %d workers", peak.Load(), workers)
		})
	}
}

func TestTaskPoolEmpty(t *testing.T) {
	pool := NewTaskPool(4)
	pool.Seal()
	rtest.OK(t, pool.Run(context.Background()))
}

func TestTaskPoolFirstError(t *testing.T) {
	pool := NewTaskPool(4)
	testErr := errors.New("task failed")

	var started sync.WaitGroup
	started.Add(3)

	// tasks are taken from the back of the queue, so this one runs last
	pool.Submit(func(_ context.Context) error {
		started.Wait()
		return testErr
	})

	var cancelled atomic.Int64
	for i := 0; i < 3; i++ {
		pool.Submit(func(ctx context.Context) error {
			started.Done()
			<-ctx.Done()
			cancelled.Add(1)
			return ctx.Err()
		})
	}
	pool.Seal()

	err := pool.Run(context.Background())
	rtest.Assert(t, errors.Is(err, testErr), "expected %v, got %v", testErr, err)
	rtest.Equals(t, int64(3), cancelled.Load())
}

func TestTaskPoolCancel(t *testing.T) {
	pool := NewTaskPool(2)
	// never sealed, so the workers wait for more tasks until cancelled
	pool.Submit(func(_ context.Context) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := pool.Run(ctx)
	rtest.Assert(t, errors.Is(err, context.Canceled), "expected context.Canceled, got %v", err)
}
