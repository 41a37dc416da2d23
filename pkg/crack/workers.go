package crack

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/tool/logger"
	"golang.org/x/sync/semaphore"
)

const (
	searchStatusRunning = uint32(iota)
	searchStatusStopped
	searchStatusCancelled
)

// cancelCheckInterval is how many candidates a worker hashes between
// context checks. The shared status word is checked far more often; the
// context itself only at this granularity, since polling ctx.Err on every
// candidate would dominate the inner loop.
const cancelCheckInterval = 1 << 12

// searchShared is the state shared by all workers of one search run.
//
// Status signals that somebody hit a stop condition (capacity with early
// stop, or cancellation) and everybody else should stop wasting CPU. It is
// preferred over Context signaling in the inner loop for performance
// reasons.
type searchShared struct {
	GuessCount  atomic.Uint64
	ResultCount atomic.Uint64
	Truncated   atomic.Bool

	Status atomic.Uint32
}

func (s *searchShared) stopped() bool {
	return s.Status.Load() != searchStatusRunning
}

// checkContext maps context cancellation onto the shared status word.
// Returns true when the search should keep running.
func (s *searchShared) checkContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		s.Status.CompareAndSwap(searchStatusRunning, searchStatusCancelled)
	}
	return !s.stopped()
}

// newWorkerSemaphore returns a semaphore admitting n concurrent workers,
// or nil (unbounded) when n is not positive.
func newWorkerSemaphore(n int) *semaphore.Weighted {
	if n <= 0 {
		return nil
	}
	return semaphore.NewWeighted(int64(n))
}

// executeWorkers fans jobs out to one goroutine each (optionally bounded
// by sem), annotates each worker's context with its job, and feeds every
// worker's result to aggregateResults, which runs on the calling
// goroutine and returns once all workers have finished.
//
// The result channel is buffered for the full job count: a finished worker
// must be able to release its semaphore slot without waiting on the
// aggregator, which only starts consuming after the launch loop is done.
func executeWorkers[job any, result any, sharedData any](
	ctx context.Context,
	sem *semaphore.Weighted,
	jobs []job,
	workerExec func(context.Context, *job, sharedData) result,
	aggregateResults func(results <-chan result) result,
	shared sharedData,
) result {
	var wg sync.WaitGroup

	ctx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()

	workerResultCh := make(chan result, len(jobs))
	for _, j := range jobs {
		if sem != nil {
			if err := sem.Acquire(ctx, 1); err != nil {
				// Cancelled while waiting for a slot; the remaining
				// jobs are abandoned and the caller reports ctx.Err().
				logger.FromCtx(ctx).Debugf("stopped launching workers: %v", err)
				break
			}
		}
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			if sem != nil {
				defer sem.Release(1)
			}
			ctx := beltctx.WithField(ctx, "job", j)
			workerResultCh <- workerExec(ctx, &j, shared)
		}(j)
	}

	go func() {
		wg.Wait()
		close(workerResultCh)
	}()

	return aggregateResults(workerResultCh)
}
