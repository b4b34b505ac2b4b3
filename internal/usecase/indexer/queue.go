package indexer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/taskmaster-cloud/tasksearch/internal/domain"
	"github.com/taskmaster-cloud/tasksearch/internal/metrics"
)

// Queue decouples indexing from the task-mutation request path. Enqueue
// never blocks the caller on the embedding provider; entries are keyed by
// task id so rapid successive edits of one task collapse into a single
// index operation carrying the latest content. Indexing failures are
// logged and counted, never surfaced to the mutating caller.
type Queue struct {
	svc     *Service
	logger  *zap.Logger
	workers int
	timeout time.Duration

	mu      sync.Mutex
	pending map[int64]domain.Task
	fifo    []int64

	wake   chan struct{}
	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewQueue creates an index queue draining into svc.
func NewQueue(svc *Service, workers int, embedTimeout time.Duration, logger *zap.Logger) *Queue {
	if workers <= 0 {
		workers = 1
	}
	return &Queue{
		svc:     svc,
		logger:  logger,
		workers: workers,
		timeout: embedTimeout,
		pending: make(map[int64]domain.Task),
		wake:    make(chan struct{}, 1),
	}
}

// Start launches the worker pool.
func (q *Queue) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel

	g, gctx := errgroup.WithContext(ctx)
	q.group = g
	for i := 0; i < q.workers; i++ {
		g.Go(func() error {
			q.run(gctx)
			return nil
		})
	}
}

// Stop signals the workers and waits for in-flight operations to finish.
// Tasks still pending at shutdown are dropped; they will be re-indexed on
// their next mutation.
func (q *Queue) Stop() {
	if q.cancel == nil {
		return
	}
	q.cancel()
	_ = q.group.Wait()
}

// Enqueue schedules a task for (re)indexing. Latest content wins per id.
func (q *Queue) Enqueue(t domain.Task) {
	q.mu.Lock()
	if _, queued := q.pending[t.ID]; !queued {
		q.fifo = append(q.fifo, t.ID)
	}
	q.pending[t.ID] = t
	metrics.IndexQueueDepth.Set(float64(len(q.fifo)))
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// pop removes the oldest pending task, if any.
func (q *Queue) pop() (domain.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.fifo) == 0 {
		return domain.Task{}, false
	}
	id := q.fifo[0]
	q.fifo = q.fifo[1:]
	t := q.pending[id]
	delete(q.pending, id)
	metrics.IndexQueueDepth.Set(float64(len(q.fifo)))
	return t, true
}

func (q *Queue) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		}

		for {
			t, ok := q.pop()
			if !ok {
				break
			}

			ictx, cancel := context.WithTimeout(ctx, q.timeout)
			err := q.svc.IndexTask(ictx, t)
			cancel()

			if err != nil {
				// Isolated from the mutation that triggered it: the task
				// write already committed.
				q.logger.Error("task indexing failed",
					zap.Int64("task_id", t.ID),
					zap.Error(err),
				)
			}
		}
	}
}
