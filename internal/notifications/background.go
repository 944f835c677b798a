package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/safetydesk/safetydesk/internal/pkg/ctxlog"
)

// Task is one unit of background notification work.
type Task struct {
	ID   uuid.UUID
	Kind string
	Run  func(ctx context.Context) error
}

// Queue is a bounded in-process queue with a fixed worker pool.
// Submit never blocks the caller; when the queue is full the task is
// dropped with an error log. Tasks are not retried.
type Queue struct {
	tasks   chan Task
	workers int
	logger  *slog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewQueue creates a queue holding at most size pending tasks.
func NewQueue(size, workers int) *Queue {
	if size < 1 {
		size = 256
	}
	if workers < 1 {
		workers = 2
	}
	return &Queue{
		tasks:   make(chan Task, size),
		workers: workers,
		logger:  slog.Default(),
		stopCh:  make(chan struct{}),
	}
}

// Start launches the worker goroutines.
func (q *Queue) Start(ctx context.Context) {
	q.logger = ctxlog.FromContext(ctx)
	q.logger.Info("starting notification queue", "workers", q.workers, "capacity", cap(q.tasks))

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.run(ctx)
	}
}

// Stop lets workers finish their current task and exit. Whatever is
// still queued afterwards is dropped with an error log, not retried.
func (q *Queue) Stop() {
	close(q.stopCh)
	q.wg.Wait()

	for {
		select {
		case task := <-q.tasks:
			queueDropped.Inc()
			recordSent(task.Kind, "dropped")
			q.logger.Error("notification queue stopped, dropping task",
				"task_id", task.ID, "kind", task.Kind)
		default:
			queueDepth.Set(0)
			return
		}
	}
}

// Submit enqueues a task without blocking. Returns false when the queue
// is full and the task was dropped.
func (q *Queue) Submit(ctx context.Context, task Task) bool {
	select {
	case q.tasks <- task:
		queueDepth.Set(float64(len(q.tasks)))
		return true
	default:
		queueDropped.Inc()
		recordSent(task.Kind, "dropped")
		ctxlog.FromContext(ctx).Error("notification queue full, dropping task",
			"task_id", task.ID, "kind", task.Kind)
		return false
	}
}

func (q *Queue) run(ctx context.Context) {
	defer q.wg.Done()

	logger := ctxlog.FromContext(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.stopCh:
			return
		case task := <-q.tasks:
			queueDepth.Set(float64(len(q.tasks)))

			start := time.Now()
			err := task.Run(ctx)
			duration := time.Since(start)

			if err != nil {
				recordSent(task.Kind, "failed")
				logger.Error("notification task failed",
					"task_id", task.ID, "kind", task.Kind, "error", err)
				continue
			}

			recordSent(task.Kind, "success")
			recordSendDuration(task.Kind, duration)
			logger.Debug("notification task done",
				"task_id", task.ID, "kind", task.Kind, "duration", duration)
		}
	}
}
