package queue

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/luismelo4/ConsumerApp/pkg/logger"
	"github.com/luismelo4/ConsumerApp/pkg/models"
)

type task struct {
	taskType string
	jobID    string
	batch    []models.RawRecord
}

// MemoryQueue is an in-process worker pool standing in for the external
// task-queue runtime. Batches are dispatched to registered consumers by
// task type, with no ordering guarantee between tasks.
type MemoryQueue struct {
	log       *logger.Logger
	workers   int
	tasks     chan task
	mu        sync.RWMutex
	consumers map[string]Consumer
	group     *errgroup.Group
	closeOnce sync.Once
}

func NewMemoryQueue(log *logger.Logger, workers, buffer int) *MemoryQueue {
	if workers <= 0 {
		workers = 1
	}
	if buffer <= 0 {
		buffer = 64
	}
	return &MemoryQueue{
		log:       log.With("component", "queue"),
		workers:   workers,
		tasks:     make(chan task, buffer),
		consumers: make(map[string]Consumer),
	}
}

// Register binds a consumer to a task type. Must be called before Start.
func (q *MemoryQueue) Register(taskType string, c Consumer) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.consumers[taskType] = c
}

// Start launches the worker pool. Workers drain remaining tasks after
// Close is called, then exit.
func (q *MemoryQueue) Start(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	q.group = g
	for i := 0; i < q.workers; i++ {
		g.Go(func() error {
			for t := range q.tasks {
				q.dispatch(ctx, t)
			}
			return nil
		})
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, taskType string, batch []models.RawRecord, jobID string) error {
	q.mu.RLock()
	_, ok := q.consumers[taskType]
	q.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no consumer registered for task type %q", taskType)
	}
	select {
	case q.tasks <- task{taskType: taskType, jobID: jobID, batch: batch}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops intake and waits for in-flight and buffered tasks to finish.
func (q *MemoryQueue) Close() error {
	q.closeOnce.Do(func() { close(q.tasks) })
	if q.group != nil {
		return q.group.Wait()
	}
	return nil
}

func (q *MemoryQueue) dispatch(ctx context.Context, t task) {
	q.mu.RLock()
	c := q.consumers[t.taskType]
	q.mu.RUnlock()
	if c == nil {
		q.log.Error("dropping task with no consumer", "taskType", t.taskType, "jobID", t.jobID)
		return
	}
	if err := c.ProcessBatch(ctx, t.batch, t.jobID); err != nil {
		q.log.Error("batch processing failed", "taskType", t.taskType, "jobID", t.jobID, "error", err)
	}
}
