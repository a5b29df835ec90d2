package etl

import (
	"context"

	"github.com/luismelo4/ConsumerApp/internal/coordination"
	"github.com/luismelo4/ConsumerApp/internal/metrics"
	"github.com/luismelo4/ConsumerApp/internal/queue"
	"github.com/luismelo4/ConsumerApp/pkg/models"
)

// Accumulator buffers records for one sink and flushes them to the task
// queue as full batches.
type Accumulator struct {
	sink     string
	taskType string
	jobID    string
	capacity int
	queue    queue.Queue
	counters coordination.Store
	buf      []models.RawRecord
}

func NewAccumulator(sink, taskType, jobID string, capacity int, q queue.Queue, counters coordination.Store) *Accumulator {
	return &Accumulator{
		sink:     sink,
		taskType: taskType,
		jobID:    jobID,
		capacity: capacity,
		queue:    q,
		counters: counters,
		buf:      make([]models.RawRecord, 0, capacity),
	}
}

// Append adds one record to the buffer, flushing the current contents
// first when the buffer is at capacity.
func (a *Accumulator) Append(ctx context.Context, rec models.RawRecord) error {
	if len(a.buf) >= a.capacity {
		if err := a.Flush(ctx); err != nil {
			return err
		}
	}
	a.buf = append(a.buf, rec)
	return nil
}

// Flush submits the buffered records as one batch task and clears the
// buffer. The enqueued counter advances even for an empty buffer, so
// callers must only flush a non-empty buffer mid-stream.
func (a *Accumulator) Flush(ctx context.Context) error {
	if _, err := a.counters.IncrEnqueued(ctx, a.jobID, a.sink); err != nil {
		return err
	}
	metrics.BatchesEnqueued.WithLabelValues(a.sink).Inc()
	if len(a.buf) == 0 {
		return nil
	}
	batch := a.buf
	a.buf = make([]models.RawRecord, 0, a.capacity)
	return a.queue.Enqueue(ctx, a.taskType, batch, a.jobID)
}

// Len returns the number of buffered records.
func (a *Accumulator) Len() int { return len(a.buf) }
