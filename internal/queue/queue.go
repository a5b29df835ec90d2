// Package queue defines the task-queue boundary the import pipeline
// enqueues batches into. The surrounding runtime guarantees at-least-once
// delivery and no ordering across tasks, so consumers must be idempotent.
package queue

import (
	"context"

	"github.com/luismelo4/ConsumerApp/pkg/models"
)

// Queue submits one batch of raw records for asynchronous processing.
type Queue interface {
	Enqueue(ctx context.Context, taskType string, batch []models.RawRecord, jobID string) error
}

// Consumer processes one delivered batch. Implementations must tolerate
// redelivery of the same batch.
type Consumer interface {
	ProcessBatch(ctx context.Context, batch []models.RawRecord, jobID string) error
}

// ConsumerFunc adapts a function to the Consumer interface.
type ConsumerFunc func(ctx context.Context, batch []models.RawRecord, jobID string) error

func (f ConsumerFunc) ProcessBatch(ctx context.Context, batch []models.RawRecord, jobID string) error {
	return f(ctx, batch, jobID)
}
