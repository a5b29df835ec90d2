// Package coordination tracks per-job, per-sink batch counters and the
// completion barrier that decides when a sink may finalize an import.
package coordination

import (
	"context"
	"fmt"
)

// Job statuses, readable by external callers.
const (
	StatusRunning = "running"
	StatusFailed  = "failed"
)

// Store is the shared counter store consulted by the router and both
// sink consumers. Implementations must make Incr* atomic and Claim a
// set-if-absent so finalize fires exactly once per (job, sink) even
// when multiple workers observe the barrier condition simultaneously.
type Store interface {
	// SetInProgress flips the router-side in-progress flag for a sink.
	SetInProgress(ctx context.Context, jobID, sink string, inProgress bool) error
	InProgress(ctx context.Context, jobID, sink string) (bool, error)

	// ResetCounters zeroes the enqueued/processed counters for a sink.
	ResetCounters(ctx context.Context, jobID, sink string) error
	IncrEnqueued(ctx context.Context, jobID, sink string) (int64, error)
	IncrProcessed(ctx context.Context, jobID, sink string) (int64, error)
	Counts(ctx context.Context, jobID, sink string) (enqueued, processed int64, err error)

	// ClaimFinalize atomically claims the right to run the sink's
	// finalize step. It returns true for exactly one caller per
	// (job, sink).
	ClaimFinalize(ctx context.Context, jobID, sink string) (bool, error)

	SetJobStatus(ctx context.Context, jobID, status string) error
	JobStatus(ctx context.Context, jobID string) (string, error)
}

// BarrierSatisfied reports whether all batches for the sink have been
// enqueued and processed and no more will arrive.
func BarrierSatisfied(ctx context.Context, s Store, jobID, sink string) (bool, error) {
	inProgress, err := s.InProgress(ctx, jobID, sink)
	if err != nil {
		return false, err
	}
	if inProgress {
		return false, nil
	}
	enqueued, processed, err := s.Counts(ctx, jobID, sink)
	if err != nil {
		return false, err
	}
	return enqueued == processed, nil
}

// Counter keys are flat strings so they stay inspectable with plain
// GETs.
func enqueuedKey(jobID, sink string) string {
	return fmt.Sprintf("%s_batches_enqueued_%s", sink, jobID)
}

func processedKey(jobID, sink string) string {
	return fmt.Sprintf("%s_batches_processed_%s", sink, jobID)
}

func inProgressKey(jobID, sink string) string {
	return fmt.Sprintf("%s_import_in_progress_%s", sink, jobID)
}

func finalizeKey(jobID, sink string) string {
	return fmt.Sprintf("%s_finalize_claimed_%s", sink, jobID)
}

func statusKey(jobID string) string {
	return fmt.Sprintf("job_status_%s", jobID)
}
