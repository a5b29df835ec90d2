package etl

import (
	"context"
	"fmt"

	"github.com/luismelo4/ConsumerApp/internal/coordination"
	"github.com/luismelo4/ConsumerApp/internal/metrics"
	"github.com/luismelo4/ConsumerApp/pkg/logger"
	"github.com/luismelo4/ConsumerApp/pkg/models"
)

// DefaultSQLInsertChunkSize is the number of rows per staging MERGE
// statement.
const DefaultSQLInsertChunkSize = 100

// SQLServerSink consumes relational batches: it normalizes and
// deduplicates the delivered records, inserts them into the job's
// staging table, and performs the staging-to-products merge once the
// completion barrier fires.
type SQLServerSink struct {
	store     ProductStore
	counters  coordination.Store
	log       *logger.Logger
	chunkSize int
}

func NewSQLServerSink(store ProductStore, counters coordination.Store, log *logger.Logger) *SQLServerSink {
	return &SQLServerSink{
		store:     store,
		counters:  counters,
		log:       log.With("sink", models.SinkSQLServer),
		chunkSize: DefaultSQLInsertChunkSize,
	}
}

// ProcessBatch handles one delivered batch. Storage errors abandon the
// affected chunk but never abort the job: the processed counter still
// advances so the barrier can fire.
func (s *SQLServerSink) ProcessBatch(ctx context.Context, batch []models.RawRecord, jobID string) error {
	log := s.log.With("jobID", jobID)
	products := NormalizeBatch(batch, log)

	for start := 0; start < len(products); start += s.chunkSize {
		end := min(start+s.chunkSize, len(products))
		if err := s.store.InsertStaging(ctx, jobID, products[start:end]); err != nil {
			log.Error("error during batch insert into staging table", "error", err)
			metrics.BatchesDropped.WithLabelValues(models.SinkSQLServer).Inc()
		}
	}

	if _, err := s.counters.IncrProcessed(ctx, jobID, models.SinkSQLServer); err != nil {
		return fmt.Errorf("increment processed counter: %w", err)
	}
	metrics.BatchesProcessed.WithLabelValues(models.SinkSQLServer).Inc()

	return s.checkForMerge(ctx, jobID)
}

// checkForMerge evaluates the completion barrier and, for exactly one
// worker, merges the staging table into products and drops it.
func (s *SQLServerSink) checkForMerge(ctx context.Context, jobID string) error {
	done, err := coordination.BarrierSatisfied(ctx, s.counters, jobID, models.SinkSQLServer)
	if err != nil {
		return fmt.Errorf("evaluate barrier: %w", err)
	}
	if !done {
		return nil
	}
	claimed, err := s.counters.ClaimFinalize(ctx, jobID, models.SinkSQLServer)
	if err != nil {
		return fmt.Errorf("claim finalize: %w", err)
	}
	if !claimed {
		return nil
	}

	s.log.Info("last batch detected, merging staging table into products", "jobID", jobID)
	if err := s.store.MergeStaging(ctx, jobID); err != nil {
		return fmt.Errorf("merge staging table: %w", err)
	}
	if err := s.store.DropStaging(ctx, jobID); err != nil {
		return fmt.Errorf("drop staging table: %w", err)
	}
	metrics.FinalizeRuns.WithLabelValues(models.SinkSQLServer).Inc()
	s.log.Info("staging table merged and dropped", "jobID", jobID)
	return nil
}
