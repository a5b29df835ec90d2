package etl

import (
	"context"
	"fmt"

	"github.com/luismelo4/ConsumerApp/internal/coordination"
	"github.com/luismelo4/ConsumerApp/internal/metrics"
	"github.com/luismelo4/ConsumerApp/pkg/logger"
	"github.com/luismelo4/ConsumerApp/pkg/models"
)

// DefaultMongoInsertChunkSize is the number of documents per BulkWrite.
const DefaultMongoInsertChunkSize = 200

// MongoSink consumes document batches and upserts them directly into
// the permanent collection. There is no staging step, so finalize only
// logs.
type MongoSink struct {
	store     DocumentStore
	counters  coordination.Store
	log       *logger.Logger
	chunkSize int
}

func NewMongoSink(store DocumentStore, counters coordination.Store, log *logger.Logger) *MongoSink {
	return &MongoSink{
		store:     store,
		counters:  counters,
		log:       log.With("sink", models.SinkMongo),
		chunkSize: DefaultMongoInsertChunkSize,
	}
}

// ProcessBatch handles one delivered batch. Failure semantics match the
// relational sink: a storage error abandons the chunk, counters still
// advance.
func (m *MongoSink) ProcessBatch(ctx context.Context, batch []models.RawRecord, jobID string) error {
	log := m.log.With("jobID", jobID)
	products := NormalizeBatch(batch, log)

	for start := 0; start < len(products); start += m.chunkSize {
		end := min(start+m.chunkSize, len(products))
		if err := m.store.BulkUpsert(ctx, products[start:end]); err != nil {
			log.Error("error during bulk upsert into MongoDB", "error", err)
			metrics.BatchesDropped.WithLabelValues(models.SinkMongo).Inc()
		}
	}

	if _, err := m.counters.IncrProcessed(ctx, jobID, models.SinkMongo); err != nil {
		return fmt.Errorf("increment processed counter: %w", err)
	}
	metrics.BatchesProcessed.WithLabelValues(models.SinkMongo).Inc()

	return m.checkForFinalize(ctx, jobID)
}

func (m *MongoSink) checkForFinalize(ctx context.Context, jobID string) error {
	done, err := coordination.BarrierSatisfied(ctx, m.counters, jobID, models.SinkMongo)
	if err != nil {
		return fmt.Errorf("evaluate barrier: %w", err)
	}
	if !done {
		return nil
	}
	claimed, err := m.counters.ClaimFinalize(ctx, jobID, models.SinkMongo)
	if err != nil {
		return fmt.Errorf("claim finalize: %w", err)
	}
	if !claimed {
		return nil
	}

	// documents are already in their permanent location
	metrics.FinalizeRuns.WithLabelValues(models.SinkMongo).Inc()
	m.log.Info("last batch detected, finalizing MongoDB processing", "jobID", jobID)
	return nil
}
