package etl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/luismelo4/ConsumerApp/internal/coordination"
	"github.com/luismelo4/ConsumerApp/internal/queue"
	"github.com/luismelo4/ConsumerApp/pkg/logger"
	"github.com/luismelo4/ConsumerApp/pkg/models"
)

// Importer owns the decode-and-route pass of an import job: it
// initializes per-sink coordination state, creates the staging table,
// streams the file through the decoder, and flips the in-progress flags
// when the stream ends.
type Importer struct {
	log      *logger.Logger
	counters coordination.Store
	queue    queue.Queue
	products ProductStore

	sqlBatchSize   int
	mongoBatchSize int
}

func NewImporter(log *logger.Logger, counters coordination.Store, q queue.Queue, products ProductStore, sqlBatchSize, mongoBatchSize int) *Importer {
	return &Importer{
		log:            log.With("component", "importer"),
		counters:       counters,
		queue:          q,
		products:       products,
		sqlBatchSize:   sqlBatchSize,
		mongoBatchSize: mongoBatchSize,
	}
}

// Start accepts a readable file path, initializes the job, and runs the
// decode pass in the background. It returns the generated job ID
// immediately so callers can watch the counters.
func (imp *Importer) Start(ctx context.Context, filePath string) (string, error) {
	jobID := newJobID()
	if err := imp.initJob(ctx, jobID); err != nil {
		return "", err
	}
	go func() {
		// the decode pass outlives the upload request
		if err := imp.run(context.Background(), jobID, filePath); err != nil {
			imp.log.Error("import run failed", "jobID", jobID, "error", err)
		}
	}()
	return jobID, nil
}

// Import runs a whole import synchronously. Used by the CLI.
func (imp *Importer) Import(ctx context.Context, filePath string) (string, error) {
	jobID := newJobID()
	if err := imp.initJob(ctx, jobID); err != nil {
		return "", err
	}
	return jobID, imp.run(ctx, jobID, filePath)
}

// initJob marks both sinks in progress with zeroed counters and creates
// the job's staging table. Runs before any batch can be enqueued.
func (imp *Importer) initJob(ctx context.Context, jobID string) error {
	if err := imp.counters.SetJobStatus(ctx, jobID, coordination.StatusRunning); err != nil {
		return fmt.Errorf("set job status: %w", err)
	}
	for _, sink := range []string{models.SinkSQLServer, models.SinkMongo} {
		if err := imp.counters.SetInProgress(ctx, jobID, sink, true); err != nil {
			return fmt.Errorf("set in-progress for %s: %w", sink, err)
		}
		if err := imp.counters.ResetCounters(ctx, jobID, sink); err != nil {
			return fmt.Errorf("reset counters for %s: %w", sink, err)
		}
	}
	if err := imp.products.CreateStaging(ctx, jobID); err != nil {
		return err
	}
	return nil
}

func (imp *Importer) run(ctx context.Context, jobID, filePath string) (err error) {
	log := imp.log.With("jobID", jobID)
	log.Info("starting file import", "file", filePath)
	start := time.Now()

	// Outstanding batches must be able to drain even after a failed
	// decode, so the in-progress flags clear on every exit path.
	defer func() {
		for _, sink := range []string{models.SinkSQLServer, models.SinkMongo} {
			if ferr := imp.counters.SetInProgress(ctx, jobID, sink, false); ferr != nil && err == nil {
				err = fmt.Errorf("clear in-progress for %s: %w", sink, ferr)
			}
		}
	}()

	f, err := os.Open(filePath)
	if err != nil {
		_ = imp.counters.SetJobStatus(ctx, jobID, coordination.StatusFailed)
		return fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	router := NewRouter(log,
		NewAccumulator(models.SinkSQLServer, models.TaskProcessBatchSQLServer, jobID, imp.sqlBatchSize, imp.queue, imp.counters),
		NewAccumulator(models.SinkMongo, models.TaskProcessBatchMongo, jobID, imp.mongoBatchSize, imp.queue, imp.counters),
	)

	if err := NewDecoder(bufio.NewReader(f), router).Run(ctx); err != nil {
		_ = imp.counters.SetJobStatus(ctx, jobID, coordination.StatusFailed)
		if errors.Is(err, ErrDecode) {
			// fatal to the job; flushed batches are left for their consumers
			return err
		}
		return fmt.Errorf("routing records: %w", err)
	}

	if err := router.FlushRemaining(ctx); err != nil {
		_ = imp.counters.SetJobStatus(ctx, jobID, coordination.StatusFailed)
		return fmt.Errorf("flushing final batches: %w", err)
	}

	log.Info("file import completed", "records", router.Decoded(), "duration", time.Since(start))
	return nil
}

// newJobID returns a hex job identifier safe to embed in a table name.
func newJobID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
