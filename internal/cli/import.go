package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/luismelo4/ConsumerApp/internal/config"
	"github.com/luismelo4/ConsumerApp/internal/coordination"
	"github.com/luismelo4/ConsumerApp/internal/etl"
	"github.com/luismelo4/ConsumerApp/internal/queue"
	"github.com/luismelo4/ConsumerApp/pkg/database"
	"github.com/luismelo4/ConsumerApp/pkg/logger"
	"github.com/luismelo4/ConsumerApp/pkg/models"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Import one product feed file and wait for both sinks to finish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(args[0])
		},
	}
}

func runImport(filePath string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	sqlDB, err := database.ConnectSQL(cfg.SQLConnString)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	mongoClient, err := database.ConnectMongo(cfg.MongoConnString)
	if err != nil {
		return err
	}
	defer mongoClient.Disconnect(context.Background())

	rdb, err := database.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer rdb.Close()

	counters := coordination.NewRedisStore(rdb)
	productStore := etl.NewSQLProductStore(sqlDB)
	documentStore := etl.NewMongoDocumentStore(mongoClient, cfg.MongoDatabase)

	q := queue.NewMemoryQueue(log, cfg.WorkerCount, 256)
	q.Register(models.TaskProcessBatchSQLServer, etl.NewSQLServerSink(productStore, counters, log))
	q.Register(models.TaskProcessBatchMongo, etl.NewMongoSink(documentStore, counters, log))

	ctx := context.Background()
	q.Start(ctx)

	importer := etl.NewImporter(log, counters, q, productStore, cfg.SQLServerBatchSize, cfg.MongoBatchSize)
	jobID, importErr := importer.Import(ctx, filePath)

	// drain outstanding batches even when the decode pass failed
	if err := q.Close(); err != nil {
		log.Error("worker pool shut down with error", "error", err)
	}
	if importErr != nil {
		return importErr
	}

	for _, sink := range []string{models.SinkSQLServer, models.SinkMongo} {
		enqueued, processed, err := counters.Counts(ctx, jobID, sink)
		if err != nil {
			return err
		}
		log.Info("sink finished", "jobID", jobID, "sink", sink, "batchesEnqueued", enqueued, "batchesProcessed", processed)
	}
	return nil
}
