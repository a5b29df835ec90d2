package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/luismelo4/ConsumerApp/internal/api"
	"github.com/luismelo4/ConsumerApp/internal/config"
	"github.com/luismelo4/ConsumerApp/internal/coordination"
	"github.com/luismelo4/ConsumerApp/internal/etl"
	"github.com/luismelo4/ConsumerApp/internal/metrics"
	"github.com/luismelo4/ConsumerApp/internal/queue"
	"github.com/luismelo4/ConsumerApp/pkg/database"
	"github.com/luismelo4/ConsumerApp/pkg/logger"
	"github.com/luismelo4/ConsumerApp/pkg/models"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and batch workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
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

	metrics.Init()
	go func() {
		if err := metrics.Serve(cfg.MetricsAddr); err != nil {
			log.Error("metrics server stopped", "error", err)
		}
	}()

	counters := coordination.NewRedisStore(rdb)
	productStore := etl.NewSQLProductStore(sqlDB)
	documentStore := etl.NewMongoDocumentStore(mongoClient, cfg.MongoDatabase)

	q := queue.NewMemoryQueue(log, cfg.WorkerCount, 256)
	q.Register(models.TaskProcessBatchSQLServer, etl.NewSQLServerSink(productStore, counters, log))
	q.Register(models.TaskProcessBatchMongo, etl.NewMongoSink(documentStore, counters, log))
	q.Start(context.Background())
	defer q.Close()

	importer := etl.NewImporter(log, counters, q, productStore, cfg.SQLServerBatchSize, cfg.MongoBatchSize)
	server := api.NewServer(log, importer, sqlDB, mongoClient, cfg.MongoDatabase, counters, cfg.UploadDir)

	log.Info("server started", "addr", cfg.HTTPAddr, "metrics", cfg.MetricsAddr, "workers", cfg.WorkerCount)
	return api.NewRouter(server).Run(cfg.HTTPAddr)
}
