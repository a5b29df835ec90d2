// Package config handles loading application settings from environment
// variables (populated by the .env file in main.go).
package config

import (
	"errors"
	"os"
	"strconv"
)

// Default sizing for the batch pipeline.
const (
	DefaultSQLServerBatchSize = 100
	DefaultMongoBatchSize     = 200
	DefaultWorkerCount        = 4
)

// Config holds all configuration for the application.
type Config struct {
	SQLConnString   string
	MongoConnString string
	MongoDatabase   string
	RedisAddr       string

	HTTPAddr    string
	MetricsAddr string
	UploadDir   string
	LogMode     string

	SQLServerBatchSize int
	MongoBatchSize     int
	WorkerCount        int
}

// LoadConfig reads settings from environment variables. Connection
// strings for the two stores are required; everything else has a
// default.
func LoadConfig() (*Config, error) {
	sqlConn := os.Getenv("SQL_CONNECTION_STRING")
	if sqlConn == "" {
		return nil, errors.New("SQL_CONNECTION_STRING environment variable not set")
	}

	mongoConn := os.Getenv("MONGO_CONNECTION_STRING")
	if mongoConn == "" {
		return nil, errors.New("MONGO_CONNECTION_STRING environment variable not set")
	}

	return &Config{
		SQLConnString:      sqlConn,
		MongoConnString:    mongoConn,
		MongoDatabase:      getenv("MONGO_DATABASE", "consumer_app"),
		RedisAddr:          getenv("REDIS_ADDR", "localhost:6379"),
		HTTPAddr:           getenv("HTTP_ADDR", ":8080"),
		MetricsAddr:        getenv("METRICS_ADDR", ":9090"),
		UploadDir:          getenv("UPLOAD_DIR", "uploads"),
		LogMode:            getenv("LOG_MODE", "dev"),
		SQLServerBatchSize: getenvInt("SQLSERVER_BATCH_SIZE", DefaultSQLServerBatchSize),
		MongoBatchSize:     getenvInt("MONGO_BATCH_SIZE", DefaultMongoBatchSize),
		WorkerCount:        getenvInt("WORKER_COUNT", DefaultWorkerCount),
	}, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
