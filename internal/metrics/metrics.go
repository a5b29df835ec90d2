package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RecordsDecoded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "consumer_app",
		Name:      "records_decoded_total",
		Help:      "Total records emitted by the streaming decoder.",
	})
	RecordsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "consumer_app",
		Name:      "records_skipped_total",
		Help:      "Total records dropped by validation or batch-local dedup.",
	})
	BatchesEnqueued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "consumer_app",
		Name:      "batches_enqueued_total",
		Help:      "Total batches enqueued, per sink.",
	}, []string{"sink"})
	BatchesProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "consumer_app",
		Name:      "batches_processed_total",
		Help:      "Total batches processed, per sink.",
	}, []string{"sink"})
	BatchesDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "consumer_app",
		Name:      "batches_dropped_total",
		Help:      "Total batches abandoned after a storage error, per sink.",
	}, []string{"sink"})
	FinalizeRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "consumer_app",
		Name:      "finalize_runs_total",
		Help:      "Total finalize (merge) executions, per sink.",
	}, []string{"sink"})
)

// Init registers collectors; call once from main.
func Init() {
	prometheus.MustRegister(RecordsDecoded, RecordsSkipped, BatchesEnqueued, BatchesProcessed, BatchesDropped, FinalizeRuns)
}

// Serve starts a /metrics server on the given addr. Blocking; run in a
// goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
