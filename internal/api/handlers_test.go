package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luismelo4/ConsumerApp/internal/coordination"
	"github.com/luismelo4/ConsumerApp/internal/etl"
	"github.com/luismelo4/ConsumerApp/pkg/logger"
	"github.com/luismelo4/ConsumerApp/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProductStore struct{}

func (stubProductStore) CreateStaging(context.Context, string) error { return nil }
func (stubProductStore) InsertStaging(context.Context, string, []models.Product) error {
	return nil
}
func (stubProductStore) MergeStaging(context.Context, string) error { return nil }
func (stubProductStore) DropStaging(context.Context, string) error  { return nil }

type stubQueue struct{}

func (stubQueue) Enqueue(context.Context, string, []models.RawRecord, string) error { return nil }

func newTestServer(t *testing.T, counters coordination.Store) *gin.Engine {
	t.Helper()
	log := logger.NewNop()
	imp := etl.NewImporter(log, counters, stubQueue{}, stubProductStore{}, 100, 200)
	return NewRouter(NewServer(log, imp, nil, nil, "consumer_app_test", counters, t.TempDir()))
}

func TestUploadFileRejectsMissingFile(t *testing.T) {
	r := newTestServer(t, coordination.NewMemoryStore())

	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "No file uploaded.", body["error"])
}

func TestUploadFileStartsImportJob(t *testing.T) {
	counters := coordination.NewMemoryStore()
	r := newTestServer(t, counters)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "feed.json")
	require.NoError(t, err)
	_, err = fw.Write([]byte(`[{"sku":"a","availability":true,"price":1.5}]`))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "File upload started.", body["message"])
	require.NotEmpty(t, body["job_id"])

	status, err := counters.JobStatus(context.Background(), body["job_id"])
	require.NoError(t, err)
	assert.Equal(t, coordination.StatusRunning, status)

	// the decode pass runs in the background; wait for the flags to clear
	deadline := time.Now().Add(2 * time.Second)
	for {
		inProgress, err := counters.InProgress(context.Background(), body["job_id"], models.SinkSQLServer)
		require.NoError(t, err)
		if !inProgress || time.Now().After(deadline) {
			assert.False(t, inProgress)
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestGetImportReportsCounterSnapshot(t *testing.T) {
	counters := coordination.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, counters.SetJobStatus(ctx, "job1", coordination.StatusRunning))
	require.NoError(t, counters.SetInProgress(ctx, "job1", models.SinkSQLServer, true))
	_, err := counters.IncrEnqueued(ctx, "job1", models.SinkSQLServer)
	require.NoError(t, err)

	r := newTestServer(t, counters)
	req := httptest.NewRequest(http.MethodGet, "/imports/job1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
		Sinks  map[string]struct {
			BatchesEnqueued  int64 `json:"batches_enqueued"`
			BatchesProcessed int64 `json:"batches_processed"`
			InProgress       bool  `json:"in_progress"`
		} `json:"sinks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "job1", body.JobID)
	assert.Equal(t, coordination.StatusRunning, body.Status)
	assert.EqualValues(t, 1, body.Sinks[models.SinkSQLServer].BatchesEnqueued)
	assert.True(t, body.Sinks[models.SinkSQLServer].InProgress)
	assert.False(t, body.Sinks[models.SinkMongo].InProgress)
}

func TestGetImportUnknownJob(t *testing.T) {
	r := newTestServer(t, coordination.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/imports/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	r := newTestServer(t, coordination.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/imports/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
