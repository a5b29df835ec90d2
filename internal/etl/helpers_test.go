package etl

import (
	"context"
	"fmt"
	"sync"

	"github.com/luismelo4/ConsumerApp/pkg/models"
)

// fakeQueue records every enqueued batch instead of dispatching it.
type fakeQueue struct {
	mu      sync.Mutex
	types   []string
	jobIDs  []string
	batches [][]models.RawRecord
}

func (q *fakeQueue) Enqueue(_ context.Context, taskType string, batch []models.RawRecord, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.types = append(q.types, taskType)
	q.jobIDs = append(q.jobIDs, jobID)
	q.batches = append(q.batches, batch)
	return nil
}

func (q *fakeQueue) batchesFor(taskType string) [][]models.RawRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out [][]models.RawRecord
	for i, t := range q.types {
		if t == taskType {
			out = append(out, q.batches[i])
		}
	}
	return out
}

type fakeProductStore struct {
	mu        sync.Mutex
	created   []string
	inserted  [][]models.Product
	merged    int
	dropped   int
	insertErr error
}

func (s *fakeProductStore) CreateStaging(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, jobID)
	return nil
}

func (s *fakeProductStore) InsertStaging(_ context.Context, _ string, products []models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, products)
	return nil
}

func (s *fakeProductStore) MergeStaging(_ context.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merged++
	return nil
}

func (s *fakeProductStore) DropStaging(_ context.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropped++
	return nil
}

func (s *fakeProductStore) insertedTotal() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, chunk := range s.inserted {
		n += len(chunk)
	}
	return n
}

type fakeDocumentStore struct {
	mu        sync.Mutex
	upserts   [][]models.Product
	upsertErr error
}

func (s *fakeDocumentStore) BulkUpsert(_ context.Context, products []models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserts = append(s.upserts, products)
	return nil
}

// validRecord builds a feed record that passes validation, keyed by i.
func validRecord(i int) models.RawRecord {
	return models.RawRecord{
		"country":      "Portugal",
		"brand":        "Acme",
		"sku":          fmt.Sprintf("sku-%d", i),
		"model":        fmt.Sprintf("Model %d", i),
		"site":         "shop.example",
		"categoryId":   float64(7),
		"price":        9.99,
		"url":          fmt.Sprintf("https://shop.example/p/%d", i),
		"availability": true,
	}
}

func validRecords(n int) []models.RawRecord {
	out := make([]models.RawRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, validRecord(i))
	}
	return out
}
