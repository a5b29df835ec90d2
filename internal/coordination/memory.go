package coordination

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests and single-node runs.
type MemoryStore struct {
	mu         sync.Mutex
	enqueued   map[string]int64
	processed  map[string]int64
	inProgress map[string]bool
	claimed    map[string]bool
	statuses   map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		enqueued:   make(map[string]int64),
		processed:  make(map[string]int64),
		inProgress: make(map[string]bool),
		claimed:    make(map[string]bool),
		statuses:   make(map[string]string),
	}
}

func (s *MemoryStore) SetInProgress(_ context.Context, jobID, sink string, inProgress bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inProgress[inProgressKey(jobID, sink)] = inProgress
	return nil
}

func (s *MemoryStore) InProgress(_ context.Context, jobID, sink string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inProgress[inProgressKey(jobID, sink)], nil
}

func (s *MemoryStore) ResetCounters(_ context.Context, jobID, sink string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueued[enqueuedKey(jobID, sink)] = 0
	s.processed[processedKey(jobID, sink)] = 0
	return nil
}

func (s *MemoryStore) IncrEnqueued(_ context.Context, jobID, sink string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueued[enqueuedKey(jobID, sink)]++
	return s.enqueued[enqueuedKey(jobID, sink)], nil
}

func (s *MemoryStore) IncrProcessed(_ context.Context, jobID, sink string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[processedKey(jobID, sink)]++
	return s.processed[processedKey(jobID, sink)], nil
}

func (s *MemoryStore) Counts(_ context.Context, jobID, sink string) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enqueued[enqueuedKey(jobID, sink)], s.processed[processedKey(jobID, sink)], nil
}

func (s *MemoryStore) ClaimFinalize(_ context.Context, jobID, sink string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := finalizeKey(jobID, sink)
	if s.claimed[key] {
		return false, nil
	}
	s.claimed[key] = true
	return true, nil
}

func (s *MemoryStore) SetJobStatus(_ context.Context, jobID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[statusKey(jobID)] = status
	return nil
}

func (s *MemoryStore) JobStatus(_ context.Context, jobID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[statusKey(jobID)], nil
}
