package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/projectline/projectline/internal/domain/sequence"
	ierr "github.com/projectline/projectline/internal/errors"
)

// InMemorySequenceStore is an in-memory implementation of sequence.Repository.
// The mutex stands in for the store-level atomicity the SQL upsert provides.
type InMemorySequenceStore struct {
	mu       sync.Mutex
	counters map[string]*sequence.Counter
}

func NewInMemorySequenceStore() *InMemorySequenceStore {
	return &InMemorySequenceStore{
		counters: make(map[string]*sequence.Counter),
	}
}

func sequenceKey(departmentCode string, year int) string {
	return fmt.Sprintf("%s:%02d", departmentCode, year)
}

func (s *InMemorySequenceStore) AllocateNext(ctx context.Context, departmentCode string, year int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sequenceKey(departmentCode, year)
	now := time.Now().UTC()

	counter, ok := s.counters[key]
	if !ok {
		counter = &sequence.Counter{
			DepartmentCode: departmentCode,
			Year:           year,
			CreatedAt:      now,
		}
		s.counters[key] = counter
	}

	counter.CurrentNumber++
	counter.UpdatedAt = now
	return counter.CurrentNumber, nil
}

func (s *InMemorySequenceStore) Get(ctx context.Context, departmentCode string, year int) (*sequence.Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counter, ok := s.counters[sequenceKey(departmentCode, year)]
	if !ok {
		return nil, ierr.NewError("sequence counter not found").
			WithHintf("No project numbers have been allocated for %s in year %02d", departmentCode, year).
			Mark(ierr.ErrNotFound)
	}

	copied := *counter
	return &copied, nil
}

func (s *InMemorySequenceStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = make(map[string]*sequence.Counter)
}
