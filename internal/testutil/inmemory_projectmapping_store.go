package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/projectline/projectline/internal/domain/projectmapping"
	ierr "github.com/projectline/projectline/internal/errors"
	"github.com/projectline/projectline/internal/types"
	"github.com/samber/lo"
)

// InMemoryProjectMappingStore is an in-memory implementation of
// projectmapping.Repository, keyed by project number
type InMemoryProjectMappingStore struct {
	mu       sync.RWMutex
	mappings map[string]*projectmapping.ProjectMapping
}

func NewInMemoryProjectMappingStore() *InMemoryProjectMappingStore {
	return &InMemoryProjectMappingStore{
		mappings: make(map[string]*projectmapping.ProjectMapping),
	}
}

func copyMapping(m *projectmapping.ProjectMapping) *projectmapping.ProjectMapping {
	copied := *m
	copied.DealIDs = append([]string(nil), m.DealIDs...)
	return &copied
}

func (s *InMemoryProjectMappingStore) Create(ctx context.Context, mapping *projectmapping.ProjectMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mappings[mapping.ProjectNumber]; ok {
		return ierr.NewError("project mapping already exists").
			WithHintf("Project number %s is already mapped", mapping.ProjectNumber).
			Mark(ierr.ErrAlreadyExists)
	}

	s.mappings[mapping.ProjectNumber] = copyMapping(mapping)
	return nil
}

func (s *InMemoryProjectMappingStore) GetByProjectNumber(ctx context.Context, projectNumber string) (*projectmapping.ProjectMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mapping, ok := s.mappings[projectNumber]
	if !ok {
		return nil, ierr.NewError("project mapping not found").
			WithHintf("No mapping exists for project number %s", projectNumber).
			Mark(ierr.ErrNotFound)
	}

	return copyMapping(mapping), nil
}

func (s *InMemoryProjectMappingStore) GetByDealID(ctx context.Context, dealID string) (*projectmapping.ProjectMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, mapping := range s.mappings {
		if lo.Contains(mapping.DealIDs, dealID) {
			return copyMapping(mapping), nil
		}
	}

	return nil, ierr.NewError("project mapping not found").
		WithHintf("Deal %s is not linked to any project number", dealID).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryProjectMappingStore) AppendDealID(ctx context.Context, projectNumber string, dealID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mapping, ok := s.mappings[projectNumber]
	if !ok {
		return ierr.NewError("project mapping not found").
			WithHintf("No mapping exists for project number %s", projectNumber).
			Mark(ierr.ErrNotFound)
	}

	if lo.Contains(mapping.DealIDs, dealID) {
		return nil
	}

	mapping.DealIDs = append(mapping.DealIDs, dealID)
	mapping.UpdatedAt = time.Now().UTC()
	mapping.UpdatedBy = types.GetUserID(ctx)
	return nil
}

func (s *InMemoryProjectMappingStore) ListProjectNumbers(ctx context.Context, departmentCode string, year int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var numbers []string
	for _, mapping := range s.mappings {
		if mapping.DepartmentCode == departmentCode && mapping.Year == year {
			numbers = append(numbers, mapping.ProjectNumber)
		}
	}

	sort.Strings(numbers)
	return numbers, nil
}

func (s *InMemoryProjectMappingStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings = make(map[string]*projectmapping.ProjectMapping)
}
