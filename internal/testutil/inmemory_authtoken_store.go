package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/projectline/projectline/internal/domain/authtoken"
	ierr "github.com/projectline/projectline/internal/errors"
	"github.com/projectline/projectline/internal/types"
)

// InMemoryAuthTokenStore is an in-memory implementation of
// authtoken.Repository, keyed by (tenant, service)
type InMemoryAuthTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]*authtoken.AuthToken
}

func NewInMemoryAuthTokenStore() *InMemoryAuthTokenStore {
	return &InMemoryAuthTokenStore{
		tokens: make(map[string]*authtoken.AuthToken),
	}
}

func authTokenKey(tenantID string, service types.IntegrationService) string {
	return fmt.Sprintf("%s:%s", tenantID, service)
}

func (s *InMemoryAuthTokenStore) Upsert(ctx context.Context, token *authtoken.AuthToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *token
	s.tokens[authTokenKey(token.TenantID, token.Service)] = &copied
	return nil
}

func (s *InMemoryAuthTokenStore) Get(ctx context.Context, service types.IntegrationService) (*authtoken.AuthToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[authTokenKey(types.GetTenantID(ctx), service)]
	if !ok {
		return nil, ierr.NewError("auth token not found").
			WithHintf("Service %s is not connected", service).
			Mark(ierr.ErrNotFound)
	}

	copied := *token
	return &copied, nil
}

func (s *InMemoryAuthTokenStore) Delete(ctx context.Context, service types.IntegrationService) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, authTokenKey(types.GetTenantID(ctx), service))
	return nil
}

func (s *InMemoryAuthTokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]*authtoken.AuthToken)
}
