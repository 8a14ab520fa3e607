package authtoken

import (
	"context"

	"github.com/projectline/projectline/internal/types"
)

// Repository defines the interface for auth token data access.
// Tokens are keyed by the tenant in context plus the service.
type Repository interface {
	// Upsert creates or replaces the token set for (tenant, service)
	Upsert(ctx context.Context, token *AuthToken) error
	// Get returns the token set for (tenant, service), or a not found error
	Get(ctx context.Context, service types.IntegrationService) (*AuthToken, error)
	Delete(ctx context.Context, service types.IntegrationService) error
}
