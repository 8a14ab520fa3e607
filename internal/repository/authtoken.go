package repository

import (
	"context"
	"database/sql"

	"github.com/projectline/projectline/internal/domain/authtoken"
	ierr "github.com/projectline/projectline/internal/errors"
	"github.com/projectline/projectline/internal/logger"
	"github.com/projectline/projectline/internal/postgres"
	"github.com/projectline/projectline/internal/types"
)

type authTokenRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewAuthTokenRepository creates a postgres-backed auth token repository
func NewAuthTokenRepository(db *postgres.DB, logger *logger.Logger) authtoken.Repository {
	return &authTokenRepository{db: db, logger: logger}
}

const authTokenColumns = `id, tenant_id, service, access_token, refresh_token,
	token_expires_at, api_domain, provider_tenant_id,
	status, created_at, updated_at, created_by, updated_by`

func (r *authTokenRepository) Upsert(ctx context.Context, token *authtoken.AuthToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_tokens (`+authTokenColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (tenant_id, service)
		 DO UPDATE SET access_token = EXCLUDED.access_token,
		   refresh_token = EXCLUDED.refresh_token,
		   token_expires_at = EXCLUDED.token_expires_at,
		   api_domain = EXCLUDED.api_domain,
		   provider_tenant_id = EXCLUDED.provider_tenant_id,
		   updated_at = EXCLUDED.updated_at,
		   updated_by = EXCLUDED.updated_by`,
		token.ID,
		token.TenantID,
		token.Service,
		token.AccessToken,
		token.RefreshToken,
		token.TokenExpiresAt,
		token.APIDomain,
		token.ProviderTenantID,
		token.Status,
		token.CreatedAt,
		token.UpdatedAt,
		token.CreatedBy,
		token.UpdatedBy,
	)
	if err != nil {
		r.logger.Errorw("failed to upsert auth token",
			"service", token.Service,
			"tenant_id", token.TenantID,
			"error", err)
		return ierr.WithError(err).
			WithHint("Failed to persist auth token").
			Mark(ierr.ErrDatabase)
	}

	return nil
}

func (r *authTokenRepository) Get(ctx context.Context, service types.IntegrationService) (*authtoken.AuthToken, error) {
	var token authtoken.AuthToken
	err := r.db.GetContext(ctx, &token,
		`SELECT `+authTokenColumns+` FROM auth_tokens
		 WHERE tenant_id = $1 AND service = $2`,
		types.GetTenantID(ctx), service)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("auth token not found").
				WithHintf("Service %s is not connected", service).
				WithReportableDetails(map[string]any{
					"service": service,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to read auth token").
			Mark(ierr.ErrDatabase)
	}

	return &token, nil
}

func (r *authTokenRepository) Delete(ctx context.Context, service types.IntegrationService) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM auth_tokens WHERE tenant_id = $1 AND service = $2`,
		types.GetTenantID(ctx), service)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete auth token").
			Mark(ierr.ErrDatabase)
	}

	return nil
}
