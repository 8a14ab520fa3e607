package authtoken

import (
	"time"

	"github.com/projectline/projectline/internal/types"
)

// AuthToken is the persisted OAuth token set for one (tenant, service)
// pair. The refresh manager holds no state of its own; rotated tokens are
// written back here by the token service.
type AuthToken struct {
	ID           string                   `db:"id" json:"id"`
	Service      types.IntegrationService `db:"service" json:"service"`
	AccessToken  string                   `db:"access_token" json:"-"`
	RefreshToken string                   `db:"refresh_token" json:"-"`
	// TokenExpiresAt is the access token expiry
	TokenExpiresAt time.Time `db:"token_expires_at" json:"token_expires_at"`
	// APIDomain is the tenant-specific Pipedrive API base URL
	APIDomain string `db:"api_domain" json:"api_domain,omitempty"`
	// ProviderTenantID is the Xero tenant (organisation) id
	ProviderTenantID string `db:"provider_tenant_id" json:"provider_tenant_id,omitempty"`

	types.BaseModel
}

// IsExpired reports whether the access token is expired or will expire
// within leeway
func (t *AuthToken) IsExpired(leeway time.Duration, now time.Time) bool {
	return !now.Add(leeway).Before(t.TokenExpiresAt)
}
