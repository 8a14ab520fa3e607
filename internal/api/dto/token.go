package dto

import (
	"time"

	ierr "github.com/projectline/projectline/internal/errors"
	"github.com/projectline/projectline/internal/types"
)

// ConnectServiceRequest stores the token set obtained from a completed
// OAuth authorization-code exchange. The exchange itself happens outside
// this service.
type ConnectServiceRequest struct {
	Service          types.IntegrationService `json:"service" binding:"required"`
	AccessToken      string                   `json:"access_token" binding:"required"`
	RefreshToken     string                   `json:"refresh_token" binding:"required"`
	ExpiresIn        int                      `json:"expires_in" binding:"required"`
	APIDomain        string                   `json:"api_domain,omitempty"`
	ProviderTenantID string                   `json:"provider_tenant_id,omitempty"`
}

func (r *ConnectServiceRequest) Validate() error {
	if !r.Service.Validate() {
		return ierr.NewError("invalid service").
			WithHintf("Service must be one of %s, %s", types.IntegrationServicePipedrive, types.IntegrationServiceXero).
			Mark(ierr.ErrValidation)
	}

	if r.ExpiresIn <= 0 {
		return ierr.NewError("invalid token expiry").
			WithHint("expires_in must be a positive number of seconds").
			Mark(ierr.ErrValidation)
	}

	return nil
}

// ExpiresAt converts the relative expiry to an absolute UTC time
func (r *ConnectServiceRequest) ExpiresAt(now time.Time) time.Time {
	return now.Add(time.Duration(r.ExpiresIn) * time.Second)
}

// ConnectionStatusResponse reports whether a service is connected
type ConnectionStatusResponse struct {
	Service   types.IntegrationService `json:"service"`
	Connected bool                     `json:"connected"`
}
