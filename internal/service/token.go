package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/projectline/projectline/internal/api/dto"
	"github.com/projectline/projectline/internal/auth"
	"github.com/projectline/projectline/internal/config"
	"github.com/projectline/projectline/internal/domain/authtoken"
	ierr "github.com/projectline/projectline/internal/errors"
	"github.com/projectline/projectline/internal/httpclient"
	"github.com/projectline/projectline/internal/integration/pipedrive"
	"github.com/projectline/projectline/internal/integration/xero"
	"github.com/projectline/projectline/internal/logger"
	"github.com/projectline/projectline/internal/types"
)

const (
	pipedriveTokenURL = "https://oauth.pipedrive.com/oauth/token"
	xeroTokenURL      = "https://identity.xero.com/connect/token"

	// resolvedTokenTTL bounds how long a resolved token is served from
	// cache before the store is consulted again
	resolvedTokenTTL = 30 * time.Second
)

// TokenService resolves valid access tokens for outbound calls,
// refreshing and persisting rotated token sets through the refresh
// manager when they are about to expire
type TokenService interface {
	PipedriveToken(ctx context.Context) (*pipedrive.Credentials, error)
	XeroToken(ctx context.Context) (*xero.Credentials, error)
	IsConnected(ctx context.Context, service types.IntegrationService) bool
	Connect(ctx context.Context, req *dto.ConnectServiceRequest) error
	Disconnect(ctx context.Context, service types.IntegrationService) error
}

// tokenService depends on a narrower set than ServiceParams because the
// integration clients themselves resolve tokens through it
type tokenService struct {
	Logger         *logger.Logger
	Config         *config.Configuration
	AuthTokenRepo  authtoken.Repository
	HTTPClient     httpclient.Client
	RefreshManager *auth.RefreshManager

	resolved *cache.Cache
}

// NewTokenService creates a new token service
func NewTokenService(
	logger *logger.Logger,
	config *config.Configuration,
	authTokenRepo authtoken.Repository,
	httpClient httpclient.Client,
	refreshManager *auth.RefreshManager,
) TokenService {
	return &tokenService{
		Logger:         logger,
		Config:         config,
		AuthTokenRepo:  authTokenRepo,
		HTTPClient:     httpClient,
		RefreshManager: refreshManager,
		resolved:       cache.New(resolvedTokenTTL, time.Minute),
	}
}

func (s *tokenService) PipedriveToken(ctx context.Context) (*pipedrive.Credentials, error) {
	token, err := s.resolve(ctx, types.IntegrationServicePipedrive)
	if err != nil {
		return nil, err
	}
	return &pipedrive.Credentials{
		AccessToken: token.AccessToken,
		APIDomain:   token.APIDomain,
	}, nil
}

func (s *tokenService) XeroToken(ctx context.Context) (*xero.Credentials, error) {
	token, err := s.resolve(ctx, types.IntegrationServiceXero)
	if err != nil {
		return nil, err
	}
	return &xero.Credentials{
		AccessToken: token.AccessToken,
		TenantID:    token.ProviderTenantID,
	}, nil
}

func (s *tokenService) IsConnected(ctx context.Context, service types.IntegrationService) bool {
	_, err := s.AuthTokenRepo.Get(ctx, service)
	return err == nil
}

func (s *tokenService) Connect(ctx context.Context, req *dto.ConnectServiceRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	token := &authtoken.AuthToken{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_AUTH_TOKEN),
		Service:          req.Service,
		AccessToken:      req.AccessToken,
		RefreshToken:     req.RefreshToken,
		TokenExpiresAt:   req.ExpiresAt(now),
		APIDomain:        req.APIDomain,
		ProviderTenantID: req.ProviderTenantID,
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}

	if err := s.AuthTokenRepo.Upsert(ctx, token); err != nil {
		return err
	}

	s.resolved.Delete(s.cacheKey(ctx, req.Service))
	s.Logger.Infow("service connected",
		"service", req.Service,
		"tenant_id", types.GetTenantID(ctx))
	return nil
}

func (s *tokenService) Disconnect(ctx context.Context, service types.IntegrationService) error {
	if err := s.AuthTokenRepo.Delete(ctx, service); err != nil {
		return err
	}
	s.resolved.Delete(s.cacheKey(ctx, service))
	return nil
}

// resolve returns a currently valid token set for (tenant, service),
// refreshing through the manager when the stored one is about to expire
func (s *tokenService) resolve(ctx context.Context, service types.IntegrationService) (*authtoken.AuthToken, error) {
	now := time.Now().UTC()
	leeway := s.Config.Auth.RefreshExpiryLeeway
	key := s.cacheKey(ctx, service)

	if v, ok := s.resolved.Get(key); ok {
		if token := v.(*authtoken.AuthToken); !token.IsExpired(leeway, now) {
			return token, nil
		}
	}

	token, err := s.AuthTokenRepo.Get(ctx, service)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.WithError(err).
				WithHintf("Service %s is not connected for this account", service).
				Mark(ierr.ErrUnauthenticated)
		}
		return nil, err
	}

	if token.IsExpired(leeway, now) {
		refreshed, err := s.RefreshManager.Refresh(ctx, types.GetTenantID(ctx), service, s.refreshFn(service, token))
		if err != nil {
			return nil, err
		}

		token.AccessToken = refreshed.AccessToken
		token.RefreshToken = refreshed.RefreshToken
		token.TokenExpiresAt = refreshed.ExpiresAt
		token.UpdatedAt = now
		token.UpdatedBy = types.GetUserID(ctx)
		if err := s.AuthTokenRepo.Upsert(ctx, token); err != nil {
			return nil, err
		}
	}

	s.resolved.SetDefault(key, token)
	return token, nil
}

// refreshFn builds the provider-specific refresh-token grant call.
// Providers rotate the refresh token on use, which is exactly why the
// manager serializes invocations per key.
func (s *tokenService) refreshFn(service types.IntegrationService, token *authtoken.AuthToken) auth.RefreshFn {
	return func(ctx context.Context) (*auth.TokenSet, error) {
		endpoint, clientID, clientSecret := s.providerOAuth(service)
		if clientID == "" || clientSecret == "" {
			return nil, ierr.NewError("oauth app credentials missing").
				WithHintf("OAuth client credentials for %s are not configured", service).
				Mark(ierr.ErrUnauthenticated)
		}

		form := url.Values{}
		form.Set("grant_type", "refresh_token")
		form.Set("refresh_token", token.RefreshToken)

		basic := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%s:%s", clientID, clientSecret)))
		resp, err := s.HTTPClient.Send(ctx, &httpclient.Request{
			Method: http.MethodPost,
			URL:    endpoint,
			Headers: map[string]string{
				"Authorization": "Basic " + basic,
				"Content-Type":  "application/x-www-form-urlencoded",
				"Accept":        "application/json",
			},
			Body: []byte(form.Encode()),
		})
		if err != nil {
			if httpErr, ok := httpclient.IsHTTPError(err); ok && httpErr.StatusCode == http.StatusBadRequest {
				// invalid_grant: the refresh token was revoked or already
				// rotated away, only a new authorization flow can recover
				return nil, ierr.WithError(err).
					WithHintf("The %s refresh token is no longer valid, reconnect the service", service).
					Mark(ierr.ErrUnauthenticated)
			}
			return nil, err
		}

		var payload struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
			ExpiresIn    int    `json:"expires_in"`
		}
		if err := json.Unmarshal(resp.Body, &payload); err != nil {
			return nil, ierr.WithError(err).
				WithHintf("The %s token endpoint returned an unexpected payload", service).
				Mark(ierr.ErrHTTPClient)
		}

		s.Logger.Infow("access token refreshed",
			"service", service,
			"tenant_id", token.TenantID)

		return &auth.TokenSet{
			AccessToken:  payload.AccessToken,
			RefreshToken: payload.RefreshToken,
			ExpiresAt:    time.Now().UTC().Add(time.Duration(payload.ExpiresIn) * time.Second),
		}, nil
	}
}

func (s *tokenService) providerOAuth(service types.IntegrationService) (endpoint, clientID, clientSecret string) {
	switch service {
	case types.IntegrationServicePipedrive:
		return pipedriveTokenURL, s.Config.Pipedrive.ClientID, s.Config.Pipedrive.ClientSecret
	case types.IntegrationServiceXero:
		return xeroTokenURL, s.Config.Xero.ClientID, s.Config.Xero.ClientSecret
	}
	return "", "", ""
}

func (s *tokenService) cacheKey(ctx context.Context, service types.IntegrationService) string {
	return fmt.Sprintf("%s:%s", types.GetTenantID(ctx), service)
}

// pipedriveTokenSource adapts the token service to the client interface
type pipedriveTokenSource struct {
	tokens TokenService
}

// NewPipedriveTokenSource exposes the token service as a pipedrive.TokenSource
func NewPipedriveTokenSource(tokens TokenService) pipedrive.TokenSource {
	return &pipedriveTokenSource{tokens: tokens}
}

func (s *pipedriveTokenSource) Token(ctx context.Context) (*pipedrive.Credentials, error) {
	return s.tokens.PipedriveToken(ctx)
}

// xeroTokenSource adapts the token service to the client interface
type xeroTokenSource struct {
	tokens TokenService
}

// NewXeroTokenSource exposes the token service as a xero.TokenSource
func NewXeroTokenSource(tokens TokenService) xero.TokenSource {
	return &xeroTokenSource{tokens: tokens}
}

func (s *xeroTokenSource) Token(ctx context.Context) (*xero.Credentials, error) {
	return s.tokens.XeroToken(ctx)
}
