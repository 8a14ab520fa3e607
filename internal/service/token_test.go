package service

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/projectline/projectline/internal/api/dto"
	"github.com/projectline/projectline/internal/domain/authtoken"
	ierr "github.com/projectline/projectline/internal/errors"
	"github.com/projectline/projectline/internal/httpclient"
	"github.com/projectline/projectline/internal/testutil"
	"github.com/projectline/projectline/internal/types"
	"github.com/stretchr/testify/suite"
)

type TokenServiceSuite struct {
	testutil.BaseServiceTestSuite
	service    TokenService
	httpClient *testutil.MockHTTPClient
}

func TestTokenService(t *testing.T) {
	suite.Run(t, new(TokenServiceSuite))
}

func (s *TokenServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	cfg := s.GetConfig()
	cfg.Pipedrive.ClientID = "pd-client"
	cfg.Pipedrive.ClientSecret = "pd-secret"
	cfg.Xero.ClientID = "xero-client"
	cfg.Xero.ClientSecret = "xero-secret"

	s.httpClient = testutil.NewMockHTTPClient()
	s.service = NewTokenService(
		s.GetLogger(),
		cfg,
		s.GetStores().AuthTokenRepo,
		s.httpClient,
		s.GetRefreshManager(),
	)
}

func (s *TokenServiceSuite) connectPipedrive(expiresIn int) {
	err := s.service.Connect(s.GetContext(), &dto.ConnectServiceRequest{
		Service:      types.IntegrationServicePipedrive,
		AccessToken:  "pd-access",
		RefreshToken: "pd-refresh",
		ExpiresIn:    expiresIn,
		APIDomain:    "https://acme.pipedrive.com",
	})
	s.Require().NoError(err)
}

func (s *TokenServiceSuite) storeExpiredToken(service types.IntegrationService) {
	err := s.GetStores().AuthTokenRepo.Upsert(s.GetContext(), &authtoken.AuthToken{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_AUTH_TOKEN),
		Service:        service,
		AccessToken:    "stale-access",
		RefreshToken:   "stale-refresh",
		TokenExpiresAt: time.Now().UTC().Add(-time.Minute),
		APIDomain:      "https://acme.pipedrive.com",
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	})
	s.Require().NoError(err)
}

func (s *TokenServiceSuite) refreshResponse(accessToken, refreshToken string) *httpclient.Response {
	body, _ := json.Marshal(map[string]any{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    3600,
	})
	return &httpclient.Response{StatusCode: 200, Body: body}
}

func (s *TokenServiceSuite) TestConnectAndStatus() {
	s.False(s.service.IsConnected(s.GetContext(), types.IntegrationServicePipedrive))

	s.connectPipedrive(3600)

	s.True(s.service.IsConnected(s.GetContext(), types.IntegrationServicePipedrive))
	s.False(s.service.IsConnected(s.GetContext(), types.IntegrationServiceXero))
}

func (s *TokenServiceSuite) TestConnectValidation() {
	err := s.service.Connect(s.GetContext(), &dto.ConnectServiceRequest{
		Service:      "hubspot",
		AccessToken:  "a",
		RefreshToken: "r",
		ExpiresIn:    3600,
	})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))

	err = s.service.Connect(s.GetContext(), &dto.ConnectServiceRequest{
		Service:      types.IntegrationServicePipedrive,
		AccessToken:  "a",
		RefreshToken: "r",
		ExpiresIn:    0,
	})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *TokenServiceSuite) TestDisconnect() {
	s.connectPipedrive(3600)
	s.Require().NoError(s.service.Disconnect(s.GetContext(), types.IntegrationServicePipedrive))

	s.False(s.service.IsConnected(s.GetContext(), types.IntegrationServicePipedrive))

	_, err := s.service.PipedriveToken(s.GetContext())
	s.Require().Error(err)
	s.True(ierr.IsUnauthenticated(err))
}

func (s *TokenServiceSuite) TestPipedriveTokenNotConnected() {
	_, err := s.service.PipedriveToken(s.GetContext())
	s.Require().Error(err)
	s.True(ierr.IsUnauthenticated(err))
}

func (s *TokenServiceSuite) TestPipedriveTokenValid() {
	s.connectPipedrive(3600)

	creds, err := s.service.PipedriveToken(s.GetContext())
	s.Require().NoError(err)
	s.Equal("pd-access", creds.AccessToken)
	s.Equal("https://acme.pipedrive.com", creds.APIDomain)

	// a valid stored token never triggers the token endpoint
	s.Empty(s.httpClient.Requests())
}

func (s *TokenServiceSuite) TestExpiredTokenIsRefreshed() {
	s.storeExpiredToken(types.IntegrationServicePipedrive)

	s.httpClient.SendFn = func(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
		return s.refreshResponse("fresh-access", "fresh-refresh"), nil
	}

	creds, err := s.service.PipedriveToken(s.GetContext())
	s.Require().NoError(err)
	s.Equal("fresh-access", creds.AccessToken)

	// the rotated token set was persisted
	stored, err := s.GetStores().AuthTokenRepo.Get(s.GetContext(), types.IntegrationServicePipedrive)
	s.Require().NoError(err)
	s.Equal("fresh-access", stored.AccessToken)
	s.Equal("fresh-refresh", stored.RefreshToken)

	// the refresh call used the refresh_token grant with the stored token
	requests := s.httpClient.Requests()
	s.Require().Len(requests, 1)
	form, err := url.ParseQuery(string(requests[0].Body))
	s.Require().NoError(err)
	s.Equal("refresh_token", form.Get("grant_type"))
	s.Equal("stale-refresh", form.Get("refresh_token"))
	s.True(strings.HasPrefix(requests[0].Headers["Authorization"], "Basic "))
}

func (s *TokenServiceSuite) TestRefreshInvalidGrant() {
	s.storeExpiredToken(types.IntegrationServicePipedrive)

	s.httpClient.SendFn = func(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
		return nil, httpclient.NewError(400, []byte(`{"error":"invalid_grant"}`))
	}

	_, err := s.service.PipedriveToken(s.GetContext())
	s.Require().Error(err)
	s.True(ierr.IsUnauthenticated(err))
}

// Concurrent resolves of the same expired token must share a single
// refresh call.
func (s *TokenServiceSuite) TestConcurrentResolveRefreshesOnce() {
	s.storeExpiredToken(types.IntegrationServicePipedrive)

	s.httpClient.SendFn = func(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
		time.Sleep(100 * time.Millisecond)
		return s.refreshResponse("fresh-access", "fresh-refresh"), nil
	}

	var wg sync.WaitGroup
	errs := make([]error, 5)
	tokens := make([]string, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			creds, err := s.service.PipedriveToken(s.GetContext())
			if err != nil {
				errs[i] = err
				return
			}
			tokens[i] = creds.AccessToken
		}(i)
	}
	wg.Wait()

	for i := 0; i < 5; i++ {
		s.Require().NoError(errs[i])
		s.Equal("fresh-access", tokens[i])
	}
	s.Len(s.httpClient.Requests(), 1)
}

func (s *TokenServiceSuite) TestXeroToken() {
	err := s.service.Connect(s.GetContext(), &dto.ConnectServiceRequest{
		Service:          types.IntegrationServiceXero,
		AccessToken:      "xero-access",
		RefreshToken:     "xero-refresh",
		ExpiresIn:        1800,
		ProviderTenantID: "xero-tenant-id",
	})
	s.Require().NoError(err)

	creds, err := s.service.XeroToken(s.GetContext())
	s.Require().NoError(err)
	s.Equal("xero-access", creds.AccessToken)
	s.Equal("xero-tenant-id", creds.TenantID)
}
