package service

import (
	"github.com/projectline/projectline/internal/auth"
	"github.com/projectline/projectline/internal/config"
	"github.com/projectline/projectline/internal/domain/authtoken"
	"github.com/projectline/projectline/internal/domain/projectmapping"
	"github.com/projectline/projectline/internal/domain/sequence"
	"github.com/projectline/projectline/internal/httpclient"
	"github.com/projectline/projectline/internal/integration/pipedrive"
	"github.com/projectline/projectline/internal/integration/xero"
	"github.com/projectline/projectline/internal/logger"
	"github.com/projectline/projectline/internal/postgres"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     *postgres.DB

	// Repositories
	SequenceRepo       sequence.Repository
	ProjectMappingRepo projectmapping.Repository
	AuthTokenRepo      authtoken.Repository

	// External clients
	PipedriveClient pipedrive.PipedriveClient
	XeroClient      xero.XeroClient
	HTTPClient      httpclient.Client

	// Concurrency
	RefreshManager *auth.RefreshManager
}

func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db *postgres.DB,
	sequenceRepo sequence.Repository,
	projectMappingRepo projectmapping.Repository,
	authTokenRepo authtoken.Repository,
	pipedriveClient pipedrive.PipedriveClient,
	xeroClient xero.XeroClient,
	httpClient httpclient.Client,
	refreshManager *auth.RefreshManager,
) ServiceParams {
	return ServiceParams{
		Logger:             logger,
		Config:             config,
		DB:                 db,
		SequenceRepo:       sequenceRepo,
		ProjectMappingRepo: projectMappingRepo,
		AuthTokenRepo:      authTokenRepo,
		PipedriveClient:    pipedriveClient,
		XeroClient:         xeroClient,
		HTTPClient:         httpClient,
		RefreshManager:     refreshManager,
	}
}
