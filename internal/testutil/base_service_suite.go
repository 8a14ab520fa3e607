package testutil

import (
	"context"
	"time"

	"github.com/projectline/projectline/internal/auth"
	"github.com/projectline/projectline/internal/config"
	"github.com/projectline/projectline/internal/domain/authtoken"
	"github.com/projectline/projectline/internal/domain/projectmapping"
	"github.com/projectline/projectline/internal/domain/sequence"
	"github.com/projectline/projectline/internal/logger"
	"github.com/projectline/projectline/internal/types"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	SequenceRepo       sequence.Repository
	ProjectMappingRepo projectmapping.Repository
	AuthTokenRepo      authtoken.Repository
}

// Clients holds the mock integration clients for testing
type Clients struct {
	Pipedrive *MockPipedriveClient
	Xero      *MockXeroClient
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx            context.Context
	stores         Stores
	clients        Clients
	refreshManager *auth.RefreshManager
	logger         *logger.Logger
	config         *config.Configuration
	now            time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	s.config = config.GetDefaultConfig()
	s.logger = logger.NewNopLogger()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.setupStores()
	s.refreshManager = auth.NewRefreshManager(s.config.Auth.RefreshMinInterval, s.logger)
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		SequenceRepo:       NewInMemorySequenceStore(),
		ProjectMappingRepo: NewInMemoryProjectMappingStore(),
		AuthTokenRepo:      NewInMemoryAuthTokenStore(),
	}
	s.clients = Clients{
		Pipedrive: NewMockPipedriveClient(),
		Xero:      NewMockXeroClient(),
	}
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.SequenceRepo.(*InMemorySequenceStore).Clear()
	s.stores.ProjectMappingRepo.(*InMemoryProjectMappingStore).Clear()
	s.stores.AuthTokenRepo.(*InMemoryAuthTokenStore).Clear()
	s.clients.Pipedrive.Clear()
	s.clients.Xero.Clear()
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetClients() Clients {
	return s.clients
}

func (s *BaseServiceTestSuite) GetRefreshManager() *auth.RefreshManager {
	return s.refreshManager
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}

// GetUUID returns a new unique identifier for tests
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}
