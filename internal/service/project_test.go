package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/projectline/projectline/internal/api/dto"
	"github.com/projectline/projectline/internal/domain/authtoken"
	ierr "github.com/projectline/projectline/internal/errors"
	"github.com/projectline/projectline/internal/integration/pipedrive"
	"github.com/projectline/projectline/internal/testutil"
	"github.com/projectline/projectline/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ProjectServiceSuite struct {
	testutil.BaseServiceTestSuite
	service    ProjectService
	tokens     TokenService
	httpClient *testutil.MockHTTPClient
}

func TestProjectService(t *testing.T) {
	suite.Run(t, new(ProjectServiceSuite))
}

func (s *ProjectServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	s.httpClient = testutil.NewMockHTTPClient()
	stores := s.GetStores()
	clients := s.GetClients()

	s.tokens = NewTokenService(
		s.GetLogger(),
		s.GetConfig(),
		stores.AuthTokenRepo,
		s.httpClient,
		s.GetRefreshManager(),
	)

	params := ServiceParams{
		Logger:             s.GetLogger(),
		Config:             s.GetConfig(),
		SequenceRepo:       stores.SequenceRepo,
		ProjectMappingRepo: stores.ProjectMappingRepo,
		AuthTokenRepo:      stores.AuthTokenRepo,
		PipedriveClient:    clients.Pipedrive,
		XeroClient:         clients.Xero,
		HTTPClient:         s.httpClient,
		RefreshManager:     s.GetRefreshManager(),
	}
	s.service = NewProjectService(params, s.tokens)
}

func (s *ProjectServiceSuite) connectService(service types.IntegrationService) {
	err := s.GetStores().AuthTokenRepo.Upsert(s.GetContext(), &authtoken.AuthToken{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_AUTH_TOKEN),
		Service:        service,
		AccessToken:    "access-" + string(service),
		RefreshToken:   "refresh-" + string(service),
		TokenExpiresAt: time.Now().UTC().Add(time.Hour),
		APIDomain:      "https://acme.pipedrive.com",
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	})
	s.Require().NoError(err)
}

func (s *ProjectServiceSuite) seedDeal(dealID int) {
	pd := s.GetClients().Pipedrive

	pd.Deals[dealID] = &pipedrive.Deal{
		ID:                dealID,
		Title:             fmt.Sprintf("Hull repair %d", dealID),
		Value:             decimal.NewFromInt(15000),
		Currency:          "EUR",
		Person:            &pipedrive.EntityRef{ID: 7, Name: "Lena Berg"},
		Organization:      &pipedrive.EntityRef{ID: 9, Name: "Nordic Marine"},
		ExpectedCloseDate: "2025-09-30",
		DepartmentCode:    "NY",
		Vessel:            "MS Aurora",
	}
	pd.Persons[7] = &pipedrive.Person{ID: 7, Name: "Lena Berg", Email: "lena@nordicmarine.example"}
	pd.Organizations[9] = &pipedrive.Organization{ID: 9, Name: "Nordic Marine"}
	pd.Products[dealID] = []pipedrive.Product{
		{ID: 1, Name: "Hull inspection", ItemPrice: decimal.NewFromInt(5000)},
		{ID: 2, Name: "Coating", ItemPrice: decimal.NewFromInt(10000)},
	}
}

func (s *ProjectServiceSuite) expectedNumber(sequence int) string {
	return fmt.Sprintf("NY%02d%03d", time.Now().UTC().Year()%100, sequence)
}

func (s *ProjectServiceSuite) TestCreateFullProjectNewNumber() {
	s.connectService(types.IntegrationServicePipedrive)
	s.connectService(types.IntegrationServiceXero)
	s.seedDeal(42)

	resp, err := s.service.CreateFullProject(s.GetContext(), &dto.CreateFullProjectRequest{
		PipedriveDealID:    42,
		PipedriveCompanyID: "12345",
	})
	s.Require().NoError(err)

	expected := s.expectedNumber(1)
	s.True(resp.Success)
	s.Equal(expected, resp.ProjectNumber)
	s.Equal(expected, resp.Deal.ProjectNumber)
	s.True(resp.Metadata.IsNewProject)
	s.Equal(42, resp.Metadata.DealID)

	// the number was written back to the CRM deal
	s.Equal(expected, s.GetClients().Pipedrive.UpdatedNumbers[42])

	// the mapping links the deal
	mapping, err := s.GetStores().ProjectMappingRepo.GetByProjectNumber(s.GetContext(), expected)
	s.Require().NoError(err)
	s.True(mapping.HasDeal("42"))

	// accounting side created a contact, a project and one task per product
	s.True(resp.Accounting.ProjectCreated)
	s.NotEmpty(resp.Accounting.ProjectID)
	s.NotEmpty(resp.Accounting.ContactID)
	s.Len(resp.Accounting.TaskIDs, 2)
	s.Empty(resp.Accounting.Error)

	counter, err := s.GetStores().SequenceRepo.Get(s.GetContext(), "NY", time.Now().UTC().Year()%100)
	s.Require().NoError(err)
	s.Equal(1, counter.CurrentNumber)
}

func (s *ProjectServiceSuite) TestCreateFullProjectAccountingNotConnected() {
	s.connectService(types.IntegrationServicePipedrive)
	s.seedDeal(42)

	resp, err := s.service.CreateFullProject(s.GetContext(), &dto.CreateFullProjectRequest{
		PipedriveDealID:    42,
		PipedriveCompanyID: "12345",
	})
	s.Require().NoError(err)

	s.True(resp.Success)
	s.Equal(s.expectedNumber(1), resp.ProjectNumber)
	s.False(resp.Accounting.ProjectCreated)
	s.Equal("accounting service is not connected", resp.Accounting.Error)

	// the CRM side is unaffected
	s.Equal(s.expectedNumber(1), s.GetClients().Pipedrive.UpdatedNumbers[42])
}

func (s *ProjectServiceSuite) TestCreateFullProjectAccountingFailureStillSucceeds() {
	s.connectService(types.IntegrationServicePipedrive)
	s.connectService(types.IntegrationServiceXero)
	s.seedDeal(42)

	s.GetClients().Xero.ProjectErr = ierr.NewError("accounting unavailable").
		WithHint("The accounting service is temporarily unavailable").
		Mark(ierr.ErrHTTPClient)

	resp, err := s.service.CreateFullProject(s.GetContext(), &dto.CreateFullProjectRequest{
		PipedriveDealID:    42,
		PipedriveCompanyID: "12345",
	})
	s.Require().NoError(err)

	s.True(resp.Success)
	s.False(resp.Accounting.ProjectCreated)
	s.NotEmpty(resp.Accounting.Error)
	s.Empty(resp.Accounting.TaskIDs)

	// CRM deal update and mapping still happened
	s.Equal(s.expectedNumber(1), s.GetClients().Pipedrive.UpdatedNumbers[42])
	_, err = s.GetStores().ProjectMappingRepo.GetByDealID(s.GetContext(), "42")
	s.NoError(err)
}

func (s *ProjectServiceSuite) TestCreateFullProjectValidationNeverAllocates() {
	s.connectService(types.IntegrationServicePipedrive)

	testCases := []struct {
		name   string
		mutate func(d *pipedrive.Deal)
	}{
		{
			name:   "already_linked",
			mutate: func(d *pipedrive.Deal) { d.ProjectNumber = "NY24007" },
		},
		{
			name:   "missing_department",
			mutate: func(d *pipedrive.Deal) { d.DepartmentCode = "" },
		},
		{
			name:   "missing_vessel",
			mutate: func(d *pipedrive.Deal) { d.Vessel = "" },
		},
		{
			name:   "missing_organization",
			mutate: func(d *pipedrive.Deal) { d.Organization = nil },
		},
		{
			name:   "zero_value",
			mutate: func(d *pipedrive.Deal) { d.Value = decimal.Zero },
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.seedDeal(42)
			tc.mutate(s.GetClients().Pipedrive.Deals[42])

			_, err := s.service.CreateFullProject(s.GetContext(), &dto.CreateFullProjectRequest{
				PipedriveDealID:    42,
				PipedriveCompanyID: "12345",
			})
			s.Require().Error(err)
			s.True(ierr.IsValidation(err))

			// a rejected request never burns a sequence number
			_, err = s.GetStores().SequenceRepo.Get(s.GetContext(), "NY", time.Now().UTC().Year()%100)
			s.True(ierr.IsNotFound(err))
		})
	}
}

func (s *ProjectServiceSuite) TestCreateFullProjectLinkExisting() {
	s.connectService(types.IntegrationServicePipedrive)
	s.seedDeal(42)

	first, err := s.service.CreateFullProject(s.GetContext(), &dto.CreateFullProjectRequest{
		PipedriveDealID:    42,
		PipedriveCompanyID: "12345",
	})
	s.Require().NoError(err)
	number := first.ProjectNumber

	s.seedDeal(43)
	second, err := s.service.CreateFullProject(s.GetContext(), &dto.CreateFullProjectRequest{
		PipedriveDealID:             43,
		PipedriveCompanyID:          "12345",
		ExistingProjectNumberToLink: number,
	})
	s.Require().NoError(err)

	s.Equal(number, second.ProjectNumber)
	s.False(second.Metadata.IsNewProject)
	s.Equal(number, s.GetClients().Pipedrive.UpdatedNumbers[43])

	mapping, err := s.GetStores().ProjectMappingRepo.GetByProjectNumber(s.GetContext(), number)
	s.Require().NoError(err)
	s.True(mapping.HasDeal("42"))
	s.True(mapping.HasDeal("43"))

	// linking never touches the counter
	counter, err := s.GetStores().SequenceRepo.Get(s.GetContext(), "NY", time.Now().UTC().Year()%100)
	s.Require().NoError(err)
	s.Equal(1, counter.CurrentNumber)
}

func (s *ProjectServiceSuite) TestCreateFullProjectLinkDepartmentMismatch() {
	s.connectService(types.IntegrationServicePipedrive)
	s.seedDeal(42)

	_, err := s.service.CreateFullProject(s.GetContext(), &dto.CreateFullProjectRequest{
		PipedriveDealID:             42,
		PipedriveCompanyID:          "12345",
		ExistingProjectNumberToLink: "AB25001",
	})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *ProjectServiceSuite) TestCreateFullProjectCRMUpdateFails() {
	s.connectService(types.IntegrationServicePipedrive)
	s.seedDeal(42)

	s.GetClients().Pipedrive.UpdateErr = ierr.NewError("deal update failed").
		WithHint("The CRM rejected the update").
		Mark(ierr.ErrHTTPClient)

	_, err := s.service.CreateFullProject(s.GetContext(), &dto.CreateFullProjectRequest{
		PipedriveDealID:    42,
		PipedriveCompanyID: "12345",
	})
	s.Require().Error(err)

	// the allocated sequence value stays consumed, the gap is permanent
	counter, err := s.GetStores().SequenceRepo.Get(s.GetContext(), "NY", time.Now().UTC().Year()%100)
	s.Require().NoError(err)
	s.Equal(1, counter.CurrentNumber)
}

func (s *ProjectServiceSuite) TestCreateFullProjectPipedriveNotConnected() {
	s.seedDeal(42)

	_, err := s.service.CreateFullProject(s.GetContext(), &dto.CreateFullProjectRequest{
		PipedriveDealID:    42,
		PipedriveCompanyID: "12345",
	})
	s.Require().Error(err)
	s.True(ierr.IsUnauthenticated(err))
}

func (s *ProjectServiceSuite) TestCreateFullProjectConcurrent() {
	s.connectService(types.IntegrationServicePipedrive)

	dealIDs := []int{41, 42, 43, 44, 45}
	for _, id := range dealIDs {
		s.seedDeal(id)
	}

	var wg sync.WaitGroup
	numbers := make([]string, len(dealIDs))
	errs := make([]error, len(dealIDs))

	for i, id := range dealIDs {
		wg.Add(1)
		go func(i, id int) {
			defer wg.Done()
			resp, err := s.service.CreateFullProject(s.GetContext(), &dto.CreateFullProjectRequest{
				PipedriveDealID:    id,
				PipedriveCompanyID: "12345",
			})
			if err != nil {
				errs[i] = err
				return
			}
			numbers[i] = resp.ProjectNumber
		}(i, id)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := range dealIDs {
		s.Require().NoError(errs[i])
		s.False(seen[numbers[i]], "number %s allocated twice", numbers[i])
		seen[numbers[i]] = true
	}

	counter, err := s.GetStores().SequenceRepo.Get(s.GetContext(), "NY", time.Now().UTC().Year()%100)
	s.Require().NoError(err)
	s.Equal(len(dealIDs), counter.CurrentNumber)
}

func (s *ProjectServiceSuite) TestGetCounter() {
	s.connectService(types.IntegrationServicePipedrive)

	_, err := s.service.GetCounter(s.GetContext(), "N1", 25)
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.service.GetCounter(s.GetContext(), "NY", 125)
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.service.GetCounter(s.GetContext(), "NY", 25)
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))

	s.seedDeal(42)
	_, err = s.service.CreateFullProject(s.GetContext(), &dto.CreateFullProjectRequest{
		PipedriveDealID:    42,
		PipedriveCompanyID: "12345",
	})
	s.Require().NoError(err)

	year := time.Now().UTC().Year() % 100
	resp, err := s.service.GetCounter(s.GetContext(), "NY", year)
	s.Require().NoError(err)
	s.Equal("NY", resp.DepartmentCode)
	s.Equal(year, resp.Year)
	s.Equal(1, resp.CurrentNumber)
}
