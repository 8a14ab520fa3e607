package testutil

import (
	"context"
	"sync"

	ierr "github.com/projectline/projectline/internal/errors"
	"github.com/projectline/projectline/internal/integration/pipedrive"
)

// MockPipedriveClient is a configurable in-memory implementation of
// pipedrive.PipedriveClient. Fixtures are registered per id; unset ids
// return not found errors like the real client does.
type MockPipedriveClient struct {
	mu sync.Mutex

	Deals         map[int]*pipedrive.Deal
	Persons       map[int]*pipedrive.Person
	Organizations map[int]*pipedrive.Organization
	Products      map[int][]pipedrive.Product

	// UpdateErr, when set, is returned by deal update calls
	UpdateErr error

	// UpdatedNumbers records the project numbers written per deal id
	UpdatedNumbers map[int]string
}

func NewMockPipedriveClient() *MockPipedriveClient {
	return &MockPipedriveClient{
		Deals:          make(map[int]*pipedrive.Deal),
		Persons:        make(map[int]*pipedrive.Person),
		Organizations:  make(map[int]*pipedrive.Organization),
		Products:       make(map[int][]pipedrive.Product),
		UpdatedNumbers: make(map[int]string),
	}
}

func (m *MockPipedriveClient) GetDeal(ctx context.Context, dealID int) (*pipedrive.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deal, ok := m.Deals[dealID]
	if !ok {
		return nil, ierr.NewError("deal not found").
			WithHintf("Deal %d was not found", dealID).
			Mark(ierr.ErrNotFound)
	}
	copied := *deal
	return &copied, nil
}

func (m *MockPipedriveClient) GetPerson(ctx context.Context, personID int) (*pipedrive.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	person, ok := m.Persons[personID]
	if !ok {
		return nil, ierr.NewError("person not found").
			WithHintf("Person %d was not found", personID).
			Mark(ierr.ErrNotFound)
	}
	copied := *person
	return &copied, nil
}

func (m *MockPipedriveClient) GetOrganization(ctx context.Context, organizationID int) (*pipedrive.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	organization, ok := m.Organizations[organizationID]
	if !ok {
		return nil, ierr.NewError("organization not found").
			WithHintf("Organization %d was not found", organizationID).
			Mark(ierr.ErrNotFound)
	}
	copied := *organization
	return &copied, nil
}

func (m *MockPipedriveClient) GetDealProducts(ctx context.Context, dealID int) ([]pipedrive.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]pipedrive.Product(nil), m.Products[dealID]...), nil
}

func (m *MockPipedriveClient) UpdateDeal(ctx context.Context, dealID int, fields map[string]any) (*pipedrive.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}

	deal, ok := m.Deals[dealID]
	if !ok {
		return nil, ierr.NewError("deal not found").
			WithHintf("Deal %d was not found", dealID).
			Mark(ierr.ErrNotFound)
	}
	copied := *deal
	return &copied, nil
}

func (m *MockPipedriveClient) SetDealProjectNumber(ctx context.Context, dealID int, projectNumber string) (*pipedrive.Deal, error) {
	m.mu.Lock()

	if m.UpdateErr != nil {
		m.mu.Unlock()
		return nil, m.UpdateErr
	}

	deal, ok := m.Deals[dealID]
	if !ok {
		m.mu.Unlock()
		return nil, ierr.NewError("deal not found").
			WithHintf("Deal %d was not found", dealID).
			Mark(ierr.ErrNotFound)
	}

	deal.ProjectNumber = projectNumber
	m.UpdatedNumbers[dealID] = projectNumber
	copied := *deal
	m.mu.Unlock()
	return &copied, nil
}

func (m *MockPipedriveClient) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Deals = make(map[int]*pipedrive.Deal)
	m.Persons = make(map[int]*pipedrive.Person)
	m.Organizations = make(map[int]*pipedrive.Organization)
	m.Products = make(map[int][]pipedrive.Product)
	m.UpdatedNumbers = make(map[int]string)
	m.UpdateErr = nil
}
