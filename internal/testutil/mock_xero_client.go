package testutil

import (
	"context"
	"fmt"
	"sync"

	ierr "github.com/projectline/projectline/internal/errors"
	"github.com/projectline/projectline/internal/integration/xero"
)

// MockXeroClient is a configurable in-memory implementation of
// xero.XeroClient. Each operation can be failed independently to
// exercise the best-effort accounting path.
type MockXeroClient struct {
	mu sync.Mutex

	Contacts []xero.Contact
	Projects []xero.Project
	Tasks    map[string][]xero.Task

	ContactErr error
	ProjectErr error
	TaskErr    error

	nextID int
}

func NewMockXeroClient() *MockXeroClient {
	return &MockXeroClient{
		Tasks: make(map[string][]xero.Task),
	}
}

func (m *MockXeroClient) FindContactByName(ctx context.Context, name string) (*xero.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ContactErr != nil {
		return nil, m.ContactErr
	}

	for i := range m.Contacts {
		if m.Contacts[i].Name == name {
			copied := m.Contacts[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *MockXeroClient) CreateContact(ctx context.Context, req *xero.ContactCreateRequest) (*xero.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ContactErr != nil {
		return nil, m.ContactErr
	}

	m.nextID++
	contact := xero.Contact{
		ContactID:    fmt.Sprintf("contact-%d", m.nextID),
		Name:         req.Name,
		EmailAddress: req.EmailAddress,
	}
	m.Contacts = append(m.Contacts, contact)
	return &contact, nil
}

func (m *MockXeroClient) GetProjects(ctx context.Context) ([]xero.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ProjectErr != nil {
		return nil, m.ProjectErr
	}

	return append([]xero.Project(nil), m.Projects...), nil
}

func (m *MockXeroClient) CreateProject(ctx context.Context, req *xero.ProjectCreateRequest) (*xero.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ProjectErr != nil {
		return nil, m.ProjectErr
	}

	m.nextID++
	project := xero.Project{
		ProjectID: fmt.Sprintf("project-%d", m.nextID),
		ContactID: req.ContactID,
		Name:      req.Name,
	}
	m.Projects = append(m.Projects, project)
	return &project, nil
}

func (m *MockXeroClient) CreateTask(ctx context.Context, projectID string, req *xero.TaskCreateRequest) (*xero.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.TaskErr != nil {
		return nil, m.TaskErr
	}

	found := false
	for i := range m.Projects {
		if m.Projects[i].ProjectID == projectID {
			found = true
			break
		}
	}
	if !found {
		return nil, ierr.NewError("project not found").
			WithHintf("Accounting project %s was not found", projectID).
			Mark(ierr.ErrNotFound)
	}

	m.nextID++
	task := xero.Task{
		TaskID:     fmt.Sprintf("task-%d", m.nextID),
		Name:       req.Name,
		Rate:       req.Rate,
		ChargeType: req.ChargeType,
	}
	m.Tasks[projectID] = append(m.Tasks[projectID], task)
	return &task, nil
}

func (m *MockXeroClient) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Contacts = nil
	m.Projects = nil
	m.Tasks = make(map[string][]xero.Task)
	m.ContactErr = nil
	m.ProjectErr = nil
	m.TaskErr = nil
	m.nextID = 0
}
