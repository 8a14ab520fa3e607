package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/projectline/projectline/internal/api/dto"
	"github.com/projectline/projectline/internal/domain/projectmapping"
	"github.com/projectline/projectline/internal/domain/projectnumber"
	ierr "github.com/projectline/projectline/internal/errors"
	"github.com/projectline/projectline/internal/integration/pipedrive"
	"github.com/projectline/projectline/internal/integration/xero"
	"github.com/projectline/projectline/internal/types"
	"golang.org/x/sync/errgroup"
)

// ProjectService orchestrates the cross-system project creation
// workflow: validate, allocate or link a project number, update the CRM
// deal, then attempt the accounting-side records best-effort
type ProjectService interface {
	CreateFullProject(ctx context.Context, req *dto.CreateFullProjectRequest) (*dto.CreateFullProjectResponse, error)
	GetCounter(ctx context.Context, departmentCode string, year int) (*dto.CounterResponse, error)
}

type projectService struct {
	ServiceParams
	tokens TokenService
}

// NewProjectService creates a new project service
func NewProjectService(params ServiceParams, tokens TokenService) ProjectService {
	return &projectService{
		ServiceParams: params,
		tokens:        tokens,
	}
}

// CreateFullProject runs the full workflow. Everything up to and
// including the CRM update is mandatory and fails the request; the
// accounting stage is best-effort and only ever fills the response's
// accounting field. An allocated-but-unused sequence value on a late
// failure is an accepted permanent gap.
func (s *projectService) CreateFullProject(ctx context.Context, req *dto.CreateFullProjectRequest) (*dto.CreateFullProjectResponse, error) {
	// Step 1: input validation
	dealID, err := req.Validate()
	if err != nil {
		return nil, err
	}

	// Step 2: resolve auth. The CRM connection is mandatory; the
	// accounting connection only gates the best-effort stage.
	if _, err := s.tokens.PipedriveToken(ctx); err != nil {
		return nil, err
	}
	accountingConnected := s.tokens.IsConnected(ctx, types.IntegrationServiceXero)

	// Step 3: fetch the deal, then its related entities with fan-out
	deal, err := s.PipedriveClient.GetDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}

	var (
		person       *pipedrive.Person
		organization *pipedrive.Organization
		products     []pipedrive.Product
	)

	g, gctx := errgroup.WithContext(ctx)
	if deal.Person != nil {
		personID := deal.Person.ID
		g.Go(func() error {
			var err error
			person, err = s.PipedriveClient.GetPerson(gctx, personID)
			return err
		})
	}
	if deal.Organization != nil {
		organizationID := deal.Organization.ID
		g.Go(func() error {
			var err error
			organization, err = s.PipedriveClient.GetOrganization(gctx, organizationID)
			return err
		})
	}
	g.Go(func() error {
		var err error
		products, err = s.PipedriveClient.GetDealProducts(gctx, dealID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Step 4: business validation, before anything is allocated
	linking := req.ExistingProjectNumberToLink != ""
	if !linking {
		if err := ValidateProjectCreation(deal); err != nil {
			return nil, err
		}
	}
	if err := ValidateDealForProject(deal); err != nil {
		return nil, err
	}

	// Step 5: number resolution
	now := time.Now().UTC()
	year := now.Year() % 100

	var number string
	if linking {
		number = strings.TrimSpace(req.ExistingProjectNumberToLink)
		if err := ValidateProjectNumberAssignment(number, nil, deal); err != nil {
			return nil, err
		}
	} else {
		seq, err := s.SequenceRepo.AllocateNext(ctx, deal.DepartmentCode, year)
		if err != nil {
			return nil, err
		}

		number, err = projectnumber.GenerateAt(deal.DepartmentCode, seq, now)
		if err != nil {
			return nil, err
		}

		existing, err := s.ProjectMappingRepo.ListProjectNumbers(ctx, deal.DepartmentCode, year)
		if err != nil {
			return nil, err
		}
		if err := ValidateProjectNumberAssignment(number, existing, deal); err != nil {
			return nil, err
		}
	}

	// Step 6: persist the deal-project mapping
	if err := s.persistMapping(ctx, number, dealID, linking); err != nil {
		return nil, err
	}

	// Step 7: write the number back onto the CRM deal. The CRM is the
	// system of record, so failure here fails the whole request.
	updatedDeal, err := s.PipedriveClient.SetDealProjectNumber(ctx, dealID, number)
	if err != nil {
		s.Logger.Errorw("failed to write project number to deal",
			"deal_id", dealID,
			"project_number", number,
			"error", err)
		return nil, ierr.WithError(err).
			WithHintf("Failed to update CRM deal %d with project number %s", dealID, number).
			Mark(ierr.ErrHTTPClient)
	}
	updatedDeal.ProjectNumber = number

	// Step 8: best-effort accounting stage
	accounting := s.createAccountingRecords(ctx, accountingConnected, linking, number, updatedDeal, person, organization, products)

	s.Logger.Infow("project created",
		"deal_id", dealID,
		"project_number", number,
		"is_new_project", !linking,
		"accounting_project_created", accounting.ProjectCreated)

	// Step 9: assemble the response
	return &dto.CreateFullProjectResponse{
		Success:       true,
		ProjectNumber: number,
		Deal:          updatedDeal,
		Person:        person,
		Organization:  organization,
		Products:      products,
		Accounting:    accounting,
		Metadata: dto.ProjectMetadata{
			DealID:       dealID,
			CompanyID:    req.PipedriveCompanyID,
			IsNewProject: !linking,
		},
	}, nil
}

func (s *projectService) GetCounter(ctx context.Context, departmentCode string, year int) (*dto.CounterResponse, error) {
	if !projectnumber.ValidateDepartmentCode(departmentCode) {
		return nil, ierr.NewError("invalid department code").
			WithHintf("Department code must be exactly 2 uppercase letters, got %q", departmentCode).
			Mark(ierr.ErrValidation)
	}
	if year < 0 || year > 99 {
		return nil, ierr.NewError("invalid year").
			WithHintf("Year must be a 2-digit value, got %d", year).
			Mark(ierr.ErrValidation)
	}

	counter, err := s.SequenceRepo.Get(ctx, departmentCode, year)
	if err != nil {
		return nil, err
	}

	return &dto.CounterResponse{
		DepartmentCode: counter.DepartmentCode,
		Year:           counter.Year,
		CurrentNumber:  counter.CurrentNumber,
	}, nil
}

// persistMapping creates the mapping for a new number, or appends the
// deal when linking. Linking never touches the sequence counter. A
// linked number that predates the mapping store gets a mapping created
// from its parsed components.
func (s *projectService) persistMapping(ctx context.Context, number string, dealID int, linking bool) error {
	dealKey := strconv.Itoa(dealID)

	if linking {
		if _, err := s.ProjectMappingRepo.GetByProjectNumber(ctx, number); err != nil {
			if !ierr.IsNotFound(err) {
				return err
			}
			return s.createMapping(ctx, number, dealKey)
		}
		return s.ProjectMappingRepo.AppendDealID(ctx, number, dealKey)
	}

	return s.createMapping(ctx, number, dealKey)
}

func (s *projectService) createMapping(ctx context.Context, number string, dealKey string) error {
	parsed := projectnumber.Parse(number)
	if parsed == nil {
		// unreachable: the number was validated in step 5
		return ierr.NewError("invalid project number").
			WithHintf("Project number %q is malformed", number).
			Mark(ierr.ErrValidation)
	}

	return s.ProjectMappingRepo.Create(ctx, &projectmapping.ProjectMapping{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PROJECT_MAPPING),
		ProjectNumber:  number,
		DealIDs:        []string{dealKey},
		DepartmentCode: parsed.DepartmentCode,
		Year:           parsed.Year,
		Sequence:       parsed.Sequence,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	})
}

// createAccountingRecords runs the accounting-side stage. It never
// returns an error: any failure is captured into the result so the
// CRM-side outcome stays independent of accounting availability.
func (s *projectService) createAccountingRecords(
	ctx context.Context,
	connected bool,
	linking bool,
	number string,
	deal *pipedrive.Deal,
	person *pipedrive.Person,
	organization *pipedrive.Organization,
	products []pipedrive.Product,
) dto.AccountingResult {
	if !connected {
		return dto.AccountingResult{
			ProjectCreated: false,
			Error:          "accounting service is not connected",
		}
	}

	result := dto.AccountingResult{}

	contact, err := s.resolveContact(ctx, person, organization)
	if err != nil {
		s.Logger.Warnw("accounting contact step failed",
			"project_number", number,
			"error", err)
		result.Error = displayMessage(err)
		return result
	}
	result.ContactID = contact.ContactID

	project, err := s.resolveProject(ctx, linking, number, deal, contact)
	if err != nil {
		s.Logger.Warnw("accounting project step failed",
			"project_number", number,
			"error", err)
		result.Error = displayMessage(err)
		return result
	}
	result.ProjectID = project.ProjectID
	result.ProjectCreated = true

	// Tasks depend on the project id, so they run sequentially after it
	for _, product := range products {
		task, err := s.XeroClient.CreateTask(ctx, project.ProjectID, &xero.TaskCreateRequest{
			Name: product.Name,
			Rate: xero.TaskRate{
				Currency: deal.Currency,
				Value:    product.ItemPrice,
			},
			ChargeType: xero.ChargeTypeFixed,
		})
		if err != nil {
			s.Logger.Warnw("accounting task step failed",
				"project_number", number,
				"product", product.Name,
				"error", err)
			result.Error = displayMessage(err)
			return result
		}
		result.TaskIDs = append(result.TaskIDs, task.TaskID)
	}

	return result
}

// resolveContact finds the accounting contact matching the deal's
// organization, creating it when absent
func (s *projectService) resolveContact(ctx context.Context, person *pipedrive.Person, organization *pipedrive.Organization) (*xero.Contact, error) {
	contact, err := s.XeroClient.FindContactByName(ctx, organization.Name)
	if err != nil {
		return nil, err
	}
	if contact != nil {
		return contact, nil
	}

	req := &xero.ContactCreateRequest{Name: organization.Name}
	if person != nil {
		req.EmailAddress = person.Email
	}
	return s.XeroClient.CreateContact(ctx, req)
}

// resolveProject creates the accounting project, or when linking looks
// up the one whose name starts with the project number
func (s *projectService) resolveProject(ctx context.Context, linking bool, number string, deal *pipedrive.Deal, contact *xero.Contact) (*xero.Project, error) {
	if linking {
		projects, err := s.XeroClient.GetProjects(ctx)
		if err != nil {
			return nil, err
		}
		for i := range projects {
			if strings.HasPrefix(projects[i].Name, number) {
				return &projects[i], nil
			}
		}
	}

	estimate := deal.Value
	return s.XeroClient.CreateProject(ctx, &xero.ProjectCreateRequest{
		ContactID:      contact.ContactID,
		Name:           number + " - " + deal.Title,
		EstimateAmount: &estimate,
	})
}

// displayMessage extracts the caller-facing message from an error the
// same way the HTTP error middleware does
func displayMessage(err error) string {
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		for _, hint := range hints {
			if hint = strings.TrimSpace(hint); hint != "" {
				return hint
			}
		}
	}
	return err.Error()
}
