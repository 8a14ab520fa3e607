package xero

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	ierr "github.com/projectline/projectline/internal/errors"
	"github.com/projectline/projectline/internal/httpclient"
	"github.com/projectline/projectline/internal/logger"
)

const (
	accountingAPIBaseURL = "https://api.xero.com/api.xro/2.0"
	projectsAPIBaseURL   = "https://api.xero.com/projects.xro/2.0"
)

// TokenSource supplies currently valid Xero credentials for the tenant
// in context
type TokenSource interface {
	Token(ctx context.Context) (*Credentials, error)
}

// XeroClient defines the interface for Xero API operations
type XeroClient interface {
	FindContactByName(ctx context.Context, name string) (*Contact, error)
	CreateContact(ctx context.Context, req *ContactCreateRequest) (*Contact, error)
	GetProjects(ctx context.Context) ([]Project, error)
	CreateProject(ctx context.Context, req *ProjectCreateRequest) (*Project, error)
	CreateTask(ctx context.Context, projectID string, req *TaskCreateRequest) (*Task, error)
}

// Client handles Xero API calls for the tenant in context
type Client struct {
	tokens     TokenSource
	logger     *logger.Logger
	httpClient httpclient.Client
}

// NewClient creates a new Xero client
func NewClient(tokens TokenSource, logger *logger.Logger, httpClient httpclient.Client) XeroClient {
	return &Client{
		tokens:     tokens,
		logger:     logger,
		httpClient: httpClient,
	}
}

// FindContactByName returns the contact with the exact name, or nil when
// no such contact exists. Absence is not an error so callers can
// find-or-create in one pass.
func (c *Client) FindContactByName(ctx context.Context, name string) (*Contact, error) {
	where := url.QueryEscape(fmt.Sprintf(`Name=="%s"`, name))
	body, err := c.send(ctx, http.MethodGet, accountingAPIBaseURL+"/Contacts?where="+where, nil)
	if err != nil {
		return nil, err
	}

	var env contactsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, c.decodeError("contacts", err)
	}

	if len(env.Contacts) == 0 {
		return nil, nil
	}
	return &env.Contacts[0], nil
}

func (c *Client) CreateContact(ctx context.Context, req *ContactCreateRequest) (*Contact, error) {
	payload := map[string]any{"Contacts": []*ContactCreateRequest{req}}
	body, err := c.send(ctx, http.MethodPost, accountingAPIBaseURL+"/Contacts", payload)
	if err != nil {
		return nil, err
	}

	var env contactsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, c.decodeError("contacts", err)
	}

	if len(env.Contacts) == 0 {
		return nil, ierr.NewError("xero returned no contact").
			WithHint("Xero accepted the contact but returned an empty response").
			Mark(ierr.ErrHTTPClient)
	}
	return &env.Contacts[0], nil
}

func (c *Client) GetProjects(ctx context.Context) ([]Project, error) {
	body, err := c.send(ctx, http.MethodGet, projectsAPIBaseURL+"/Projects", nil)
	if err != nil {
		return nil, err
	}

	var env projectsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, c.decodeError("projects", err)
	}
	return env.Items, nil
}

func (c *Client) CreateProject(ctx context.Context, req *ProjectCreateRequest) (*Project, error) {
	body, err := c.send(ctx, http.MethodPost, projectsAPIBaseURL+"/Projects", req)
	if err != nil {
		return nil, err
	}

	var project Project
	if err := json.Unmarshal(body, &project); err != nil {
		return nil, c.decodeError("project", err)
	}
	return &project, nil
}

func (c *Client) CreateTask(ctx context.Context, projectID string, req *TaskCreateRequest) (*Task, error) {
	body, err := c.send(ctx, http.MethodPost,
		fmt.Sprintf("%s/Projects/%s/Tasks", projectsAPIBaseURL, projectID), req)
	if err != nil {
		return nil, err
	}

	var task Task
	if err := json.Unmarshal(body, &task); err != nil {
		return nil, c.decodeError("task", err)
	}
	return &task, nil
}

func (c *Client) send(ctx context.Context, method string, rawURL string, payload any) ([]byte, error) {
	creds, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var body []byte
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, c.decodeError("request", err)
		}
	}

	resp, err := c.httpClient.Send(ctx, &httpclient.Request{
		Method: method,
		URL:    rawURL,
		Headers: map[string]string{
			"Authorization":  "Bearer " + creds.AccessToken,
			"Xero-tenant-id": creds.TenantID,
			"Accept":         "application/json",
		},
		Body: body,
	})
	if err != nil {
		return nil, c.wrapSendError(err)
	}

	return resp.Body, nil
}

func (c *Client) wrapSendError(err error) error {
	if httpErr, ok := httpclient.IsHTTPError(err); ok {
		switch httpErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ierr.WithError(err).
				WithHint("Xero rejected the credentials, reconnect the accounting service").
				Mark(ierr.ErrUnauthenticated)
		case http.StatusNotFound:
			return ierr.WithError(err).
				WithHint("Xero resource not found").
				Mark(ierr.ErrNotFound)
		}
	}

	c.logger.Errorw("xero request failed", "error", err)
	return ierr.WithError(err).
		WithHint("Xero is unavailable").
		Mark(ierr.ErrHTTPClient)
}

func (c *Client) decodeError(entity string, err error) error {
	return ierr.WithError(err).
		WithHintf("Xero returned an unexpected %s payload", entity).
		Mark(ierr.ErrHTTPClient)
}
