package pipedrive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/projectline/projectline/internal/config"
	ierr "github.com/projectline/projectline/internal/errors"
	"github.com/projectline/projectline/internal/httpclient"
	"github.com/projectline/projectline/internal/logger"
)

// TokenSource supplies currently valid Pipedrive credentials for the
// tenant in context
type TokenSource interface {
	Token(ctx context.Context) (*Credentials, error)
}

// PipedriveClient defines the interface for Pipedrive API operations
type PipedriveClient interface {
	GetDeal(ctx context.Context, dealID int) (*Deal, error)
	GetPerson(ctx context.Context, personID int) (*Person, error)
	GetOrganization(ctx context.Context, organizationID int) (*Organization, error)
	GetDealProducts(ctx context.Context, dealID int) ([]Product, error)
	// UpdateDeal patches arbitrary deal fields, including custom fields
	// addressed by their hash keys
	UpdateDeal(ctx context.Context, dealID int, fields map[string]any) (*Deal, error)
	// SetDealProjectNumber writes the project number custom field
	SetDealProjectNumber(ctx context.Context, dealID int, projectNumber string) (*Deal, error)
}

// Client handles Pipedrive API calls for the tenant in context
type Client struct {
	tokens     TokenSource
	fields     config.PipedriveConfig
	logger     *logger.Logger
	httpClient httpclient.Client
}

// NewClient creates a new Pipedrive client
func NewClient(
	tokens TokenSource,
	cfg *config.Configuration,
	logger *logger.Logger,
	httpClient httpclient.Client,
) PipedriveClient {
	return &Client{
		tokens:     tokens,
		fields:     cfg.Pipedrive,
		logger:     logger,
		httpClient: httpClient,
	}
}

func (c *Client) GetDeal(ctx context.Context, dealID int) (*Deal, error) {
	raw, err := c.get(ctx, fmt.Sprintf("/api/v1/deals/%d", dealID), "deal")
	if err != nil {
		return nil, err
	}
	return c.decodeDeal(raw, dealID)
}

func (c *Client) GetPerson(ctx context.Context, personID int) (*Person, error) {
	raw, err := c.get(ctx, fmt.Sprintf("/api/v1/persons/%d", personID), "person")
	if err != nil {
		return nil, err
	}

	var payload personPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, c.decodeError("person", err)
	}
	return payload.toDomain(), nil
}

func (c *Client) GetOrganization(ctx context.Context, organizationID int) (*Organization, error) {
	raw, err := c.get(ctx, fmt.Sprintf("/api/v1/organizations/%d", organizationID), "organization")
	if err != nil {
		return nil, err
	}

	var payload organizationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, c.decodeError("organization", err)
	}
	return &Organization{ID: payload.ID, Name: payload.Name, Address: payload.Address}, nil
}

func (c *Client) GetDealProducts(ctx context.Context, dealID int) ([]Product, error) {
	raw, err := c.get(ctx, fmt.Sprintf("/api/v1/deals/%d/products", dealID), "deal products")
	if err != nil {
		return nil, err
	}

	var payloads []productPayload
	if err := json.Unmarshal(raw, &payloads); err != nil {
		return nil, c.decodeError("deal products", err)
	}

	products := make([]Product, 0, len(payloads))
	for _, p := range payloads {
		products = append(products, Product{
			ID:        p.ID,
			Name:      p.Name,
			Quantity:  p.Quantity,
			ItemPrice: p.ItemPrice,
			Sum:       p.Sum,
		})
	}
	return products, nil
}

func (c *Client) UpdateDeal(ctx context.Context, dealID int, fields map[string]any) (*Deal, error) {
	creds, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return nil, c.decodeError("deal update", err)
	}

	resp, err := c.httpClient.Send(ctx, &httpclient.Request{
		Method: http.MethodPut,
		URL:    fmt.Sprintf("%s/api/v1/deals/%d", creds.APIDomain, dealID),
		Headers: map[string]string{
			"Authorization": "Bearer " + creds.AccessToken,
		},
		Body: body,
	})
	if err != nil {
		return nil, c.wrapSendError(err, "deal")
	}

	raw, err := c.unwrap(resp.Body, "deal")
	if err != nil {
		return nil, err
	}
	return c.decodeDeal(raw, dealID)
}

func (c *Client) SetDealProjectNumber(ctx context.Context, dealID int, projectNumber string) (*Deal, error) {
	return c.UpdateDeal(ctx, dealID, map[string]any{
		c.fields.ProjectNumberFieldKey: projectNumber,
	})
}

// get performs a GET against the tenant API domain and unwraps the
// standard {success, data} envelope
func (c *Client) get(ctx context.Context, path string, entity string) (json.RawMessage, error) {
	creds, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Send(ctx, &httpclient.Request{
		Method: http.MethodGet,
		URL:    creds.APIDomain + path,
		Headers: map[string]string{
			"Authorization": "Bearer " + creds.AccessToken,
		},
	})
	if err != nil {
		return nil, c.wrapSendError(err, entity)
	}

	return c.unwrap(resp.Body, entity)
}

func (c *Client) unwrap(body []byte, entity string) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, c.decodeError(entity, err)
	}

	if !env.Success {
		return nil, ierr.NewError("pipedrive request failed").
			WithHintf("Pipedrive rejected the %s request: %s", entity, env.Error).
			Mark(ierr.ErrHTTPClient)
	}

	return env.Data, nil
}

// decodeDeal maps the wire payload onto the normalized deal, lifting the
// configured custom field keys
func (c *Client) decodeDeal(raw json.RawMessage, dealID int) (*Deal, error) {
	var payload dealPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, c.decodeError("deal", err)
	}

	// Custom fields sit next to built-in keys under their hash keys
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, c.decodeError("deal", err)
	}

	deal := &Deal{
		ID:                payload.ID,
		Title:             payload.Title,
		Value:             payload.Value,
		Currency:          payload.Currency,
		Person:            payload.PersonID,
		Organization:      payload.OrgID,
		ExpectedCloseDate: payload.ExpectedCloseDate,
		ProjectNumber:     stringField(fields, c.fields.ProjectNumberFieldKey),
		DepartmentCode:    stringField(fields, c.fields.DepartmentFieldKey),
		Vessel:            stringField(fields, c.fields.VesselFieldKey),
	}
	if deal.ID == 0 {
		deal.ID = dealID
	}

	return deal, nil
}

func stringField(fields map[string]any, key string) string {
	if key == "" {
		return ""
	}
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

// wrapSendError maps upstream status codes onto the error taxonomy:
// 404 means the entity does not exist, 401 means the tenant's token is
// no longer accepted, everything else is a downstream failure
func (c *Client) wrapSendError(err error, entity string) error {
	if httpErr, ok := httpclient.IsHTTPError(err); ok {
		switch httpErr.StatusCode {
		case http.StatusNotFound:
			return ierr.WithError(err).
				WithHintf("Pipedrive %s not found", entity).
				Mark(ierr.ErrNotFound)
		case http.StatusUnauthorized, http.StatusForbidden:
			return ierr.WithError(err).
				WithHint("Pipedrive rejected the credentials, reconnect the CRM").
				Mark(ierr.ErrUnauthenticated)
		}
	}

	c.logger.Errorw("pipedrive request failed",
		"entity", entity,
		"error", err)
	return ierr.WithError(err).
		WithHintf("Pipedrive is unavailable, failed to fetch %s", entity).
		Mark(ierr.ErrHTTPClient)
}

func (c *Client) decodeError(entity string, err error) error {
	return ierr.WithError(err).
		WithHintf("Pipedrive returned an unexpected %s payload", entity).
		Mark(ierr.ErrHTTPClient)
}
