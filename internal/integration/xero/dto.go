package xero

import "github.com/shopspring/decimal"

// Credentials is a resolved token set for Xero API calls. TenantID is
// the Xero organisation id sent on every request.
type Credentials struct {
	AccessToken string
	TenantID    string
}

// Contact is a Xero accounting contact
type Contact struct {
	ContactID    string `json:"ContactID"`
	Name         string `json:"Name"`
	EmailAddress string `json:"EmailAddress,omitempty"`
}

// ContactCreateRequest creates a new accounting contact
type ContactCreateRequest struct {
	Name         string `json:"Name"`
	EmailAddress string `json:"EmailAddress,omitempty"`
}

// Project is a Xero project
type Project struct {
	ProjectID string `json:"projectId"`
	ContactID string `json:"contactId"`
	Name      string `json:"name"`
	Status    string `json:"status,omitempty"`
}

// ProjectCreateRequest creates a new Xero project
type ProjectCreateRequest struct {
	ContactID      string           `json:"contactId"`
	Name           string           `json:"name"`
	EstimateAmount *decimal.Decimal `json:"estimateAmount,omitempty"`
}

// TaskRate is the charge rate on a project task
type TaskRate struct {
	Currency string          `json:"currency"`
	Value    decimal.Decimal `json:"value"`
}

// Task is a billable task inside a Xero project
type Task struct {
	TaskID     string   `json:"taskId"`
	Name       string   `json:"name"`
	Rate       TaskRate `json:"rate"`
	ChargeType string   `json:"chargeType"`
}

// TaskCreateRequest creates a task on a project
type TaskCreateRequest struct {
	Name            string   `json:"name"`
	Rate            TaskRate `json:"rate"`
	ChargeType      string   `json:"chargeType"`
	EstimateMinutes int      `json:"estimateMinutes,omitempty"`
}

// ChargeTypeFixed bills the task at a fixed amount regardless of time
const ChargeTypeFixed = "FIXED"

type contactsEnvelope struct {
	Contacts []Contact `json:"Contacts"`
}

type projectsEnvelope struct {
	Items []Project `json:"items"`
}
