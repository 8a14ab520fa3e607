package pipedrive

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Credentials is a resolved token set for Pipedrive API calls. APIDomain
// is tenant-specific (e.g. https://acme.pipedrive.com).
type Credentials struct {
	AccessToken string
	APIDomain   string
}

// EntityRef is how Pipedrive embeds related entities inside a deal
type EntityRef struct {
	ID   int    `json:"value"`
	Name string `json:"name"`
}

// Deal is the normalized CRM deal. The project number, department code
// and vessel live in custom deal fields whose hash keys are configured
// per tenant; the client maps them onto the named fields here.
type Deal struct {
	ID                int             `json:"id"`
	Title             string          `json:"title"`
	Value             decimal.Decimal `json:"value"`
	Currency          string          `json:"currency"`
	Person            *EntityRef      `json:"person,omitempty"`
	Organization      *EntityRef      `json:"organization,omitempty"`
	ExpectedCloseDate string          `json:"expected_close_date,omitempty"`
	ProjectNumber     string          `json:"project_number,omitempty"`
	DepartmentCode    string          `json:"department_code,omitempty"`
	Vessel            string          `json:"vessel,omitempty"`
}

// Person is a CRM contact person
type Person struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Organization is a CRM organization
type Organization struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// Product is a line item attached to a deal
type Product struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	ItemPrice decimal.Decimal `json:"item_price"`
	Sum       decimal.Decimal `json:"sum"`
}

// envelope is the standard Pipedrive API response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
}

// dealPayload is the wire shape of a deal; custom fields appear as
// top-level keys next to the built-in ones
type dealPayload struct {
	ID                int             `json:"id"`
	Title             string          `json:"title"`
	Value             decimal.Decimal `json:"value"`
	Currency          string          `json:"currency"`
	PersonID          *EntityRef      `json:"person_id"`
	OrgID             *EntityRef      `json:"org_id"`
	ExpectedCloseDate string          `json:"expected_close_date"`
}

type contactValue struct {
	Value   string `json:"value"`
	Primary bool   `json:"primary"`
}

type personPayload struct {
	ID    int            `json:"id"`
	Name  string         `json:"name"`
	Email []contactValue `json:"email"`
	Phone []contactValue `json:"phone"`
}

func (p personPayload) toDomain() *Person {
	person := &Person{ID: p.ID, Name: p.Name}
	for _, e := range p.Email {
		if e.Primary || person.Email == "" {
			person.Email = e.Value
		}
	}
	for _, ph := range p.Phone {
		if ph.Primary || person.Phone == "" {
			person.Phone = ph.Value
		}
	}
	return person
}

type organizationPayload struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type productPayload struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	ItemPrice decimal.Decimal `json:"item_price"`
	Sum       decimal.Decimal `json:"sum"`
}
