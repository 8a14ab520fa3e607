package types

// IntegrationService identifies an external service a tenant can connect
type IntegrationService string

const (
	// IntegrationServicePipedrive is the CRM side of the integration
	IntegrationServicePipedrive IntegrationService = "pipedrive"
	// IntegrationServiceXero is the accounting side of the integration
	IntegrationServiceXero IntegrationService = "xero"
)

func (s IntegrationService) String() string {
	return string(s)
}

func (s IntegrationService) Validate() bool {
	switch s {
	case IntegrationServicePipedrive, IntegrationServiceXero:
		return true
	}
	return false
}
