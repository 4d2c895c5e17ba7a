package api

import "fmt"

// API endpoints constants
const (
	// EndpointBulkActions is the base endpoint for bulk action submission
	EndpointBulkActions = "/api/v1/bulk-actions"

	// EndpointBulkActionDetailsTemplate is the endpoint template for one bulk operation
	EndpointBulkActionDetailsTemplate = "/api/v1/bulk-actions/%s"

	// EndpointClientsTemplate is the endpoint template for listing client administrations
	EndpointClientsTemplate = "/api/v1/clients?limit=%d&offset=%d"

	// EndpointClientsYellowTemplate additionally filters on yellow-flagged clients
	EndpointClientsYellowTemplate = "/api/v1/clients?limit=%d&offset=%d&yellow=true"

	// EndpointAuthVerify is the endpoint for verifying authentication
	EndpointAuthVerify = "/api/v1/auth/verify"
)

// BulkActionDetailsURL builds the URL for fetching one bulk operation by ID
func BulkActionDetailsURL(id string) string {
	return fmt.Sprintf(EndpointBulkActionDetailsTemplate, id)
}

// ClientsListURL builds the URL for listing clients with pagination
func ClientsListURL(limit, offset int, onlyYellow bool) string {
	if onlyYellow {
		return fmt.Sprintf(EndpointClientsYellowTemplate, limit, offset)
	}
	return fmt.Sprintf(EndpointClientsTemplate, limit, offset)
}
