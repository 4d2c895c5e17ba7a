package dto

import (
	"time"

	"github.com/boekwerk/boekwerk-cli/internal/models"
)

// BulkActionRequest is the submit payload. Exactly one of the four config
// fields is set, matching ActionType; the dispatcher enforces this with an
// exhaustive switch over the config's concrete type.
type BulkActionRequest struct {
	ActionType models.BulkActionType `json:"actionType"`
	ClientIDs  []string              `json:"clientIds"`

	Recalculate *RecalculatePayload `json:"recalculate,omitempty"`
	AckYellow   *AckYellowPayload   `json:"ackYellow,omitempty"`
	VATDraft    *VATDraftPayload    `json:"vatDraft,omitempty"`
	Reminders   *ReminderPayload    `json:"reminders,omitempty"`
}

// RecalculatePayload configures a recalculation pass
type RecalculatePayload struct {
	IncludeDrafts bool `json:"includeDrafts,omitempty"`
}

// AckYellowPayload configures acknowledging yellow-flagged items
type AckYellowPayload struct {
	ClearFlag bool `json:"clearFlag,omitempty"`
}

// VATDraftPayload configures VAT draft generation for one period
type VATDraftPayload struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter"`
}

// ReminderPayload configures a payment-reminder mailing
type ReminderPayload struct {
	Title    string     `json:"title"`
	Message  string     `json:"message"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// SingleOperationResponse is the wrapped form of one operation snapshot
type SingleOperationResponse struct {
	Data *models.BulkOperation `json:"data"`
}

// ClientListResponse is the wrapped form of the client listing
type ClientListResponse struct {
	Data []models.ClientSummary `json:"data"`
}
