// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import "time"

// BulkActionType is the closed set of bulk actions an accountant can run
// against a selection of client administrations.
type BulkActionType string

const (
	ActionRecalculate      BulkActionType = "recalculate"
	ActionAckYellow        BulkActionType = "ack_yellow"
	ActionGenerateVATDraft BulkActionType = "generate_vat_draft"
	ActionSendReminders    BulkActionType = "send_reminders"
)

// AllActionTypes lists every supported action type, in menu order.
var AllActionTypes = []BulkActionType{
	ActionRecalculate,
	ActionAckYellow,
	ActionGenerateVATDraft,
	ActionSendReminders,
}

// IsValidActionType reports whether s names a supported bulk action.
func IsValidActionType(s string) bool {
	for _, t := range AllActionTypes {
		if BulkActionType(s) == t {
			return true
		}
	}
	return false
}

// ActionConfig is the action-specific configuration carried alongside a bulk
// action. Each action type has exactly one config shape; the dispatcher
// switches exhaustively on the concrete type when building the request
// payload, so adding an action type is a compile-time change.
type ActionConfig interface {
	ActionType() BulkActionType
}

// RecalculateConfig configures a recalculation pass over each client's books.
type RecalculateConfig struct {
	IncludeDrafts bool `json:"includeDrafts,omitempty" yaml:"includeDrafts,omitempty"`
}

func (RecalculateConfig) ActionType() BulkActionType { return ActionRecalculate }

// AckYellowConfig configures acknowledging yellow-flagged items.
type AckYellowConfig struct {
	ClearFlag bool `json:"clearFlag,omitempty" yaml:"clearFlag,omitempty"`
}

func (AckYellowConfig) ActionType() BulkActionType { return ActionAckYellow }

// VATDraftConfig configures VAT draft generation for one reporting period.
type VATDraftConfig struct {
	Year    int `json:"year" yaml:"year"`
	Quarter int `json:"quarter" yaml:"quarter"`
}

func (VATDraftConfig) ActionType() BulkActionType { return ActionGenerateVATDraft }

// ReminderConfig configures a payment-reminder mailing. Title and Message are
// required; Deadline is optional free-form guidance for the recipient.
type ReminderConfig struct {
	Title    string     `json:"title" yaml:"title"`
	Message  string     `json:"message" yaml:"message"`
	Deadline *time.Time `json:"deadline,omitempty" yaml:"deadline,omitempty"`
}

func (ReminderConfig) ActionType() BulkActionType { return ActionSendReminders }
