// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

package bulk

import (
	"context"
	"strings"

	"github.com/boekwerk/boekwerk-cli/internal/api/dto"
	"github.com/boekwerk/boekwerk-cli/internal/errors"
	"github.com/boekwerk/boekwerk-cli/internal/models"
)

// OperationAPI is the backend contract the bulk core drives: one call to
// submit an action, one call to fetch an operation snapshot by ID.
type OperationAPI interface {
	SubmitBulkAction(ctx context.Context, request *dto.BulkActionRequest) (*models.BulkOperation, error)
	GetBulkOperation(ctx context.Context, id string) (*models.BulkOperation, error)
}

// Dispatcher validates and submits one bulk action. It performs exactly one
// network call per Submit and never retries; a failed submission goes back
// to the user.
type Dispatcher struct {
	api OperationAPI
}

func NewDispatcher(api OperationAPI) *Dispatcher {
	return &Dispatcher{api: api}
}

// Submit builds the request payload for the given action config and target
// set and submits it. Validation happens before any network I/O; a
// *errors.ValidationError means nothing was sent.
func (d *Dispatcher) Submit(ctx context.Context, config models.ActionConfig, targets []models.TargetClient) (*models.BulkOperation, error) {
	request, err := BuildRequest(config, targets)
	if err != nil {
		return nil, err
	}

	return d.api.SubmitBulkAction(ctx, request)
}

// BuildRequest maps an action config onto its wire payload. The switch is
// exhaustive over the closed set of config types; an unknown type is a
// programming error surfaced as a validation failure.
func BuildRequest(config models.ActionConfig, targets []models.TargetClient) (*dto.BulkActionRequest, error) {
	if config == nil {
		return nil, &errors.ValidationError{Field: "action", Message: "no action selected"}
	}
	if len(targets) == 0 {
		return nil, &errors.ValidationError{Field: "clients", Message: "select at least one client"}
	}

	clientIDs := make([]string, len(targets))
	for i, t := range targets {
		if t.ID == "" {
			return nil, &errors.ValidationError{Field: "clients", Message: "client without id in target list"}
		}
		clientIDs[i] = t.ID
	}

	request := &dto.BulkActionRequest{
		ActionType: config.ActionType(),
		ClientIDs:  clientIDs,
	}

	switch c := config.(type) {
	case models.RecalculateConfig:
		request.Recalculate = &dto.RecalculatePayload{IncludeDrafts: c.IncludeDrafts}

	case models.AckYellowConfig:
		request.AckYellow = &dto.AckYellowPayload{ClearFlag: c.ClearFlag}

	case models.VATDraftConfig:
		if err := validateVATDraft(c); err != nil {
			return nil, err
		}
		request.VATDraft = &dto.VATDraftPayload{Year: c.Year, Quarter: c.Quarter}

	case models.ReminderConfig:
		if err := validateReminder(c); err != nil {
			return nil, err
		}
		request.Reminders = &dto.ReminderPayload{
			Title:    c.Title,
			Message:  c.Message,
			Deadline: c.Deadline,
		}

	default:
		return nil, &errors.ValidationError{
			Field:   "action",
			Value:   config.ActionType(),
			Message: "unsupported action type",
		}
	}

	return request, nil
}

func validateVATDraft(c models.VATDraftConfig) error {
	if c.Year < 2000 || c.Year > 2100 {
		return &errors.ValidationError{Field: "year", Value: c.Year, Message: "year must be a four-digit calendar year"}
	}
	if c.Quarter < 1 || c.Quarter > 4 {
		return &errors.ValidationError{Field: "quarter", Value: c.Quarter, Message: "quarter must be between 1 and 4"}
	}
	return nil
}

func validateReminder(c models.ReminderConfig) error {
	if strings.TrimSpace(c.Title) == "" {
		return &errors.ValidationError{Field: "title", Message: "reminder title is required"}
	}
	if strings.TrimSpace(c.Message) == "" {
		return &errors.ValidationError{Field: "message", Message: "reminder message is required"}
	}
	return nil
}
