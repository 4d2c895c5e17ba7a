// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

package bulk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/boekwerk/boekwerk-cli/internal/errors"
	"github.com/boekwerk/boekwerk-cli/internal/models"
)

// Action files let an accountant prepare a bulk action offline and submit
// it with one command:
//
//   .yaml/.yml/.json  flat document with an "action" field
//   .md/.markdown     reminder campaign: YAML frontmatter (title, deadline,
//                     clients) with the reminder message as Markdown body
type actionFileDoc struct {
	Action  string                `yaml:"action" json:"action"`
	Clients []models.TargetClient `yaml:"clients" json:"clients"`

	// recalculate / ack_yellow flags
	IncludeDrafts bool `yaml:"includeDrafts" json:"includeDrafts"`
	ClearFlag     bool `yaml:"clearFlag" json:"clearFlag"`

	// generate_vat_draft period
	Year    int `yaml:"year" json:"year"`
	Quarter int `yaml:"quarter" json:"quarter"`

	// send_reminders fields
	Title    string     `yaml:"title" json:"title"`
	Message  string     `yaml:"message" json:"message"`
	Deadline *time.Time `yaml:"deadline" json:"deadline"`
}

// LoadActionFile parses an action file into its config and target list.
// The target list may be empty; targets can also come from the client list
// or flags.
func LoadActionFile(path string) (models.ActionConfig, []models.TargetClient, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))

	var doc actionFileDoc
	switch ext {
	case ".md", ".markdown":
		body, err := frontmatter.Parse(bytes.NewReader(content), &doc)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse frontmatter in %s: %w", path, err)
		}
		if doc.Action == "" {
			doc.Action = string(models.ActionSendReminders)
		}
		if doc.Message == "" {
			doc.Message = strings.TrimSpace(string(body))
		}

	case ".json":
		if err := json.Unmarshal(content, &doc); err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}

	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &doc); err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}

	default:
		return nil, nil, fmt.Errorf("unsupported action file type %q (use .yaml, .json or .md)", ext)
	}

	config, err := doc.toConfig()
	if err != nil {
		return nil, nil, err
	}

	return config, doc.Clients, nil
}

func (doc actionFileDoc) toConfig() (models.ActionConfig, error) {
	switch models.BulkActionType(doc.Action) {
	case models.ActionRecalculate:
		return models.RecalculateConfig{IncludeDrafts: doc.IncludeDrafts}, nil

	case models.ActionAckYellow:
		return models.AckYellowConfig{ClearFlag: doc.ClearFlag}, nil

	case models.ActionGenerateVATDraft:
		return models.VATDraftConfig{Year: doc.Year, Quarter: doc.Quarter}, nil

	case models.ActionSendReminders:
		return models.ReminderConfig{
			Title:    doc.Title,
			Message:  doc.Message,
			Deadline: doc.Deadline,
		}, nil

	default:
		return nil, &errors.ValidationError{
			Field:   "action",
			Value:   doc.Action,
			Message: "unknown action type",
		}
	}
}
