// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/boekwerk/boekwerk-cli/internal/api"
	"github.com/boekwerk/boekwerk-cli/internal/bulk"
	"github.com/boekwerk/boekwerk-cli/internal/config"
	"github.com/boekwerk/boekwerk-cli/internal/errors"
	"github.com/boekwerk/boekwerk-cli/internal/models"
	"github.com/boekwerk/boekwerk-cli/internal/tui/styles"
)

// BulkModal is the interactive flow for one bulk operation: confirm the
// action, watch it run, browse per-client results, retry the failures.
type BulkModal struct {
	dispatcher *bulk.Dispatcher
	watcher    *bulk.Watcher
	controller *bulk.Controller
	onSettle   bulk.CompletionHook

	spinner  spinner.Model
	summary  bulk.Summary
	cursor   int
	width    int
	height   int
	timedOut bool
	quitting bool

	// send posts messages into the running program from watcher callbacks.
	send func(tea.Msg)
}

// NewBulkModal creates the modal in its confirm step.
func NewBulkModal(dispatcher *bulk.Dispatcher, watcher *bulk.Watcher, action models.ActionConfig, targets []models.TargetClient, onSettle bulk.CompletionHook) *BulkModal {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := &BulkModal{
		dispatcher: dispatcher,
		watcher:    watcher,
		onSettle:   onSettle,
		spinner:    s,
	}
	m.controller = m.makeController()
	m.controller.Open(action, targets)
	watcher.OnTimeout = func(*models.BulkOperation) {
		m.post(operationTimedOutMsg{})
	}
	return m
}

// RunBulkModal wires the modal to a live API client and runs it until the
// user closes it.
func RunBulkModal(client *api.Client, cfg *config.SecureConfig, action models.ActionConfig, targets []models.TargetClient, onSettle bulk.CompletionHook) error {
	dispatcher := bulk.NewDispatcher(client)
	watcher := bulk.NewWatcher(client.GetBulkOperation, cfg.PollInterval, cfg.PollMaxDuration)

	m := NewBulkModal(dispatcher, watcher, action, targets, onSettle)
	p := tea.NewProgram(m, tea.WithAltScreen())
	m.send = p.Send

	_, err := p.Run()
	return err
}

func (m *BulkModal) makeController() *bulk.Controller {
	return bulk.NewController(m.dispatcher, m.watcher,
		bulk.WithChangeHook(func() {
			m.post(operationUpdatedMsg{})
		}),
		bulk.WithCompletionHook(func(op *models.BulkOperation, summary bulk.Summary) {
			if m.onSettle != nil {
				m.onSettle(op, summary)
			}
			m.post(operationSettledMsg{op: op, summary: summary})
		}),
	)
}

func (m *BulkModal) post(msg tea.Msg) {
	if m.send != nil {
		m.send(msg)
	}
}

func (m *BulkModal) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *BulkModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case operationUpdatedMsg:
		return m, nil

	case operationSettledMsg:
		m.summary = msg.summary
		m.cursor = 0
		return m, nil

	case operationTimedOutMsg:
		m.timedOut = true
		return m, nil

	case submitDoneMsg:
		// A dispatch error leaves the controller in confirm with the
		// error recorded; the view picks it up from there.
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *BulkModal) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m.close()
	}

	switch m.controller.State() {
	case bulk.StateConfirm:
		return m.handleConfirmKey(key)

	case bulk.StateSubmitting, bulk.StatePolling:
		if key == "q" || key == "esc" {
			// Cancel mid-flight; the backend keeps running, we stop
			// listening.
			return m.close()
		}

	case bulk.StateSettled:
		return m.handleSettledKey(key)
	}

	return m, nil
}

func (m *BulkModal) handleConfirmKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "esc":
		return m.close()

	case "enter", "y":
		controller := m.controller
		return m, func() tea.Msg {
			return submitDoneMsg{err: controller.Submit(context.Background())}
		}
	}

	// Action-specific edits while confirming.
	switch cfg := m.controller.Config().(type) {
	case models.RecalculateConfig:
		if key == "d" {
			cfg.IncludeDrafts = !cfg.IncludeDrafts
			m.controller.UpdateConfig(cfg)
		}

	case models.AckYellowConfig:
		if key == "c" {
			cfg.ClearFlag = !cfg.ClearFlag
			m.controller.UpdateConfig(cfg)
		}

	case models.VATDraftConfig:
		switch key {
		case "left", "h":
			if cfg.Quarter > 1 {
				cfg.Quarter--
				m.controller.UpdateConfig(cfg)
			}
		case "right", "l":
			if cfg.Quarter < 4 {
				cfg.Quarter++
				m.controller.UpdateConfig(cfg)
			}
		case "down", "j":
			cfg.Year--
			m.controller.UpdateConfig(cfg)
		case "up", "k":
			cfg.Year++
			m.controller.UpdateConfig(cfg)
		}
	}

	return m, nil
}

func (m *BulkModal) handleSettledKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "esc", "enter":
		return m.close()

	case "j", "down":
		if m.cursor < len(m.summary.FailedClientIDs)-1 {
			m.cursor++
		}

	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}

	case "r":
		seed := m.controller.Retry()
		if seed == nil {
			return m, nil
		}
		// Fresh controller, fresh operation; the failed subset carries
		// the original configuration verbatim.
		m.controller = m.makeController()
		m.controller.Open(seed.Config, seed.Targets)
		m.summary = bulk.Summary{}
		m.cursor = 0
	}

	return m, nil
}

func (m *BulkModal) close() (tea.Model, tea.Cmd) {
	m.controller.Close()
	m.quitting = true
	return m, tea.Quit
}

func (m *BulkModal) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.controller.State() {
	case bulk.StateConfirm:
		body = m.viewConfirm()
	case bulk.StateSubmitting:
		body = m.viewSubmitting()
	case bulk.StatePolling:
		body = m.viewPolling()
	case bulk.StateSettled:
		body = m.viewSettled()
	default:
		body = ""
	}

	return styles.BorderStyle.Render(body)
}

func (m *BulkModal) viewConfirm() string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Bulk action") + "\n\n")
	b.WriteString(describeAction(m.controller.Config()) + "\n")

	targets := m.controller.Targets()
	b.WriteString(fmt.Sprintf("\nClients (%d):\n", len(targets)))
	shown := targets
	if len(shown) > 8 {
		shown = shown[:8]
	}
	for _, target := range shown {
		b.WriteString("  • " + target.Name + "\n")
	}
	if len(targets) > len(shown) {
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("  … and %d more\n", len(targets)-len(shown))))
	}

	if err := m.controller.SubmitError(); err != nil {
		b.WriteString("\n" + styles.ErrorStyle.Render(errors.FormatUserError(err)) + "\n")
	}

	b.WriteString("\n" + styles.HelpStyle.Render(confirmHelp(m.controller.Config())))
	return b.String()
}

func (m *BulkModal) viewSubmitting() string {
	return styles.TitleStyle.Render("Bulk action") + "\n\n" +
		m.spinner.View() + " Submitting…"
}

func (m *BulkModal) viewPolling() string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Bulk action") + "\n\n")

	if m.timedOut {
		b.WriteString(styles.WarningStyle.Render("⚠ Polling window elapsed") + "\n\n")
		b.WriteString("The operation continues on the server.\n")
		b.WriteString("Check later with: boekwerk history\n")
		b.WriteString("\n" + styles.HelpStyle.Render("q close"))
		return b.String()
	}

	op := m.controller.Operation()
	if op == nil {
		b.WriteString(m.spinner.View() + " Waiting…")
		return b.String()
	}

	b.WriteString(m.spinner.View() + " " + makeProgressBar(op.ProcessedClients, op.TotalClients) + "\n\n")
	b.WriteString(fmt.Sprintf("Successful: %d | Failed: %d\n", op.SuccessfulClients, op.FailedClients))
	b.WriteString("\n" + styles.HelpStyle.Render("q stop watching"))
	return b.String()
}

func (m *BulkModal) viewSettled() string {
	var b strings.Builder
	op := m.controller.Operation()

	switch op.Status {
	case models.OperationCompleted:
		b.WriteString(styles.SuccessStyle.Render("✓ Completed") + "\n\n")
	case models.OperationCompletedWithErrors:
		b.WriteString(styles.WarningStyle.Render("⚠ Completed with errors") + "\n\n")
	case models.OperationFailed:
		b.WriteString(styles.ErrorStyle.Render("✗ Failed") + "\n\n")
	}

	b.WriteString(fmt.Sprintf("Successful: %d  Failed: %d  Skipped: %d\n",
		m.summary.SuccessCount, m.summary.FailedCount, m.summary.SkippedCount))

	failed := failedResults(op)
	if len(failed) > 0 {
		b.WriteString("\nFailed clients:\n")
		for i, item := range failed {
			line := fmt.Sprintf("%s %s", styles.StatusIcon(string(item.Status)), displayName(item))
			if i == m.cursor {
				line = styles.SelectedStyle.Render(line)
				if item.ErrorMessage != "" {
					line += "\n    " + styles.ErrorStyle.Render(item.ErrorMessage)
				}
			}
			b.WriteString("  " + line + "\n")
		}
	}

	help := "q close"
	if m.controller.RetrySeed() != nil {
		help = "r retry failed · j/k browse · q close"
	}
	b.WriteString("\n" + styles.HelpStyle.Render(help))
	return b.String()
}

func describeAction(action models.ActionConfig) string {
	switch cfg := action.(type) {
	case models.RecalculateConfig:
		if cfg.IncludeDrafts {
			return "Recalculate ledgers (including drafts)"
		}
		return "Recalculate ledgers"

	case models.AckYellowConfig:
		if cfg.ClearFlag {
			return "Acknowledge yellow flags and clear them"
		}
		return "Acknowledge yellow flags"

	case models.VATDraftConfig:
		return fmt.Sprintf("Generate VAT drafts for Q%d %d", cfg.Quarter, cfg.Year)

	case models.ReminderConfig:
		return fmt.Sprintf("Send reminder %q", cfg.Title)

	default:
		return "Unknown action"
	}
}

func confirmHelp(action models.ActionConfig) string {
	base := "enter submit · q cancel"
	switch action.(type) {
	case models.RecalculateConfig:
		return "d toggle drafts · " + base
	case models.AckYellowConfig:
		return "c toggle clear · " + base
	case models.VATDraftConfig:
		return "←/→ quarter · ↑/↓ year · " + base
	default:
		return base
	}
}

func failedResults(op *models.BulkOperation) []models.BulkOperationResultItem {
	if op == nil {
		return nil
	}
	var failed []models.BulkOperationResultItem
	for _, item := range op.Results {
		if item.Status == models.ResultFailed {
			failed = append(failed, item)
		}
	}
	return failed
}

func displayName(item models.BulkOperationResultItem) string {
	if item.ClientName != "" {
		return item.ClientName
	}
	return item.ClientID
}

func makeProgressBar(done, total int) string {
	width := 40
	if total == 0 {
		return strings.Repeat("░", width)
	}
	progress := done * width / total
	if progress > width {
		progress = width
	}
	return fmt.Sprintf("[%s%s] %d/%d",
		strings.Repeat("█", progress),
		strings.Repeat("░", width-progress),
		done, total,
	)
}
