package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/boekwerk/boekwerk-cli/internal/api"
	"github.com/boekwerk/boekwerk-cli/internal/audit"
	"github.com/boekwerk/boekwerk-cli/internal/bulk"
	"github.com/boekwerk/boekwerk-cli/internal/cache"
	"github.com/boekwerk/boekwerk-cli/internal/errors"
	"github.com/boekwerk/boekwerk-cli/internal/models"
	"github.com/boekwerk/boekwerk-cli/internal/tui"
	"github.com/boekwerk/boekwerk-cli/internal/utils"
)

var (
	bulkFile        string
	bulkClients     []string
	bulkYellow      bool
	bulkAllClients  bool
	bulkFollow      bool
	bulkDryRun      bool
	bulkYes         bool
	bulkRetryFailed bool
	bulkInteractive bool

	bulkIncludeDrafts bool
	bulkClearFlag     bool
	bulkYear          int
	bulkQuarter       int
	bulkTitle         string
	bulkMessage       string
	bulkDeadline      string
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// NewBulkCommand creates the bulk command
func NewBulkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk [action]",
		Short: "Run a bookkeeping action across many client administrations",
		Long: `Run one bookkeeping action across many client administrations at once.

Actions:
  recalculate          Recalculate ledgers
  ack_yellow           Acknowledge yellow-flagged dossiers
  generate_vat_draft   Generate VAT return drafts for a quarter
  send_reminders       Send document reminders

Examples:
  # Recalculate two administrations, including draft entries
  boekwerk bulk recalculate --clients c-101,c-102 --include-drafts

  # Acknowledge every yellow-flagged dossier
  boekwerk bulk ack_yellow --yellow

  # VAT drafts for Q3 2025 across all clients
  boekwerk bulk generate_vat_draft --all --year 2025 --quarter 3

  # Reminder campaign from a Markdown file
  boekwerk bulk --file herinnering.md --all

  # Interactive mode
  boekwerk bulk --interactive`,
		Args: cobra.MaximumNArgs(1),
		RunE: runBulk,
	}

	cmd.Flags().StringVarP(&bulkFile, "file", "F", "", "Action file (.yaml, .json or .md)")
	cmd.Flags().StringSliceVar(&bulkClients, "clients", nil, "Comma-separated client IDs")
	cmd.Flags().BoolVar(&bulkYellow, "yellow", false, "Target all yellow-flagged clients")
	cmd.Flags().BoolVar(&bulkAllClients, "all", false, "Target all clients")
	cmd.Flags().BoolVarP(&bulkFollow, "follow", "f", true, "Follow progress until the operation settles")
	cmd.Flags().BoolVar(&bulkDryRun, "dry-run", false, "Validate without submitting")
	cmd.Flags().BoolVarP(&bulkYes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&bulkRetryFailed, "retry-failed", false, "Automatically retry failed clients once")
	cmd.Flags().BoolVarP(&bulkInteractive, "interactive", "i", false, "Interactive bulk mode")

	cmd.Flags().BoolVar(&bulkIncludeDrafts, "include-drafts", false, "recalculate: include draft entries")
	cmd.Flags().BoolVar(&bulkClearFlag, "clear-flag", false, "ack_yellow: clear the yellow flag")
	cmd.Flags().IntVar(&bulkYear, "year", 0, "generate_vat_draft: year")
	cmd.Flags().IntVar(&bulkQuarter, "quarter", 0, "generate_vat_draft: quarter (1-4)")
	cmd.Flags().StringVar(&bulkTitle, "title", "", "send_reminders: reminder title")
	cmd.Flags().StringVar(&bulkMessage, "message", "", "send_reminders: reminder message")
	cmd.Flags().StringVar(&bulkDeadline, "deadline", "", "send_reminders: deadline (YYYY-MM-DD)")

	return cmd
}

func runBulk(cmd *cobra.Command, args []string) error {
	if cfg.APIKey == "" {
		return errors.NoAPIKeyError()
	}

	client := api.NewClient(cfg.APIKey, cfg.APIURL, cfg.Debug)
	ctx := cmd.Context()

	config, targets, err := resolveAction(ctx, client, args)
	if err != nil {
		return err
	}

	if bulkInteractive {
		return tui.RunBulkModal(client, cfg, config, targets, recordSettlement)
	}

	if len(targets) == 0 {
		return fmt.Errorf("no target clients: use --clients, --yellow or --all")
	}

	if bulkDryRun {
		fmt.Println(successStyle.Render("✓ Action valid"))
		fmt.Printf("Action: %s\n", config.ActionType())
		fmt.Printf("Clients: %d\n", len(targets))
		for _, target := range targets {
			fmt.Printf("  - %s (%s)\n", target.Name, target.ID)
		}
		return nil
	}

	if !bulkYes {
		if !confirmPrompt(fmt.Sprintf("Run %s against %d client(s)?", config.ActionType(), len(targets))) {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	summary, op, err := executeBulk(ctx, client, config, targets)
	if err != nil {
		return err
	}
	if op == nil {
		// Detached; nothing further to report.
		return nil
	}

	printSummary(op, summary)

	if summary.FailedCount > 0 {
		retry := bulkRetryFailed
		if !retry && !bulkYes {
			retry = confirmPrompt(fmt.Sprintf("Retry %d failed client(s)?", summary.FailedCount))
		}
		if retry {
			failed := bulk.RetryFailedOnly(op)
			if failed == nil {
				failed = targets
			}
			fmt.Printf("\nRetrying %d client(s)...\n", len(failed))
			retrySummary, retryOp, err := executeBulk(ctx, client, config, failed)
			if err != nil {
				return err
			}
			if retryOp != nil {
				printSummary(retryOp, retrySummary)
			}
		}
	}

	return nil
}

// resolveAction builds the action config and target list from the file
// and/or flags. Flags override file values; targets from flags override
// targets listed in the file.
func resolveAction(ctx context.Context, client *api.Client, args []string) (models.ActionConfig, []models.TargetClient, error) {
	var config models.ActionConfig
	var targets []models.TargetClient

	if bulkFile != "" {
		var err error
		config, targets, err = bulk.LoadActionFile(bulkFile)
		if err != nil {
			return nil, nil, err
		}
	}

	if len(args) > 0 {
		action := models.BulkActionType(args[0])
		if !models.IsValidActionType(args[0]) {
			return nil, nil, &errors.ValidationError{
				Field:   "action",
				Value:   args[0],
				Message: fmt.Sprintf("unknown action (valid: %s)", joinActionTypes()),
			}
		}
		flagConfig, err := configFromFlags(action)
		if err != nil {
			return nil, nil, err
		}
		config = flagConfig
	}

	if config == nil {
		return nil, nil, fmt.Errorf("no action given: pass an action name or --file")
	}

	flagTargets, err := resolveTargets(ctx, client)
	if err != nil {
		return nil, nil, err
	}
	if len(flagTargets) > 0 {
		targets = flagTargets
	}

	return config, targets, nil
}

func configFromFlags(action models.BulkActionType) (models.ActionConfig, error) {
	switch action {
	case models.ActionRecalculate:
		return models.RecalculateConfig{IncludeDrafts: bulkIncludeDrafts}, nil

	case models.ActionAckYellow:
		return models.AckYellowConfig{ClearFlag: bulkClearFlag}, nil

	case models.ActionGenerateVATDraft:
		year, quarter := bulkYear, bulkQuarter
		if year == 0 && quarter == 0 {
			// Default to the previous quarter, the one being filed.
			year, quarter = previousQuarter(time.Now())
		}
		return models.VATDraftConfig{Year: year, Quarter: quarter}, nil

	case models.ActionSendReminders:
		config := models.ReminderConfig{Title: bulkTitle, Message: bulkMessage}
		if bulkDeadline != "" {
			deadline, err := time.Parse("2006-01-02", bulkDeadline)
			if err != nil {
				return nil, &errors.ValidationError{
					Field:   "deadline",
					Value:   bulkDeadline,
					Message: "expected YYYY-MM-DD",
				}
			}
			config.Deadline = &deadline
		}
		return config, nil

	default:
		return nil, &errors.ValidationError{Field: "action", Value: string(action), Message: "unknown action type"}
	}
}

func resolveTargets(ctx context.Context, client *api.Client) ([]models.TargetClient, error) {
	if len(bulkClients) > 0 {
		targets := make([]models.TargetClient, 0, len(bulkClients))
		for _, id := range bulkClients {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			targets = append(targets, models.TargetClient{ID: id, Name: id})
		}
		return targets, nil
	}

	if bulkYellow || bulkAllClients {
		summaries, err := listClientsCached(ctx, client, bulkYellow)
		if err != nil {
			return nil, err
		}
		targets := make([]models.TargetClient, 0, len(summaries))
		for _, summary := range summaries {
			targets = append(targets, summary.Target())
		}
		return targets, nil
	}

	return nil, nil
}

// executeBulk drives one operation from submission to settlement. Returns
// a nil operation when running detached (--follow=false and the backend
// queued the work).
func executeBulk(ctx context.Context, client *api.Client, config models.ActionConfig, targets []models.TargetClient) (bulk.Summary, *models.BulkOperation, error) {
	dispatcher := bulk.NewDispatcher(client)
	watcher := bulk.NewWatcher(client.GetBulkOperation, cfg.PollInterval, cfg.PollMaxDuration)
	timedOut := make(chan struct{})
	watcher.OnTimeout = func(*models.BulkOperation) {
		fmt.Fprintln(os.Stderr, warnStyle.Render("Polling window elapsed; the operation continues on the server."))
		fmt.Fprintln(os.Stderr, "Check later with: boekwerk history")
		close(timedOut)
	}

	settled := make(chan struct{})
	var (
		finalOp      *models.BulkOperation
		finalSummary bulk.Summary
	)

	controller := bulk.NewController(dispatcher, watcher,
		bulk.WithCompletionHook(func(op *models.BulkOperation, summary bulk.Summary) {
			finalOp = op
			finalSummary = summary
			recordSettlement(op, summary)
			close(settled)
		}),
	)
	defer controller.Close()

	controller.Open(config, targets)
	if err := controller.Submit(ctx); err != nil {
		return bulk.Summary{}, nil, err
	}

	op := controller.Operation()
	if op != nil && !op.IsTerminal() {
		if !bulkFollow {
			fmt.Printf("Operation %s submitted (%d clients). Not following.\n", op.ID, op.TotalClients)
			return bulk.Summary{}, nil, nil
		}
		fmt.Printf("Operation %s submitted, waiting for %d client(s)...\n", op.ID, op.TotalClients)
		if err := waitSettled(ctx, controller, settled, timedOut); err != nil {
			return bulk.Summary{}, nil, err
		}
	} else {
		<-settled
	}

	return finalSummary, finalOp, nil
}

func waitSettled(ctx context.Context, controller *bulk.Controller, settled, timedOut <-chan struct{}) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-settled:
			fmt.Println()
			return nil
		case <-timedOut:
			// The watcher already stopped; the warning has been printed.
			controller.Close()
			return nil
		case <-ctx.Done():
			controller.Close()
			fmt.Println("\nStopped following; the operation continues on the server.")
			return ctx.Err()
		case <-ticker.C:
			if op := controller.Operation(); op != nil {
				fmt.Printf("\r  %d/%d processed", op.ProcessedClients, op.TotalClients)
			}
		}
	}
}

// recordSettlement writes the local audit entry and bumps the daily
// counter. Both are best effort.
func recordSettlement(op *models.BulkOperation, summary bulk.Summary) {
	log := audit.NewLog(audit.DefaultPath())
	if _, err := log.Record(op, summary); err != nil && cfg.Debug {
		fmt.Fprintf(os.Stderr, "warning: could not write history: %v\n", err)
	}

	counter := bulk.NewDailyCounter(bulk.SystemClock, bulk.DefaultCounterPath())
	counter.Increment()

	clientCache().Invalidate()
}

func printSummary(op *models.BulkOperation, summary bulk.Summary) {
	switch op.Status {
	case models.OperationCompleted:
		fmt.Println(successStyle.Render("✓ Completed"))
	case models.OperationCompletedWithErrors:
		fmt.Println(warnStyle.Render("⚠ Completed with errors"))
	case models.OperationFailed:
		fmt.Println(failureStyle.Render("✗ Failed"))
	}

	fmt.Printf("  Successful: %d\n", summary.SuccessCount)
	fmt.Printf("  Failed: %d\n", summary.FailedCount)
	if summary.SkippedCount > 0 {
		fmt.Printf("  Skipped: %d\n", summary.SkippedCount)
	}
	if op.UpdatedAt.After(op.CreatedAt) {
		fmt.Printf("  Duration: %s\n", utils.FormatDuration(op.UpdatedAt.Sub(op.CreatedAt)))
	}

	for _, item := range op.Results {
		if item.Status != models.ResultFailed {
			continue
		}
		name := item.ClientName
		if name == "" {
			name = item.ClientID
		}
		fmt.Printf("  %s %s: %s\n", failureStyle.Render("✗"), name, item.ErrorMessage)
	}
}

func confirmPrompt(question string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("%s (y/N): ", question)
	response, _ := reader.ReadString('\n')
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

func joinActionTypes() string {
	parts := make([]string, len(models.AllActionTypes))
	for i, action := range models.AllActionTypes {
		parts[i] = string(action)
	}
	return strings.Join(parts, ", ")
}

// previousQuarter returns the most recently closed VAT quarter.
func previousQuarter(now time.Time) (year, quarter int) {
	year = now.Year()
	quarter = (int(now.Month()) - 1) / 3 // 0-based current quarter
	if quarter == 0 {
		return year - 1, 4
	}
	return year, quarter
}

var sharedClientCache *cache.ClientCache

func clientCache() *cache.ClientCache {
	if sharedClientCache == nil {
		sharedClientCache = cache.NewClientCache()
	}
	return sharedClientCache
}

func listClientsCached(ctx context.Context, client *api.Client, onlyYellow bool) ([]models.ClientSummary, error) {
	if cached, ok := clientCache().GetList(onlyYellow); ok {
		return cached, nil
	}
	summaries, err := client.ListClients(ctx, 0, 0, onlyYellow)
	if err != nil {
		return nil, err
	}
	clientCache().SetList(onlyYellow, summaries)
	return summaries, nil
}
