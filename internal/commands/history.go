package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/boekwerk/boekwerk-cli/internal/audit"
	"github.com/boekwerk/boekwerk-cli/internal/bulk"
	"github.com/boekwerk/boekwerk-cli/internal/models"
	"github.com/boekwerk/boekwerk-cli/internal/utils"
)

var historyLimit int

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently settled bulk operations",
		Long: `Show the bulk operations this machine has run, newest first. The
history is kept locally and survives restarts.`,
		RunE: runHistory,
	}

	cmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of entries")

	return cmd
}

func runHistory(_ *cobra.Command, _ []string) error {
	log := audit.NewLog(audit.DefaultPath())
	entries, err := log.Recent(historyLimit)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No bulk operations recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tACTION\tSTATUS\tOK\tFAILED\tSKIPPED")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			utils.DayKey(entry.RecordedAt),
			entry.ActionType,
			renderStatus(entry.Status),
			entry.SuccessCount,
			entry.FailedCount,
			entry.SkippedCount,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	counter := bulk.NewDailyCounter(bulk.SystemClock, bulk.DefaultCounterPath())
	fmt.Printf("\nOperations today: %d\n", counter.Read())
	return nil
}

func renderStatus(status models.OperationStatus) string {
	switch status {
	case models.OperationCompleted:
		return successStyle.Render(string(status))
	case models.OperationCompletedWithErrors:
		return warnStyle.Render(string(status))
	case models.OperationFailed:
		return failureStyle.Render(string(status))
	default:
		return string(status)
	}
}
