package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/boekwerk/boekwerk-cli/internal/api"
	"github.com/boekwerk/boekwerk-cli/internal/errors"
	"github.com/boekwerk/boekwerk-cli/internal/models"
)

var (
	clientsYellow bool
	clientsLimit  int
	clientsOffset int
)

// NewClientsCommand creates the clients command
func NewClientsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "List the client administrations of your office",
		Long: `List the client administrations of your office, optionally filtered
to the ones with a yellow flag (dossiers needing attention).`,
		RunE: runClients,
	}

	cmd.Flags().BoolVar(&clientsYellow, "yellow", false, "Only yellow-flagged clients")
	cmd.Flags().IntVar(&clientsLimit, "limit", 0, "Maximum number of clients (0 = all)")
	cmd.Flags().IntVar(&clientsOffset, "offset", 0, "Pagination offset")

	return cmd
}

func runClients(cmd *cobra.Command, _ []string) error {
	if cfg.APIKey == "" {
		return errors.NoAPIKeyError()
	}

	client := api.NewClient(cfg.APIKey, cfg.APIURL, cfg.Debug)
	summaries, err := client.ListClients(cmd.Context(), clientsLimit, clientsOffset, clientsYellow)
	if err != nil {
		return err
	}

	if len(summaries) == 0 {
		if clientsYellow {
			fmt.Println("No yellow-flagged clients.")
		} else {
			fmt.Println("No clients found.")
		}
		return nil
	}

	if err := renderClientsTable(os.Stdout, summaries); err != nil {
		return err
	}

	fmt.Printf("\n%d client(s)\n", len(summaries))
	return nil
}

func renderClientsTable(out io.Writer, summaries []models.ClientSummary) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tKVK\tFLAG\tLAST ACTIVITY")
	for _, c := range summaries {
		flag := ""
		if c.YellowFlag {
			flag = warnStyle.Render("●")
		}
		lastActivity := ""
		if !c.LastActivity.IsZero() {
			lastActivity = c.LastActivity.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.KvKNumber, flag, lastActivity)
	}
	return w.Flush()
}
