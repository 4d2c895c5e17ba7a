package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type exampleFile struct {
	name        string
	description string
	filename    string
	content     string
}

var exampleFiles = []exampleFile{
	{
		name:        "reminder",
		description: "Reminder campaign as Markdown with frontmatter",
		filename:    "herinnering.md",
		content: `---
title: Aanleveren stukken Q3
deadline: 2025-10-01T00:00:00Z
clients:
  - id: c-101
    name: Bakkerij Jansen
  - id: c-102
    name: De Vries Transport
---
Beste klant,

Wij missen nog een aantal stukken voor het derde kwartaal.
Graag voor 1 oktober aanleveren via het klantportaal.

Met vriendelijke groet,
Uw accountant
`,
	},
	{
		name:        "vat",
		description: "VAT return drafts for a quarter",
		filename:    "btw-q3.yaml",
		content: `action: generate_vat_draft
year: 2025
quarter: 3
clients:
  - id: c-101
    name: Bakkerij Jansen
  - id: c-102
    name: De Vries Transport
`,
	},
	{
		name:        "recalculate",
		description: "Ledger recalculation including drafts",
		filename:    "herberekening.yaml",
		content: `action: recalculate
includeDrafts: true
clients:
  - id: c-101
    name: Bakkerij Jansen
`,
	},
	{
		name:        "ack",
		description: "Acknowledge yellow flags as JSON",
		filename:    "ack.json",
		content: `{
  "action": "ack_yellow",
  "clearFlag": true,
  "clients": [
    {"id": "c-101", "name": "Bakkerij Jansen"}
  ]
}
`,
	},
}

var examplesCmd = &cobra.Command{
	Use:   "examples [name]",
	Short: "Show example action files",
	Long: `Show example action files for every bulk action. Pipe the output to a
file to use one as a starting point:

  boekwerk examples vat > btw-q3.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			fmt.Println("Available examples:")
			for _, example := range exampleFiles {
				fmt.Printf("  %-12s %s\n", example.name, example.description)
			}
			fmt.Println("\nRun 'boekwerk examples <name>' to print one.")
			return nil
		}

		for _, example := range exampleFiles {
			if example.name == args[0] {
				printExample(example)
				return nil
			}
		}
		return fmt.Errorf("unknown example %q", args[0])
	},
}

func printExample(example exampleFile) {
	// Highlight only when writing to a terminal so redirection stays clean.
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Print(example.content)
		return
	}

	highlighted, err := highlightCode(example.content, example.filename)
	if err != nil {
		fmt.Print(example.content)
		return
	}
	fmt.Printf("# %s\n%s", example.filename, highlighted)
}

func highlightCode(code, filename string) (string, error) {
	lexer := lexers.Match(filename)
	if lexer == nil {
		lexer = lexers.Fallback
	}

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code, err
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code, err
	}
	return buf.String(), nil
}
