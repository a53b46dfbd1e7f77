package cmd

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/gosuri/uitable"

	"ai-router/internal/catalogue"
)

const modelsUsage = `Usage:
  ai-router models [--provider <name>]

Flags:
  --provider string   Only list models for this provider`

func listModels(args []string) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, modelsUsage)
	}

	var only string
	fs.StringVar(&only, "provider", "", "filter by provider")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse models flags: %w", err)
	}

	cat := catalogue.Default()
	var filter catalogue.ProviderID
	if only != "" {
		filter = catalogue.Normalize(only)
		if _, ok := cat.Resolve(filter); !ok {
			return fmt.Errorf("unknown provider %q", only)
		}
	}

	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("PROVIDER", "MODEL", "TYPE", "DEFAULT")
	for _, row := range cat.ListAll() {
		if filter != "" && row.Provider != filter {
			continue
		}
		def := ""
		if row.IsDefault {
			def = "*"
		}
		table.AddRow(row.Provider, row.Model, row.Class, def)
	}

	fmt.Fprintln(stdout, table)
	return nil
}
