package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

const usage = `ai-router routes chat requests to local and cloud LLM providers.

Usage:
  ai-router <command> [flags]

Commands:
  serve    Start the HTTP server
  models   List the model catalogue

Flags:
  -h, --help  Show this help message`

var stdout io.Writer = os.Stdout

// Execute runs the CLI dispatcher with the provided arguments.
func Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return printUsage()
	}

	switch args[0] {
	case "serve":
		return serve(ctx, args[1:])
	case "models":
		return listModels(args[1:])
	case "help", "-h", "--help":
		return printUsage()
	default:
		return fmt.Errorf("unknown command %q\n\n%s", args[0], usage)
	}
}

func printUsage() error {
	fmt.Fprintln(stdout, strings.TrimSpace(usage))
	return nil
}
