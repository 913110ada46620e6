package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/drummonds/bibview/bibliography"
	"github.com/drummonds/bibview/config"
	"github.com/drummonds/bibview/database"
	"github.com/drummonds/bibview/engine"
	"github.com/drummonds/bibview/viewer"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	database.Logger = Logger
	config.Logger = Logger
	engine.Logger = Logger
	bibliography.Logger = Logger
	viewer.Logger = Logger
}

// newRootCmd builds the command tree. A fresh tree per call keeps flag state
// out of package globals.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bibview",
		Short: "Check the bibliography of a PDF while you read it",
		Long: `bibview ` + config.Version + `
Uploads PDFs, renders them page by page in the browser and checks every
bibliography entry against doi.org and Crossref in the background.`,
		SilenceUsage: true,
	}
	// don't include the `completion` subcommand
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(newServeCmd())
	root.AddCommand(newRenderCmd())
	root.AddCommand(newEntriesCmd())
	root.AddCommand(newCheckCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
