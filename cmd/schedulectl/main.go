// Command schedulectl inspects recurrence rules offline: it expands occurrences, projects
// visits onto a calendar window and previews series splits without touching the database.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "schedulectl",
		Short:         "Inspect visit recurrence rules",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newPreviewCmd(), newSummariesCmd(), newSplitCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
