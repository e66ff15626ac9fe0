// Package articles implements commands for browsing the stored article
// corpus.
package articles

import (
	"github.com/spf13/cobra"
)

// Cmd is the articles command.
var Cmd = &cobra.Command{
	Use:   "articles",
	Short: "Browse stored articles",
	Long:  `Browse the article documents the pipeline has stored on disk.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// init registers the articles subcommands.
func init() {
	Cmd.AddCommand(NewListCommand())
}

// Command returns the articles command for use in the root command.
func Command() *cobra.Command {
	return Cmd
}
