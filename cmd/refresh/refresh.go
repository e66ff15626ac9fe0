// Package refresh implements the one-shot listing refresh command.
package refresh

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/goread/cmd/common"
)

// Cmd is the refresh command.
var Cmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run a single listing refresh and exit",
	Long: `Fetch every configured listing page once, queue the new articles, and
exit. Per-section results are logged as each listing is refreshed. Useful
for cron-driven setups and for verifying source configuration.`,
	RunE: runRefresh,
}

// Command returns the refresh command for use in the root command.
func Command() *cobra.Command {
	return Cmd
}

// runRefresh executes one listing refresh across all configured sections.
func runRefresh(cmd *cobra.Command, _ []string) error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	result, err := common.CreateService(deps.Config, deps.Logger)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	added := result.Service.FetchArticleList(cmd.Context())
	stats := result.Service.Stats()

	fmt.Printf("Queued %d new articles (queue size %d)\n", added, stats.QueueSize)
	return nil
}
