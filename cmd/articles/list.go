// This file contains the implementation of the list command that displays
// the stored article documents in a formatted table.
package articles

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/goread/cmd/common"
	"github.com/jonesrussell/goread/internal/domain"
	"github.com/jonesrussell/goread/internal/logger"
	"github.com/jonesrussell/goread/internal/storage"
)

const modifiedFormat = "2006-01-02 15:04"

// TableRenderer handles the display of stored articles in a table format
type TableRenderer struct {
	logger logger.Interface
}

// NewTableRenderer creates a new TableRenderer instance
func NewTableRenderer(log logger.Interface) *TableRenderer {
	return &TableRenderer{
		logger: log,
	}
}

// RenderTable formats and displays the stored articles in a table format
func (r *TableRenderer) RenderTable(stored []domain.StoredArticle) error {
	// Initialize table writer with stdout as output
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	// Add table headers
	t.AppendHeader(table.Row{"Name", "Size", "Modified"})

	// Newest first, as the store lists them
	for i := range stored {
		t.AppendRow(table.Row{
			stored[i].Name,
			formatSize(stored[i].Size),
			stored[i].Modified.Format(modifiedFormat),
		})
	}

	// Render the table
	t.Render()
	return nil
}

// formatSize renders a byte count in a compact human-readable unit.
func formatSize(n int64) string {
	const kb = 1024
	switch {
	case n >= kb*kb:
		return fmt.Sprintf("%.1f MB", float64(n)/(kb*kb))
	case n >= kb:
		return fmt.Sprintf("%.1f KB", float64(n)/kb)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// Lister handles listing stored articles
type Lister struct {
	store    *storage.FileStore
	logger   logger.Interface
	renderer *TableRenderer
}

// NewLister creates a new Lister instance
func NewLister(store *storage.FileStore, log logger.Interface, renderer *TableRenderer) *Lister {
	return &Lister{
		store:    store,
		logger:   log,
		renderer: renderer,
	}
}

// Start begins the list operation
func (l *Lister) Start() error {
	stored, err := l.store.List()
	if err != nil {
		return fmt.Errorf("failed to list articles: %w", err)
	}

	if len(stored) == 0 {
		l.logger.Info("No articles stored", "dir", l.store.Dir())
		return nil
	}

	// Render the table
	return l.renderer.RenderTable(stored)
}

// NewListCommand creates a new list command
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all stored articles",
		Long:  `List the article documents stored in the configured article directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Get dependencies
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to get dependencies: %w", err)
			}

			// Construct dependencies
			store := storage.NewFileStore(storage.Config{
				Dir: deps.Config.GetStorageConfig().ArticleDir,
			}, deps.Logger)

			renderer := NewTableRenderer(deps.Logger)
			lister := NewLister(store, deps.Logger, renderer)

			// Execute the list command
			return lister.Start()
		},
	}
}
