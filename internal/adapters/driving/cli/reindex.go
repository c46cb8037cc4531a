package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/concierge/internal/core/domain"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the vector index",
	Long: `Delete the collection and rebuild it from the current documents file.

Stop a running 'concierge serve' that uses the same embedded vector store first.`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Index.Reindex(cmd.Context(), domain.TriggerManual); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Reindexed %s: %d chunks\n",
		app.Settings.Documents.Path, app.Index.Status().DocumentsCount)
	return nil
}
