// Package cli provides the cobra command tree for the concierge binary.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/concierge/internal/logger"
)

var (
	// version is set by SetVersion from the build.
	version = "dev"

	configDir string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "concierge",
	Short: "Document-grounded answers for the shared office",
	Long: `Concierge answers visitor questions about the shared office from a curated
documents file. Questions are classified first; business questions are
answered from the most similar document chunks, everything else gets a
fixed greeting or refusal.

The documents file is chunked, embedded and stored in a vector database.
'concierge serve' keeps that index in step with the file while serving
questions over MCP.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logger.SetOutput(cmd.ErrOrStderr())
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "",
		"configuration directory (default $CONCIERGE_HOME or ~/.concierge)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by 'concierge version'.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the command tree.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
