package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/concierge/internal/adapters/driving/mcp"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index readiness",
	Long: `Bind the vector index and report whether it is ready, how many chunks it
holds and how the last build went. An empty index is built first.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Index.Initialize(cmd.Context()); err != nil {
		return fmt.Errorf("initialize index: %w", err)
	}

	status := mcp.NewStatusOutput(app.Index.Status())
	out := cmd.OutOrStdout()

	if statusJSON {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "Status:       %s\n", status.Status)
	fmt.Fprintf(out, "LLM:          %s\n", yesNo(status.Components.LLM))
	fmt.Fprintf(out, "Vector store: %s\n", yesNo(status.Components.VectorStore))
	fmt.Fprintf(out, "Chunks:       %d\n", status.Data.DocumentsCount)
	fmt.Fprintf(out, "Documents:    %s\n", app.Settings.Documents.Path)
	fmt.Fprintf(out, "Collection:   %s (%s)\n", app.Settings.Index.Collection, app.Settings.VectorStore.Backend)

	if run := status.LastReindex; run != nil {
		outcome := "ok"
		if !run.Success {
			outcome = "failed: " + run.Error
		}
		fmt.Fprintf(out, "Last build:   %s %s, %d chunks in %s, %s\n",
			run.Trigger, run.StartedAt, run.ChunkCount,
			time.Duration(run.DurationSec*float64(time.Second)).Round(time.Millisecond), outcome)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "ready"
	}
	return "not ready"
}
