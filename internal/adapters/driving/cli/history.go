package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/concierge/internal/adapters/driving/mcp"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent index builds",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum number of builds")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output builds as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	runs, err := app.Index.History(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	out := make([]mcp.RunOutput, len(runs))
	for i := range runs {
		out[i] = mcp.NewRunOutput(runs[i])
	}

	if historyJSON {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if len(out) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No builds recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tTRIGGER\tCHUNKS\tSECONDS\tRESULT")
	for _, run := range out {
		result := "ok"
		if !run.Success {
			result = run.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.1f\t%s\n", run.StartedAt, run.Trigger, run.ChunkCount, run.DurationSec, result)
	}
	return w.Flush()
}
