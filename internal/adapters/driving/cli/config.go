package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/concierge/internal/core/domain"
)

const maskedKey = "********"

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Long: `Print the settings commands run with: defaults, overlaid by config.toml,
with API keys filled from the environment. Keys are masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openSettings()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), store.Path())
		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the embedding and LLM providers are reachable",
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(configShowCmd, configInitCmd, configPathCmd, configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	store, err := openSettings()
	if err != nil {
		return err
	}
	settings, err := store.Load()
	if err != nil {
		return err
	}

	settings.Embedding.APIKey = mask(settings.Embedding.APIKey)
	settings.LLM.APIKey = mask(settings.LLM.APIKey)

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", store.Path(), data)
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	store, err := openSettings()
	if err != nil {
		return err
	}

	_, err = os.Stat(store.Path())
	switch {
	case err == nil && !configForce:
		return fmt.Errorf("%s already exists (use --force to overwrite)", store.Path())
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("stat config file: %w", err)
	}

	if err := store.Save(domain.DefaultSettings()); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", store.Path())
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Embedding: %s %s\n", app.Settings.Embedding.Provider, app.Settings.Embedding.Model)
	fmt.Fprintf(out, "LLM:       %s %s\n", app.Settings.LLM.Provider, app.Settings.LLM.Model)

	if app.Ping == nil {
		return errors.New("provider check not available")
	}
	if err := app.Ping(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(out, "Providers reachable.")
	return nil
}

func mask(key string) string {
	if key == "" {
		return ""
	}
	return maskedKey
}
