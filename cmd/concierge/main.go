// Command concierge answers shared-office questions from a documents file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/concierge/internal/adapters/driven/config/file"
	"github.com/custodia-labs/concierge/internal/adapters/driving/cli"
	"github.com/custodia-labs/concierge/internal/core/ports/driven"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(&cli.Bootstrap{
		OpenSettings: func(configDir string) (driven.SettingsStore, error) {
			store, err := file.NewSettingsStore(configDir)
			if err != nil {
				return nil, err
			}
			return store, nil
		},
		Build: build,
	})

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
