package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driven"
	"github.com/custodia-labs/concierge/internal/core/ports/driving"
)

// App is the wired pipeline a command runs against.
type App struct {
	Settings domain.Settings
	Answers  driving.AnswerService
	Index    driving.IndexService

	// Watch blocks until ctx is done, rebuilding the index when the
	// documents file changes and reloading edited prompt templates.
	// Nil when watching is disabled.
	Watch func(ctx context.Context) error

	// Metrics serves pipeline metrics. Nil when metrics are not collected.
	Metrics http.Handler

	// Ping checks that the embedding and LLM providers are reachable.
	Ping func(ctx context.Context) error

	// Closers are released in reverse order by Close.
	Closers []io.Closer
}

// Close releases everything the app holds.
func (a *App) Close() error {
	var errs []error
	for i := len(a.Closers) - 1; i >= 0; i-- {
		if err := a.Closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Bootstrap opens settings and wires the pipeline. The binary provides it.
type Bootstrap struct {
	// OpenSettings returns the settings store for a config directory.
	// An empty directory selects the default.
	OpenSettings func(configDir string) (driven.SettingsStore, error)

	// Build wires every adapter and service for the given settings.
	Build func(ctx context.Context, store driven.SettingsStore, settings domain.Settings) (*App, error)
}

var bootstrap *Bootstrap

// SetBootstrap sets how commands obtain settings and services.
func SetBootstrap(b *Bootstrap) {
	bootstrap = b
}

// openSettings returns the settings store selected by --config-dir.
func openSettings() (driven.SettingsStore, error) {
	if bootstrap == nil || bootstrap.OpenSettings == nil {
		return nil, errors.New("settings store not configured")
	}
	return bootstrap.OpenSettings(configDir)
}

// loadApp loads settings and builds the pipeline. Callers must Close the app.
func loadApp(cmd *cobra.Command) (*App, error) {
	store, err := openSettings()
	if err != nil {
		return nil, err
	}

	settings, err := store.Load()
	if err != nil {
		return nil, err
	}

	if bootstrap.Build == nil {
		return nil, errors.New("pipeline builder not configured")
	}
	app, err := bootstrap.Build(cmd.Context(), store, settings)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	return app, nil
}
