package driven

import "github.com/custodia-labs/concierge/internal/core/domain"

// SettingsStore persists application settings.
// Implementations handle persistence (e.g., TOML files) and defaults.
type SettingsStore interface {
	// Load reads settings, filling unset values with defaults.
	Load() (domain.Settings, error)

	// Save persists settings.
	Save(settings domain.Settings) error

	// Path returns the configuration file path.
	Path() string
}
