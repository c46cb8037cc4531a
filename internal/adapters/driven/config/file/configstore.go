package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driven"
)

// Ensure SettingsStore implements the interface.
var _ driven.SettingsStore = (*SettingsStore)(nil)

const (
	// HomeEnv overrides the default configuration directory.
	HomeEnv = "CONCIERGE_HOME"

	configFileName = "config.toml"
	vectorsDirName = "vectors"
	promptsDirName = "prompts"
)

// DefaultConfigDir returns $CONCIERGE_HOME, or ~/.concierge when it is unset.
func DefaultConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".concierge"), nil
}

// SettingsStore is a TOML file implementation of driven.SettingsStore.
// Values missing from the file keep their defaults.
type SettingsStore struct {
	mu        sync.Mutex
	configDir string
	filePath  string
	lookupEnv func(string) (string, bool)
}

// NewSettingsStore creates a settings store rooted at configDir.
// If configDir is empty, DefaultConfigDir is used.
func NewSettingsStore(configDir string) (*SettingsStore, error) {
	if configDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	return &SettingsStore{
		configDir: configDir,
		filePath:  filepath.Join(configDir, configFileName),
		lookupEnv: os.LookupEnv,
	}, nil
}

// Load reads config.toml over the defaults, fills empty API keys from the
// environment and validates the result. A missing file yields the defaults.
func (s *SettingsStore) Load() (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := domain.DefaultSettings()

	data, err := os.ReadFile(s.filePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return settings, fmt.Errorf("read settings: %w", err)
	default:
		if err := toml.Unmarshal(data, &settings); err != nil {
			return settings, fmt.Errorf("parse %s: %w", s.filePath, err)
		}
	}

	s.fillAPIKey(&settings.Embedding)
	s.fillAPIKey(&settings.LLM)

	if settings.VectorStore.Path == "" {
		settings.VectorStore.Path = filepath.Join(s.configDir, vectorsDirName)
	}

	if err := settings.Validate(); err != nil {
		return settings, fmt.Errorf("invalid settings in %s: %w", s.filePath, err)
	}
	return settings, nil
}

// Save writes settings to config.toml. API keys that match the environment
// are left out of the file.
func (s *SettingsStore) Save(settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stripEnvKey(&settings.Embedding)
	s.stripEnvKey(&settings.LLM)

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := os.MkdirAll(s.configDir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *SettingsStore) Path() string {
	return s.filePath
}

// Dir returns the configuration directory.
func (s *SettingsStore) Dir() string {
	return s.configDir
}

// PromptDir returns the directory holding prompt templates.
func (s *SettingsStore) PromptDir() string {
	return filepath.Join(s.configDir, promptsDirName)
}

func (s *SettingsStore) fillAPIKey(p *domain.ProviderSettings) {
	if p.APIKey != "" || !p.Provider.RequiresAPIKey() {
		return
	}
	if key, ok := s.lookupEnv(p.Provider.APIKeyEnv()); ok {
		p.APIKey = key
	}
}

func (s *SettingsStore) stripEnvKey(p *domain.ProviderSettings) {
	if p.APIKey == "" || !p.Provider.RequiresAPIKey() {
		return
	}
	if key, ok := s.lookupEnv(p.Provider.APIKeyEnv()); ok && key == p.APIKey {
		p.APIKey = ""
	}
}
