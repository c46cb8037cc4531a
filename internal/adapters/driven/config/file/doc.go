// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - SettingsStore: TOML-based settings storage with environment API keys
//   - PromptStore: user-editable prompt templates with built-in defaults
package file
