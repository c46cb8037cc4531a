package file

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// documentsFile is the on-disk layout.
type documentsFile struct {
	Documents []documentEntry `json:"documents" yaml:"documents"`
}

type documentEntry struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Category string `json:"category" yaml:"category"`
	Source   string `json:"source" yaml:"source"`
	Content  string `json:"content" yaml:"content"`
}

// Source loads documents from a single file.
type Source struct {
	path string
}

// NewSource creates a source for the file at path.
func NewSource(path string) *Source {
	return &Source{path: filepath.Clean(path)}
}

// Location returns the file path.
func (s *Source) Location() string {
	return s.path
}

// Load reads and parses the file. Documents without an id get "doc-<n>",
// n being their 1-based position.
func (s *Source) Load(_ context.Context) (*domain.Corpus, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrCorpusNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}

	var parsed documentsFile
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := decode(s.path, raw, &parsed); err != nil {
			return nil, fmt.Errorf("parse documents %s: %w", s.path, err)
		}
	}

	corpus := &domain.Corpus{
		Documents:   make([]domain.Document, 0, len(parsed.Documents)),
		Fingerprint: fingerprint(raw),
	}
	for i, entry := range parsed.Documents {
		id := entry.ID
		if id == "" {
			id = "doc-" + strconv.Itoa(i+1)
		}
		corpus.Documents = append(corpus.Documents, domain.Document{
			ID:       id,
			Title:    entry.Title,
			Category: entry.Category,
			Source:   entry.Source,
			Content:  entry.Content,
		})
	}
	return corpus, nil
}

func decode(path string, raw []byte, out *documentsFile) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(raw, out)
	default:
		return json.Unmarshal(raw, out)
	}
}

// fingerprint is the hex sha256 of the file contents.
func fingerprint(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// fileFingerprint hashes the file at path.
func fileFingerprint(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return fingerprint(raw), nil
}
