package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/concierge/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ReindexHistoryStore = (*Store)(nil)

const dbFileName = "history.db"

const selectRuns = `
	SELECT id, run_trigger, started_at, ended_at, chunk_count, success, error_message, corpus_fingerprint
	FROM reindex_runs`

// Store is a SQLite-backed reindex history.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the history database in dataDir and runs
// pending migrations.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("%w: data directory is empty", domain.ErrInvalidInput)
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Record saves a finished run. Recording the same ID twice overwrites it.
func (s *Store) Record(ctx context.Context, run domain.ReindexRun) error {
	if run.ID == "" {
		return fmt.Errorf("%w: reindex run has no id", domain.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reindex_runs (id, run_trigger, started_at, ended_at, chunk_count, success, error_message, corpus_fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_trigger = excluded.run_trigger,
			started_at = excluded.started_at,
			ended_at = excluded.ended_at,
			chunk_count = excluded.chunk_count,
			success = excluded.success,
			error_message = excluded.error_message,
			corpus_fingerprint = excluded.corpus_fingerprint
	`, run.ID, string(run.Trigger), toUnixNano(run.StartedAt), toUnixNano(run.EndedAt),
		run.ChunkCount, run.Success, run.Error, run.CorpusFingerprint)
	if err != nil {
		return fmt.Errorf("saving reindex run: %w", err)
	}
	return nil
}

// LatestSuccessful returns the newest successful run.
func (s *Store) LatestSuccessful(ctx context.Context) (*domain.ReindexRun, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+`
		WHERE success = 1
		ORDER BY started_at DESC, id DESC
		LIMIT 1`)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning reindex run: %w", err)
	}
	return &run, nil
}

// List returns up to limit runs, newest first. A non-positive limit returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]domain.ReindexRun, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, selectRuns+`
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying reindex runs: %w", err)
	}
	defer rows.Close()

	runs := []domain.ReindexRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning reindex run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reindex runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (domain.ReindexRun, error) {
	var run domain.ReindexRun
	var trigger string
	var startedAt, endedAt int64
	if err := row.Scan(&run.ID, &trigger, &startedAt, &endedAt, &run.ChunkCount,
		&run.Success, &run.Error, &run.CorpusFingerprint); err != nil {
		return run, err
	}
	run.Trigger = domain.ReindexTrigger(trigger)
	run.StartedAt = fromUnixNano(startedAt)
	run.EndedAt = fromUnixNano(endedAt)
	return run, nil
}

// toUnixNano stores the zero time as 0, which UnixNano cannot represent.
func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_reindex_runs.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
