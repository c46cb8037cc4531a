// Package sqlite provides a SQLite-based implementation of driven.ReindexHistoryStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// The database is stored at <dataDir>/history.db. The CLI passes
// ~/.concierge/data unless CONCIERGE_HOME or --config-dir says otherwise.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
