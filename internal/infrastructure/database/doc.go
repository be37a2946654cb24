// Package database manages the SQLite connection lifecycle for netregistry.
//
// It opens the database with WAL mode and a busy timeout, restricts the
// pool to SQLite's single-writer model, and applies embedded SQL
// migrations at startup. The migrations package registers its embedded
// files via MigrationsFS; each migration runs in its own transaction.
//
// Opening the store can fail (missing directory permissions, corrupt
// file). Callers treat that as a signal to fall back to the in-memory
// repository rather than a fatal error.
package database
