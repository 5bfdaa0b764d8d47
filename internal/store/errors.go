// ABOUTME: Error kinds surfaced by the session store
// ABOUTME: Sentinels plus MigrationError and SQLite error classification

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a requested record or session file does not exist
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedSchema is returned when the stored version is unknown to this build
	ErrUnsupportedSchema = errors.New("unsupported schema version")

	// ErrMigration is matched by every *MigrationError
	ErrMigration = errors.New("migration failed")

	// ErrStorageIO wraps read/write/connect failures against the backing file
	ErrStorageIO = errors.New("storage i/o error")

	// ErrTimeout is returned when SQLite gave up waiting for a lock
	ErrTimeout = errors.New("storage timeout")

	// ErrNotReady is returned by data accessors until the store is at LatestVersion
	ErrNotReady = errors.New("store not migrated to latest version")
)

// MigrationError reports a migration step that could not be committed.
// The stored version is still From.
type MigrationError struct {
	From int
	To   int
	Name string
	Err  error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %d->%d (%s): %v", e.From, e.To, e.Name, e.Err)
}

// Unwrap exposes both ErrMigration and the underlying cause to errors.Is/As.
func (e *MigrationError) Unwrap() []error {
	return []error{ErrMigration, e.Err}
}

// classify wraps a driver error with ErrTimeout or ErrStorageIO.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStorageIO) || errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if isBusy(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageIO, err)
}

// isBusy checks if the error is SQLITE_BUSY or SQLITE_LOCKED from either driver
func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLITE_LOCKED")
}
