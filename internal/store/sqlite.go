// ABOUTME: SQLite implementation of the Store interface using sqlx
// ABOUTME: Owns the connection handle, schema creation, migrations and VACUUM

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Driver names accepted in Options.Driver
const (
	DriverModernc = "sqlite"  // pure Go, default
	DriverCGO     = "sqlite3" // mattn/go-sqlite3, requires cgo
)

// DefaultBusyTimeout is how long a statement waits on a locked database
const DefaultBusyTimeout = time.Second

// MemoryPath opens a private in-memory database instead of a file
const MemoryPath = ":memory:"

// MigrationHook is called after every attempted migration step
type MigrationHook func(from, to int, name string, took time.Duration, err error)

// Options configures a SQLiteStore connection
type Options struct {
	Driver      string
	BusyTimeout time.Duration
	Logger      *slog.Logger
	OnMigration MigrationHook
}

// SQLiteStore implements the Store interface using SQLite.
// It holds a single pooled connection, so statements issued from several
// goroutines are serialized by database/sql.
type SQLiteStore struct {
	db         *sqlx.DB
	path       string
	logger     *slog.Logger
	migrations []migration
	onMigrate  MigrationHook
	ready      atomic.Bool
	now        func() time.Time
}

// NewSQLiteStore connects to the SQLite database at path.
// It does not touch the schema: call Create for a new file or Migrate for an
// existing one before using the data accessors.
func NewSQLiteStore(ctx context.Context, path string, opts Options) (*SQLiteStore, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store")

	driver := opts.Driver
	if driver == "" {
		driver = DriverModernc
	}
	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = DefaultBusyTimeout
	}

	dsn, err := buildDSN(driver, path, busy)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, classify("opening database", err)
	}
	db.SetMaxOpenConns(1)
	// an in-memory database lives only as long as its connection
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, classify("connecting to database", err)
	}

	return &SQLiteStore{
		db:         db,
		path:       path,
		logger:     logger,
		migrations: migrations,
		onMigrate:  opts.OnMigration,
		now:        time.Now,
	}, nil
}

// buildDSN appends the busy timeout in the form each driver understands
func buildDSN(driver, path string, busy time.Duration) (string, error) {
	ms := busy.Milliseconds()
	switch driver {
	case DriverModernc:
		return fmt.Sprintf("%s?_pragma=busy_timeout(%d)", path, ms), nil
	case DriverCGO:
		return fmt.Sprintf("%s?_busy_timeout=%d", path, ms), nil
	default:
		return "", fmt.Errorf("unknown sqlite driver %q", driver)
	}
}

// Path returns the database path the store was opened with
func (s *SQLiteStore) Path() string {
	return s.path
}

// Ready reports whether the schema is at LatestVersion and data access is allowed
func (s *SQLiteStore) Ready() bool {
	return s.ready.Load()
}

// Create initializes an empty database at LatestVersion in one transaction.
// No migration steps run.
func (s *SQLiteStore) Create(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, baseSchema); err != nil {
			return fmt.Errorf("creating base schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, usernamesSchema); err != nil {
			return fmt.Errorf("creating usernames schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO version (number) VALUES (?)`, LatestVersion); err != nil {
			return fmt.Errorf("inserting version: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (dc_id, api_id, test_mode, auth_key, date, user_id, is_bot)
			 VALUES (?, NULL, NULL, NULL, 0, NULL, NULL)`, defaultDCID); err != nil {
			return fmt.Errorf("inserting session row: %w", err)
		}
		return nil
	})
	if err != nil {
		return classify("creating schema", err)
	}

	s.ready.Store(true)
	s.logger.Info("created session schema", "path", s.path, "version", LatestVersion)
	return nil
}

// Version reads the persisted schema version.
// A database without a version row reports 0.
func (s *SQLiteStore) Version(ctx context.Context) (int, error) {
	var version int
	err := s.db.GetContext(ctx, &version, `SELECT number FROM version`)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, classify("reading version", err)
	}
	return version, nil
}

// SetVersion overwrites the persisted schema version.
// The version may only move forward and never past LatestVersion.
func (s *SQLiteStore) SetVersion(ctx context.Context, version int) error {
	current, err := s.Version(ctx)
	if err != nil {
		return err
	}
	if version < current {
		return fmt.Errorf("lowering version from %d to %d: %w", current, version, ErrUnsupportedSchema)
	}
	if version > LatestVersion {
		return fmt.Errorf("version %d is newer than %d: %w", version, LatestVersion, ErrUnsupportedSchema)
	}

	err = withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return setVersionTx(ctx, tx, version)
	})
	if err != nil {
		return classify("writing version", err)
	}
	return nil
}

func setVersionTx(ctx context.Context, tx *sqlx.Tx, version int) error {
	res, err := tx.ExecContext(ctx, `UPDATE version SET number = ?`, version)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, err = tx.ExecContext(ctx, `INSERT INTO version (number) VALUES (?)`, version)
	}
	return err
}

// Migrate applies pending steps until the schema reaches LatestVersion and
// returns how many ran. Each step and its version bump commit together, so a
// failure leaves the previous version in place and a later Migrate retries
// the same step. Cancellation is only observed between steps.
func (s *SQLiteStore) Migrate(ctx context.Context) (int, error) {
	version, err := s.Version(ctx)
	if err != nil {
		return 0, err
	}
	if version > LatestVersion {
		s.ready.Store(false)
		return 0, fmt.Errorf("stored version %d, latest known %d: %w", version, LatestVersion, ErrUnsupportedSchema)
	}
	if version < 1 {
		s.ready.Store(false)
		return 0, fmt.Errorf("stored version %d: %w", version, ErrUnsupportedSchema)
	}

	applied := 0
	for version < LatestVersion {
		if err := ctx.Err(); err != nil {
			s.ready.Store(false)
			return applied, fmt.Errorf("migration interrupted at version %d: %w", version, err)
		}

		step, ok := findMigration(s.migrations, version)
		if !ok {
			s.ready.Store(false)
			return applied, &MigrationError{From: version, To: version + 1, Name: "missing", Err: ErrUnsupportedSchema}
		}
		if err := s.applyMigration(ctx, step); err != nil {
			s.ready.Store(false)
			return applied, err
		}
		version = step.from + 1
		applied++
	}

	s.ready.Store(true)
	return applied, nil
}

// applyMigration runs one step and its version bump in a single transaction
func (s *SQLiteStore) applyMigration(ctx context.Context, m migration) error {
	to := m.from + 1
	start := time.Now()

	// never abandon a step halfway; cancellation is honoured by the caller between steps
	txCtx := context.WithoutCancel(ctx)
	err := withTx(txCtx, s.db, func(tx *sqlx.Tx) error {
		if err := m.apply(txCtx, tx); err != nil {
			return err
		}
		return setVersionTx(txCtx, tx, to)
	})

	took := time.Since(start)
	if s.onMigrate != nil {
		s.onMigrate(m.from, to, m.name, took, err)
	}
	if err != nil {
		s.logger.Error("migration failed", "from", m.from, "to", to, "name", m.name, "error", err)
		return &MigrationError{From: m.from, To: to, Name: m.name, Err: classify("applying step", err)}
	}

	s.logger.Info("applied migration", "from", m.from, "to", to, "name", m.name, "took", took)
	return nil
}

// Vacuum rebuilds the database file to reclaim free pages.
// SQLite refuses VACUUM inside a transaction, so it runs on its own.
func (s *SQLiteStore) Vacuum(ctx context.Context) error {
	start := time.Now()
	if _, err := s.db.ExecContext(context.WithoutCancel(ctx), `VACUUM`); err != nil {
		return classify("vacuuming database", err)
	}
	s.logger.Debug("vacuumed database", "path", s.path, "took", time.Since(start))
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.ready.Store(false)
	s.logger.Debug("closing SQLite store", "path", s.path)
	return s.db.Close()
}

// checkReady guards every data accessor
func (s *SQLiteStore) checkReady() error {
	if !s.ready.Load() {
		return ErrNotReady
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back if fn fails
func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
