// ABOUTME: Session file manager: open/create/migrate/compact/delete per named identity
// ABOUTME: Owns the path convention and the store handle lifecycle

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/2389/coven-session/internal/metrics"
	"github.com/2389/coven-session/internal/store"
)

// FileExtension is appended to a session name to form its file name
const FileExtension = ".session"

// Error kinds, shared with the store package so callers need only one import
var (
	ErrNotFound          = store.ErrNotFound
	ErrUnsupportedSchema = store.ErrUnsupportedSchema
	ErrMigration         = store.ErrMigration
	ErrStorageIO         = store.ErrStorageIO
	ErrTimeout           = store.ErrTimeout
	ErrNotReady          = store.ErrNotReady
)

// ErrInvalidName is returned for names that cannot map to a single file
var ErrInvalidName = errors.New("invalid session name")

// Outcome describes what Open had to do
type Outcome string

const (
	OutcomeCreated  Outcome = "created"  // file was absent and initialized
	OutcomeMigrated Outcome = "migrated" // file existed and one or more steps ran
	OutcomeCurrent  Outcome = "current"  // file existed at the latest version
)

// Config holds the manager settings
type Config struct {
	Workdir     string
	Driver      string
	BusyTimeout time.Duration
}

// Manager opens and deletes session files under one working directory
type Manager struct {
	workdir     string
	driver      string
	busyTimeout time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// NewManager creates a manager, creating the working directory if needed.
// m may be nil to disable metrics.
func NewManager(cfg Config, logger *slog.Logger, m *metrics.Metrics) (*Manager, error) {
	if cfg.Workdir == "" {
		return nil, fmt.Errorf("workdir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(cfg.Workdir, 0700); err != nil {
		return nil, fmt.Errorf("creating workdir: %w: %w", ErrStorageIO, err)
	}

	return &Manager{
		workdir:     cfg.Workdir,
		driver:      cfg.Driver,
		busyTimeout: cfg.BusyTimeout,
		logger:      logger.With("component", "session"),
		metrics:     m,
	}, nil
}

// Workdir returns the directory holding session files
func (m *Manager) Workdir() string {
	return m.workdir
}

// Path returns the file backing the named session
func (m *Manager) Path(name string) string {
	return filepath.Join(m.workdir, name+FileExtension)
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Exists reports whether the named session file is present
func (m *Manager) Exists(name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}
	return fileExists(m.Path(name))
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s: %w: %w", path, ErrStorageIO, err)
	}
	if !info.Mode().IsRegular() {
		return false, fmt.Errorf("checking %s: %w: not a regular file", path, ErrStorageIO)
	}
	return true, nil
}

// isRegularFile reports whether path is a regular file, without following symlinks
func isRegularFile(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode().IsRegular()
}

// List returns the names of all session files in the working directory, sorted
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.workdir)
	if err != nil {
		return nil, fmt.Errorf("reading workdir: %w: %w", ErrStorageIO, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), FileExtension) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), FileExtension))
	}
	sort.Strings(names)
	return names, nil
}

func (m *Manager) storeOptions() store.Options {
	return store.Options{
		Driver:      m.driver,
		BusyTimeout: m.busyTimeout,
		Logger:      m.logger,
		OnMigration: m.metrics.MigrationStep,
	}
}

// Open brings the named session to the latest schema and returns it.
// A missing file is created at the latest version; an existing one is
// migrated. Either way the file is then vacuumed. On any error the handle is
// closed and a newly created file is removed again.
func (m *Manager) Open(ctx context.Context, name string) (*Session, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := m.Path(name)
	exists, err := fileExists(path)
	if err != nil {
		m.metrics.SessionOpenFailed()
		return nil, err
	}

	sess, err := m.open(ctx, name, path, exists)
	if err != nil {
		m.metrics.SessionOpenFailed()
		if !exists && isRegularFile(path) {
			removeFiles(path, path+"-journal", path+"-wal", path+"-shm")
		}
		return nil, fmt.Errorf("opening session %q: %w", name, err)
	}
	return sess, nil
}

// OpenMemory returns a session held in memory only; it is always created fresh
// and cannot be deleted.
func (m *Manager) OpenMemory(ctx context.Context) (*Session, error) {
	sess, err := m.open(ctx, "", store.MemoryPath, false)
	if err != nil {
		m.metrics.SessionOpenFailed()
		return nil, fmt.Errorf("opening memory session: %w", err)
	}
	return sess, nil
}

func (m *Manager) open(ctx context.Context, name, path string, exists bool) (*Session, error) {
	st, err := store.NewSQLiteStore(ctx, path, m.storeOptions())
	if err != nil {
		return nil, err
	}

	sess := &Session{
		name:    name,
		path:    path,
		store:   st,
		manager: m,
	}

	if !exists {
		if err := st.Create(ctx); err != nil {
			st.Close()
			return nil, err
		}
		sess.outcome = OutcomeCreated
	} else {
		applied, err := st.Migrate(ctx)
		if err != nil {
			st.Close()
			return nil, err
		}
		sess.applied = applied
		sess.outcome = OutcomeCurrent
		if applied > 0 {
			sess.outcome = OutcomeMigrated
		}
	}

	start := time.Now()
	if err := st.Vacuum(ctx); err != nil {
		st.Close()
		return nil, err
	}
	m.metrics.Vacuumed(time.Since(start))
	m.metrics.SessionOpened(string(sess.outcome))

	m.logger.Info("session opened",
		"name", name,
		"path", path,
		"outcome", sess.outcome,
		"steps", sess.applied)
	return sess, nil
}

// Delete removes the file of a session that is not currently open.
// Returns ErrNotFound if there is no such file.
func (m *Manager) Delete(_ context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	return m.deleteFile(name, m.Path(name))
}

func (m *Manager) deleteFile(name, path string) error {
	exists, err := fileExists(path)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("deleting session %q: %w", name, ErrNotFound)
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("deleting session %q: %w", name, ErrNotFound)
		}
		return fmt.Errorf("deleting session %q: %w: %w", name, ErrStorageIO, err)
	}
	removeFiles(path + "-wal")
	removeFiles(path + "-shm")
	removeFiles(path + "-journal")

	m.metrics.SessionDeleted()
	m.logger.Info("session deleted", "name", name, "path", path)
	return nil
}

// removeFiles deletes leftovers, ignoring files that are already gone
func removeFiles(paths ...string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Default().Warn("removing session file", "path", p, "error", err)
		}
	}
}
