// ABOUTME: An open session: the store handle bound to its named file
// ABOUTME: Close releases the handle; Delete also removes the file

package session

import (
	"context"
	"errors"
	"sync"

	"github.com/2389/coven-session/internal/store"
)

// ErrClosed is returned when using a session after Close or Delete
var ErrClosed = errors.New("session closed")

// Session is one opened session file
type Session struct {
	mu      sync.Mutex
	name    string
	path    string
	store   *store.SQLiteStore
	outcome Outcome
	applied int
	manager *Manager
	closed  bool
}

// Name returns the session name; empty for memory sessions
func (s *Session) Name() string { return s.name }

// Path returns the backing file, or store.MemoryPath
func (s *Session) Path() string { return s.path }

// Outcome reports whether Open created, migrated or simply reopened the file
func (s *Session) Outcome() Outcome { return s.outcome }

// StepsApplied is the number of migration steps Open ran
func (s *Session) StepsApplied() int { return s.applied }

// Store returns the schema store for reading and writing session data
func (s *Session) Store() *store.SQLiteStore { return s.store }

// Close releases the database handle. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.store.Close()
}

// Delete closes the session and removes its file.
// If the file has already disappeared it returns ErrNotFound and the session
// stays open.
func (s *Session) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.path == store.MemoryPath {
		return errors.New("memory sessions have no file to delete")
	}

	exists, err := fileExists(s.path)
	if err != nil {
		return err
	}
	if !exists {
		return s.manager.deleteFile(s.name, s.path)
	}

	s.closed = true
	if err := s.store.Close(); err != nil {
		s.manager.logger.Warn("closing session before delete", "name", s.name, "error", err)
	}
	return s.manager.deleteFile(s.name, s.path)
}
