package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// legacyV1Schema is the layout of a version 1 session file: no api_id, no usernames
const legacyV1Schema = `
	CREATE TABLE sessions (
		dc_id     INTEGER PRIMARY KEY,
		test_mode INTEGER,
		auth_key  BLOB,
		date      INTEGER NOT NULL,
		user_id   INTEGER,
		is_bot    INTEGER
	);

	CREATE TABLE peers (
		id             INTEGER PRIMARY KEY,
		access_hash    INTEGER,
		type           TEXT NOT NULL,
		username       TEXT,
		phone_number   TEXT,
		last_update_on INTEGER NOT NULL DEFAULT (CAST(STRFTIME('%s', 'now') AS INTEGER))
	);

	CREATE TABLE version (
		number INTEGER PRIMARY KEY
	);

	INSERT INTO sessions (dc_id, test_mode, auth_key, date, user_id, is_bot)
	VALUES (2, 0, NULL, 0, NULL, NULL);

	INSERT INTO version (number) VALUES (1);

	INSERT INTO peers (id, access_hash, type, username, phone_number)
	VALUES (777000, 123, 'user', 'service', '42777');
`

// openTestDB connects to a fresh file without touching the schema.
func openTestDB(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.session")

	s, err := NewSQLiteStore(context.Background(), dbPath, Options{})
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

// setupTestStore creates a store at the latest schema version.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := openTestDB(t)
	require.NoError(t, s.Create(context.Background()))
	return s
}

// setupLegacyStore creates a version 1 store holding one peer.
func setupLegacyStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := openTestDB(t)
	_, err := s.db.Exec(legacyV1Schema)
	require.NoError(t, err)
	return s
}

func tableExists(t *testing.T, s *SQLiteStore, kind, name string) bool {
	t.Helper()
	var n int
	err := s.db.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?`, kind, name)
	require.NoError(t, err)
	return n == 1
}

func columnExists(t *testing.T, s *SQLiteStore, table, column string) bool {
	t.Helper()
	var n int
	err := s.db.Get(&n, `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column)
	require.NoError(t, err)
	return n == 1
}

func rowCount(t *testing.T, s *SQLiteStore, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}
