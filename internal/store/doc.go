// Package store provides persistent storage for client sessions using SQLite.
//
// # Architecture
//
// A session file holds four tables:
//
//   - sessions: the single row of connection metadata (dc_id, api_id, auth_key, ...)
//   - peers: users, bots, groups and channels resolved by the client
//   - usernames: every username a peer owns, indexed by username
//   - version: the schema version marker
//
// SQLiteStore implements Store over an explicit *sqlx.DB handle limited to one
// connection. MockStore implements Store in memory for callers' unit tests.
//
// # Lifecycle
//
// NewSQLiteStore only connects. The caller then either calls Create on a new
// database, which writes the latest schema directly, or Migrate on an existing
// one. Until one of them succeeds every data accessor returns ErrNotReady.
//
// # Migrations
//
// Migrations are an ordered table of steps keyed by source version:
//
//	1 -> 2  reset_peers          DELETE FROM peers
//	2 -> 3  sessions_add_api_id  ALTER TABLE sessions ADD api_id INTEGER
//	3 -> 4  create_usernames     usernames table + idx_usernames_username
//
// Each step commits together with its version bump. A failed step leaves the
// previous version in place and is retried by the next Migrate call. A version
// newer than LatestVersion is refused with ErrUnsupportedSchema.
//
// # Error Handling
//
//   - ErrNotFound: requested entity does not exist
//   - ErrUnsupportedSchema: version marker unknown to this build
//   - ErrMigration: a step failed; see *MigrationError
//   - ErrStorageIO: generic SQLite failure
//   - ErrTimeout: busy_timeout elapsed waiting for a lock
//   - ErrNotReady: schema not at LatestVersion
//
// # Drivers
//
// DriverModernc (modernc.org/sqlite, pure Go) is the default. DriverCGO selects
// github.com/mattn/go-sqlite3 for builds with cgo.
package store
