// ABOUTME: SQL schema for session files at the latest version
// ABOUTME: Base tables plus the usernames table introduced in version 4

package store

// LatestVersion is the schema version written by Create and reached by Migrate
const LatestVersion = 4

// baseSchema holds the tables every version has, with sessions.api_id included
const baseSchema = `
	CREATE TABLE sessions (
		dc_id     INTEGER PRIMARY KEY,
		api_id    INTEGER,
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

	CREATE INDEX idx_peers_id ON peers (id);
	CREATE INDEX idx_peers_username ON peers (username);
	CREATE INDEX idx_peers_phone_number ON peers (phone_number);

	CREATE TRIGGER trg_peers_last_update_on
		AFTER UPDATE
		ON peers
	BEGIN
		UPDATE peers
		SET last_update_on = CAST(STRFTIME('%s', 'now') AS INTEGER)
		WHERE id = NEW.id;
	END;
`

// usernamesSchema is shared by Create and the 3->4 migration step
const usernamesSchema = `
	CREATE TABLE usernames (
		id       INTEGER,
		username TEXT,
		FOREIGN KEY (id) REFERENCES peers (id)
	);

	CREATE INDEX idx_usernames_username ON usernames (username);
`

// defaultDCID is the data center a new session starts on
const defaultDCID = 2
