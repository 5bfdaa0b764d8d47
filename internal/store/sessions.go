// ABOUTME: Accessors for the single sessions row
// ABOUTME: Reads and writes dc_id, api_id, auth_key and the other connection fields

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// sessionRow mirrors the sessions table; most columns are nullable
type sessionRow struct {
	DCID     int64         `db:"dc_id"`
	APIID    sql.NullInt64 `db:"api_id"`
	TestMode sql.NullBool  `db:"test_mode"`
	AuthKey  []byte        `db:"auth_key"`
	Date     int64         `db:"date"`
	UserID   sql.NullInt64 `db:"user_id"`
	IsBot    sql.NullBool  `db:"is_bot"`
}

func (r *sessionRow) toSessionInfo() *SessionInfo {
	return &SessionInfo{
		DCID:     int(r.DCID),
		APIID:    int32(r.APIID.Int64),
		TestMode: r.TestMode.Bool,
		AuthKey:  r.AuthKey,
		Date:     r.Date,
		UserID:   r.UserID.Int64,
		IsBot:    r.IsBot.Bool,
	}
}

// SessionInfo returns the session metadata row.
// Returns ErrNotFound if the row is missing.
func (s *SQLiteStore) SessionInfo(ctx context.Context) (*SessionInfo, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	var row sessionRow
	err := s.db.GetContext(ctx, &row, `
		SELECT dc_id, api_id, test_mode, auth_key, date, user_id, is_bot
		FROM sessions
		LIMIT 1
	`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classify("reading session", err)
	}
	return row.toSessionInfo(), nil
}

// SetDCID moves the session to another data center
func (s *SQLiteStore) SetDCID(ctx context.Context, dcID int) error {
	return s.setSessionField(ctx, "dc_id", dcID)
}

// SetAPIID stores the application identifier
func (s *SQLiteStore) SetAPIID(ctx context.Context, apiID int32) error {
	return s.setSessionField(ctx, "api_id", apiID)
}

// SetTestMode records whether the session targets test servers
func (s *SQLiteStore) SetTestMode(ctx context.Context, testMode bool) error {
	return s.setSessionField(ctx, "test_mode", testMode)
}

// SetAuthKey stores the authorization key; nil clears it
func (s *SQLiteStore) SetAuthKey(ctx context.Context, key []byte) error {
	return s.setSessionField(ctx, "auth_key", key)
}

// SetDate stores the server-reported date of the session
func (s *SQLiteStore) SetDate(ctx context.Context, date int64) error {
	return s.setSessionField(ctx, "date", date)
}

// SetUserID stores the logged-in account id
func (s *SQLiteStore) SetUserID(ctx context.Context, userID int64) error {
	return s.setSessionField(ctx, "user_id", userID)
}

// SetIsBot records whether the logged-in account is a bot
func (s *SQLiteStore) SetIsBot(ctx context.Context, isBot bool) error {
	return s.setSessionField(ctx, "is_bot", isBot)
}

// sessionColumns whitelists the columns setSessionField may touch
var sessionColumns = map[string]bool{
	"dc_id":     true,
	"api_id":    true,
	"test_mode": true,
	"auth_key":  true,
	"date":      true,
	"user_id":   true,
	"is_bot":    true,
}

func (s *SQLiteStore) setSessionField(ctx context.Context, column string, value any) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	if !sessionColumns[column] {
		return fmt.Errorf("unknown session column %q", column)
	}

	query := fmt.Sprintf(`UPDATE sessions SET %s = ?`, column)
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query, value)
		return err
	})
	if err != nil {
		return classify("updating session "+column, err)
	}

	s.logger.Debug("updated session field", "column", column)
	return nil
}
