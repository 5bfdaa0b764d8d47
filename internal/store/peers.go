// ABOUTME: Peer and username persistence for the SQLite store
// ABOUTME: Upserts resolved peers and looks them up by id, username or phone number

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// peerRow mirrors the peers table with NULLs folded to zero values
type peerRow struct {
	ID           int64  `db:"id"`
	AccessHash   int64  `db:"access_hash"`
	Type         string `db:"type"`
	Username     string `db:"username"`
	PhoneNumber  string `db:"phone_number"`
	LastUpdateOn int64  `db:"last_update_on"`
}

func (r *peerRow) toPeer() *Peer {
	return &Peer{
		ID:           r.ID,
		AccessHash:   r.AccessHash,
		Type:         r.Type,
		Username:     r.Username,
		PhoneNumber:  r.PhoneNumber,
		LastUpdateOn: time.Unix(r.LastUpdateOn, 0).UTC(),
	}
}

const peerColumns = `
	p.id AS id,
	COALESCE(p.access_hash, 0) AS access_hash,
	p.type AS type,
	COALESCE(p.username, '') AS username,
	COALESCE(p.phone_number, '') AS phone_number,
	p.last_update_on AS last_update_on
`

// UpdatePeers inserts or replaces peers in one transaction.
// Replacing a row refreshes its last_update_on.
func (s *SQLiteStore) UpdatePeers(ctx context.Context, peers []Peer) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	if len(peers) == 0 {
		return nil
	}

	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, `
			REPLACE INTO peers (id, access_hash, type, username, phone_number)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, p := range peers {
			if p.Type == "" {
				return fmt.Errorf("peer %d has no type", p.ID)
			}
			if _, err := stmt.ExecContext(ctx, p.ID, p.AccessHash, p.Type,
				nullIfEmpty(p.Username), nullIfEmpty(p.PhoneNumber)); err != nil {
				return fmt.Errorf("replacing peer %d: %w", p.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return classify("updating peers", err)
	}

	s.logger.Debug("updated peers", "count", len(peers))
	return nil
}

// UpdateUsernames replaces the username rows of each listed peer
func (s *SQLiteStore) UpdateUsernames(ctx context.Context, entries []UsernameEntry) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		for _, e := range entries {
			if _, err := tx.ExecContext(ctx, `DELETE FROM usernames WHERE id = ?`, e.PeerID); err != nil {
				return fmt.Errorf("clearing usernames of %d: %w", e.PeerID, err)
			}
			for _, name := range e.Usernames {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO usernames (id, username) VALUES (?, ?)`, e.PeerID, name); err != nil {
					return fmt.Errorf("inserting username %q: %w", name, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return classify("updating usernames", err)
	}
	return nil
}

// GetPeerByID retrieves a peer by its numeric id.
// Returns ErrNotFound if the peer is unknown.
func (s *SQLiteStore) GetPeerByID(ctx context.Context, id int64) (*Peer, error) {
	return s.getPeer(ctx, "id", `SELECT `+peerColumns+` FROM peers p WHERE p.id = ?`, id)
}

// GetPeerByPhoneNumber retrieves the most recently updated peer with the phone number.
// Returns ErrNotFound if none matches.
func (s *SQLiteStore) GetPeerByPhoneNumber(ctx context.Context, phone string) (*Peer, error) {
	return s.getPeer(ctx, "phone number", `
		SELECT `+peerColumns+` FROM peers p
		WHERE p.phone_number = ?
		ORDER BY p.last_update_on DESC
		LIMIT 1
	`, phone)
}

// GetPeerByUsername resolves a username through both the primary username
// column and the usernames table, preferring the most recently updated peer.
// A mapping last refreshed more than UsernameTTL ago is treated as unknown and
// returns ErrNotFound.
func (s *SQLiteStore) GetPeerByUsername(ctx context.Context, username string) (*Peer, error) {
	peer, err := s.getPeer(ctx, "username", `
		SELECT `+peerColumns+` FROM peers p
		LEFT JOIN usernames u ON u.id = p.id AND u.username = ?1
		WHERE p.username = ?1 OR u.username IS NOT NULL
		ORDER BY p.last_update_on DESC
		LIMIT 1
	`, username)
	if err != nil {
		return nil, err
	}

	if age := s.now().Sub(peer.LastUpdateOn); age > UsernameTTL || age < -UsernameTTL {
		s.logger.Debug("username mapping expired", "username", username, "age", age)
		return nil, ErrNotFound
	}
	return peer, nil
}

func (s *SQLiteStore) getPeer(ctx context.Context, by, query string, arg any) (*Peer, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	var row peerRow
	err := s.db.GetContext(ctx, &row, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classify("getting peer by "+by, err)
	}
	return row.toPeer(), nil
}

// ListPeers returns peers ordered by id. A limit of zero or less means no limit.
func (s *SQLiteStore) ListPeers(ctx context.Context, limit int) ([]*Peer, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	var rows []peerRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT `+peerColumns+` FROM peers p ORDER BY p.id LIMIT ?`, limit); err != nil {
		return nil, classify("listing peers", err)
	}

	peers := make([]*Peer, 0, len(rows))
	for i := range rows {
		peers = append(peers, rows[i].toPeer())
	}
	return peers, nil
}

// ListUsernames returns the usernames recorded for a peer, sorted
func (s *SQLiteStore) ListUsernames(ctx context.Context, peerID int64) ([]string, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	names := []string{}
	if err := s.db.SelectContext(ctx, &names,
		`SELECT username FROM usernames WHERE id = ? ORDER BY username`, peerID); err != nil {
		return nil, classify("listing usernames", err)
	}
	return names, nil
}

// CountPeers returns the number of cached peers
func (s *SQLiteStore) CountPeers(ctx context.Context) (int, error) {
	if err := s.checkReady(); err != nil {
		return 0, err
	}

	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM peers`); err != nil {
		return 0, classify("counting peers", err)
	}
	return n, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
