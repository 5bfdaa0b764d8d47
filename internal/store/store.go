// ABOUTME: Store interface and record types for session persistence
// ABOUTME: Defines Peer, UsernameEntry, SessionInfo and the Store contract

package store

import (
	"context"
	"time"
)

// UsernameTTL bounds how long a username-to-peer mapping is trusted
const UsernameTTL = 8 * time.Hour

// PeerType constants for the peers.type column
const (
	PeerTypeUser       = "user"
	PeerTypeBot        = "bot"
	PeerTypeGroup      = "group"
	PeerTypeChannel    = "channel"
	PeerTypeSupergroup = "supergroup"
)

// Peer is a remote user, bot, group or channel known to the client
type Peer struct {
	ID           int64
	AccessHash   int64
	Type         string
	Username     string // primary username, empty if none
	PhoneNumber  string
	LastUpdateOn time.Time // set by the store
}

// UsernameEntry lists every username currently owned by a peer
type UsernameEntry struct {
	PeerID    int64
	Usernames []string
}

// SessionInfo is the single row of connection-level metadata
type SessionInfo struct {
	DCID     int
	APIID    int32
	TestMode bool
	AuthKey  []byte
	Date     int64
	UserID   int64
	IsBot    bool
}

// Store defines the interface for session data persistence
type Store interface {
	// Schema
	Version(ctx context.Context) (int, error)

	// Session metadata
	SessionInfo(ctx context.Context) (*SessionInfo, error)
	SetDCID(ctx context.Context, dcID int) error
	SetAPIID(ctx context.Context, apiID int32) error
	SetTestMode(ctx context.Context, testMode bool) error
	SetAuthKey(ctx context.Context, key []byte) error
	SetDate(ctx context.Context, date int64) error
	SetUserID(ctx context.Context, userID int64) error
	SetIsBot(ctx context.Context, isBot bool) error

	// Peers
	UpdatePeers(ctx context.Context, peers []Peer) error
	UpdateUsernames(ctx context.Context, entries []UsernameEntry) error
	GetPeerByID(ctx context.Context, id int64) (*Peer, error)
	GetPeerByUsername(ctx context.Context, username string) (*Peer, error)
	GetPeerByPhoneNumber(ctx context.Context, phone string) (*Peer, error)
	ListPeers(ctx context.Context, limit int) ([]*Peer, error)
	ListUsernames(ctx context.Context, peerID int64) ([]string, error)
	CountPeers(ctx context.Context) (int, error)

	// Close releases any resources held by the store
	Close() error
}
