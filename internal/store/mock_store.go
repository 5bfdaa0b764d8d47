// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu        sync.RWMutex
	session   SessionInfo
	peers     map[int64]*Peer
	usernames map[int64][]string
	now       func() time.Time
	closed    bool
}

// NewMockStore creates a MockStore with a fresh session row
func NewMockStore() *MockStore {
	return &MockStore{
		session:   SessionInfo{DCID: defaultDCID},
		peers:     make(map[int64]*Peer),
		usernames: make(map[int64][]string),
		now:       time.Now,
	}
}

// Version always reports LatestVersion
func (m *MockStore) Version(_ context.Context) (int, error) {
	return LatestVersion, nil
}

// SessionInfo returns a copy of the session row
func (m *MockStore) SessionInfo(_ context.Context) (*SessionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info := m.session
	info.AuthKey = append([]byte(nil), m.session.AuthKey...)
	return &info, nil
}

func (m *MockStore) update(fn func(*SessionInfo)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.session)
	return nil
}

func (m *MockStore) SetDCID(_ context.Context, dcID int) error {
	return m.update(func(s *SessionInfo) { s.DCID = dcID })
}

func (m *MockStore) SetAPIID(_ context.Context, apiID int32) error {
	return m.update(func(s *SessionInfo) { s.APIID = apiID })
}

func (m *MockStore) SetTestMode(_ context.Context, testMode bool) error {
	return m.update(func(s *SessionInfo) { s.TestMode = testMode })
}

func (m *MockStore) SetAuthKey(_ context.Context, key []byte) error {
	return m.update(func(s *SessionInfo) { s.AuthKey = append([]byte(nil), key...) })
}

func (m *MockStore) SetDate(_ context.Context, date int64) error {
	return m.update(func(s *SessionInfo) { s.Date = date })
}

func (m *MockStore) SetUserID(_ context.Context, userID int64) error {
	return m.update(func(s *SessionInfo) { s.UserID = userID })
}

func (m *MockStore) SetIsBot(_ context.Context, isBot bool) error {
	return m.update(func(s *SessionInfo) { s.IsBot = isBot })
}

// UpdatePeers replaces peers by id and stamps LastUpdateOn
func (m *MockStore) UpdatePeers(_ context.Context, peers []Peer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC().Truncate(time.Second)
	for _, p := range peers {
		cp := p
		cp.LastUpdateOn = now
		m.peers[p.ID] = &cp
	}
	return nil
}

// UpdateUsernames replaces the usernames of each peer
func (m *MockStore) UpdateUsernames(_ context.Context, entries []UsernameEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range entries {
		m.usernames[e.PeerID] = append([]string(nil), e.Usernames...)
	}
	return nil
}

func (m *MockStore) GetPeerByID(_ context.Context, id int64) (*Peer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.peers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// GetPeerByUsername applies the same UsernameTTL rule as SQLiteStore
func (m *MockStore) GetPeerByUsername(_ context.Context, username string) (*Peer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *Peer
	for _, p := range m.peers {
		if p.Username == username && (found == nil || p.LastUpdateOn.After(found.LastUpdateOn)) {
			found = p
		}
	}
	for id, names := range m.usernames {
		for _, n := range names {
			if n != username {
				continue
			}
			if p, ok := m.peers[id]; ok && (found == nil || p.LastUpdateOn.After(found.LastUpdateOn)) {
				found = p
			}
		}
	}
	if found == nil || m.now().Sub(found.LastUpdateOn) > UsernameTTL {
		return nil, ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (m *MockStore) GetPeerByPhoneNumber(_ context.Context, phone string) (*Peer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *Peer
	for _, p := range m.peers {
		if p.PhoneNumber == phone && (found == nil || p.LastUpdateOn.After(found.LastUpdateOn)) {
			found = p
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (m *MockStore) ListPeers(_ context.Context, limit int) ([]*Peer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	peers := make([]*Peer, 0, len(m.peers))
	for _, p := range m.peers {
		cp := *p
		peers = append(peers, &cp)
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i].ID < peers[j].ID })
	if limit > 0 && len(peers) > limit {
		peers = peers[:limit]
	}
	return peers, nil
}

func (m *MockStore) ListUsernames(_ context.Context, peerID int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := append([]string{}, m.usernames[peerID]...)
	sort.Strings(names)
	return names, nil
}

func (m *MockStore) CountPeers(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.peers), nil
}

// Close marks the store closed
func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Ensure both implementations satisfy Store
var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MockStore)(nil)
)
