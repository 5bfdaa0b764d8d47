// ABOUTME: Tests for peer and username persistence
// ABOUTME: Covers upsert, lookups, username TTL and the unenforced usernames foreign key

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdatePeers_AndGetByID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	err := s.UpdatePeers(ctx, []Peer{
		{ID: 100, AccessHash: -55, Type: PeerTypeUser, Username: "alice", PhoneNumber: "15550001"},
		{ID: -1001, AccessHash: 9, Type: PeerTypeChannel},
	})
	require.NoError(t, err)

	got, err := s.GetPeerByID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(-55), got.AccessHash)
	assert.Equal(t, PeerTypeUser, got.Type)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "15550001", got.PhoneNumber)
	assert.WithinDuration(t, time.Now(), got.LastUpdateOn, time.Minute)

	ch, err := s.GetPeerByID(ctx, -1001)
	require.NoError(t, err)
	assert.Empty(t, ch.Username)
	assert.Empty(t, ch.PhoneNumber)
}

func TestUpdatePeers_Replaces(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpdatePeers(ctx, []Peer{{ID: 1, AccessHash: 1, Type: PeerTypeUser, Username: "old"}}))
	require.NoError(t, s.UpdatePeers(ctx, []Peer{{ID: 1, AccessHash: 2, Type: PeerTypeBot, Username: "new"}}))

	n, err := s.CountPeers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.GetPeerByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.AccessHash)
	assert.Equal(t, PeerTypeBot, got.Type)
	assert.Equal(t, "new", got.Username)
}

func TestUpdatePeers_MissingTypeRollsBack(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	err := s.UpdatePeers(ctx, []Peer{
		{ID: 1, Type: PeerTypeUser},
		{ID: 2},
	})
	require.Error(t, err)

	n, err := s.CountPeers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "batch must be all-or-nothing")
}

func TestGetPeerByID_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetPeerByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPeerByPhoneNumber(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpdatePeers(ctx, []Peer{{ID: 7, Type: PeerTypeUser, PhoneNumber: "4912345"}}))

	got, err := s.GetPeerByPhoneNumber(ctx, "4912345")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)

	_, err = s.GetPeerByPhoneNumber(ctx, "000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPeerByUsername_PrimaryUsername(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpdatePeers(ctx, []Peer{{ID: 10, Type: PeerTypeUser, Username: "bob"}}))

	got, err := s.GetPeerByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.ID)
}

func TestGetPeerByUsername_SecondaryUsername(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpdatePeers(ctx, []Peer{{ID: 20, Type: PeerTypeChannel, Username: "main"}}))
	require.NoError(t, s.UpdateUsernames(ctx, []UsernameEntry{
		{PeerID: 20, Usernames: []string{"main", "alias_one", "alias_two"}},
	}))

	got, err := s.GetPeerByUsername(ctx, "alias_two")
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.ID)

	_, err = s.GetPeerByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPeerByUsername_Expired(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpdatePeers(ctx, []Peer{{ID: 30, Type: PeerTypeUser, Username: "stale"}}))

	s.now = func() time.Time { return time.Now().Add(UsernameTTL + time.Hour) }

	_, err := s.GetPeerByUsername(ctx, "stale")
	assert.ErrorIs(t, err, ErrNotFound)

	// lookups by id ignore the TTL
	_, err = s.GetPeerByID(ctx, 30)
	assert.NoError(t, err)
}

func TestGetPeerByUsername_StalePrimaryFallsThroughToFreshAlias(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO peers (id, type, username, last_update_on) VALUES (?, ?, ?, ?)`,
		1, PeerTypeUser, "x", time.Now().Add(-24*time.Hour).Unix())
	require.NoError(t, err)

	require.NoError(t, s.UpdatePeers(ctx, []Peer{{ID: 2, Type: PeerTypeChannel, Username: "other"}}))
	require.NoError(t, s.UpdateUsernames(ctx, []UsernameEntry{{PeerID: 2, Usernames: []string{"other", "x"}}}))

	got, err := s.GetPeerByUsername(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ID)
}

func TestUpdateUsernames_ReplacesPerPeer(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpdateUsernames(ctx, []UsernameEntry{
		{PeerID: 1, Usernames: []string{"b", "a"}},
		{PeerID: 2, Usernames: []string{"c"}},
	}))
	require.NoError(t, s.UpdateUsernames(ctx, []UsernameEntry{
		{PeerID: 1, Usernames: []string{"z"}},
	}))

	names, err := s.ListUsernames(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"z"}, names)

	names, err = s.ListUsernames(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, names)

	names, err = s.ListUsernames(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestUpdateUsernames_PeerNeedNotExist(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	err := s.UpdateUsernames(ctx, []UsernameEntry{{PeerID: 999, Usernames: []string{"orphan"}}})
	require.NoError(t, err)
	assert.Equal(t, 1, rowCount(t, s, "usernames"))

	// no owning peer yet, so resolution fails
	_, err = s.GetPeerByUsername(ctx, "orphan")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPeers(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpdatePeers(ctx, []Peer{
		{ID: 3, Type: PeerTypeUser},
		{ID: 1, Type: PeerTypeGroup},
		{ID: 2, Type: PeerTypeSupergroup},
	}))

	all, err := s.ListPeers(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1), all[0].ID)
	assert.Equal(t, int64(3), all[2].ID)

	limited, err := s.ListPeers(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
