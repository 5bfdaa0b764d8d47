// ABOUTME: Tests for MockStore
// ABOUTME: Keeps the in-memory store behaviour aligned with SQLiteStore

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStore_SessionFields(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	require.NoError(t, m.SetAPIID(ctx, 11))
	require.NoError(t, m.SetAuthKey(ctx, []byte{1, 2}))

	info, err := m.SessionInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, defaultDCID, info.DCID)
	assert.Equal(t, int32(11), info.APIID)
	assert.Equal(t, []byte{1, 2}, info.AuthKey)

	v, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, LatestVersion, v)
}

func TestMockStore_Peers(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	require.NoError(t, m.UpdatePeers(ctx, []Peer{
		{ID: 2, Type: PeerTypeUser, Username: "two", PhoneNumber: "222"},
		{ID: 1, Type: PeerTypeBot},
	}))
	require.NoError(t, m.UpdateUsernames(ctx, []UsernameEntry{{PeerID: 1, Usernames: []string{"b", "a"}}}))

	p, err := m.GetPeerByUsername(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)

	p, err = m.GetPeerByPhoneNumber(ctx, "222")
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.ID)

	_, err = m.GetPeerByID(ctx, 3)
	assert.ErrorIs(t, err, ErrNotFound)

	peers, err := m.ListPeers(ctx, 1)
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.Equal(t, int64(1), peers[0].ID)

	names, err := m.ListUsernames(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	n, err := m.CountPeers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMockStore_UsernameTTL(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	require.NoError(t, m.UpdatePeers(ctx, []Peer{{ID: 5, Type: PeerTypeUser, Username: "old"}}))
	m.now = func() time.Time { return time.Now().Add(2 * UsernameTTL) }

	_, err := m.GetPeerByUsername(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
}
