package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Laisky/laisky-collab/internal/web/session/model"
)

func TestPresenceJoinSnapshotExcludesJoiner(t *testing.T) {
	p := NewPresence()

	others, err := p.Join("s1", "conn-a", "alice")
	require.NoError(t, err)
	require.Empty(t, others)

	others, err = p.Join("s1", "conn-b", "bob")
	require.NoError(t, err)
	require.Len(t, others, 1)
	require.Equal(t, "conn-a", others[0].ConnID)
	require.Equal(t, "alice", others[0].UserName)

	require.Len(t, p.MembersOf("s1"), 2)
}

func TestPresenceRejoinSameSessionIdempotent(t *testing.T) {
	p := NewPresence()

	_, err := p.Join("s1", "conn-a", "alice")
	require.NoError(t, err)
	_, err = p.Join("s1", "conn-a", "alice2")
	require.NoError(t, err)

	members := p.MembersOf("s1")
	require.Len(t, members, 1)
	require.Equal(t, "alice2", members[0].UserName)
}

func TestPresenceSecondSessionRejected(t *testing.T) {
	p := NewPresence()

	_, err := p.Join("s1", "conn-a", "alice")
	require.NoError(t, err)

	_, err = p.Join("s2", "conn-a", "alice")
	require.ErrorIs(t, err, model.ErrAlreadyJoined)

	require.Len(t, p.MembersOf("s1"), 1, "original membership must survive")
	require.Empty(t, p.MembersOf("s2"))
}

func TestPresenceLeave(t *testing.T) {
	p := NewPresence()

	_, err := p.Join("s1", "conn-a", "alice")
	require.NoError(t, err)

	member, sessionID, ok := p.Leave("conn-a")
	require.True(t, ok)
	require.Equal(t, "s1", sessionID)
	require.Equal(t, "alice", member.UserName)
	require.Empty(t, p.MembersOf("s1"))

	_, _, ok = p.Leave("conn-a")
	require.False(t, ok, "second leave must be a no-op")

	_, _, ok = p.Leave("never-joined")
	require.False(t, ok)
}

func TestPresenceDropSessionTombstones(t *testing.T) {
	p := NewPresence()

	_, err := p.Join("s1", "conn-a", "alice")
	require.NoError(t, err)
	_, err = p.Join("s1", "conn-b", "bob")
	require.NoError(t, err)

	dropped := p.DropSession("s1")
	require.Len(t, dropped, 2)
	require.Empty(t, p.MembersOf("s1"))

	_, _, ok := p.Leave("conn-a")
	require.False(t, ok, "dropped members must be fully forgotten")

	_, err = p.Join("s1", "conn-c", "carol")
	require.ErrorIs(t, err, model.ErrSessionNotFound,
		"a join racing the delete must not re-populate the room")
}

func TestPresenceConcurrentJoinLeave(t *testing.T) {
	p := NewPresence()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			connID := fmt.Sprintf("conn-%d", i)
			_, err := p.Join("s1", connID, fmt.Sprintf("user-%d", i))
			require.NoError(t, err)
			p.MembersOf("s1")
			_, _, ok := p.Leave(connID)
			require.True(t, ok)
		}(i)
	}
	wg.Wait()

	require.Empty(t, p.MembersOf("s1"))
}
