package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestSession(connID, userID string) *Session {
	s := NewSession(connID, nil, 16)
	s.UserID = userID
	return s
}

func TestRegistryAddRemove(t *testing.T) {
	r := NewRegistry()

	a1 := newTestSession("c1", "alice")
	a2 := newTestSession("c2", "alice")
	b1 := newTestSession("c3", "bob")

	r.Add(a1)
	r.Add(a2)
	r.Add(b1)

	require.Equal(t, 2, r.CountUser("alice"))
	require.Equal(t, 1, r.CountUser("bob"))
	require.Len(t, r.ListAll(), 3)

	user, empty := r.Remove("c1")
	require.Equal(t, "alice", user)
	require.False(t, empty, "alice still has another handle")

	user, empty = r.Remove("c2")
	require.Equal(t, "alice", user)
	require.True(t, empty, "last handle removed")
	require.Equal(t, 0, r.CountUser("alice"))

	// both indexes agree after the removals
	require.Nil(t, r.AnyHandle("alice"))
	require.Len(t, r.ListAll(), 1)
}

func TestRegistryRemoveUnknownIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Add(newTestSession("c1", "alice"))

	user, empty := r.Remove("nope")
	require.Equal(t, "", user)
	require.False(t, empty)
	require.Equal(t, 1, r.CountUser("alice"))
}

func TestRegistryAnyHandleNewest(t *testing.T) {
	r := NewRegistry()
	old := newTestSession("c1", "alice")
	r.Add(old)
	newer := newTestSession("c2", "alice")
	r.Add(newer)

	require.Equal(t, "c2", r.AnyHandle("alice").ConnID)

	r.Remove("c2")
	require.Equal(t, "c1", r.AnyHandle("alice").ConnID)
}

func TestRegistryListUser(t *testing.T) {
	r := NewRegistry()
	require.Nil(t, r.ListUser("ghost"))

	r.Add(newTestSession("c1", "alice"))
	r.Add(newTestSession("c2", "alice"))
	require.Len(t, r.ListUser("alice"), 2)
}
