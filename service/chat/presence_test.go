package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type announceRec struct {
	userID string
	online bool
}

type announceLog struct {
	mu   sync.Mutex
	recs []announceRec
}

func (a *announceLog) record(userID, _ string, online bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recs = append(a.recs, announceRec{userID: userID, online: online})
}

func (a *announceLog) all() []announceRec {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]announceRec, len(a.recs))
	copy(out, a.recs)
	return out
}

func TestPresenceOnlineAnnouncedOnce(t *testing.T) {
	log := &announceLog{}
	p := NewPresence(100*time.Millisecond, log.record, nil)
	defer p.Close()

	p.Connect("alice", "Alice")
	p.Connect("alice", "Alice") // second device
	p.Connect("alice", "Alice") // third device

	recs := log.all()
	require.Len(t, recs, 1, "online broadcasts exactly once, on the 0->1 transition")
	require.Equal(t, announceRec{userID: "alice", online: true}, recs[0])
}

func TestPresenceReconnectWithinGraceNoOffline(t *testing.T) {
	log := &announceLog{}
	p := NewPresence(150*time.Millisecond, log.record, nil)
	defer p.Close()

	p.Connect("alice", "Alice")
	p.Disconnect("alice")
	time.Sleep(50 * time.Millisecond)
	p.Connect("alice", "Alice") // back before the timer fires

	time.Sleep(300 * time.Millisecond)
	for _, r := range log.all() {
		require.True(t, r.online, "no offline broadcast for a reconnect inside the grace period")
	}
	// and the reconnect itself was silent
	require.Len(t, log.all(), 1)
}

func TestPresenceOfflineAfterGrace(t *testing.T) {
	log := &announceLog{}
	p := NewPresence(80*time.Millisecond, log.record, nil)
	defer p.Close()

	p.Connect("alice", "Alice")
	p.Disconnect("alice")

	time.Sleep(40 * time.Millisecond)
	require.Len(t, log.all(), 1, "still inside the grace window")

	time.Sleep(200 * time.Millisecond)
	recs := log.all()
	require.Len(t, recs, 2)
	require.Equal(t, announceRec{userID: "alice", online: false}, recs[1])
}

func TestPresenceOfflineTimedFromSecondClose(t *testing.T) {
	log := &announceLog{}
	p := NewPresence(120*time.Millisecond, log.record, nil)
	defer p.Close()

	p.Connect("alice", "Alice")
	p.Connect("alice", "Alice")
	// first handle closes: set not yet empty, so the caller does not invoke
	// Disconnect; the grace window starts at the second close
	time.Sleep(60 * time.Millisecond)
	p.Disconnect("alice")

	time.Sleep(80 * time.Millisecond) // 140ms after first close, 80ms after second
	require.Len(t, log.all(), 1, "grace runs from the second close, not the first")

	time.Sleep(150 * time.Millisecond)
	recs := log.all()
	require.Len(t, recs, 2, "exactly one offline broadcast")
	require.False(t, recs[1].online)
}

func TestPresenceFireRechecksRegistry(t *testing.T) {
	log := &announceLog{}
	occupied := false
	var mu sync.Mutex
	stillEmpty := func(string) bool {
		mu.Lock()
		defer mu.Unlock()
		return !occupied
	}
	p := NewPresence(50*time.Millisecond, log.record, stillEmpty)
	defer p.Close()

	p.Connect("alice", "Alice")
	p.Disconnect("alice")
	mu.Lock()
	occupied = true // a handle registered while the timer was in flight
	mu.Unlock()

	time.Sleep(150 * time.Millisecond)
	for _, r := range log.all() {
		require.True(t, r.online, "fire path must re-check emptiness before broadcasting")
	}
}

func TestPresenceSnapshotIncludesGraceWindow(t *testing.T) {
	log := &announceLog{}
	p := NewPresence(200*time.Millisecond, log.record, nil)
	defer p.Close()

	p.Connect("alice", "Alice")
	p.Connect("bob", "Bob")
	p.Disconnect("bob")

	// bob was never announced offline, so the snapshot still lists him
	require.Equal(t, []string{"alice", "bob"}, p.Snapshot())
}
