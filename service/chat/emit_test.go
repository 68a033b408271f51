package chat

import (
	"encoding/json"
	"testing"
	"time"

	"CipherChat/global"
	"CipherChat/service/storage"
	"CipherChat/tools/security"

	"github.com/stretchr/testify/require"
)

func testConf() global.GatewayConfig {
	return global.GatewayConfig{
		OfflineGrace:  50 * time.Millisecond,
		OutboxCap:     10,
		OutboxTTL:     time.Minute,
		SendQueueSize: 16,
		WriteWait:     time.Second,
		PongWait:      time.Second,
		PingInterval:  time.Second,
		ReadLimit:     1 << 20,
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer(testConf(), storage.NewMemoryStore(), security.DefaultOptions([]byte("test-secret")))
	t.Cleanup(s.Close)
	return s
}

// connect registers a chan-backed session without a real websocket.
func connect(s *Server, connID, userID string) *Session {
	sess := NewSession(connID, nil, s.conf.SendQueueSize)
	sess.UserID = userID
	sess.Username = userID
	s.registry.Add(sess)
	s.presence.Connect(userID, userID)
	return sess
}

func TestEmitToUserLiveDelivery(t *testing.T) {
	s := newTestServer(t)
	a1 := connect(s, "c1", "alice")
	a2 := connect(s, "c2", "alice")

	delivered := s.EmitToUser("alice", EvReceiveMessage, ReceiveMessage{MessageID: "m1"})
	require.True(t, delivered)

	// multi-device: every live handle gets the frame
	require.Len(t, drainFrames(t, a1), 1)
	require.Len(t, drainFrames(t, a2), 1)
	require.Equal(t, 0, s.Outbox().Len("alice"))
}

func TestEmitToUserFallsBackToOutbox(t *testing.T) {
	s := newTestServer(t)

	delivered := s.EmitToUser("alice", EvReceiveMessage, ReceiveMessage{MessageID: "m1"})
	require.False(t, delivered, "delivery miss is a boolean, not an error")
	require.Equal(t, 1, s.Outbox().Len("alice"))
}

func TestEmitLiveNeverQueues(t *testing.T) {
	s := newTestServer(t)

	delivered := s.EmitLive("alice", EvTyping, TypingNotice{FromUserID: "bob"})
	require.False(t, delivered)
	require.Equal(t, 0, s.Outbox().Len("alice"), "typing is never queued")
}

func TestBroadcastExceptSkipsOwner(t *testing.T) {
	s := newTestServer(t)
	a := connect(s, "c1", "alice")
	b := connect(s, "c2", "bob")
	drainFrames(t, a)
	drainFrames(t, b)

	s.broadcastExcept("alice", EvUserOnline, UserPresence{UserID: "alice"})

	require.Empty(t, drainFrames(t, a))
	frames := drainFrames(t, b)
	require.Len(t, frames, 1)
	require.Equal(t, EvUserOnline, frames[0].Event)

	var p UserPresence
	require.NoError(t, json.Unmarshal(frames[0].Data, &p))
	require.Equal(t, "alice", p.UserID)
}

func TestOfflineMessageRoundTrip(t *testing.T) {
	s := newTestServer(t)

	// A has zero handles; a message for A lands in the outbox
	s.EmitToUser("alice", EvReceiveMessage, ReceiveMessage{
		FromUserID: "bob", Ciphertext: "0xdead", MessageID: "m1",
	})

	// A connects within the TTL window: replay delivers the original payload
	a := connect(s, "c1", "alice")
	n := s.Outbox().DrainAndReplay("alice", a)
	require.Equal(t, 1, n)

	frames := drainFrames(t, a)
	require.Len(t, frames, 1)
	require.Equal(t, EvReceiveMessage, frames[0].Event)
	var p ReceiveMessage
	require.NoError(t, json.Unmarshal(frames[0].Data, &p))
	require.Equal(t, "bob", p.FromUserID)
	require.Equal(t, "0xdead", p.Ciphertext)
	require.Equal(t, 0, s.Outbox().Len("alice"))
}
