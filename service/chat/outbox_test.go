package chat

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func drainFrames(t *testing.T, sess *Session) []*Frame {
	t.Helper()
	var out []*Frame
	for {
		select {
		case raw := <-sess.Send:
			f, err := ParseFrame(raw)
			require.NoError(t, err)
			out = append(out, f)
		default:
			return out
		}
	}
}

func mustFrame(t *testing.T, event string, data any) []byte {
	t.Helper()
	b, err := MarshalFrame(event, data)
	require.NoError(t, err)
	return b
}

func TestOutboxCapEvictsOldest(t *testing.T) {
	o := NewOutbox(OutboxConf{Cap: 3, TTL: time.Minute})
	defer o.Close()

	for i := 1; i <= 5; i++ {
		o.Enqueue("alice", EvReceiveMessage, mustFrame(t, EvReceiveMessage, ReceiveMessage{MessageID: fmt.Sprintf("m%d", i)}))
	}
	require.Equal(t, 3, o.Len("alice"))

	sess := newTestSession("c1", "alice")
	o.DrainAndReplay("alice", sess)

	var got []string
	for _, f := range drainFrames(t, sess) {
		var p ReceiveMessage
		require.NoError(t, json.Unmarshal(f.Data, &p))
		got = append(got, p.MessageID)
	}
	require.Equal(t, []string{"m3", "m4", "m5"}, got, "retained entries are the most recent cap entries, in order")
}

func TestOutboxTTLFiltersReplay(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	o := NewOutbox(OutboxConf{Cap: 10, TTL: time.Minute, Clock: func() time.Time { return clock() }})
	defer o.Close()

	o.Enqueue("alice", EvReceiveMessage, mustFrame(t, EvReceiveMessage, ReceiveMessage{MessageID: "old"}))
	now = now.Add(2 * time.Minute)
	o.Enqueue("alice", EvReceiveMessage, mustFrame(t, EvReceiveMessage, ReceiveMessage{MessageID: "fresh"}))
	now = now.Add(30 * time.Second)

	sess := newTestSession("c1", "alice")
	n := o.DrainAndReplay("alice", sess)
	require.Equal(t, 1, n)

	frames := drainFrames(t, sess)
	require.Len(t, frames, 1)
	var p ReceiveMessage
	require.NoError(t, json.Unmarshal(frames[0].Data, &p))
	require.Equal(t, "fresh", p.MessageID)

	// cleared regardless of what was expired
	require.Equal(t, 0, o.Len("alice"))
}

func TestOutboxReplayOrderThenEmpty(t *testing.T) {
	o := NewOutbox(OutboxConf{Cap: 100, TTL: time.Minute})
	defer o.Close()

	for i := 0; i < 7; i++ {
		o.Enqueue("alice", EvReceiveMessage, mustFrame(t, EvReceiveMessage, ReceiveMessage{MessageID: fmt.Sprintf("m%d", i)}))
	}

	sess := newTestSession("c1", "alice")
	require.Equal(t, 7, o.DrainAndReplay("alice", sess))

	frames := drainFrames(t, sess)
	for i, f := range frames {
		var p ReceiveMessage
		require.NoError(t, json.Unmarshal(f.Data, &p))
		require.Equal(t, fmt.Sprintf("m%d", i), p.MessageID, "original enqueue order preserved")
	}

	// a second connect replays nothing
	sess2 := newTestSession("c2", "alice")
	require.Equal(t, 0, o.DrainAndReplay("alice", sess2))
	require.Empty(t, drainFrames(t, sess2))
}

func TestOutboxSweepDropsExpiredQueues(t *testing.T) {
	now := time.Now()
	o := NewOutbox(OutboxConf{Cap: 10, TTL: time.Minute, Clock: func() time.Time { return now }})
	defer o.Close()

	o.Enqueue("ghost", EvReceiveMessage, mustFrame(t, EvReceiveMessage, ReceiveMessage{MessageID: "m1"}))
	o.Enqueue("active", EvReceiveMessage, mustFrame(t, EvReceiveMessage, ReceiveMessage{MessageID: "m2"}))

	o.sweepOnce(now.Add(30 * time.Second))
	require.Equal(t, 1, o.Len("ghost"), "not expired yet")

	o.sweepOnce(now.Add(2 * time.Minute))
	require.Equal(t, 0, o.Len("ghost"), "fully expired queue garbage-collected")
	require.Equal(t, 0, o.Len("active"))
}

func TestOutboxLazyCreation(t *testing.T) {
	o := NewOutbox(OutboxConf{})
	defer o.Close()
	require.Equal(t, 0, o.Len("nobody"))
}
