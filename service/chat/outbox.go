package chat

import (
	"sync"
	"time"

	"CipherChat/logger"
)

// Outbox buffers events generated for a user while they have zero open
// handles. Each per-user queue is bounded (oldest evicted first) and
// time-windowed (expired entries are never replayed), so users who never
// return cannot grow memory without bound.

type OutboxConf struct {
	Cap        int              // max entries per user (<=0 -> 100)
	TTL        time.Duration    // entry lifetime (<=0 -> 5m)
	SweepEvery time.Duration    // janitor period (<=0 -> disabled)
	Clock      func() time.Time // injectable clock for tests; nil -> time.Now
}

func (c *OutboxConf) norm() {
	if c.Cap <= 0 {
		c.Cap = 100
	}
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

type outboxEntry struct {
	event      string
	frame      []byte // marshaled wire frame
	enqueuedAt time.Time
}

type Outbox struct {
	mu       sync.Mutex
	conf     OutboxConf
	queues   map[string][]outboxEntry
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewOutbox(conf OutboxConf) *Outbox {
	conf.norm()
	o := &Outbox{
		conf:   conf,
		queues: make(map[string][]outboxEntry),
		stopCh: make(chan struct{}),
	}
	if conf.SweepEvery > 0 {
		go o.janitor()
	}
	return o
}

// Enqueue appends a frame for an offline user, evicting the oldest entry
// once the cap is reached. Queues are created lazily.
func (o *Outbox) Enqueue(userID, event string, frame []byte) {
	now := o.conf.Clock()
	o.mu.Lock()
	defer o.mu.Unlock()

	q := o.queues[userID]
	if len(q) >= o.conf.Cap {
		q = q[len(q)-o.conf.Cap+1:]
	}
	q = append(q, outboxEntry{event: event, frame: frame, enqueuedAt: now})
	o.queues[userID] = q
}

// DrainAndReplay pushes the non-expired entries, in enqueue order, onto the
// newly connected session, then drops the whole queue. Stale entries are
// never retried after a replay attempt.
func (o *Outbox) DrainAndReplay(userID string, sess *Session) int {
	now := o.conf.Clock()
	o.mu.Lock()
	q := o.queues[userID]
	delete(o.queues, userID)
	o.mu.Unlock()

	n := 0
	for _, e := range q {
		if now.Sub(e.enqueuedAt) > o.conf.TTL {
			continue
		}
		if sess.Enqueue(e.frame) {
			n++
		}
	}
	if n > 0 {
		logger.Infof("[outbox] replayed %d queued event(s) user=%s conn=%s", n, userID, sess.ConnID)
	}
	return n
}

// Len reports the queued entry count for a user.
func (o *Outbox) Len(userID string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queues[userID])
}

func (o *Outbox) Close() {
	o.stopOnce.Do(func() { close(o.stopCh) })
}

// janitor garbage-collects queues whose entries have all expired.
func (o *Outbox) janitor() {
	t := time.NewTicker(o.conf.SweepEvery)
	defer t.Stop()
	for {
		select {
		case <-o.stopCh:
			return
		case <-t.C:
			o.sweepOnce(o.conf.Clock())
		}
	}
}

func (o *Outbox) sweepOnce(now time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for user, q := range o.queues {
		if len(q) == 0 || now.Sub(q[len(q)-1].enqueuedAt) > o.conf.TTL {
			delete(o.queues, user)
		}
	}
}
