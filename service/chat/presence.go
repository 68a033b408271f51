package chat

import (
	"sort"
	"sync"
	"time"
)

// Presence derives online/offline transitions from registry mutations and
// debounces the offline announcement behind a grace timer, so a client that
// drops and reconnects within the window is never reported offline.
//
// Per user the machine is: OFFLINE -> ONLINE on the first handle (announce),
// ONLINE -> ONLINE on extra handles (silent), ONLINE -> PENDING_OFFLINE when
// the handle set empties (timer starts, silent), PENDING_OFFLINE -> ONLINE
// on reconnect (timer cancelled, silent), PENDING_OFFLINE -> OFFLINE when
// the timer fires (announce).
type Presence struct {
	mu     sync.Mutex
	grace  time.Duration
	states map[string]*presenceState

	// announce is called outside the handler path for online/offline
	// transitions. stillEmpty re-checks the registry on the fire path, so a
	// timer that lost the cancellation race cannot announce a live user.
	announce   func(userID, username string, online bool)
	stillEmpty func(userID string) bool
}

type presenceState struct {
	online   bool
	username string
	timer    *time.Timer
}

func NewPresence(grace time.Duration, announce func(userID, username string, online bool), stillEmpty func(userID string) bool) *Presence {
	return &Presence{
		grace:      grace,
		states:     make(map[string]*presenceState),
		announce:   announce,
		stillEmpty: stillEmpty,
	}
}

// Connect records a new handle for the user and announces "online" only on
// the OFFLINE -> ONLINE transition.
func (p *Presence) Connect(userID, username string) {
	p.mu.Lock()
	st := p.states[userID]
	if st == nil {
		st = &presenceState{}
		p.states[userID] = st
	}
	st.username = username
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	wasOffline := !st.online
	st.online = true
	p.mu.Unlock()

	if wasOffline {
		p.announce(userID, username, true)
	}
}

// Disconnect is called when the user's handle set becomes empty. It starts
// the grace timer; a Connect before it fires cancels it silently.
func (p *Presence) Disconnect(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := p.states[userID]
	if st == nil || !st.online {
		return
	}
	if st.timer != nil {
		// One pending timer per user; the set can only re-empty after a
		// Connect, which would have cancelled this one.
		return
	}
	if p.grace <= 0 {
		st.online = false
		delete(p.states, userID)
		username := st.username
		go p.announce(userID, username, false)
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(p.grace, func() {
		p.fireOffline(userID, timer)
	})
	st.timer = timer
}

func (p *Presence) fireOffline(userID string, timer *time.Timer) {
	p.mu.Lock()
	st := p.states[userID]
	if st == nil || st.timer != timer {
		// cancelled or superseded
		p.mu.Unlock()
		return
	}
	st.timer = nil
	if p.stillEmpty != nil && !p.stillEmpty(userID) {
		// lost-cancellation race: a handle registered between the timer
		// firing and this lock
		p.mu.Unlock()
		return
	}
	st.online = false
	username := st.username
	delete(p.states, userID)
	p.mu.Unlock()

	p.announce(userID, username, false)
}

// Snapshot returns the users currently considered online, including those in
// the grace window (they were never announced offline).
func (p *Presence) Snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, len(p.states))
	for id, st := range p.states {
		if st.online {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Close stops all pending timers without announcing.
func (p *Presence) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, st := range p.states {
		if st.timer != nil {
			st.timer.Stop()
			st.timer = nil
		}
	}
	p.states = make(map[string]*presenceState)
}
