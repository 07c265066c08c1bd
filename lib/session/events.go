package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ergochat/irc-go/ircmsg"
)

// Event is one inbound message attributed to the session that received it.
type Event struct {
	Session  ID
	Name     string
	Message  ircmsg.Message
	Received time.Time
	// ServerTime is the server's own timestamp when the message carried a
	// plausible one, and zero otherwise.
	ServerTime time.Time
}

// Subscription is a buffered feed of events. Events that do not fit in the
// buffer are dropped and counted.
type Subscription struct {
	ch      chan Event
	hub     *hub
	scope   ID
	dropped atomic.Uint64
	closed  bool
}

// Events returns the receive side of the feed. It is closed when the
// subscription, its session or the manager is closed.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Drain returns every buffered event without waiting.
func (s *Subscription) Drain() []Event {
	var out []Event
	for {
		select {
		case ev, ok := <-s.ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

// Dropped is the number of events lost because the buffer was full.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Close detaches the subscription and closes its channel.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s)
}

type hub struct {
	mu     sync.RWMutex
	global map[*Subscription]struct{}
	scoped map[ID]map[*Subscription]struct{}
	closed bool
}

func newHub() *hub {
	return &hub{
		global: make(map[*Subscription]struct{}),
		scoped: make(map[ID]map[*Subscription]struct{}),
	}
}

// subscribe registers a feed; an empty scope means every session.
func (h *hub) subscribe(scope ID, buffer int) *Subscription {
	s, _ := h.subscribeIf(scope, buffer, nil)
	return s
}

// subscribeIf registers a feed only if live reports true while the hub lock is
// held. closeScope takes the same lock, so a session removed concurrently
// either refuses the feed here or closes it afterwards.
func (h *hub) subscribeIf(scope ID, buffer int, live func() bool) (*Subscription, bool) {
	s := &Subscription{ch: make(chan Event, buffer), hub: h, scope: scope}
	h.mu.Lock()
	defer h.mu.Unlock()
	if live != nil && !live() {
		return nil, false
	}
	if h.closed {
		s.closed = true
		close(s.ch)
		return s, true
	}
	if scope == "" {
		h.global[s] = struct{}{}
		return s, true
	}
	set, ok := h.scoped[scope]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.scoped[scope] = set
	}
	set[s] = struct{}{}
	return s, true
}

func (h *hub) unsubscribe(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s.closed {
		return
	}
	if s.scope == "" {
		delete(h.global, s)
	} else if set, ok := h.scoped[s.scope]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.scoped, s.scope)
		}
	}
	s.closed = true
	close(s.ch)
}

// publish offers ev to global subscribers and to those of ev.Session and
// returns how many deliveries were dropped.
func (h *hub) publish(ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	dropped := 0
	offer := func(s *Subscription) {
		select {
		case s.ch <- ev:
		default:
			s.dropped.Add(1)
			dropped++
		}
	}
	for s := range h.global {
		offer(s)
	}
	for s := range h.scoped[ev.Session] {
		offer(s)
	}
	return dropped
}

// closeScope closes every subscription bound to one session.
func (h *hub) closeScope(id ID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.scoped[id] {
		s.closed = true
		close(s.ch)
	}
	delete(h.scoped, id)
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for s := range h.global {
		s.closed = true
		close(s.ch)
	}
	for _, set := range h.scoped {
		for s := range set {
			s.closed = true
			close(s.ch)
		}
	}
	h.global = map[*Subscription]struct{}{}
	h.scoped = map[ID]map[*Subscription]struct{}{}
}
