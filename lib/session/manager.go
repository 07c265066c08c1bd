package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-i2p/logger"
	"golang.org/x/sync/errgroup"

	"github.com/go-i2p/ircloop/lib/client"
	"github.com/go-i2p/ircloop/lib/irc"
)

var log = logger.GetGoI2PLogger()

// Manager owns every declared session and advances them on Tick.
type Manager struct {
	cfg       Config
	connector client.Connector
	metrics   Metrics
	events    *hub

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	sessions map[ID]*record
	order    []ID
	names    map[string]ID
	closed   bool
}

// Option customises a Manager.
type Option func(*Manager)

// WithMetrics routes lifecycle notifications to m.
func WithMetrics(m Metrics) Option {
	return func(mgr *Manager) {
		if m != nil {
			mgr.metrics = m
		}
	}
}

// NewManager returns a Manager that opens connections through connector.
func NewManager(connector client.Connector, cfg Config, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:       cfg.withDefaults(),
		connector: connector,
		metrics:   nopMetrics{},
		events:    newHub(),
		ctx:       ctx,
		cancel:    cancel,
		sessions:  make(map[ID]*record),
		names:     make(map[string]ID),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Declare creates a session in the Connecting phase. Its connect attempt
// starts on the next Tick.
func (m *Manager) Declare(d Declaration) (ID, error) {
	if err := d.validate(); err != nil {
		return "", err
	}
	r := newRecord(d, m.cfg.ReconnectDelay)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrManagerClosed
	}
	if d.Name != "" {
		if _, taken := m.names[d.Name]; taken {
			return "", fmt.Errorf("%w: %q", ErrDuplicateSession, d.Name)
		}
		m.names[d.Name] = r.id
	}
	m.sessions[r.id] = r
	m.order = append(m.order, r.id)

	log.WithFields(logger.Fields{
		"at":       "(Manager) Declare",
		"session":  r.label(),
		"id":       string(r.id),
		"endpoint": r.endpoint.String(),
		"channels": r.channels.Len(),
	}).Debug("session declared")
	return r.id, nil
}

// Lookup finds a session by its declared name.
func (m *Manager) Lookup(name string) (ID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.names[name]
	return id, ok
}

// Remove tears a session down. A connected session is sent QUIT first, an
// in-flight connect attempt is abandoned, and its subscriptions are closed.
func (m *Manager) Remove(id ID) error {
	m.mu.Lock()
	r, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	delete(m.sessions, id)
	if r.name != "" {
		delete(m.names, r.name)
	}
	for i, other := range m.order {
		if other == id {
			m.order = append(m.order[:i:i], m.order[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	r.mu.Lock()
	m.teardown(r)
	r.mu.Unlock()
	m.events.closeScope(id)
	return nil
}

// SetChannels replaces the desired channel set. A change is reconciled on the
// next tick if the session is registered.
func (m *Manager) SetChannels(id ID, channels []string) error {
	return m.with(id, func(r *record) {
		next := irc.NewChannelSet(channels...)
		if next.Equal(r.channels) {
			return
		}
		r.channels = next
		r.channelsDirty = true
	})
}

// SetCapabilities replaces the desired capability set.
func (m *Manager) SetCapabilities(id ID, caps []string) error {
	return m.with(id, func(r *record) {
		next := dedupe(caps)
		if sameStrings(next, r.caps) {
			return
		}
		r.caps = next
		r.capsDirty = true
	})
}

// SetCredentials replaces the credentials used by the next handshake.
func (m *Manager) SetCredentials(id ID, creds Credentials) error {
	if creds.Nick == "" {
		return fmt.Errorf("%w: nickname is empty", ErrInvalidDeclaration)
	}
	return m.with(id, func(r *record) {
		r.creds = creds
	})
}

// Resync forces channel and capability reconciliation on the next tick.
func (m *Manager) Resync(id ID) error {
	return m.with(id, func(r *record) {
		r.channelsDirty = true
		r.capsDirty = true
	})
}

// Send queues cmd for the session. Queued commands are dispatched at the end of
// the next tick; if the session has no connection by then they are dropped.
func (m *Manager) Send(id ID, cmd irc.Command) error {
	if cmd == nil {
		return fmt.Errorf("%w: nil command", ErrInvalidDeclaration)
	}
	return m.with(id, func(r *record) {
		r.outbox = append(r.outbox, cmd)
	})
}

// Status returns a snapshot of one session.
func (m *Manager) Status(id ID) (Status, error) {
	var st Status
	err := m.with(id, func(r *record) {
		st = r.status()
	})
	return st, err
}

// Sessions returns snapshots of every session in declaration order.
func (m *Manager) Sessions() []Status {
	recs := m.snapshot()
	out := make([]Status, 0, len(recs))
	for _, r := range recs {
		r.mu.Lock()
		if !r.removed {
			out = append(out, r.status())
		}
		r.mu.Unlock()
	}
	return out
}

// Subscribe returns a feed of inbound messages from every session. A buffer of
// zero or less uses Config.EventBuffer.
func (m *Manager) Subscribe(buffer int) *Subscription {
	return m.events.subscribe("", m.buffer(buffer))
}

// SubscribeSession returns a feed of inbound messages from one session.
func (m *Manager) SubscribeSession(id ID, buffer int) (*Subscription, error) {
	sub, ok := m.events.subscribeIf(id, m.buffer(buffer), func() bool {
		_, err := m.lookup(id)
		return err == nil
	})
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return sub, nil
}

// Tick advances every session by one pipeline pass. dt is the time since the
// previous tick and drives keepalive. Tick never waits on the network.
func (m *Manager) Tick(dt time.Duration) {
	recs := m.snapshot()
	if m.cfg.Workers <= 1 || len(recs) < 2 {
		for _, r := range recs {
			m.pass(r, dt)
		}
		return
	}
	var g errgroup.Group
	g.SetLimit(m.cfg.Workers)
	for _, r := range recs {
		g.Go(func() error {
			m.pass(r, dt)
			return nil
		})
	}
	_ = g.Wait()
}

// Close removes every session and closes all subscriptions.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	recs := make([]*record, 0, len(m.order))
	for _, id := range m.order {
		recs = append(recs, m.sessions[id])
	}
	m.sessions = make(map[ID]*record)
	m.names = make(map[string]ID)
	m.order = nil
	m.mu.Unlock()

	for _, r := range recs {
		r.mu.Lock()
		m.teardown(r)
		r.mu.Unlock()
	}
	m.cancel()
	m.events.close()
	log.WithFields(logger.Fields{
		"at":       "(Manager) Close",
		"sessions": len(recs),
	}).Debug("manager closed")
	return nil
}

// pass runs the pipeline for one session. The order is fixed so a connection
// established this tick is identified this tick.
func (m *Manager) pass(r *record, dt time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.removed {
		return
	}
	m.establish(r)
	m.handshake(r)
	m.reconcileChannels(r)
	m.reconcileCapabilities(r)
	m.keepalive(r, dt)
	m.receive(r)
	m.flush(r)
}

// teardown releases everything a session holds. Caller holds r.mu.
func (m *Manager) teardown(r *record) {
	if r.removed {
		return
	}
	r.removed = true
	if r.pending != nil {
		r.pending.Abandon()
		r.pending = nil
	}
	if r.sender != nil {
		// A failed QUIT demotes through disconnect, which also closes the client.
		_ = m.dispatch(r, irc.Quit{Reason: m.cfg.QuitMessage})
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
	r.conn, r.sender, r.stream = nil, nil, nil
	r.outbox = nil
	m.metrics.SessionRemoved(r.label())
	log.WithFields(logger.Fields{
		"at":      "(Manager) teardown",
		"session": r.label(),
		"phase":   r.phase.String(),
	}).Debug("session removed")
}

// setPhase moves r to next and reports the transition.
func (m *Manager) setPhase(r *record, next Phase) {
	prev := r.phase
	if prev == next {
		return
	}
	if !prev.CanTransition(next) {
		log.WithFields(logger.Fields{
			"at":      "(Manager) setPhase",
			"session": r.label(),
			"from":    prev.String(),
			"to":      next.String(),
		}).Warn("unexpected phase transition")
	}
	r.phase = next
	m.metrics.PhaseChanged(r.label(), prev, next)
	log.WithFields(logger.Fields{
		"at":      "(Manager) setPhase",
		"session": r.label(),
		"from":    prev.String(),
		"to":      next.String(),
	}).Debug("phase changed")
}

func (m *Manager) with(id ID, fn func(r *record)) error {
	r, err := m.lookup(id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.removed {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	fn(r)
	return nil
}

func (m *Manager) lookup(id ID) (*record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return r, nil
}

func (m *Manager) snapshot() []*record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := make([]*record, 0, len(m.order))
	for _, id := range m.order {
		recs = append(recs, m.sessions[id])
	}
	return recs
}

func (m *Manager) buffer(n int) int {
	if n <= 0 {
		return m.cfg.EventBuffer
	}
	return n
}
