package session

import (
	"errors"
	"time"

	"github.com/go-i2p/logger"

	"github.com/go-i2p/ircloop/lib/client"
)

// errNilClient is recorded when a connector resolves with neither client nor error.
var errNilClient = errors.New("connector returned no client")

// establish starts a connect attempt for sessions that need one and polls the
// in-flight attempt exactly once. It is the only place a Future is touched.
func (m *Manager) establish(r *record) {
	if r.phase == Disconnected && r.pending == nil {
		if r.limiter != nil && !r.limiter.Allow() {
			return
		}
		m.setPhase(r, Connecting)
	}
	if r.phase == Connecting && r.pending == nil {
		r.pending = m.connector.Connect(m.ctx, r.endpoint, m.cfg.Client)
		log.WithFields(logger.Fields{
			"at":       "(Manager) establish",
			"session":  r.label(),
			"endpoint": r.endpoint.String(),
		}).Debug("connect attempt started")
	}
	if r.pending == nil {
		return
	}

	c, err := r.pending.Poll()
	if errors.Is(err, client.ErrWouldBlock) {
		return
	}
	r.pending = nil
	if err == nil && c == nil {
		err = errNilClient
	}
	if err != nil {
		r.lastErr = err
		m.metrics.ConnectFailed(r.label())
		log.WithFields(logger.Fields{
			"at":       "(Manager) establish",
			"session":  r.label(),
			"endpoint": r.endpoint.String(),
			"reason":   err.Error(),
		}).Error("connect failed")
		m.setPhase(r, Disconnected)
		return
	}

	r.conn, r.sender, r.stream = c, c.Sender(), c.Stream()
	r.lastErr = nil
	r.connectedAt = time.Now()
	r.idle.Reset()
	m.setPhase(r, AwaitingHandshake)
}
