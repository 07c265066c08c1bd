package session

import (
	"time"

	"github.com/go-i2p/logger"

	"github.com/go-i2p/ircloop/lib/irc"
)

// keepalive advances the idle stopwatch of a connected session by dt and sends
// PING once the threshold is reached. Inbound traffic does not reset it.
func (m *Manager) keepalive(r *record, dt time.Duration) {
	if r.sender == nil || m.cfg.KeepaliveThreshold <= 0 {
		return
	}
	if r.idle.Tick(dt) < m.cfg.KeepaliveThreshold {
		return
	}
	log.WithFields(logger.Fields{
		"at":      "(Manager) keepalive",
		"session": r.label(),
		"idle":    r.idle.Elapsed().String(),
	}).Debug("sending keepalive")
	r.idle.Reset()
	_ = m.dispatch(r, irc.Ping{})
}
