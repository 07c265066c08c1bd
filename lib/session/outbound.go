package session

import (
	"fmt"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"

	"github.com/go-i2p/ircloop/lib/irc"
)

// dispatch is the single path every outbound command takes. Without a sender
// the command is dropped. A send failure closes the connection and leaves the
// session Disconnected before dispatch returns.
func (m *Manager) dispatch(r *record, cmd irc.Command) error {
	verb := cmd.Verb()
	if r.sender == nil {
		m.metrics.DispatchFailed(r.label(), verb)
		log.WithFields(logger.Fields{
			"at":      "(Manager) dispatch",
			"session": r.label(),
			"command": verb,
		}).Error("no sender, command dropped")
		return fmt.Errorf("%w: %s", ErrNoSender, verb)
	}
	if err := r.sender.Send(cmd); err != nil {
		m.metrics.DispatchFailed(r.label(), verb)
		log.WithFields(logger.Fields{
			"at":      "(Manager) dispatch",
			"session": r.label(),
			"command": verb,
			"reason":  err.Error(),
		}).Error("send failed, dropping connection")
		m.disconnect(r, err)
		return oops.
			In("session").
			With("session", r.label(), "command", verb).
			Wrapf(err, "send %s", verb)
	}
	r.sent++
	m.metrics.CommandSent(r.label(), verb)
	log.WithFields(logger.Fields{
		"at":      "(Manager) dispatch",
		"session": r.label(),
		"command": fmt.Sprint(cmd),
	}).Debug("sent")
	return nil
}

// disconnect closes the client and returns the session to Disconnected. The
// next tick starts a fresh attempt.
func (m *Manager) disconnect(r *record, cause error) {
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			log.WithFields(logger.Fields{
				"at":      "(Manager) disconnect",
				"session": r.label(),
				"reason":  err.Error(),
			}).Warn("close failed")
		}
	}
	r.conn, r.sender, r.stream = nil, nil, nil
	r.channelsDirty, r.capsDirty = false, false
	r.idle.Reset()
	if cause != nil {
		r.lastErr = cause
	}
	m.setPhase(r, Disconnected)
}

// flush dispatches commands queued by Manager.Send, oldest first.
func (m *Manager) flush(r *record) {
	if len(r.outbox) == 0 {
		return
	}
	queued := r.outbox
	r.outbox = nil
	for _, cmd := range queued {
		_ = m.dispatch(r, cmd)
	}
}
