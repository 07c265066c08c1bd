package session

import (
	"github.com/go-i2p/logger"

	"github.com/go-i2p/ircloop/lib/irc"
)

// reconcileChannels joins desired channels the server has not confirmed and
// parts confirmed channels that are no longer desired. It runs only for
// registered sessions whose desired set changed or which just registered, so
// JOINs still awaiting their echo are not repeated.
func (m *Manager) reconcileChannels(r *record) {
	if r.phase != Registered || !r.channelsDirty || r.conn == nil {
		return
	}
	r.channelsDirty = false
	join, part := r.channels.Diff(r.conn.ListChannels())
	if len(join) == 0 && len(part) == 0 {
		return
	}
	log.WithFields(logger.Fields{
		"at":      "(Manager) reconcileChannels",
		"session": r.label(),
		"join":    join,
		"part":    part,
	}).Debug("reconciling channels")
	for _, name := range join {
		if err := m.dispatch(r, irc.Join{Channel: name}); err != nil {
			return
		}
	}
	for _, name := range part {
		if err := m.dispatch(r, irc.Part{Channel: name}); err != nil {
			return
		}
	}
}

// reconcileCapabilities requests every desired capability in one CAP REQ.
// Nothing is sent for an empty set.
func (m *Manager) reconcileCapabilities(r *record) {
	if r.phase != Registered || !r.capsDirty {
		return
	}
	r.capsDirty = false
	if len(r.caps) == 0 {
		return
	}
	_ = m.dispatch(r, irc.NewCapReq(r.caps))
}
