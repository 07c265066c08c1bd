package session

import "github.com/go-i2p/ircloop/lib/irc"

// handshake identifies a freshly connected session: PASS when a password is
// set, then NICK, then USER when a username is set. A failed send aborts the
// rest and leaves the session Disconnected.
func (m *Manager) handshake(r *record) {
	if r.phase != AwaitingHandshake {
		return
	}
	creds := r.creds
	if creds.Password != "" {
		if err := m.dispatch(r, irc.Pass{Password: creds.Password}); err != nil {
			return
		}
	}
	if err := m.dispatch(r, irc.Nick{Nickname: creds.Nick}); err != nil {
		return
	}
	if creds.Username != "" {
		if err := m.dispatch(r, irc.User{Username: creds.Username, Realname: creds.Realname}); err != nil {
			return
		}
	}
	m.setPhase(r, Identifying)
}
