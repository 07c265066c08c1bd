package session

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/ergochat/irc-go/ircmsg"
	"github.com/go-i2p/logger"

	"github.com/go-i2p/ircloop/lib/client"
	"github.com/go-i2p/ircloop/lib/irc"
	"github.com/go-i2p/ircloop/lib/util/time/skew"
)

// reaction is a built-in response to an inbound message. Reactions run after
// the message has been published.
type reaction func(m *Manager, r *record, msg ircmsg.Message)

var reactions = []reaction{
	answerPing,
	confirmRegistration,
}

// receive drains everything the stream has buffered. A read error or end of
// stream drops the connection.
func (m *Manager) receive(r *record) {
	for r.stream != nil {
		msg, err := r.stream.Next()
		if errors.Is(err, client.ErrWouldBlock) {
			return
		}
		if err != nil {
			entry := log.WithFields(logger.Fields{
				"at":      "(Manager) receive",
				"session": r.label(),
				"reason":  err.Error(),
			})
			if errors.Is(err, io.EOF) {
				entry.Warn("connection closed by peer")
			} else {
				entry.Error("read failed")
			}
			m.disconnect(r, err)
			return
		}
		m.deliver(r, msg)
	}
}

func (m *Manager) deliver(r *record, msg ircmsg.Message) {
	r.received++
	verb := strings.ToUpper(msg.Command)
	m.metrics.MessageReceived(r.label(), verb)
	ev := Event{
		Session:  r.id,
		Name:     r.name,
		Message:  msg,
		Received: time.Now(),
	}
	if ts, ok := skew.ServerTime(msg); ok {
		ev.ServerTime = ts
		r.clockSkew = skew.Offset(ts, ev.Received)
	}
	if dropped := m.events.publish(ev); dropped > 0 {
		m.metrics.EventDropped(r.label(), dropped)
		log.WithFields(logger.Fields{
			"at":      "(Manager) deliver",
			"session": r.label(),
			"dropped": dropped,
		}).Warn("subscriber buffer full, event dropped")
	}
	for _, react := range reactions {
		if r.sender == nil {
			return
		}
		react(m, r, msg)
	}
}

func answerPing(m *Manager, r *record, msg ircmsg.Message) {
	token, ok := irc.PingToken(msg)
	if !ok {
		return
	}
	_ = m.dispatch(r, irc.Pong{Token: token})
}

// confirmRegistration promotes an identifying session on the server welcome
// and schedules reconciliation of everything it wants.
func confirmRegistration(m *Manager, r *record, msg ircmsg.Message) {
	if r.phase != Identifying || !irc.IsWelcome(msg) {
		return
	}
	m.setPhase(r, Registered)
	r.channelsDirty = true
	r.capsDirty = true
	log.WithFields(logger.Fields{
		"at":      "(Manager) confirmRegistration",
		"session": r.label(),
		"server":  msg.Source,
	}).Info("registered")
}
