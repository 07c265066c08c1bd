// Package schedule sends configured announcements to channels on cron
// schedules. Announcements go through Manager.Send, so they leave on the next
// tick and only while the session is registered.
package schedule

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-i2p/logger"
	"github.com/robfig/cron/v3"

	"github.com/go-i2p/ircloop/lib/irc"
	"github.com/go-i2p/ircloop/lib/session"
)

var log = logger.GetGoI2PLogger()

// Announcement is one scheduled PRIVMSG.
type Announcement struct {
	Session  string
	Schedule string
	Target   string
	Text     string
}

func (a Announcement) String() string {
	return fmt.Sprintf("%s %s %q", a.Session, a.Target, a.Schedule)
}

// Target is the part of session.Manager the scheduler needs.
type Target interface {
	Lookup(name string) (session.ID, bool)
	Status(id session.ID) (session.Status, error)
	Send(id session.ID, cmd irc.Command) error
}

// Parse checks a schedule in standard five-field cron syntax or a descriptor
// such as "@hourly" or "@every 90m".
func Parse(spec string) error {
	_, err := cron.ParseStandard(spec)
	return err
}

// Scheduler owns a cron instance whose entries are replaced as a whole by
// Apply.
type Scheduler struct {
	dst  Target
	cron *cron.Cron

	mu      sync.Mutex
	entries []cron.EntryID
	started bool
}

// New returns a stopped Scheduler delivering to dst.
func New(dst Target) *Scheduler {
	return &Scheduler{
		dst:  dst,
		cron: cron.New(cron.WithLogger(cronLogger{}), cron.WithChain(cron.Recover(cronLogger{}))),
	}
}

// Apply replaces every scheduled announcement with list. Entries with a bad
// schedule are skipped and reported; the rest are installed.
func (s *Scheduler) Apply(list []Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.entries {
		s.cron.Remove(id)
	}
	s.entries = s.entries[:0]

	var errs []error
	for _, a := range list {
		id, err := s.cron.AddJob(a.Schedule, job{s: s, a: a})
		if err != nil {
			errs = append(errs, fmt.Errorf("announcement %s: %w", a, err))
			continue
		}
		s.entries = append(s.entries, id)
	}
	log.WithFields(logger.Fields{
		"at":            "(Scheduler) Apply",
		"announcements": len(s.entries),
	}).Debug("announcements scheduled")
	return errors.Join(errs...)
}

// Len returns the number of installed announcements.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Start runs the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
}

// Stop halts the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()
	if started {
		<-s.cron.Stop().Done()
	}
}

// announce queues a for its session. It reports false when the session is
// unknown or not registered.
func (s *Scheduler) announce(a Announcement) bool {
	fields := logger.Fields{
		"at":      "(Scheduler) announce",
		"session": a.Session,
		"target":  a.Target,
	}
	id, ok := s.dst.Lookup(a.Session)
	if !ok {
		log.WithFields(fields).Warn("announcement for unknown session skipped")
		return false
	}
	st, err := s.dst.Status(id)
	if err != nil || st.Phase != session.Registered {
		log.WithFields(fields).Debug("session not registered, announcement skipped")
		return false
	}
	if err := s.dst.Send(id, irc.Privmsg{Target: a.Target, Text: a.Text}); err != nil {
		fields["reason"] = err.Error()
		log.WithFields(fields).Error("announcement not queued")
		return false
	}
	log.WithFields(fields).Debug("announcement queued")
	return true
}

type job struct {
	s *Scheduler
	a Announcement
}

func (j job) Run() {
	j.s.announce(j.a)
}

// cronLogger adapts cron's logr-style logger to go-i2p/logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.WithFields(pairs(keysAndValues)).Debug("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := pairs(keysAndValues)
	fields["reason"] = err.Error()
	log.WithFields(fields).Error("cron: " + msg)
}

func pairs(kv []interface{}) logger.Fields {
	fields := logger.Fields{"at": "cron"}
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
