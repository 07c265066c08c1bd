// Package filter selects inbound events with expr-lang expressions such as
//
//	command == "PRIVMSG" && target == "#go-nuts" && text contains "release"
//
// The variables are session, command, source, nick, target, text, params and
// tags.
package filter

import (
	"errors"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"

	"github.com/go-i2p/ircloop/lib/irc"
	"github.com/go-i2p/ircloop/lib/session"
)

var log = logger.GetGoI2PLogger()

// ErrInvalidFilter wraps compile errors.
var ErrInvalidFilter = errors.New("invalid event filter")

type env struct {
	Session string            `expr:"session"`
	Command string            `expr:"command"`
	Source  string            `expr:"source"`
	Nick    string            `expr:"nick"`
	Target  string            `expr:"target"`
	Text    string            `expr:"text"`
	Params  []string          `expr:"params"`
	Tags    map[string]string `expr:"tags"`
}

func newEnv(ev session.Event) env {
	msg := ev.Message
	e := env{
		Session: ev.Name,
		Command: strings.ToUpper(msg.Command),
		Source:  msg.Source,
		Nick:    irc.SourceNick(msg.Source),
		Params:  msg.Params,
		Tags:    msg.AllTags(),
	}
	if e.Session == "" {
		e.Session = string(ev.Session)
	}
	if len(msg.Params) > 0 {
		e.Target = msg.Params[0]
	}
	if len(msg.Params) > 1 {
		e.Text = msg.Params[len(msg.Params)-1]
	}
	return e
}

// Filter is a compiled boolean expression. A nil Filter matches everything.
type Filter struct {
	source  string
	program *vm.Program
}

// Compile checks source against the event variables. An empty source returns
// a nil Filter.
func Compile(source string) (*Filter, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, nil
	}
	program, err := expr.Compile(source, expr.Env(env{}), expr.AsBool())
	if err != nil {
		return nil, oops.In("filter").With("expression", source).Wrapf(ErrInvalidFilter, "%s", err.Error())
	}
	return &Filter{source: source, program: program}, nil
}

func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.source
}

// Match reports whether ev satisfies the expression. Evaluation errors count
// as no match.
func (f *Filter) Match(ev session.Event) bool {
	if f == nil {
		return true
	}
	out, err := expr.Run(f.program, newEnv(ev))
	if err != nil {
		log.WithFields(logger.Fields{
			"at":         "(Filter) Match",
			"expression": f.source,
			"reason":     err.Error(),
		}).Warn("filter evaluation failed")
		return false
	}
	ok, _ := out.(bool)
	return ok
}

// Source is a buffered event feed; *session.Subscription satisfies it.
type Source interface {
	Drain() []session.Event
	Dropped() uint64
}

// Feed is a Source that only yields matching events.
type Feed struct {
	src Source
	f   *Filter
}

// Wrap returns a view of src restricted to f.
func (f *Filter) Wrap(src Source) *Feed {
	return &Feed{src: src, f: f}
}

func (w *Feed) Drain() []session.Event {
	events := w.src.Drain()
	if w.f == nil {
		return events
	}
	kept := events[:0]
	for _, ev := range events {
		if w.f.Match(ev) {
			kept = append(kept, ev)
		}
	}
	return kept
}

func (w *Feed) Dropped() uint64 {
	return w.src.Dropped()
}
