package filter

import (
	"testing"

	"github.com/ergochat/irc-go/ircmsg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-i2p/ircloop/lib/session"
)

func event(name string, tags map[string]string, source, command string, params ...string) session.Event {
	return session.Event{
		Session: "01ID",
		Name:    name,
		Message: ircmsg.MakeMessage(tags, source, command, params...),
	}
}

func TestCompileRejectsBadExpressions(t *testing.T) {
	for _, src := range []string{
		`command ==`,
		`unknown == "x"`,
		`command`,
	} {
		_, err := Compile(src)
		assert.ErrorIs(t, err, ErrInvalidFilter, src)
	}
}

func TestEmptyFilterMatchesEverything(t *testing.T) {
	f, err := Compile("  ")
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.True(t, f.Match(event("a", nil, "", "PING", "x")))
	assert.Equal(t, "", f.String())
}

func TestMatch(t *testing.T) {
	privmsg := event("libera", map[string]string{"time": "2024-01-02T03:04:05Z"},
		"alice!a@host", "privmsg", "#go-nuts", "new release out")
	ping := event("libera", nil, "", "PING", "token")

	tests := []struct {
		expr string
		ev   session.Event
		want bool
	}{
		{`command == "PRIVMSG"`, privmsg, true},
		{`command == "PRIVMSG"`, ping, false},
		{`nick == "alice" && target == "#go-nuts"`, privmsg, true},
		{`text contains "release"`, privmsg, true},
		{`session == "libera" && len(params) == 2`, privmsg, true},
		{`"time" in tags`, privmsg, true},
		{`"time" in tags`, ping, false},
		{`target == "token" && text == ""`, ping, true},
	}
	for _, tc := range tests {
		f, err := Compile(tc.expr)
		require.NoError(t, err, tc.expr)
		assert.Equal(t, tc.want, f.Match(tc.ev), tc.expr)
	}
}

func TestSessionFallsBackToID(t *testing.T) {
	f, err := Compile(`session == "01ID"`)
	require.NoError(t, err)
	assert.True(t, f.Match(event("", nil, "", "PING", "x")))
}

type stubSource struct {
	events []session.Event
}

func (s *stubSource) Drain() []session.Event {
	out := s.events
	s.events = nil
	return out
}

func (s *stubSource) Dropped() uint64 { return 3 }

func TestFeedKeepsMatches(t *testing.T) {
	src := &stubSource{events: []session.Event{
		event("a", nil, "", "PING", "x"),
		event("a", nil, "bob!b@h", "PRIVMSG", "#c", "hi"),
		event("a", nil, "", "PING", "y"),
	}}
	f, err := Compile(`command != "PING"`)
	require.NoError(t, err)

	feed := f.Wrap(src)
	got := feed.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, "PRIVMSG", got[0].Message.Command)
	assert.Equal(t, uint64(3), feed.Dropped())
	assert.Empty(t, feed.Drain())

	var none *Filter
	src.events = []session.Event{event("a", nil, "", "PING", "x")}
	assert.Len(t, none.Wrap(src).Drain(), 1)
}
