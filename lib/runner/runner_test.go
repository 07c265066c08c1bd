package runner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-i2p/ircloop/lib/client"
	"github.com/go-i2p/ircloop/lib/config"
	"github.com/go-i2p/ircloop/lib/session"
)

// pendingConnector never completes a connection; it only counts attempts.
type pendingConnector struct {
	mu        sync.Mutex
	endpoints []client.Endpoint
	futures   []*client.Future
}

func (p *pendingConnector) Connect(_ context.Context, ep client.Endpoint, _ client.Options) *client.Future {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endpoints = append(p.endpoints, ep)
	f := client.NewFuture()
	p.futures = append(p.futures, f)
	return f
}

func (p *pendingConnector) attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.endpoints)
}

func testConfig(sessions ...config.SessionConfig) *config.Config {
	cfg := config.Defaults()
	cfg.Tick = 5 * time.Millisecond
	cfg.Sessions = sessions
	return &cfg
}

func libera(name string, channels ...string) config.SessionConfig {
	return config.SessionConfig{
		Name:     name,
		Host:     "irc.libera.chat",
		Port:     6697,
		TLS:      true,
		Nick:     "loopbot",
		Channels: channels,
	}
}

func names(mgr *session.Manager) []string {
	var out []string
	for _, st := range mgr.Sessions() {
		out = append(out, st.Name)
	}
	return out
}

func TestFromConfigDeclaresSessions(t *testing.T) {
	r, err := FromConfig(testConfig(libera("a"), libera("b")), &pendingConnector{})
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"a", "b"}, names(r.Manager()))
}

func TestSyncAddsAndRemoves(t *testing.T) {
	r, err := FromConfig(testConfig(libera("a"), libera("b")), &pendingConnector{})
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Sync(testConfig(libera("b"), libera("c"))))
	assert.Equal(t, []string{"b", "c"}, names(r.Manager()))

	_, ok := r.Manager().Lookup("a")
	assert.False(t, ok)
}

func TestSyncUpdatesInPlace(t *testing.T) {
	r, err := FromConfig(testConfig(libera("a", "#one")), &pendingConnector{})
	require.NoError(t, err)
	defer r.Close()
	before, ok := r.Manager().Lookup("a")
	require.True(t, ok)

	next := libera("a", "#two")
	next.Capabilities = []string{"server-time"}
	next.Nick = "renamed"
	require.NoError(t, r.Sync(testConfig(next)))

	after, ok := r.Manager().Lookup("a")
	require.True(t, ok)
	assert.Equal(t, before, after, "same endpoint keeps the session")

	st, err := r.Manager().Status(after)
	require.NoError(t, err)
	assert.Equal(t, []string{"#two"}, st.Channels)
	assert.Equal(t, []string{"server-time"}, st.Capabilities)
	assert.Equal(t, "renamed", st.Nick)
}

func TestSyncEndpointChangeReplaces(t *testing.T) {
	r, err := FromConfig(testConfig(libera("a")), &pendingConnector{})
	require.NoError(t, err)
	defer r.Close()
	before, _ := r.Manager().Lookup("a")

	moved := libera("a")
	moved.Host = "irc.oftc.net"
	require.NoError(t, r.Sync(testConfig(moved)))

	after, ok := r.Manager().Lookup("a")
	require.True(t, ok)
	assert.NotEqual(t, before, after)
	st, err := r.Manager().Status(after)
	require.NoError(t, err)
	assert.Equal(t, "irc.oftc.net", st.Endpoint.Host)
}

func TestSyncReportsBadSessionAndKeepsOthers(t *testing.T) {
	bad := libera("bad")
	bad.Port = 0
	r, err := FromConfig(testConfig(libera("good"), bad), &pendingConnector{})
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrInvalidDeclaration)
	defer r.Close()

	assert.Equal(t, []string{"good"}, names(r.Manager()))
}

func TestStartTicksManager(t *testing.T) {
	pc := &pendingConnector{}
	r, err := FromConfig(testConfig(libera("a")), pc)
	require.NoError(t, err)

	require.NoError(t, r.Start())
	assert.ErrorIs(t, r.Start(), ErrAlreadyRunning)

	require.Eventually(t, func() bool { return pc.attempts() == 1 }, 2*time.Second, 5*time.Millisecond)

	r.Stop()
	r.Stop()
	done := make(chan struct{})
	go func() {
		r.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after Stop")
	}
	assert.ErrorIs(t, r.Start(), ErrStopped)
	require.NoError(t, r.Close())
	assert.Empty(t, r.Manager().Sessions())
}

func TestSyncChangesTickPeriod(t *testing.T) {
	r, err := FromConfig(testConfig(), &pendingConnector{})
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, 5*time.Millisecond, r.period())

	cfg := testConfig()
	cfg.Tick = time.Second
	require.NoError(t, r.Sync(cfg))
	assert.Equal(t, time.Second, r.period())

	cfg.Tick = 0
	require.NoError(t, r.Sync(cfg))
	assert.Equal(t, config.DefaultTick, r.period())
}

func TestCloseAbandonsPendingConnects(t *testing.T) {
	pc := &pendingConnector{}
	r, err := FromConfig(testConfig(libera("a")), pc)
	require.NoError(t, err)
	r.Manager().Tick(0)
	require.Equal(t, 1, pc.attempts())

	require.NoError(t, r.Close())

	_, err = pc.futures[0].Poll()
	assert.ErrorIs(t, err, client.ErrWouldBlock, "future stays unresolved")
	pc.futures[0].Resolve(nil, nil)
	_, err = pc.futures[0].Poll()
	assert.ErrorIs(t, err, client.ErrAbandoned)
}

func TestSyncSchedulesAnnouncements(t *testing.T) {
	a := libera("a", "#one")
	a.Announcements = []config.AnnouncementConfig{
		{Schedule: "@hourly", Target: "#one", Text: "hello"},
		{Schedule: "@daily", Target: "#one", Text: "bye"},
	}
	r, err := FromConfig(testConfig(a), &pendingConnector{})
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, 2, r.sched.Len())

	a.Announcements = a.Announcements[:1]
	require.NoError(t, r.Sync(testConfig(a)))
	assert.Equal(t, 1, r.sched.Len())

	require.NoError(t, r.Sync(testConfig()))
	assert.Equal(t, 0, r.sched.Len())
}
