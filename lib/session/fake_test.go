package session

import (
	"context"
	"sync"
	"testing"

	"github.com/ergochat/irc-go/ircmsg"
	"github.com/stretchr/testify/require"

	"github.com/go-i2p/ircloop/lib/client"
	"github.com/go-i2p/ircloop/lib/irc"
)

// fakeClient records every command and serves scripted inbound messages.
type fakeClient struct {
	mu      sync.Mutex
	sent    []irc.Command
	inbox   []ircmsg.Message
	readErr error
	failOn  map[string]error
	joined  []string
	closed  int
}

func newFakeClient(joined ...string) *fakeClient {
	return &fakeClient{joined: joined, failOn: map[string]error{}}
}

func (c *fakeClient) Sender() client.Sender { return c }
func (c *fakeClient) Stream() client.Stream { return c }

func (c *fakeClient) Send(cmd irc.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed > 0 {
		return client.ErrClosed
	}
	if err, ok := c.failOn[cmd.Verb()]; ok {
		return err
	}
	c.sent = append(c.sent, cmd)
	return nil
}

func (c *fakeClient) Next() (ircmsg.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.inbox) > 0 {
		msg := c.inbox[0]
		c.inbox = c.inbox[1:]
		return msg, nil
	}
	if c.readErr != nil {
		return ircmsg.Message{}, c.readErr
	}
	return ircmsg.Message{}, client.ErrWouldBlock
}

func (c *fakeClient) ListChannels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.joined...)
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *fakeClient) push(t *testing.T, lines ...string) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, line := range lines {
		msg, err := ircmsg.ParseLine(line)
		require.NoError(t, err)
		c.inbox = append(c.inbox, msg)
	}
}

func (c *fakeClient) fail(verb string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failOn[verb] = err
}

func (c *fakeClient) setReadErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readErr = err
}

// take returns and forgets everything sent so far.
func (c *fakeClient) take() []irc.Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.sent
	c.sent = nil
	return out
}

func (c *fakeClient) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fakeConnector hands out queued futures in order. With nothing queued it
// returns a future that never resolves.
type fakeConnector struct {
	mu    sync.Mutex
	queue []*client.Future
	calls int
	opts  []client.Options
}

func (f *fakeConnector) Connect(_ context.Context, _ client.Endpoint, opts client.Options) *client.Future {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.opts = append(f.opts, opts)
	if len(f.queue) == 0 {
		return client.NewFuture()
	}
	fut := f.queue[0]
	f.queue = f.queue[1:]
	return fut
}

func (f *fakeConnector) enqueue(futs ...*client.Future) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, futs...)
}

func (f *fakeConnector) connects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingMetrics keeps phase transitions and counters for assertions.
type recordingMetrics struct {
	mu          sync.Mutex
	transitions []string
	sent        map[string]int
	failed      map[string]int
	dropped     int
	removed     int
	connectErrs int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{sent: map[string]int{}, failed: map[string]int{}}
}

func (r *recordingMetrics) PhaseChanged(_ string, from, to Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, from.String()+">"+to.String())
}

func (r *recordingMetrics) ConnectFailed(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectErrs++
}

func (r *recordingMetrics) CommandSent(_, verb string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[verb]++
}

func (r *recordingMetrics) DispatchFailed(_, verb string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[verb]++
}

func (r *recordingMetrics) MessageReceived(string, string) {}

func (r *recordingMetrics) EventDropped(_ string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped += n
}

func (r *recordingMetrics) SessionRemoved(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed++
}

func testDeclaration(name string, channels ...string) Declaration {
	return Declaration{
		Name:        name,
		Endpoint:    client.Endpoint{Host: "irc.example.net", Port: 6667},
		Credentials: Credentials{Nick: "bot"},
		Channels:    channels,
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.QuitMessage = "bye"
	return cfg
}

// connected declares d and ticks once with an immediately resolved client,
// leaving the session Identifying with the handshake already sent.
func connected(t *testing.T, m *Manager, fc *fakeConnector, d Declaration, c *fakeClient) ID {
	t.Helper()
	id, err := m.Declare(d)
	require.NoError(t, err)
	fc.enqueue(client.Resolved(c, nil))
	m.Tick(0)
	requirePhase(t, m, id, Identifying)
	return id
}

// registered drives a session through the welcome and discards the handshake.
func registered(t *testing.T, m *Manager, fc *fakeConnector, d Declaration, c *fakeClient) ID {
	t.Helper()
	id := connected(t, m, fc, d, c)
	c.push(t, ":irc.example.net 001 bot :Welcome")
	m.Tick(0)
	requirePhase(t, m, id, Registered)
	c.take()
	return id
}

func requirePhase(t *testing.T, m *Manager, id ID, want Phase) {
	t.Helper()
	st, err := m.Status(id)
	require.NoError(t, err)
	require.Equal(t, want, st.Phase, "phase")
}

func verbs(cmds []irc.Command) []string {
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.Verb())
	}
	return out
}
