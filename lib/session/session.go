package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/go-i2p/ircloop/lib/client"
	"github.com/go-i2p/ircloop/lib/irc"
	"github.com/go-i2p/ircloop/lib/util/time/monotonic"
)

// ID identifies a declared session for its whole life.
type ID string

func newID() ID {
	return ID(ulid.Make().String())
}

// Credentials are presented during the handshake.
type Credentials struct {
	Nick     string
	Password string
	// Username enables the USER command. Left empty, no USER is sent.
	Username string
	Realname string
}

// Declaration is everything a caller supplies to create a session.
type Declaration struct {
	// Name is an optional unique label used in logs, metrics and Lookup.
	Name         string
	Endpoint     client.Endpoint
	Credentials  Credentials
	Channels     []string
	Capabilities []string
}

func (d Declaration) validate() error {
	if strings.TrimSpace(d.Endpoint.Host) == "" {
		return fmt.Errorf("%w: endpoint host is empty", ErrInvalidDeclaration)
	}
	if d.Endpoint.Port == 0 {
		return fmt.Errorf("%w: endpoint port is zero", ErrInvalidDeclaration)
	}
	if strings.TrimSpace(d.Credentials.Nick) == "" {
		return fmt.Errorf("%w: nickname is empty", ErrInvalidDeclaration)
	}
	return nil
}

// record is the live state of one session. Every field is guarded by mu, which
// the manager holds for a whole pipeline pass.
type record struct {
	mu sync.Mutex

	id       ID
	name     string
	endpoint client.Endpoint
	creds    Credentials
	channels irc.ChannelSet
	caps     []string

	phase   Phase
	pending *client.Future
	conn    client.Client
	sender  client.Sender
	stream  client.Stream

	idle          monotonic.Stopwatch
	channelsDirty bool
	capsDirty     bool
	outbox        []irc.Command
	limiter       *rate.Limiter

	removed     bool
	lastErr     error
	connectedAt time.Time
	received    uint64
	sent        uint64
	clockSkew   time.Duration
}

func newRecord(d Declaration, reconnectDelay time.Duration) *record {
	r := &record{
		id:       newID(),
		name:     d.Name,
		endpoint: d.Endpoint,
		creds:    d.Credentials,
		channels: irc.NewChannelSet(d.Channels...),
		caps:     dedupe(d.Capabilities),
		phase:    Connecting,
	}
	if reconnectDelay > 0 {
		r.limiter = rate.NewLimiter(rate.Every(reconnectDelay), 1)
		// The declaration's own attempt counts against the budget.
		r.limiter.Allow()
	}
	return r
}

// label names the session in logs and metrics.
func (r *record) label() string {
	if r.name != "" {
		return r.name
	}
	return string(r.id)
}

func (r *record) status() Status {
	st := Status{
		ID:           r.id,
		Name:         r.name,
		Endpoint:     r.endpoint,
		Nick:         r.creds.Nick,
		Phase:        r.phase,
		Connected:    r.sender != nil && r.stream != nil,
		Connecting:   r.pending != nil,
		Idle:         r.idle.Elapsed(),
		Channels:     r.channels.Names(),
		Capabilities: append([]string(nil), r.caps...),
		Queued:       len(r.outbox),
		Received:     r.received,
		Sent:         r.sent,
		ConnectedAt:  r.connectedAt,
		ClockSkew:    r.clockSkew,
	}
	if r.conn != nil {
		st.Joined = r.conn.ListChannels()
	}
	if r.lastErr != nil {
		st.LastError = r.lastErr.Error()
	}
	return st
}

// Status is a point-in-time snapshot of a session.
type Status struct {
	ID       ID
	Name     string
	Endpoint client.Endpoint
	Nick     string
	Phase    Phase
	// Connected is true while both sender and stream are held.
	Connected bool
	// Connecting is true while a connect attempt is in flight.
	Connecting   bool
	Idle         time.Duration
	Channels     []string
	Capabilities []string
	// Joined is the server-observed channel membership.
	Joined      []string
	Queued      int
	Received    uint64
	Sent        uint64
	ConnectedAt time.Time
	// ClockSkew is the local clock's lead over the last server timestamp seen.
	ClockSkew time.Duration
	LastError string
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
