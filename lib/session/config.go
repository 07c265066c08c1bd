package session

import (
	"time"

	"github.com/go-i2p/ircloop/lib/client"
)

// DefaultKeepaliveThreshold is how long a connection may go without a keepalive PING.
const DefaultKeepaliveThreshold = 600 * time.Second

// Config tunes a Manager.
type Config struct {
	// KeepaliveThreshold is the accumulated tick time after which a PING is sent.
	// Zero or negative disables keepalive.
	KeepaliveThreshold time.Duration
	// ReconnectDelay throttles connect attempts per session. Zero retries on the
	// tick after a failure.
	ReconnectDelay time.Duration
	// Workers is the number of sessions processed in parallel during a tick.
	Workers int
	// EventBuffer is the default subscription buffer size.
	EventBuffer int
	// QuitMessage is sent when a connected session is removed.
	QuitMessage string
	// Client is passed to the connector for every attempt. PingInterval is
	// always forced to zero because the manager owns keepalive.
	Client client.Options
}

// DefaultConfig returns the configuration used by NewManager when none is given.
func DefaultConfig() Config {
	return Config{
		KeepaliveThreshold: DefaultKeepaliveThreshold,
		Workers:            1,
		EventBuffer:        256,
		QuitMessage:        "ircloop",
		Client:             client.DefaultOptions(),
	}
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = DefaultConfig().EventBuffer
	}
	c.Client.PingInterval = 0
	return c
}
