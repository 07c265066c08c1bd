package client

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"time"

	"github.com/ergochat/irc-go/ircmsg"

	"github.com/go-i2p/ircloop/lib/irc"
)

// Connector starts connection attempts.
type Connector interface {
	Connect(ctx context.Context, endpoint Endpoint, opts Options) *Future
}

// Client is a connected IRC client.
type Client interface {
	Sender() Sender
	Stream() Stream
	// ListChannels returns the channels the server has confirmed we joined.
	ListChannels() []string
	Close() error
}

// Sender enqueues outbound commands. Send never blocks.
type Sender interface {
	Send(cmd irc.Command) error
}

// Stream yields inbound messages. Next never blocks: it returns ErrWouldBlock
// when nothing is buffered and io.EOF once the connection has ended.
type Stream interface {
	Next() (ircmsg.Message, error)
}

// Endpoint is the address of an IRC server.
type Endpoint struct {
	Host string
	Port int
	TLS  bool
}

// Address returns host:port.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

func (e Endpoint) String() string {
	if e.TLS {
		return "ircs://" + e.Address()
	}
	return "irc://" + e.Address()
}

// TwitchEndpoint is Twitch's IRC gateway.
func TwitchEndpoint() Endpoint {
	return Endpoint{Host: "irc.chat.twitch.tv", Port: 6697, TLS: true}
}

// Options tune a single connection.
type Options struct {
	// DialTimeout bounds the TCP and TLS handshake. Zero means no limit.
	DialTimeout time.Duration
	// WriteTimeout bounds each line write. Zero means no limit.
	WriteTimeout time.Duration
	// PingInterval enables library-level keepalive. Zero disables it.
	PingInterval time.Duration
	// SendQueue caps the lines waiting to be written. Send fails with
	// ErrSendQueueFull beyond it.
	SendQueue int
	// RecvQueue is the inbound message buffer size.
	RecvQueue int
	// TLSConfig overrides the default TLS configuration when Endpoint.TLS is set.
	TLSConfig *tls.Config
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		DialTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Second,
		SendQueue:    4096,
		RecvQueue:    256,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SendQueue <= 0 {
		o.SendQueue = d.SendQueue
	}
	if o.RecvQueue <= 0 {
		o.RecvQueue = d.RecvQueue
	}
	return o
}
