package client

import (
	"io"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ergochat/irc-go/ircmsg"
	"github.com/ergochat/irc-go/ircreader"
	"github.com/go-i2p/logger"

	"github.com/go-i2p/ircloop/lib/irc"
)

var log = logger.GetGoI2PLogger()

const closeFlushTimeout = 2 * time.Second

type inbound struct {
	msg ircmsg.Message
	err error
}

// conn is a Client over a net.Conn. One goroutine reads and parses lines into
// in; another drains the outbound queue to the socket.
type conn struct {
	nc       net.Conn
	endpoint Endpoint
	opts     Options

	outMu  sync.Mutex
	out    []string
	wakeup chan struct{}
	in     chan inbound

	closed    chan struct{}
	closeOnce sync.Once

	mu       sync.RWMutex
	nick     string
	channels map[string]string // folded -> name as the server reported it
}

var (
	_ Client = (*conn)(nil)
	_ Sender = (*conn)(nil)
	_ Stream = (*conn)(nil)
)

func newConn(nc net.Conn, endpoint Endpoint, opts Options) *conn {
	opts = opts.withDefaults()
	c := &conn{
		nc:       nc,
		endpoint: endpoint,
		opts:     opts,
		wakeup:   make(chan struct{}, 1),
		in:       make(chan inbound, opts.RecvQueue),
		closed:   make(chan struct{}),
		channels: make(map[string]string),
	}
	go c.readLoop()
	go c.writeLoop()
	return c
}

func (c *conn) Sender() Sender { return c }

func (c *conn) Stream() Stream { return c }

// Send encodes cmd and queues it for the writer goroutine. The queue grows as
// needed up to Options.SendQueue lines.
func (c *conn) Send(cmd irc.Command) error {
	msg := cmd.Message()
	line, err := msg.Line()
	if err != nil {
		return err
	}
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	c.outMu.Lock()
	if len(c.out) >= c.opts.SendQueue {
		c.outMu.Unlock()
		return ErrSendQueueFull
	}
	c.out = append(c.out, line)
	c.outMu.Unlock()
	select {
	case c.wakeup <- struct{}{}:
	default:
	}
	if nick, ok := cmd.(irc.Nick); ok {
		c.mu.Lock()
		if c.nick == "" {
			c.nick = nick.Nickname
		}
		c.mu.Unlock()
	}
	return nil
}

// Next returns the next buffered message without waiting for the network.
func (c *conn) Next() (ircmsg.Message, error) {
	select {
	case r, ok := <-c.in:
		if !ok {
			return ircmsg.Message{}, io.EOF
		}
		return r.msg, r.err
	default:
		return ircmsg.Message{}, ErrWouldBlock
	}
}

func (c *conn) ListChannels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.channels))
	for _, name := range c.channels {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Close stops both goroutines. Lines already queued are written before the
// socket is closed, bounded by closeFlushTimeout.
func (c *conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.nc.SetWriteDeadline(time.Now().Add(closeFlushTimeout))
		log.WithFields(logger.Fields{
			"at":       "(conn) Close",
			"endpoint": c.endpoint.String(),
		}).Debug("connection closing")
	})
	return nil
}

func (c *conn) readLoop() {
	defer close(c.in)
	reader := ircreader.NewIRCReader(c.nc)
	for {
		line, err := reader.ReadLine()
		if err != nil {
			select {
			case <-c.closed:
				// Close was requested; report a clean end of stream.
			default:
				if err != io.EOF {
					c.push(inbound{err: err})
				}
			}
			_ = c.Close()
			return
		}
		msg, err := ircmsg.ParseLine(string(line))
		if err != nil {
			if err != ircmsg.ErrorLineIsEmpty {
				log.WithFields(logger.Fields{
					"at":       "(conn) readLoop",
					"endpoint": c.endpoint.String(),
					"reason":   err.Error(),
				}).Warn("dropping malformed line")
			}
			continue
		}
		c.track(msg)
		if !c.push(inbound{msg: msg}) {
			return
		}
	}
}

func (c *conn) push(r inbound) bool {
	select {
	case c.in <- r:
		return true
	case <-c.closed:
		return false
	}
}

func (c *conn) writeLoop() {
	defer c.nc.Close()
	var ping <-chan time.Time
	if c.opts.PingInterval > 0 {
		t := time.NewTicker(c.opts.PingInterval)
		defer t.Stop()
		ping = t.C
	}
	for {
		var lines []string
		select {
		case <-c.closed:
			c.flush()
			return
		case <-c.wakeup:
			lines = c.take()
		case <-ping:
			lines = []string{"PING :keepalive\r\n"}
		}
		for _, line := range lines {
			if c.opts.WriteTimeout > 0 {
				_ = c.nc.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			}
			if _, err := io.WriteString(c.nc, line); err != nil {
				log.WithFields(logger.Fields{
					"at":       "(conn) writeLoop",
					"endpoint": c.endpoint.String(),
					"reason":   err.Error(),
				}).Warn("write failed, closing connection")
				_ = c.Close()
				return
			}
		}
	}
}

// take empties the outbound queue.
func (c *conn) take() []string {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	lines := c.out
	c.out = nil
	return lines
}

func (c *conn) flush() {
	for _, line := range c.take() {
		if _, err := io.WriteString(c.nc, line); err != nil {
			return
		}
	}
}

// track keeps the nickname and joined-channel snapshot in step with what the
// server reports about us.
func (c *conn) track(msg ircmsg.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch strings.ToUpper(msg.Command) {
	case irc.RplWelcome:
		if len(msg.Params) > 0 {
			c.nick = msg.Params[0]
		}
	case "NICK":
		if c.isSelf(msg.Source) && len(msg.Params) > 0 {
			c.nick = msg.Params[0]
		}
	case "JOIN":
		if c.isSelf(msg.Source) && len(msg.Params) > 0 {
			for _, name := range strings.Split(msg.Params[0], ",") {
				c.channels[irc.Fold(name)] = name
			}
		}
	case "PART":
		if c.isSelf(msg.Source) && len(msg.Params) > 0 {
			for _, name := range strings.Split(msg.Params[0], ",") {
				delete(c.channels, irc.Fold(name))
			}
		}
	case "KICK":
		if len(msg.Params) > 1 && c.nick != "" && irc.Fold(msg.Params[1]) == irc.Fold(c.nick) {
			delete(c.channels, irc.Fold(msg.Params[0]))
		}
	}
}

func (c *conn) isSelf(source string) bool {
	return c.nick != "" && irc.Fold(irc.SourceNick(source)) == irc.Fold(c.nick)
}
