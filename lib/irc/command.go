package irc

import (
	"strings"

	"github.com/ergochat/irc-go/ircmsg"
)

// Command is an outbound IRC request.
type Command interface {
	// Verb returns the IRC command name, e.g. "JOIN".
	Verb() string
	// Message builds the wire message for this command.
	Message() ircmsg.Message

	command()
}

// Pass sends the connection password. It must precede Nick.
type Pass struct {
	Password string
}

func (Pass) Verb() string { return "PASS" }

func (c Pass) Message() ircmsg.Message {
	return ircmsg.MakeMessage(nil, "", "PASS", c.Password)
}

// String keeps the password out of logs.
func (Pass) String() string { return "PASS ****" }

// Nick sets or changes the nickname.
type Nick struct {
	Nickname string
}

func (Nick) Verb() string { return "NICK" }

func (c Nick) Message() ircmsg.Message {
	return ircmsg.MakeMessage(nil, "", "NICK", c.Nickname)
}

func (c Nick) String() string { return "NICK " + c.Nickname }

// User completes registration on servers that require it.
type User struct {
	Username string
	Realname string
}

func (User) Verb() string { return "USER" }

func (c User) Message() ircmsg.Message {
	realname := c.Realname
	if realname == "" {
		realname = c.Username
	}
	return ircmsg.MakeMessage(nil, "", "USER", c.Username, "0", "*", realname)
}

func (c User) String() string { return "USER " + c.Username }

// Join requests membership of one channel, with an optional key.
type Join struct {
	Channel string
	Key     string
}

func (Join) Verb() string { return "JOIN" }

func (c Join) Message() ircmsg.Message {
	if c.Key != "" {
		return ircmsg.MakeMessage(nil, "", "JOIN", c.Channel, c.Key)
	}
	return ircmsg.MakeMessage(nil, "", "JOIN", c.Channel)
}

func (c Join) String() string { return "JOIN " + c.Channel }

// Part leaves one channel.
type Part struct {
	Channel string
	Reason  string
}

func (Part) Verb() string { return "PART" }

func (c Part) Message() ircmsg.Message {
	if c.Reason != "" {
		return ircmsg.MakeMessage(nil, "", "PART", c.Channel, c.Reason)
	}
	return ircmsg.MakeMessage(nil, "", "PART", c.Channel)
}

func (c Part) String() string { return "PART " + c.Channel }

// CapReq requests a batch of capabilities in a single CAP REQ line.
type CapReq struct {
	Capabilities []string
}

// NewCapReq builds one combined request for all names.
func NewCapReq(names []string) CapReq {
	caps := make([]string, len(names))
	copy(caps, names)
	return CapReq{Capabilities: caps}
}

func (CapReq) Verb() string { return "CAP" }

// Payload is the space-joined capability list.
func (c CapReq) Payload() string { return strings.Join(c.Capabilities, " ") }

func (c CapReq) Message() ircmsg.Message {
	return ircmsg.MakeMessage(nil, "", "CAP", "REQ", c.Payload())
}

func (c CapReq) String() string { return "CAP REQ :" + c.Payload() }

// Ping asks the server to answer with a PONG. An empty Origin is sent as "PING :".
type Ping struct {
	Origin string
}

func (Ping) Verb() string { return "PING" }

func (c Ping) Message() ircmsg.Message {
	return ircmsg.MakeMessage(nil, "", "PING", c.Origin)
}

func (c Ping) String() string { return "PING :" + c.Origin }

// Pong answers a server PING, echoing its token.
type Pong struct {
	Token string
}

func (Pong) Verb() string { return "PONG" }

func (c Pong) Message() ircmsg.Message {
	return ircmsg.MakeMessage(nil, "", "PONG", c.Token)
}

func (c Pong) String() string { return "PONG :" + c.Token }

// Privmsg sends text to a channel or nickname.
type Privmsg struct {
	Target string
	Text   string
	// Tags are optional client tags, e.g. a reply-parent id.
	Tags map[string]string
}

func (Privmsg) Verb() string { return "PRIVMSG" }

func (c Privmsg) Message() ircmsg.Message {
	return ircmsg.MakeMessage(c.Tags, "", "PRIVMSG", c.Target, c.Text)
}

func (c Privmsg) String() string { return "PRIVMSG " + c.Target }

// Quit closes the connection politely.
type Quit struct {
	Reason string
}

func (Quit) Verb() string { return "QUIT" }

func (c Quit) Message() ircmsg.Message {
	if c.Reason == "" {
		return ircmsg.MakeMessage(nil, "", "QUIT")
	}
	return ircmsg.MakeMessage(nil, "", "QUIT", c.Reason)
}

func (c Quit) String() string { return "QUIT" }

// Raw sends a prebuilt message as-is.
type Raw struct {
	Msg ircmsg.Message
}

func (c Raw) Verb() string { return strings.ToUpper(c.Msg.Command) }

func (c Raw) Message() ircmsg.Message { return c.Msg }

func (c Raw) String() string { return c.Verb() }

func (Pass) command()    {}
func (Nick) command()    {}
func (User) command()    {}
func (Join) command()    {}
func (Part) command()    {}
func (CapReq) command()  {}
func (Ping) command()    {}
func (Pong) command()    {}
func (Privmsg) command() {}
func (Quit) command()    {}
func (Raw) command()     {}
