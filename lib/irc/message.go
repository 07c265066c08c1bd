package irc

import (
	"strings"

	"github.com/ergochat/irc-go/ircmsg"
)

// Numeric replies the orchestrator reacts to.
const (
	RplWelcome = "001"
)

// IsWelcome reports whether msg confirms registration.
func IsWelcome(msg ircmsg.Message) bool {
	return msg.Command == RplWelcome
}

// PingToken returns the token of a server PING so it can be echoed in a PONG.
func PingToken(msg ircmsg.Message) (string, bool) {
	if !strings.EqualFold(msg.Command, "PING") {
		return "", false
	}
	if len(msg.Params) == 0 {
		return "", true
	}
	return msg.Params[0], true
}

// SourceNick extracts the nickname from a "nick!user@host" source.
func SourceNick(source string) string {
	if i := strings.IndexAny(source, "!@"); i >= 0 {
		return source[:i]
	}
	return source
}

// Fold case-folds a nickname or channel name using rfc1459 casemapping.
func Fold(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'A' && c <= 'Z':
			c += 'a' - 'A'
		case c == '[':
			c = '{'
		case c == ']':
			c = '}'
		case c == '\\':
			c = '|'
		case c == '~':
			c = '^'
		}
		b.WriteByte(c)
	}
	return b.String()
}
