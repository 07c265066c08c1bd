package irc

import (
	"fmt"
	"testing"

	"github.com/ergochat/irc-go/ircmsg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandMessages(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Command
		command string
		params  []string
	}{
		{"pass", Pass{Password: "oauth:secret"}, "PASS", []string{"oauth:secret"}},
		{"nick", Nick{Nickname: "justinfan1234"}, "NICK", []string{"justinfan1234"}},
		{"user defaults realname", User{Username: "bot"}, "USER", []string{"bot", "0", "*", "bot"}},
		{"join", Join{Channel: "#a"}, "JOIN", []string{"#a"}},
		{"join with key", Join{Channel: "#a", Key: "k"}, "JOIN", []string{"#a", "k"}},
		{"part", Part{Channel: "#a"}, "PART", []string{"#a"}},
		{"ping empty origin", Ping{}, "PING", []string{""}},
		{"pong echoes token", Pong{Token: "tmi.twitch.tv"}, "PONG", []string{"tmi.twitch.tv"}},
		{"privmsg", Privmsg{Target: "#a", Text: "hello there"}, "PRIVMSG", []string{"#a", "hello there"}},
		{"quit without reason", Quit{}, "QUIT", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.cmd.Message()
			assert.Equal(t, tt.command, msg.Command)
			assert.Equal(t, tt.command, tt.cmd.Verb())
			if tt.params == nil {
				assert.Empty(t, msg.Params)
			} else {
				assert.Equal(t, tt.params, msg.Params)
			}
		})
	}
}

func TestCapReqIsSingleCombinedLine(t *testing.T) {
	req := NewCapReq([]string{"twitch.tv/tags", "twitch.tv/commands", "twitch.tv/membership"})

	assert.Equal(t, "twitch.tv/tags twitch.tv/commands twitch.tv/membership", req.Payload())

	msg := req.Message()
	assert.Equal(t, "CAP", msg.Command)
	require.Len(t, msg.Params, 2)
	assert.Equal(t, "REQ", msg.Params[0])

	line, err := msg.Line()
	require.NoError(t, err)
	assert.Equal(t, "CAP REQ :twitch.tv/tags twitch.tv/commands twitch.tv/membership\r\n", line)
}

func TestNewCapReqCopiesInput(t *testing.T) {
	names := []string{"a", "b"}
	req := NewCapReq(names)
	names[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, req.Capabilities)
}

func TestPassStringRedactsPassword(t *testing.T) {
	p := Pass{Password: "hunter2"}
	assert.NotContains(t, fmt.Sprint(p), "hunter2")
}

func TestRawPassesMessageThrough(t *testing.T) {
	msg := ircmsg.MakeMessage(nil, "", "whois", "someone")
	raw := Raw{Msg: msg}
	assert.Equal(t, "WHOIS", raw.Verb())
	assert.Equal(t, msg, raw.Message())
}
