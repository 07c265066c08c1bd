// Package irc holds the protocol vocabulary shared by the session orchestrator
// and the client transport.
//
// # Commands
//
// Outbound requests are a closed set of concrete types implementing Command:
//
//	Pass, Nick, User, Join, Part, CapReq, Ping, Pong, Privmsg, Quit, Raw
//
// Every component that wants something sent builds one of these values and
// hands it to the session's outbound dispatcher, so there is exactly one send
// signature regardless of the command kind. Raw covers anything the set does
// not model by wrapping an already-built ircmsg.Message.
//
// Encoding to wire lines is delegated to github.com/ergochat/irc-go/ircmsg.
//
// # Channel sets
//
// ChannelSet is an ordered, case-folded set of channel names. Diff computes the
// join and part lists needed to move an observed channel list to a desired one;
// it is the core of channel reconciliation.
package irc
