// Package client is the IRC transport boundary used by the session orchestrator.
//
// It exposes four things and nothing more:
//
//   - Connector.Connect, which starts a connection attempt and returns a Future
//     that can be polled without blocking;
//   - Client.Sender, whose Send enqueues one outbound command or fails at once;
//   - Client.Stream, whose Next returns the next parsed message, ErrWouldBlock
//     when nothing is ready, or io.EOF once the connection has ended;
//   - Client.ListChannels, a snapshot of the channels the server says we are in.
//
// Dialer is the TCP/TLS implementation. Each connection runs one reader and one
// writer goroutine; callers never block on either. Lines are read with
// ircreader and parsed and encoded with ircmsg from github.com/ergochat/irc-go.
//
// The library-level keepalive (Options.PingInterval) is off unless requested;
// the session layer owns keepalive and always leaves it off.
package client
