// Package skew reads server-supplied message timestamps and checks them
// against the local clock.
//
// IRCv3 servers with the server-time capability tag messages with
// @time=2006-01-02T15:04:05.000Z; Twitch adds tmi-sent-ts in Unix
// milliseconds. Timestamps further than MaxClockSkew from the local clock are
// treated as absent.
//
// Usage:
//
//	if ts, ok := skew.ServerTime(msg); ok {
//	    offset := skew.Offset(ts, received)
//	}
package skew
