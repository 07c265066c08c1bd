package skew

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ergochat/irc-go/ircmsg"
	"github.com/go-i2p/logger"
)

var log = logger.GetGoI2PLogger()

// MaxClockSkew is the largest accepted difference between a server timestamp
// and the local clock.
const MaxClockSkew = 60 * time.Minute

const (
	serverTimeTag = "time"
	twitchSentTag = "tmi-sent-ts"
)

// nowFunc is overridable for testing.
var nowFunc = time.Now

// ServerTime returns the timestamp the server attached to msg, if any. The
// IRCv3 time tag wins over Twitch's tmi-sent-ts. Implausible values are
// discarded.
func ServerTime(msg ircmsg.Message) (time.Time, bool) {
	ts, ok := parseTags(&msg)
	if !ok {
		return time.Time{}, false
	}
	if err := ValidateTimestamp(ts); err != nil {
		log.WithFields(logger.Fields{
			"at":      "ServerTime",
			"command": msg.Command,
			"reason":  err.Error(),
		}).Debug("ignoring server timestamp")
		return time.Time{}, false
	}
	return ts, true
}

func parseTags(msg *ircmsg.Message) (time.Time, bool) {
	if present, value := msg.GetTag(serverTimeTag); present {
		if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
			return ts, true
		}
	}
	if present, value := msg.GetTag(twitchSentTag); present {
		if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms > 0 {
			return time.UnixMilli(ms), true
		}
	}
	return time.Time{}, false
}

// Offset is how far the local clock is ahead of the server's: positive when
// the server timestamp is older than the local receive time.
func Offset(server, local time.Time) time.Duration {
	return local.Sub(server)
}

// ValidateTimestamp checks that ts is within ±MaxClockSkew of now. A zero time
// is always rejected.
func ValidateTimestamp(ts time.Time) error {
	return ValidateTimestampWithSkew(ts, MaxClockSkew)
}

// IsTimestampValid is ValidateTimestamp as a boolean.
func IsTimestampValid(ts time.Time) bool {
	return ValidateTimestamp(ts) == nil
}

// ValidateTimestampWithSkew is ValidateTimestamp with a custom window. A
// non-positive maxSkew is an error.
func ValidateTimestampWithSkew(ts time.Time, maxSkew time.Duration) error {
	if maxSkew <= 0 {
		return fmt.Errorf("clock skew: maxSkew must be positive, got %s", maxSkew)
	}
	if ts.IsZero() {
		return fmt.Errorf("clock skew: timestamp is zero")
	}
	skew := nowFunc().Sub(ts)
	if skew > maxSkew {
		return fmt.Errorf("clock skew: timestamp is %s in the past (max %s)", skew, maxSkew)
	}
	if skew < -maxSkew {
		return fmt.Errorf("clock skew: timestamp is %s in the future (max %s)", -skew, maxSkew)
	}
	return nil
}
