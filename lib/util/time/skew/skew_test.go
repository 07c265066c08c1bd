package skew

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ergochat/irc-go/ircmsg"
)

func freeze(t *testing.T, now time.Time) {
	t.Helper()
	nowFunc = func() time.Time { return now }
	t.Cleanup(func() { nowFunc = time.Now })
}

func TestValidateTimestampWindow(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	freeze(t, now)

	tests := []struct {
		name  string
		ts    time.Time
		valid bool
		want  string
	}{
		{"now", now, true, ""},
		{"59 minutes ago", now.Add(-59 * time.Minute), true, ""},
		{"59 minutes ahead", now.Add(59 * time.Minute), true, ""},
		{"61 minutes ago", now.Add(-61 * time.Minute), false, "in the past"},
		{"61 minutes ahead", now.Add(61 * time.Minute), false, "in the future"},
		{"zero", time.Time{}, false, "zero"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTimestamp(tc.ts)
			if tc.valid {
				if err != nil {
					t.Errorf("expected valid, got %v", err)
				}
				if !IsTimestampValid(tc.ts) {
					t.Error("IsTimestampValid disagrees with ValidateTimestamp")
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %v, want it to mention %q", err, tc.want)
			}
		})
	}
}

func TestValidateTimestampWithSkewRejectsNonPositive(t *testing.T) {
	if err := ValidateTimestampWithSkew(time.Now(), 0); err == nil {
		t.Error("expected error for zero maxSkew")
	}
}

func parse(t *testing.T, line string) ircmsg.Message {
	t.Helper()
	msg, err := ircmsg.ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine(%q): %v", line, err)
	}
	return msg
}

func TestServerTimeFromIRCv3Tag(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	freeze(t, now)

	msg := parse(t, "@time=2026-10-19T11:59:58.500Z :nick!u@h PRIVMSG #a :hi")
	ts, ok := ServerTime(msg)
	if !ok {
		t.Fatal("expected a server time")
	}
	if got := Offset(ts, now); got != 1500*time.Millisecond {
		t.Errorf("offset = %s, want 1.5s", got)
	}
}

func TestServerTimeFromTwitchTag(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	freeze(t, now)

	sent := now.Add(-250 * time.Millisecond).UnixMilli()
	msg := parse(t, "@tmi-sent-ts="+strconv.FormatInt(sent, 10)+" :nick!u@h PRIVMSG #a :hi")
	ts, ok := ServerTime(msg)
	if !ok {
		t.Fatal("expected a server time")
	}
	if !ts.Equal(time.UnixMilli(sent)) {
		t.Errorf("ts = %s, want %s", ts, time.UnixMilli(sent))
	}
}

func TestServerTimeAbsentOrImplausible(t *testing.T) {
	freeze(t, time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))

	for _, line := range []string{
		":nick!u@h PRIVMSG #a :no tags",
		"@time=garbage :nick!u@h PRIVMSG #a :bad",
		"@time=2001-01-01T00:00:00.000Z :nick!u@h PRIVMSG #a :ancient",
	} {
		if _, ok := ServerTime(parse(t, line)); ok {
			t.Errorf("%q: expected no server time", line)
		}
	}
}
