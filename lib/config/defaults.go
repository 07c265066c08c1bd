package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/go-i2p/ircloop/lib/client"
	"github.com/go-i2p/ircloop/lib/session"
)

// DefaultTick is the host loop period.
const DefaultTick = 50 * time.Millisecond

// DefaultReconnectDelay spaces connect attempts from the file-driven runner.
// The library itself retries on the next tick.
const DefaultReconnectDelay = 5 * time.Second

// Defaults returns the configuration used for any key the file omits.
func Defaults() Config {
	mgr := session.DefaultConfig()
	cli := client.DefaultOptions()
	return Config{
		Tick: DefaultTick,
		Manager: ManagerConfig{
			KeepaliveThreshold: mgr.KeepaliveThreshold,
			ReconnectDelay:     DefaultReconnectDelay,
			Workers:            mgr.Workers,
			EventBuffer:        mgr.EventBuffer,
			QuitMessage:        mgr.QuitMessage,
		},
		Client: ClientConfig{
			DialTimeout:  cli.DialTimeout,
			WriteTimeout: cli.WriteTimeout,
			SendQueue:    cli.SendQueue,
			RecvQueue:    cli.RecvQueue,
		},
	}
}

// exampleSession is written into a freshly created default file.
func exampleSession() SessionConfig {
	return SessionConfig{
		Name:         "twitch",
		Twitch:       true,
		Nick:         "justinfan12345",
		PasswordEnv:  "TWITCH_OAUTH",
		Channels:     []string{"#twitchdev"},
		Capabilities: []string{"twitch.tv/tags", "twitch.tv/commands"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()

	v.SetDefault("tick", d.Tick)

	v.SetDefault("manager.keepalive_threshold", d.Manager.KeepaliveThreshold)
	v.SetDefault("manager.reconnect_delay", d.Manager.ReconnectDelay)
	v.SetDefault("manager.workers", d.Manager.Workers)
	v.SetDefault("manager.event_buffer", d.Manager.EventBuffer)
	v.SetDefault("manager.quit_message", d.Manager.QuitMessage)

	v.SetDefault("client.dial_timeout", d.Client.DialTimeout)
	v.SetDefault("client.write_timeout", d.Client.WriteTimeout)
	v.SetDefault("client.send_queue", d.Client.SendQueue)
	v.SetDefault("client.recv_queue", d.Client.RecvQueue)

	v.SetDefault("metrics.address", d.Metrics.Address)
	v.SetDefault("sessions", []map[string]any{})
}
