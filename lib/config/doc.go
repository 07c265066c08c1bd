// Package config loads ircloop's YAML configuration.
//
// # Location
//
// The default file is $HOME/.ircloop/config.yaml. It is created with defaults
// and an example session the first time ircloop starts without --config. An
// explicitly named file must exist.
//
// # Layout
//
//	tick: 50ms
//	manager:
//	  keepalive_threshold: 10m
//	  reconnect_delay: 5s
//	  workers: 1
//	  event_buffer: 256
//	  quit_message: ircloop
//	client:
//	  dial_timeout: 30s
//	  write_timeout: 15s
//	  send_queue: 4096
//	  recv_queue: 256
//	metrics:
//	  address: 127.0.0.1:9464
//	sessions:
//	  - name: twitch
//	    twitch: true
//	    nick: justinfan12345
//	    password_env: TWITCH_OAUTH
//	    channels: ["#somechannel"]
//	    capabilities: [twitch.tv/tags, twitch.tv/commands]
//
// Scalar keys can be overridden with IRCLOOP_* environment variables, for
// example IRCLOOP_MANAGER_WORKERS=4. Sessions are matched by name when a
// changed file is applied to a running manager.
package config
