package config

import (
	"path/filepath"
	"time"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const redacted = "****"

// Render returns cfg as YAML in the file layout. Inline passwords are redacted.
func Render(cfg *Config) ([]byte, error) {
	out, err := yaml.Marshal(document(cfg, true))
	if err != nil {
		return nil, oops.In("config").Wrapf(err, "render config")
	}
	return out, nil
}

// WriteDefault writes the default configuration plus an example session to
// path, creating its directory.
func WriteDefault(path string) error {
	cfg := Defaults()
	cfg.Sessions = []SessionConfig{exampleSession()}
	data, err := yaml.Marshal(document(&cfg, false))
	if err != nil {
		return oops.In("config").Wrapf(err, "encode default config")
	}
	if err := CreateSecureDirectory(filepath.Dir(path)); err != nil {
		return err
	}
	if err := WriteSecureFile(path, data); err != nil {
		return err
	}
	log.WithFields(logger.Fields{
		"at":   "WriteDefault",
		"path": path,
	}).Info("created default configuration")
	return nil
}

// document mirrors the mapstructure layout with durations spelled the way
// viper parses them back.
func document(cfg *Config, redact bool) map[string]any {
	sessions := make([]map[string]any, 0, len(cfg.Sessions))
	for _, s := range cfg.Sessions {
		sessions = append(sessions, sessionDocument(s, redact))
	}
	return map[string]any{
		"tick": duration(cfg.Tick),
		"manager": map[string]any{
			"keepalive_threshold": duration(cfg.Manager.KeepaliveThreshold),
			"reconnect_delay":     duration(cfg.Manager.ReconnectDelay),
			"workers":             cfg.Manager.Workers,
			"event_buffer":        cfg.Manager.EventBuffer,
			"quit_message":        cfg.Manager.QuitMessage,
		},
		"client": map[string]any{
			"dial_timeout":  duration(cfg.Client.DialTimeout),
			"write_timeout": duration(cfg.Client.WriteTimeout),
			"send_queue":    cfg.Client.SendQueue,
			"recv_queue":    cfg.Client.RecvQueue,
		},
		"metrics": map[string]any{
			"address": cfg.Metrics.Address,
		},
		"sessions": sessions,
	}
}

func sessionDocument(s SessionConfig, redact bool) map[string]any {
	doc := map[string]any{
		"name":         s.Name,
		"nick":         s.Nick,
		"channels":     nonNil(s.Channels),
		"capabilities": nonNil(s.Capabilities),
	}
	if s.Twitch {
		doc["twitch"] = true
	} else {
		doc["host"] = s.Host
		doc["port"] = s.Port
		doc["tls"] = s.TLS
	}
	if s.Password != "" {
		if redact {
			doc["password"] = redacted
		} else {
			doc["password"] = s.Password
		}
	}
	if s.PasswordEnv != "" {
		doc["password_env"] = s.PasswordEnv
	}
	if s.Username != "" {
		doc["username"] = s.Username
	}
	if s.Realname != "" {
		doc["realname"] = s.Realname
	}
	if len(s.Announcements) > 0 {
		list := make([]map[string]any, 0, len(s.Announcements))
		for _, a := range s.Announcements {
			list = append(list, map[string]any{
				"schedule": a.Schedule,
				"target":   a.Target,
				"text":     a.Text,
			})
		}
		doc["announcements"] = list
	}
	return doc
}

func duration(d time.Duration) string {
	return d.String()
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
