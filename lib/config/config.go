package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
	"github.com/spf13/viper"

	"github.com/go-i2p/ircloop/lib/client"
	"github.com/go-i2p/ircloop/lib/schedule"
	"github.com/go-i2p/ircloop/lib/session"
	"github.com/go-i2p/ircloop/lib/util"
)

var (
	// CfgFile is the --config flag value. Empty selects DefaultPath.
	CfgFile string
	log     = logger.GetGoI2PLogger()
)

// BaseDirName is the directory under the user's home holding ircloop state.
const BaseDirName = ".ircloop"

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrInvalidConfig  = errors.New("invalid config")
)

// Config is the whole configuration file.
type Config struct {
	Tick     time.Duration   `mapstructure:"tick"`
	Manager  ManagerConfig   `mapstructure:"manager"`
	Client   ClientConfig    `mapstructure:"client"`
	Metrics  MetricsConfig   `mapstructure:"metrics"`
	Sessions []SessionConfig `mapstructure:"sessions"`
}

type ManagerConfig struct {
	KeepaliveThreshold time.Duration `mapstructure:"keepalive_threshold"`
	ReconnectDelay     time.Duration `mapstructure:"reconnect_delay"`
	Workers            int           `mapstructure:"workers"`
	EventBuffer        int           `mapstructure:"event_buffer"`
	QuitMessage        string        `mapstructure:"quit_message"`
}

type ClientConfig struct {
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	SendQueue    int           `mapstructure:"send_queue"`
	RecvQueue    int           `mapstructure:"recv_queue"`
}

// MetricsConfig enables the Prometheus endpoint when Address is set.
type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

// SessionConfig declares one session.
type SessionConfig struct {
	Name string `mapstructure:"name"`
	// Twitch selects Twitch's TLS gateway and ignores Host, Port and TLS.
	Twitch bool   `mapstructure:"twitch"`
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	TLS    bool   `mapstructure:"tls"`

	Nick     string `mapstructure:"nick"`
	Password string `mapstructure:"password"`
	// PasswordEnv names an environment variable that overrides Password.
	PasswordEnv string `mapstructure:"password_env"`
	Username    string `mapstructure:"username"`
	Realname    string `mapstructure:"realname"`

	Channels     []string `mapstructure:"channels"`
	Capabilities []string `mapstructure:"capabilities"`

	Announcements []AnnouncementConfig `mapstructure:"announcements"`
}

// AnnouncementConfig sends Text to Target on a cron schedule while the
// session is registered.
type AnnouncementConfig struct {
	Schedule string `mapstructure:"schedule"`
	Target   string `mapstructure:"target"`
	Text     string `mapstructure:"text"`
}

// Endpoint resolves the server address.
func (s SessionConfig) Endpoint() client.Endpoint {
	if s.Twitch {
		return client.TwitchEndpoint()
	}
	return client.Endpoint{Host: s.Host, Port: s.Port, TLS: s.TLS}
}

// Credentials resolves the handshake credentials, reading PasswordEnv if set.
func (s SessionConfig) Credentials() session.Credentials {
	password := s.Password
	if s.PasswordEnv != "" {
		if v, ok := os.LookupEnv(s.PasswordEnv); ok {
			password = v
		}
	}
	return session.Credentials{
		Nick:     s.Nick,
		Password: password,
		Username: s.Username,
		Realname: s.Realname,
	}
}

// Declaration converts the entry into a session declaration.
func (s SessionConfig) Declaration() session.Declaration {
	return session.Declaration{
		Name:         s.Name,
		Endpoint:     s.Endpoint(),
		Credentials:  s.Credentials(),
		Channels:     append([]string(nil), s.Channels...),
		Capabilities: append([]string(nil), s.Capabilities...),
	}
}

// Announcements flattens every session's announcements.
func (c *Config) Announcements() []schedule.Announcement {
	var out []schedule.Announcement
	for _, s := range c.Sessions {
		for _, a := range s.Announcements {
			out = append(out, schedule.Announcement{
				Session:  s.Name,
				Schedule: a.Schedule,
				Target:   a.Target,
				Text:     a.Text,
			})
		}
	}
	return out
}

// SessionConfig returns the manager configuration.
func (c *Config) SessionConfig() session.Config {
	cfg := session.DefaultConfig()
	cfg.KeepaliveThreshold = c.Manager.KeepaliveThreshold
	cfg.ReconnectDelay = c.Manager.ReconnectDelay
	cfg.Workers = c.Manager.Workers
	cfg.EventBuffer = c.Manager.EventBuffer
	cfg.QuitMessage = c.Manager.QuitMessage
	cfg.Client.DialTimeout = c.Client.DialTimeout
	cfg.Client.WriteTimeout = c.Client.WriteTimeout
	cfg.Client.SendQueue = c.Client.SendQueue
	cfg.Client.RecvQueue = c.Client.RecvQueue
	return cfg
}

// Validate checks what the manager cannot: the tick period, session names and
// announcement schedules.
func (c *Config) Validate() error {
	if c.Tick <= 0 {
		return fmt.Errorf("%w: tick must be positive, got %s", ErrInvalidConfig, c.Tick)
	}
	seen := make(map[string]struct{}, len(c.Sessions))
	for i, s := range c.Sessions {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("%w: sessions[%d] has no name", ErrInvalidConfig, i)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("%w: duplicate session name %q", ErrInvalidConfig, s.Name)
		}
		seen[s.Name] = struct{}{}
		if s.Nick == "" {
			return fmt.Errorf("%w: session %q has no nick", ErrInvalidConfig, s.Name)
		}
		if !s.Twitch && (s.Host == "" || s.Port <= 0) {
			return fmt.Errorf("%w: session %q needs host and port", ErrInvalidConfig, s.Name)
		}
		for j, a := range s.Announcements {
			if a.Target == "" || a.Text == "" {
				return fmt.Errorf("%w: session %q announcements[%d] needs target and text", ErrInvalidConfig, s.Name, j)
			}
			if err := schedule.Parse(a.Schedule); err != nil {
				return fmt.Errorf("%w: session %q announcements[%d]: %v", ErrInvalidConfig, s.Name, j, err)
			}
		}
	}
	return nil
}

// BuildDirPath returns $HOME/.ircloop.
func BuildDirPath() string {
	return filepath.Join(util.UserHome(), BaseDirName)
}

// DefaultPath returns $HOME/.ircloop/config.yaml.
func DefaultPath() string {
	return filepath.Join(BuildDirPath(), "config.yaml")
}

// Loader reads one configuration file through its own viper instance. The
// instance is not safe for concurrent use, so every read and decode holds mu.
type Loader struct {
	mu       sync.Mutex
	v        *viper.Viper
	path     string
	explicit bool
}

// NewLoader returns a Loader for path, or for DefaultPath when path is empty.
func NewLoader(path string) *Loader {
	v := viper.New()
	setDefaults(v)
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("IRCLOOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v, path: path, explicit: explicit}
}

// Path is the file the loader reads.
func (l *Loader) Path() string {
	return l.path
}

// Load reads and validates the file. A missing default file is created first.
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.read(); err != nil {
		if !isNotFound(err) {
			return nil, oops.In("config").With("path", l.path).Wrapf(err, "read config")
		}
		if l.explicit {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, l.path)
		}
		if err := WriteDefault(l.path); err != nil {
			return nil, err
		}
		if err := l.read(); err != nil {
			return nil, oops.In("config").With("path", l.path).Wrapf(err, "read default config")
		}
	}
	return l.decode()
}

// Reload re-reads the file, for SIGHUP and file changes.
func (l *Loader) Reload() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.read(); err != nil {
		return nil, oops.In("config").With("path", l.path).Wrapf(err, "reload config")
	}
	return l.decode()
}

// Watch calls fn with the reloaded configuration whenever the file is written
// or replaced, until ctx is done. The directory is watched so editors that
// save by rename are still seen.
func (l *Loader) Watch(ctx context.Context, fn func(*Config, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return oops.In("config").With("path", l.path).Wrapf(err, "watch config")
	}
	file := filepath.Clean(l.path)
	if err := w.Add(filepath.Dir(file)); err != nil {
		_ = w.Close()
		return oops.In("config").With("path", l.path).Wrapf(err, "watch config")
	}
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(e.Name) != file || e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				log.WithFields(logger.Fields{
					"at":   "(Loader) Watch",
					"path": e.Name,
					"op":   e.Op.String(),
				}).Info("config file changed")
				fn(l.Reload())
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.WithFields(logger.Fields{
					"at":     "(Loader) Watch",
					"path":   l.path,
					"reason": err.Error(),
				}).Warn("config watcher error")
			}
		}
	}()
	return nil
}

// read loads the file into the viper instance. Caller holds l.mu.
func (l *Loader) read() error {
	if err := l.v.ReadInConfig(); err != nil {
		return err
	}
	log.WithFields(logger.Fields{
		"at":   "(Loader) read",
		"path": l.v.ConfigFileUsed(),
	}).Debug("using config file")
	return nil
}

// decode unmarshals and validates the last read. Caller holds l.mu.
func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	CheckConfigPermissions(l.path, &cfg)
	return &cfg, nil
}

func isNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, fs.ErrNotExist)
}
