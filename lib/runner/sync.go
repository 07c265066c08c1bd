package runner

import (
	"errors"
	"fmt"

	"github.com/go-i2p/logger"

	"github.com/go-i2p/ircloop/lib/config"
	"github.com/go-i2p/ircloop/lib/session"
)

// Sync makes the manager's sessions match cfg, matching by name:
//
//   - sessions missing from cfg are removed;
//   - sessions whose endpoint changed are removed and declared again;
//   - new sessions are declared;
//   - for the rest, channels, capabilities and credentials are updated in
//     place. Credentials take effect on the next connection.
//
// The tick period and the announcement schedule are updated too. Manager
// tuning (workers, keepalive and the like) is fixed when the manager is
// created.
func (r *Runner) Sync(cfg *config.Config) error {
	r.syncMu.Lock()
	defer r.syncMu.Unlock()

	desired := make(map[string]config.SessionConfig, len(cfg.Sessions))
	for _, sc := range cfg.Sessions {
		desired[sc.Name] = sc
	}

	var errs []error
	for name, prev := range r.applied {
		next, keep := desired[name]
		if keep && next.Endpoint() == prev.Endpoint() {
			continue
		}
		if id, ok := r.mgr.Lookup(name); ok {
			if err := r.mgr.Remove(id); err != nil {
				errs = append(errs, err)
			}
		}
		delete(r.applied, name)
		log.WithFields(logger.Fields{
			"at":      "(Runner) Sync",
			"session": name,
			"replace": keep,
		}).Info("session removed")
	}

	for _, sc := range cfg.Sessions {
		if _, ok := r.applied[sc.Name]; !ok {
			if _, err := r.mgr.Declare(sc.Declaration()); err != nil {
				errs = append(errs, fmt.Errorf("session %q: %w", sc.Name, err))
				continue
			}
			r.applied[sc.Name] = sc
			log.WithFields(logger.Fields{
				"at":       "(Runner) Sync",
				"session":  sc.Name,
				"endpoint": sc.Endpoint().String(),
			}).Info("session declared")
			continue
		}
		if err := r.update(sc); err != nil {
			errs = append(errs, fmt.Errorf("session %q: %w", sc.Name, err))
			continue
		}
		r.applied[sc.Name] = sc
	}

	if err := r.sched.Apply(cfg.Announcements()); err != nil {
		errs = append(errs, err)
	}
	r.setTick(cfg.Tick)
	return errors.Join(errs...)
}

func (r *Runner) update(sc config.SessionConfig) error {
	id, ok := r.mgr.Lookup(sc.Name)
	if !ok {
		return session.ErrUnknownSession
	}
	if err := r.mgr.SetChannels(id, sc.Channels); err != nil {
		return err
	}
	if err := r.mgr.SetCapabilities(id, sc.Capabilities); err != nil {
		return err
	}
	return r.mgr.SetCredentials(id, sc.Credentials())
}
