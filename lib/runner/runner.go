// Package runner hosts a session.Manager: it owns the periodic tick and applies
// configuration files to the set of declared sessions.
package runner

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-i2p/logger"

	"github.com/go-i2p/ircloop/lib/client"
	"github.com/go-i2p/ircloop/lib/config"
	"github.com/go-i2p/ircloop/lib/schedule"
	"github.com/go-i2p/ircloop/lib/session"
	"github.com/go-i2p/ircloop/lib/util/time/monotonic"
)

var log = logger.GetGoI2PLogger()

var (
	ErrAlreadyRunning = errors.New("runner is already running")
	ErrStopped        = errors.New("runner has stopped")
)

// Runner ticks a Manager from its own goroutine.
type Runner struct {
	mgr   *session.Manager
	sched *schedule.Scheduler
	tick  atomic.Int64

	// closeChnl is closed when the main loop has exited.
	closeChnl chan struct{}
	stopChnl  chan struct{}
	stopOnce  sync.Once
	running   bool
	started   bool
	runMux    sync.RWMutex

	syncMu  sync.Mutex
	applied map[string]config.SessionConfig
}

// New returns a Runner that ticks mgr every period.
func New(mgr *session.Manager, period time.Duration) *Runner {
	r := &Runner{
		mgr:       mgr,
		sched:     schedule.New(mgr),
		closeChnl: make(chan struct{}),
		stopChnl:  make(chan struct{}),
		applied:   make(map[string]config.SessionConfig),
	}
	r.setTick(period)
	return r
}

// FromConfig builds a Manager from cfg, declares its sessions and returns a
// Runner for it. Sessions that fail to declare are reported in the error; the
// rest are kept.
func FromConfig(cfg *config.Config, connector client.Connector, opts ...session.Option) (*Runner, error) {
	mgr := session.NewManager(connector, cfg.SessionConfig(), opts...)
	r := New(mgr, cfg.Tick)
	err := r.Sync(cfg)
	log.WithFields(logger.Fields{
		"at":       "FromConfig",
		"sessions": len(cfg.Sessions),
		"tick":     cfg.Tick.String(),
	}).Debug("runner created")
	return r, err
}

// Manager returns the hosted manager.
func (r *Runner) Manager() *session.Manager {
	return r.mgr
}

// Start launches the main loop. A Runner can be started once.
func (r *Runner) Start() error {
	r.runMux.Lock()
	defer r.runMux.Unlock()

	if r.running {
		log.WithFields(logger.Fields{
			"at":     "(Runner) Start",
			"reason": "runner is already running",
		}).Error("error starting runner")
		return ErrAlreadyRunning
	}
	if r.started {
		return ErrStopped
	}
	log.Debug("starting runner")
	r.running = true
	r.started = true
	r.sched.Start()
	go r.mainloop()
	return nil
}

// Stop asks the main loop to exit without waiting for it.
func (r *Runner) Stop() {
	r.runMux.Lock()
	defer r.runMux.Unlock()
	if !r.running {
		log.Debug("runner already stopped")
		return
	}
	r.running = false
	r.stopOnce.Do(func() { close(r.stopChnl) })
	r.sched.Stop()
	log.Debug("runner stop signal sent")
}

// Wait blocks until the main loop has exited.
func (r *Runner) Wait() {
	log.Debug("waiting for runner to stop")
	<-r.closeChnl
	log.Debug("runner has stopped")
}

// Close stops the loop, waits for it and closes the manager, sending QUIT to
// every connected session.
func (r *Runner) Close() error {
	r.runMux.RLock()
	started := r.started
	r.runMux.RUnlock()
	if started {
		r.Stop()
		r.Wait()
	}
	r.sched.Stop()
	return r.mgr.Close()
}

func (r *Runner) mainloop() {
	defer close(r.closeChnl)

	period := r.period()
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	lap := monotonic.NewLap()

	log.WithFields(logger.Fields{
		"at":   "(Runner) mainloop",
		"tick": period.String(),
	}).Debug("runner main loop started")

	for {
		select {
		case <-r.stopChnl:
			log.Debug("runner received stop signal in main loop")
			return
		case <-ticker.C:
		}
		r.mgr.Tick(lap.Next())
		if next := r.period(); next != period {
			period = next
			ticker.Reset(period)
			log.WithFields(logger.Fields{
				"at":   "(Runner) mainloop",
				"tick": period.String(),
			}).Info("tick period changed")
		}
	}
}

func (r *Runner) period() time.Duration {
	return time.Duration(r.tick.Load())
}

func (r *Runner) setTick(d time.Duration) {
	if d <= 0 {
		d = config.DefaultTick
	}
	r.tick.Store(int64(d))
}
