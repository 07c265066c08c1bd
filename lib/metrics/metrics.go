// Package metrics exports session lifecycle and traffic counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-i2p/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-i2p/ircloop/lib/session"
)

var log = logger.GetGoI2PLogger()

const namespace = "ircloop"

var phases = []session.Phase{
	session.Disconnected,
	session.Connecting,
	session.AwaitingHandshake,
	session.Identifying,
	session.Registered,
}

// Collector implements session.Metrics.
type Collector struct {
	phase            *prometheus.GaugeVec
	transitions      *prometheus.CounterVec
	connectFailures  *prometheus.CounterVec
	commandsSent     *prometheus.CounterVec
	dispatchFailures *prometheus.CounterVec
	messagesReceived *prometheus.CounterVec
	eventsDropped    *prometheus.CounterVec
}

var _ session.Metrics = (*Collector)(nil)

// New creates a Collector and registers it with reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		phase: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "phase",
				Help:      "1 for the phase each session is currently in, 0 otherwise.",
			},
			[]string{"session", "phase"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "transitions_total",
				Help:      "Phase transitions.",
			},
			[]string{"session", "from", "to"},
		),
		connectFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "connect_failures_total",
				Help:      "Connect attempts that resolved with an error.",
			},
			[]string{"session"},
		),
		commandsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "commands_sent_total",
				Help:      "Commands accepted by a session's sender.",
			},
			[]string{"session", "command"},
		),
		dispatchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "dispatch_failures_total",
				Help:      "Commands dropped for lack of a sender or rejected by it.",
			},
			[]string{"session", "command"},
		),
		messagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "messages_received_total",
				Help:      "Inbound messages.",
			},
			[]string{"session", "command"},
		),
		eventsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "dropped_total",
				Help:      "Event deliveries lost to full subscriber buffers.",
			},
			[]string{"session"},
		),
	}
	reg.MustRegister(
		c.phase,
		c.transitions,
		c.connectFailures,
		c.commandsSent,
		c.dispatchFailures,
		c.messagesReceived,
		c.eventsDropped,
	)
	return c
}

func (c *Collector) PhaseChanged(s string, from, to session.Phase) {
	c.transitions.WithLabelValues(s, from.String(), to.String()).Inc()
	for _, p := range phases {
		v := 0.0
		if p == to {
			v = 1
		}
		c.phase.WithLabelValues(s, p.String()).Set(v)
	}
}

func (c *Collector) ConnectFailed(s string) {
	c.connectFailures.WithLabelValues(s).Inc()
}

func (c *Collector) CommandSent(s, verb string) {
	c.commandsSent.WithLabelValues(s, verb).Inc()
}

func (c *Collector) DispatchFailed(s, verb string) {
	c.dispatchFailures.WithLabelValues(s, verb).Inc()
}

func (c *Collector) MessageReceived(s, verb string) {
	c.messagesReceived.WithLabelValues(s, verb).Inc()
}

func (c *Collector) EventDropped(s string, n int) {
	c.eventsDropped.WithLabelValues(s).Add(float64(n))
}

// SessionRemoved forgets every series labelled with the session.
func (c *Collector) SessionRemoved(s string) {
	labels := prometheus.Labels{"session": s}
	c.phase.DeletePartialMatch(labels)
	c.transitions.DeletePartialMatch(labels)
	c.connectFailures.DeletePartialMatch(labels)
	c.commandsSent.DeletePartialMatch(labels)
	c.dispatchFailures.DeletePartialMatch(labels)
	c.messagesReceived.DeletePartialMatch(labels)
	c.eventsDropped.DeletePartialMatch(labels)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logger.Fields{
			"at":   "Serve",
			"addr": addr,
		}).Info("serving metrics")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
