package main

import (
	"context"
	"fmt"
	"io"

	"github.com/go-i2p/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/go-i2p/ircloop/lib/client"
	"github.com/go-i2p/ircloop/lib/config"
	"github.com/go-i2p/ircloop/lib/filter"
	"github.com/go-i2p/ircloop/lib/metrics"
	"github.com/go-i2p/ircloop/lib/runner"
	"github.com/go-i2p/ircloop/lib/session"
	"github.com/go-i2p/ircloop/lib/tui"
	"github.com/go-i2p/ircloop/lib/util"
	"github.com/go-i2p/ircloop/lib/util/signals"
)

type serveOptions struct {
	watchFile   bool
	view        bool
	metricsAddr string
	events      bool
	filter      string
	out         io.Writer
}

func newRunCmd() *cobra.Command {
	opts := serveOptions{}
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured sessions until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.watchFile = !noWatch
			opts.out = cmd.OutOrStdout()
			return serve(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload when the config file changes")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics", "", "serve Prometheus metrics on this address (overrides metrics.address)")
	cmd.Flags().BoolVar(&opts.events, "events", false, "print inbound messages to stdout")
	cmd.Flags().StringVar(&opts.filter, "filter", "", `only print messages matching this expression, e.g. 'command == "PRIVMSG"'`)
	return cmd
}

func newWatchCmd() *cobra.Command {
	opts := serveOptions{view: true}
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the configured sessions with a live terminal view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.watchFile = !noWatch
			return serve(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload when the config file changes")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics", "", "serve Prometheus metrics on this address (overrides metrics.address)")
	cmd.Flags().StringVar(&opts.filter, "filter", "", `only show messages matching this expression, e.g. 'command == "PRIVMSG"'`)
	return cmd
}

func serve(ctx context.Context, opts serveOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	match, err := filter.Compile(opts.filter)
	if err != nil {
		return err
	}
	loader := config.NewLoader(config.CfgFile)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r, err := runner.FromConfig(cfg, client.NewDialer(), session.WithMetrics(metrics.New(reg)))
	if err != nil {
		log.WithFields(logger.Fields{
			"at":     "serve",
			"reason": err.Error(),
		}).Warn("some sessions were not declared")
	}
	util.RegisterCloser(r)
	defer util.CloseAll()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	apply := func(next *config.Config, err error) {
		if err != nil {
			log.WithFields(logger.Fields{
				"at":     "serve",
				"path":   loader.Path(),
				"reason": err.Error(),
			}).Error("keeping previous configuration")
			return
		}
		if err := r.Sync(next); err != nil {
			log.WithFields(logger.Fields{
				"at":     "serve",
				"reason": err.Error(),
			}).Warn("configuration partly applied")
			return
		}
		log.WithFields(logger.Fields{
			"at":       "serve",
			"sessions": len(next.Sessions),
		}).Info("configuration applied")
	}

	reloadID := signals.RegisterReloadHandler(func() { apply(loader.Reload()) })
	interruptID := signals.RegisterInterruptHandler(signals.Handler(cancel))
	defer signals.Deregister(reloadID)
	defer signals.Deregister(interruptID)
	go signals.Handle(ctx)
	defer signals.StopHandle()

	if opts.watchFile {
		if err := loader.Watch(ctx, apply); err != nil {
			log.WithFields(logger.Fields{
				"at":     "serve",
				"path":   loader.Path(),
				"reason": err.Error(),
			}).Warn("config file watching disabled")
		}
	}

	if err := r.Start(); err != nil {
		return err
	}

	addr := cfg.Metrics.Address
	if opts.metricsAddr != "" {
		addr = opts.metricsAddr
	}
	g, gctx := errgroup.WithContext(ctx)
	if addr != "" {
		g.Go(func() error {
			return metrics.Serve(gctx, addr, reg)
		})
	}
	if opts.view {
		sub := r.Manager().Subscribe(0)
		g.Go(func() error {
			defer cancel()
			defer sub.Close()
			return tui.Run(gctx, r.Manager(), match.Wrap(sub), tui.DefaultRefresh)
		})
	} else if opts.events {
		sub := r.Manager().Subscribe(0)
		g.Go(func() error {
			defer sub.Close()
			return printEvents(gctx, opts.out, sub, match)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.WithFields(logger.Fields{
			"at":   "serve",
			"path": loader.Path(),
		}).Info("shutting down")
		return nil
	})
	return g.Wait()
}

// printEvents writes matching events to w until ctx is done or the
// subscription closes.
func printEvents(ctx context.Context, w io.Writer, sub *session.Subscription, match *filter.Filter) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if !match.Match(ev) {
				continue
			}
			if _, err := fmt.Fprintln(w, tui.FormatEvent(ev)); err != nil {
				return err
			}
		}
	}
}
