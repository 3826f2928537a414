package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rileyhilliard/fleetwatch/internal/config"
	"github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/monitor"
	"github.com/rileyhilliard/fleetwatch/internal/ui"
)

type watchOptions struct {
	Options

	// Interval overrides monitor.interval when non-zero.
	Interval time.Duration
	Once     bool
}

// watchCommand runs the refresh loop until ctx is cancelled, or a single
// cycle with Once. A single cycle with failed hosts exits with code 1.
func watchCommand(ctx context.Context, out io.Writer, opts watchOptions) error {
	cfg, err := loadConfig(opts.Options)
	if err != nil {
		return err
	}

	interval := cfg.Monitor.Interval
	if opts.Interval != 0 {
		if opts.Interval < config.MinInterval {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("--interval %s is below the %s minimum", opts.Interval, config.MinInterval),
				"Use a longer interval, e.g. --interval 1s.")
		}
		interval = opts.Interval
	}

	log, closeLog, err := openLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	log.Info("watching %d hosts from %s every %s with %d workers",
		len(cfg.Hosts), cfg.Path, interval, cfg.Monitor.Workers)

	fleet := monitor.NewFleet(cfg.Hosts, newDialer(cfg), cfg.Monitor.Workers, log)
	defer fleet.Close()

	if opts.Once {
		snapshot, err := monitor.Once(ctx, fleet, ui.NewDashboard(out, false))
		if err != nil {
			return err
		}
		if snapshot.Failed() > 0 {
			return errors.NewExitError(1)
		}
		return nil
	}

	dashboard := ui.NewDashboard(out, ui.IsTerminal(out))
	if err := monitor.Run(ctx, fleet, dashboard, interval); err != nil {
		log.Error("refresh loop stopped: %s", err)
		return err
	}

	fmt.Fprintln(out, "\nMonitoring stopped")
	log.Info("monitoring stopped")
	return nil
}
