package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/monitor"
	"github.com/rileyhilliard/fleetwatch/internal/ui"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Connect to every server once and report which are reachable",
	Long: `Open an SSH connection to every configured server in parallel, print
one status line per server with its connect time or the reason it failed,
then disconnect.

Exits with status 1 if any server is unreachable, so it can gate scripts.

Examples:
  fleetwatch check
  fleetwatch check --hosts web01,web02`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return checkCommand(cmd.Context(), cmd.OutOrStdout(), globalOptions())
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func checkCommand(ctx context.Context, out io.Writer, opts Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log, closeLog, err := openLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	fleet := monitor.NewFleet(cfg.Hosts, newDialer(cfg), cfg.Monitor.Workers, log)
	defer fleet.Close()

	results := fleet.ConnectAll(ctx)

	rows := make([]ui.StatusRow, len(results))
	failed := 0
	for i, r := range results {
		h := cfg.Hosts[i]
		rows[i] = ui.StatusRow{
			Host:    r.Name,
			Address: fmt.Sprintf("%s@%s:%d", h.Username, h.Hostname, h.Port),
			Err:     r.Err,
			Latency: r.Elapsed,
		}
		if r.Err != nil {
			failed++
		}
	}

	fmt.Fprint(out, ui.RenderStatusTable(rows))

	if failed > 0 {
		return errors.NewExitError(1)
	}
	return nil
}
