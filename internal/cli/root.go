package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/ui"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile     string
	workersFlag int
	logFileFlag string
	hostsFlag   string
	noColor     bool
)

// Watch flags
var (
	intervalFlag time.Duration
	onceFlag     bool
)

var rootCmd = &cobra.Command{
	Use:   "fleetwatch",
	Short: "Watch CPU, memory and disk usage across a fleet of SSH hosts",
	Long: `fleetwatch polls every server in its config over SSH at a fixed interval
and redraws one line per host: CPU usage, memory used/total and the root disk.

Hosts are polled in parallel by a bounded pool of workers. A host that can't
be reached shows '?' with the reason and is retried on the next cycle.

Examples:
  fleetwatch
  fleetwatch --interval 5s --workers 20
  fleetwatch --hosts web01,web02 --once
  fleetwatch check`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor || os.Getenv("NO_COLOR") != "" {
			ui.DisableColors()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchCommand(cmd.Context(), cmd.OutOrStdout(), watchOptions{
			Options:  globalOptions(),
			Interval: intervalFlag,
			Once:     onceFlag,
		})
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./fleetwatch.yaml, then ~/.config/fleetwatch/config.yaml)")
	pf.IntVar(&workersFlag, "workers", 0, "number of hosts polled at once (overrides monitor.workers)")
	pf.StringVar(&logFileFlag, "log-file", "", "write logs to this file (overrides log.file)")
	pf.StringVar(&hostsFlag, "hosts", "", "only these servers (comma-separated names)")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.Flags().DurationVar(&intervalFlag, "interval", 0, "pause between refreshes, e.g. 1s, 5s (overrides monitor.interval)")
	rootCmd.Flags().BoolVar(&onceFlag, "once", false, "poll every host once, print the table and exit")

	rootCmd.AddCommand(completionCmd)
}

// globalOptions collects the persistent flags.
func globalOptions() Options {
	return Options{
		ConfigPath: cfgFile,
		Workers:    workersFlag,
		LogFile:    logFileFlag,
		Hosts:      hostsFlag,
	}
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context, which stops the refresh loop and closes every connection.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		os.Exit(handleError(os.Stderr, err))
	}
}

// handleError prints err for the operator and returns the process exit code.
// An ExitError carries its own code and has already reported itself.
func handleError(w io.Writer, err error) int {
	if code, ok := errors.GetExitCode(err); ok {
		return code
	}
	fmt.Fprintln(w, err.Error())
	return 1
}

// completionCmd generates shell completion scripts
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for fleetwatch.

Examples:
  # Bash
  fleetwatch completion bash > /etc/bash_completion.d/fleetwatch

  # Zsh
  fleetwatch completion zsh > "${fpath[1]}/_fleetwatch"

  # Fish
  fleetwatch completion fish > ~/.config/fish/completions/fleetwatch.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		default:
			return rootCmd.GenPowerShellCompletion(out)
		}
	},
}
