// Package cli implements the fleetwatch command-line interface.
//
// The root command runs the refresh loop: load the config, build a
// monitor.Fleet over SSH, and hand it to monitor.Run with a ui.Dashboard as
// the renderer. SIGINT and SIGTERM cancel the command context, which ends the
// loop after every connection is closed.
//
//	fleetwatch            - Live table, redrawn every monitor.interval
//	fleetwatch --once     - One cycle, printed without clearing the screen
//	fleetwatch check      - Connect to every server and report reachability
//	fleetwatch init       - Write a starter config
//	fleetwatch add        - Append a server to the config
//	fleetwatch version    - Build information
//
// # Flag Handling
//
// --config, --workers, --log-file, --hosts and --no-color are persistent and
// apply to every subcommand. Flags override the matching config values after
// the file and FLEETWATCH_* environment variables are merged.
//
// # Exit Codes
//
// Structured errors are printed in their multi-line form and exit 1. Commands
// that report results themselves (check, --once) return an errors.ExitError so
// nothing is printed twice.
package cli
