// Package ui renders fleetwatch's terminal output: the refreshing dashboard
// table and the one-shot connection status table printed by "fleetwatch check".
//
// Styling goes through Lip Gloss. Colors are ANSI codes so the output works on
// any terminal; DisableColors drops them entirely for --no-color and for
// output that is not a terminal.
//
// # Dashboard
//
// Dashboard implements monitor.Renderer:
//
//	d := ui.NewDashboard(os.Stdout, ui.IsTerminal(os.Stdout))
//	err := monitor.Run(ctx, fleet, d, cfg.Monitor.Interval)
//
// Each Render writes the whole frame in one call. When clearing is enabled the
// frame starts with the ANSI clear-screen sequence, so piped output stays a
// plain append-only log.
//
// Rows follow the host order of the snapshot. A host whose cycle failed keeps
// its line, with SymbolUnknown in every numeric column and the one-line error
// summary after it.
package ui
