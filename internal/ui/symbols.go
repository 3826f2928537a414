package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess = "✓"
	SymbolFail    = "✗"

	// SymbolUnknown stands in for any value a failed host could not report.
	SymbolUnknown = "?"
)
