// Package domain defines domain-level errors for the scan feature.
package domain

import "errors"

// Domain errors for market data acquisition and scanning.
// Per-symbol errors are classified by the scan usecase into skipped or error outcomes.
var (
	// ErrMissingCredential indicates that a required API key is not configured.
	// It is fatal: the scan does not start.
	ErrMissingCredential = errors.New("missing required credential")

	// ErrNoInstrument indicates that no tradable instrument matched the symbol on a provider.
	// This is a skipped outcome, not a data error.
	ErrNoInstrument = errors.New("no instrument found")

	// ErrInsufficientData indicates that fewer closed candles were returned than the detector needs.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrUnsupportedGranularity indicates that a provider cannot serve the requested granularity.
	ErrUnsupportedGranularity = errors.New("unsupported granularity")

	// ErrUnresolvedSymbol indicates that no provider could map the symbol to an instrument.
	ErrUnresolvedSymbol = errors.New("unresolved symbol")
)
