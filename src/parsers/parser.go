package parsers

import (
	"io"

	"github.com/username/cryptofolio/src/models"
)

// Parser turns a raw ledger export into an ordered transaction sequence.
type Parser interface {
	Parse(file io.Reader) ([]models.Transaction, error)
}

// Known export header layouts. The platform changed its export format once;
// both generations must be accepted and are told apart by header arity.
var (
	legacyHeader = []string{
		"Transaction", "Type", "Currency", "Amount",
		"USD Equivalent", "Details", "Outstanding Loan", "Date / Time",
	}
	v2Header = []string{
		"Transaction", "Type", "Input Currency", "Input Amount",
		"Output Currency", "Output Amount",
		"USD Equivalent", "Details", "Outstanding Loan", "Date / Time",
	}
)

const (
	legacyColumns = 8
	v2Columns     = 10
)

// Options tunes the ledger parser.
type Options struct {
	// ExpectedColumns forces a specific header arity (8 or 10). Zero means
	// auto-detect from the header row.
	ExpectedColumns int
	// ApplyLoanFixes enables the documented normalization of Repayment signs
	// and Liquidation output mirroring present in v2 exports. On by default;
	// disable once the upstream export is fixed.
	ApplyLoanFixes bool
}

// DefaultOptions matches the exports observed in the wild.
func DefaultOptions() Options {
	return Options{ExpectedColumns: 0, ApplyLoanFixes: true}
}
