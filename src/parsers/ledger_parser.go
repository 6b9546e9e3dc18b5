package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/username/cryptofolio/src/models"
)

// LedgerParser reads the platform's delimited transaction export. It accepts
// both the legacy 8-column and the current 10-column layout and performs no
// I/O beyond the supplied reader.
type LedgerParser struct {
	opts Options
}

func NewLedgerParser(opts Options) *LedgerParser {
	return &LedgerParser{opts: opts}
}

func (p *LedgerParser) Parse(file io.Reader) ([]models.Transaction, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, parseErrorf(0, "failed to read header row: %v", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	cols, err := p.headerArity(header)
	if err != nil {
		return nil, err
	}

	// Column-name-to-index mapping, validated once against the known layout
	// so rows are never accessed by string key downstream.
	fields := make(map[string]int, cols)
	for i, name := range header {
		fields[name] = i
	}
	expected := legacyHeader
	if cols == v2Columns {
		expected = v2Header
	}
	for _, name := range expected {
		if _, ok := fields[name]; !ok {
			return nil, parseErrorf(0, "missing column %q", name)
		}
	}

	var txs []models.Transaction
	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, parseErrorf(row, "malformed row: %v", err)
		}

		get := func(name string) string {
			i := fields[name]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		// An empty primary identifier signals end-of-data. Trailing blank
		// lines are expected in real exports.
		if get("Transaction") == "" {
			break
		}

		var tx models.Transaction
		if cols == legacyColumns {
			tx, err = p.legacyRow(get, row)
		} else {
			tx, err = p.v2Row(get, row)
		}
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

func (p *LedgerParser) headerArity(header []string) (int, error) {
	cols := len(header)
	if p.opts.ExpectedColumns != 0 && cols != p.opts.ExpectedColumns {
		return 0, parseErrorf(0, "header mismatch: expected %d columns, got %d", p.opts.ExpectedColumns, cols)
	}
	if cols != legacyColumns && cols != v2Columns {
		return 0, parseErrorf(0, "header mismatch: expected %d or %d columns, got %d", legacyColumns, v2Columns, cols)
	}
	return cols, nil
}

func (p *LedgerParser) legacyRow(get func(string) string, row int) (models.Transaction, error) {
	usd, err := markedFloat(get("USD Equivalent"))
	if err != nil {
		return models.Transaction{}, parseErrorf(row, "USD Equivalent: %v", err)
	}
	loan, err := markedFloat(get("Outstanding Loan"))
	if err != nil {
		return models.Transaction{}, parseErrorf(row, "Outstanding Loan: %v", err)
	}

	return models.Transaction{
		ID:              get("Transaction"),
		Type:            models.TransactionType(get("Type")),
		Currency:        fixDoubledToken(get("Currency")),
		Amount:          get("Amount"),
		USDEquivalent:   usd,
		Details:         get("Details"),
		OutstandingLoan: loan,
		DateTime:        get("Date / Time"),
	}, nil
}

func (p *LedgerParser) v2Row(get func(string) string, row int) (models.Transaction, error) {
	usdRaw := stripMarker(get("USD Equivalent"))
	usd, err := parseFloat(usdRaw)
	if err != nil {
		return models.Transaction{}, parseErrorf(row, "USD Equivalent: %v", err)
	}
	loan, err := markedFloat(get("Outstanding Loan"))
	if err != nil {
		return models.Transaction{}, parseErrorf(row, "Outstanding Loan: %v", err)
	}

	txType := models.TransactionType(get("Type"))
	inCur := fixDoubledToken(get("Input Currency"))
	inAmt := get("Input Amount")
	outCur := fixDoubledToken(get("Output Currency"))
	outAmt := get("Output Amount")

	if p.opts.ApplyLoanFixes {
		// Repayment rows report a positive input amount where a balance
		// reduction is meant. Flip the sign unless the export fixed itself.
		if txType == models.TypeRepayment && !strings.HasPrefix(inAmt, "-") {
			if v, err := parseFloat(inAmt); err == nil && v > 0 {
				inAmt = "-" + inAmt
			}
		}
		// Liquidation rows mirror the input into the output columns instead
		// of reporting the USD proceeds. Rebuild the output side from the
		// USD equivalent; rounding to 2 decimals is inherent to the source.
		if txType == models.TypeLiquidation {
			outCur = "USD"
			outAmt = usdRaw
		}
	}

	currency, amount := joinSides(inCur, inAmt, outCur, outAmt)

	return models.Transaction{
		ID:              get("Transaction"),
		Type:            txType,
		Currency:        currency,
		Amount:          amount,
		USDEquivalent:   usd,
		Details:         get("Details"),
		OutstandingLoan: loan,
		DateTime:        get("Date / Time"),
	}, nil
}

// joinSides folds the v2 input/output columns back into the single
// currency/amount shape the aggregator consumes: identical sides collapse to
// a single movement, distinct sides become a "/"-delimited pair.
func joinSides(inCur, inAmt, outCur, outAmt string) (string, string) {
	if outCur == "" || (inCur == outCur && inAmt == outAmt) {
		return inCur, inAmt
	}
	return inCur + "/" + outCur, inAmt + "/" + outAmt
}

// fixDoubledToken normalizes the known NEXONEXO export quirk.
func fixDoubledToken(currency string) string {
	return strings.Replace(currency, "NEXONEXO", "NEXO", 1)
}

// stripMarker drops the single leading currency/sign marker character the
// export prefixes to USD-denominated fields ("$100.00" -> "100.00").
func stripMarker(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= '0' && c <= '9' {
		return s
	}
	return s[1:]
}

func markedFloat(s string) (float64, error) {
	return parseFloat(stripMarker(s))
}

// parseFloat rejects anything a mandatory numeric field must not contain.
// Silently coercing to 0 here would corrupt balances permanently.
func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty numeric field")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable numeric value %q", s)
	}
	return v, nil
}
