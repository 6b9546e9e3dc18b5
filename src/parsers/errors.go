package parsers

import "fmt"

// ParseError is fatal at file level: the upload is rejected outright and no
// partial ledger is produced. Row is the 1-based data row (0 for the header).
type ParseError struct {
	Row int
	Msg string
}

func (e *ParseError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("invalid transaction file: %s", e.Msg)
	}
	return fmt.Sprintf("invalid transaction file: row %d: %s", e.Row, e.Msg)
}

func parseErrorf(row int, format string, args ...interface{}) *ParseError {
	return &ParseError{Row: row, Msg: fmt.Sprintf(format, args...)}
}
