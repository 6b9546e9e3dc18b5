package processors

import "fmt"

// AggregationError is fatal at file level, same contract as a parse failure:
// aggregation aborts and no partial ledger state is handed out.
type AggregationError struct {
	TxID string
	Msg  string
}

func (e *AggregationError) Error() string {
	if e.TxID == "" {
		return fmt.Sprintf("aggregation failed: %s", e.Msg)
	}
	return fmt.Sprintf("aggregation failed: transaction %s: %s", e.TxID, e.Msg)
}

func aggregationErrorf(txID, format string, args ...interface{}) *AggregationError {
	return &AggregationError{TxID: txID, Msg: fmt.Sprintf(format, args...)}
}
