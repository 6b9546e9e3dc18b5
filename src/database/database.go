package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/cryptofolio/src/logger"
	"github.com/username/cryptofolio/src/models"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	logger.L.Info("Initializing database schema", "databasePath", databasePath)

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS ledger_transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		tx_id TEXT NOT NULL,
		type TEXT NOT NULL,
		currency TEXT NOT NULL,
		amount TEXT NOT NULL,
		usd_equivalent REAL NOT NULL,
		details TEXT,
		outstanding_loan REAL,
		date_time TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_ledger_transactions_session
		ON ledger_transactions(session_id);
	`
	if _, err := DB.Exec(createTableStatement); err != nil {
		stdlog.Fatalf("failed to create ledger_transactions table: %v", err)
	}
}

// InsertTransactions stores one ingestion session's raw parsed rows. The
// whole batch commits or none of it does.
func InsertTransactions(sessionID string, txs []models.Transaction) error {
	dbTx, err := DB.Begin()
	if err != nil {
		return err
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`INSERT INTO ledger_transactions
		(session_id, tx_id, type, currency, amount, usd_equivalent, details, outstanding_loan, date_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range txs {
		if _, err := stmt.Exec(sessionID, t.ID, string(t.Type), t.Currency, t.Amount,
			t.USDEquivalent, t.Details, t.OutstandingLoan, t.DateTime); err != nil {
			return err
		}
	}
	return dbTx.Commit()
}

// TransactionsBySession returns the raw rows of one ingestion session in
// insertion order (the export's own order, newest-first).
func TransactionsBySession(sessionID string) ([]models.Transaction, error) {
	rows, err := DB.Query(`SELECT tx_id, type, currency, amount, usd_equivalent, details, outstanding_loan, date_time
		FROM ledger_transactions WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var txType string
		if err := rows.Scan(&t.ID, &txType, &t.Currency, &t.Amount,
			&t.USDEquivalent, &t.Details, &t.OutstandingLoan, &t.DateTime); err != nil {
			return nil, err
		}
		t.Type = models.TransactionType(txType)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// DeleteSession drops all rows of one ingestion session.
func DeleteSession(sessionID string) error {
	_, err := DB.Exec(`DELETE FROM ledger_transactions WHERE session_id = ?`, sessionID)
	return err
}
