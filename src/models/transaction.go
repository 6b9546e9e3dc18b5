package models

import "strings"

// TransactionType enumerates the row types found in platform ledger exports.
type TransactionType string

const (
	// Basic types
	TypeInterest   TransactionType = "Interest"
	TypeDeposit    TransactionType = "Deposit"
	TypeWithdrawal TransactionType = "Withdrawal"
	TypeExchange   TransactionType = "Exchange"

	// Wallet transfers (credit wallet <-> savings wallet)
	TypeTransferIn  TransactionType = "TransferIn"
	TypeTransferOut TransactionType = "TransferOut"

	// Credit card, informative only
	TypeCreditCardStatus TransactionType = "CreditCardStatus"

	// Loan lifecycle
	TypeLiquidation TransactionType = "Liquidation"
	TypeRepayment   TransactionType = "Repayment"

	// Cashback
	TypeExchangeCashback TransactionType = "Exchange Cashback"

	// Referrals, always paid in the platform token
	TypeReferralBonus TransactionType = "ReferralBonus"

	// Fiat deposit legs
	TypeExchangeDepositedOn TransactionType = "ExchangeDepositedOn"
	TypeDepositToExchange   TransactionType = "DepositToExchange"

	// Fiat withdrawal legs
	TypeWithdrawExchanged  TransactionType = "WithdrawExchanged"
	TypeExchangeToWithdraw TransactionType = "ExchangeToWithdraw"

	// Fixed terms
	TypeLockingTermDeposit   TransactionType = "LockingTermDeposit"
	TypeFixedTermInterest    TransactionType = "FixedTermInterest"
	TypeUnlockingTermDeposit TransactionType = "UnlockingTermDeposit"
)

// Transaction is one parsed ledger row. It is never mutated after parsing;
// the aggregator only reads it.
type Transaction struct {
	ID   string          `json:"id"`
	Type TransactionType `json:"type"`
	// Currency holds a single symbol ("BTC") or a pair ("EUR/BTC") for
	// exchange-style rows.
	Currency string `json:"currency"`
	// Amount stays a string until aggregation: it may be pair-encoded
	// ("100.00/0.0021") and parsing it early would lose that shape.
	Amount          string  `json:"amount"`
	USDEquivalent   float64 `json:"usd_equivalent"`
	Details         string  `json:"details"`
	OutstandingLoan float64 `json:"outstanding_loan"`
	DateTime        string  `json:"date_time"`
}

// Date returns the YYYY-MM-DD part of the row timestamp.
func (t Transaction) Date() string {
	if len(t.DateTime) < 10 {
		return t.DateTime
	}
	return t.DateTime[:10]
}

// IsPair reports whether the row packs two currency movements into one record.
func (t Transaction) IsPair() bool {
	return strings.Contains(t.Amount, "/")
}

// IsPendingOrRejected reports whether the row carries a non-final sub-status
// in its details field. Such rows must not affect any balance or total.
func (t Transaction) IsPendingOrRejected() bool {
	return strings.Contains(t.Details, "pending") || strings.Contains(t.Details, "rejected")
}

// TxHash extracts the on-chain transaction hash that deposit rows carry in
// the details field after a "/" delimiter. Empty when absent.
func (t Transaction) TxHash() string {
	i := strings.Index(t.Details, "/")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(t.Details[i+1:])
}
