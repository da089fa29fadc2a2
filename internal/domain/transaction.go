package domain

import (
	"errors"
	"time"
)

var (
	// ErrNonPositiveAmount indicates that the transaction amount is zero or negative.
	ErrNonPositiveAmount = errors.New("amount must be positive")
	// ErrTransactionNotFound indicates that the transaction is not found.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrTransactionAccountMismatch indicates that the transaction belongs to another account.
	ErrTransactionAccountMismatch = errors.New("transaction and account mismatch")
	// ErrCancelMustBeFull indicates that partial cancellation is rejected.
	ErrCancelMustBeFull = errors.New("cancel amount must equal the transaction amount")
	// ErrTooOldToCancel indicates that the transaction is too old to cancel.
	ErrTooOldToCancel = errors.New("transaction is too old to cancel")
)

// TransactionKind is the kind of a balance transaction.
type TransactionKind string

// Transaction kinds.
const (
	TransactionUse    TransactionKind = "USE"
	TransactionCancel TransactionKind = "CANCEL"
)

// TransactionResult is the outcome of a balance transaction attempt.
type TransactionResult string

// Transaction results.
const (
	TransactionSuccess TransactionResult = "SUCCESS"
	TransactionFailure TransactionResult = "FAILURE"
)

// Transaction is an immutable ledger entry recording a balance change attempt.
//
// BalanceSnapshot holds the account balance after applying the transaction,
// or the unchanged balance for FAILURE entries. CANCEL entries reference the
// USE transaction they reverse via RelatedTransactionID.
type Transaction struct {
	ID                   int64             `json:"id"`
	TransactionID        string            `json:"transaction_id"`
	AccountID            int64             `json:"account_id"`
	Kind                 TransactionKind   `json:"kind"`
	Result               TransactionResult `json:"result"`
	Amount               int64             `json:"amount"`
	BalanceSnapshot      int64             `json:"balance_snapshot"`
	RelatedTransactionID string            `json:"related_transaction_id,omitempty"`
	TransactedAt         time.Time         `json:"transacted_at"`
}

// CreateTransactionParams is the input data to append a ledger entry.
type CreateTransactionParams struct {
	TransactionID        string
	AccountID            int64
	Kind                 TransactionKind
	Result               TransactionResult
	Amount               int64
	BalanceSnapshot      int64
	RelatedTransactionID string
}
