package domain

import (
	"errors"
	"time"
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrUserAccountMismatch indicates that the account is owned by another user.
	ErrUserAccountMismatch = errors.New("user and account owner mismatch")
	// ErrAccountAlreadyClosed indicates that the account is closed.
	ErrAccountAlreadyClosed = errors.New("account already closed")
	// ErrAmountExceedsBalance indicates that the account balance is less than the requested amount.
	ErrAmountExceedsBalance = errors.New("amount exceeds account balance")
	// ErrBalanceNotEmpty indicates that the account with remaining balance cannot be closed.
	ErrBalanceNotEmpty = errors.New("account balance is not empty")
	// ErrAccountLimitExceeded indicates that the user reached the maximum number of open accounts.
	ErrAccountLimitExceeded = errors.New("account limit per user exceeded")
	// ErrBalanceOverflow indicates that applying the amount would overflow the account balance.
	ErrBalanceOverflow = errors.New("amount overflows account balance")
	// ErrLockUnavailable indicates that the account lease could not be obtained in time.
	ErrLockUnavailable = errors.New("account transaction lock unavailable")
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

// Account statuses.
const (
	AccountActive AccountStatus = "ACTIVE"
	AccountClosed AccountStatus = "CLOSED"
)

// Account holds user balance data in minor currency units.
//
// Balance is mutated only while the account-number lease is held by the mutator.
type Account struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"user_id"`
	Number    string        `json:"account_number"`
	Status    AccountStatus `json:"status"`
	Balance   int64         `json:"balance"`
	CreatedAt time.Time     `json:"created_at"`
}
