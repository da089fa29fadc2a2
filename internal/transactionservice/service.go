// Package transactionservice manages business logic layer of balance transactions.
package transactionservice

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/go-petr/account-ledger/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// UserRepo provides user lookup interface needed by transaction service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package transactionservice
type UserRepo interface {
	Get(ctx context.Context, id int64) (domain.User, error)
}

// AccountRepo provides account data access interface needed by transaction service layer.
type AccountRepo interface {
	GetByNumber(ctx context.Context, number string) (domain.Account, error)
	SetBalance(ctx context.Context, id int64, balance int64) (domain.Account, error)
}

// LedgerRepo provides append-only ledger access interface needed by transaction service layer.
type LedgerRepo interface {
	Create(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error)
	GetByTransactionID(ctx context.Context, transactionID string) (domain.Transaction, error)
}

// Locker executes fn under the exclusive lease of the given account number.
type Locker interface {
	Do(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Service facilitates transaction service layer logic.
type Service struct {
	userRepo    UserRepo
	accountRepo AccountRepo
	ledgerRepo  LedgerRepo
	locker      Locker
}

// New returns transaction service struct to manage balance transaction logic.
func New(ur UserRepo, ar AccountRepo, lr LedgerRepo, locker Locker) *Service {
	return &Service{
		userRepo:    ur,
		accountRepo: ar,
		ledgerRepo:  lr,
		locker:      locker,
	}
}

// newTransactionID generates the opaque globally unique transaction id.
func newTransactionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// UseBalance withdraws amount from the account and appends a USE/SUCCESS ledger
// entry holding the post-withdrawal balance snapshot. The whole read-validate-write
// cycle runs under the account-number lease.
func (s *Service) UseBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (domain.Transaction, error) {
	if amount <= 0 {
		return domain.Transaction{}, domain.ErrNonPositiveAmount
	}

	var result domain.Transaction

	err := s.locker.Do(ctx, accountNumber, func(ctx context.Context) error {
		l := zerolog.Ctx(ctx)

		user, err := s.userRepo.Get(ctx, userID)
		if err != nil {
			return err
		}

		account, err := s.accountRepo.GetByNumber(ctx, accountNumber)
		if err != nil {
			return err
		}

		if err := validateUseBalance(user, account, amount); err != nil {
			l.Info().Err(err).Int64("user_id", userID).Str("account_number", accountNumber).Send()
			return err
		}

		account, err = s.accountRepo.SetBalance(ctx, account.ID, account.Balance-amount)
		if err != nil {
			return err
		}

		result, err = s.ledgerRepo.Create(ctx, domain.CreateTransactionParams{
			TransactionID:   newTransactionID(),
			AccountID:       account.ID,
			Kind:            domain.TransactionUse,
			Result:          domain.TransactionSuccess,
			Amount:          amount,
			BalanceSnapshot: account.Balance,
		})

		return err
	})
	if err != nil {
		return domain.Transaction{}, err
	}

	return result, nil
}

func validateUseBalance(user domain.User, account domain.Account, amount int64) error {
	if user.ID != account.UserID {
		return domain.ErrUserAccountMismatch
	}

	if account.Status != domain.AccountActive {
		return domain.ErrAccountAlreadyClosed
	}

	if amount > account.Balance {
		return domain.ErrAmountExceedsBalance
	}

	return nil
}

// RecordFailedUse appends a USE/FAILURE ledger entry with the unchanged balance
// snapshot. It is a best-effort audit trail of an attempt that already failed
// upstream, so it runs without the account-number lease and does not re-validate
// ownership or status.
func (s *Service) RecordFailedUse(ctx context.Context, accountNumber string, amount int64) (domain.Transaction, error) {
	return s.recordFailure(ctx, domain.TransactionUse, accountNumber, amount)
}

// RecordFailedCancel appends a CANCEL/FAILURE ledger entry with the unchanged
// balance snapshot, mirroring RecordFailedUse for the cancel path.
func (s *Service) RecordFailedCancel(ctx context.Context, accountNumber string, amount int64) (domain.Transaction, error) {
	return s.recordFailure(ctx, domain.TransactionCancel, accountNumber, amount)
}

func (s *Service) recordFailure(ctx context.Context, kind domain.TransactionKind, accountNumber string, amount int64) (domain.Transaction, error) {
	account, err := s.accountRepo.GetByNumber(ctx, accountNumber)
	if err != nil {
		return domain.Transaction{}, err
	}

	return s.ledgerRepo.Create(ctx, domain.CreateTransactionParams{
		TransactionID:   newTransactionID(),
		AccountID:       account.ID,
		Kind:            kind,
		Result:          domain.TransactionFailure,
		Amount:          amount,
		BalanceSnapshot: account.Balance,
	})
}

// CancelBalance fully reverses the given USE transaction: it restores the amount
// to the account and appends a CANCEL/SUCCESS ledger entry referencing the
// original. Partial cancellation is rejected. Runs under the same per-account-number
// lease discipline as UseBalance.
func (s *Service) CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (domain.Transaction, error) {
	if amount <= 0 {
		return domain.Transaction{}, domain.ErrNonPositiveAmount
	}

	var result domain.Transaction

	err := s.locker.Do(ctx, accountNumber, func(ctx context.Context) error {
		l := zerolog.Ctx(ctx)

		original, err := s.ledgerRepo.GetByTransactionID(ctx, transactionID)
		if err != nil {
			return err
		}

		account, err := s.accountRepo.GetByNumber(ctx, accountNumber)
		if err != nil {
			return err
		}

		if err := validateCancelBalance(original, account, amount); err != nil {
			l.Info().Err(err).Str("transaction_id", transactionID).Str("account_number", accountNumber).Send()
			return err
		}

		account, err = s.accountRepo.SetBalance(ctx, account.ID, account.Balance+amount)
		if err != nil {
			return err
		}

		result, err = s.ledgerRepo.Create(ctx, domain.CreateTransactionParams{
			TransactionID:        newTransactionID(),
			AccountID:            account.ID,
			Kind:                 domain.TransactionCancel,
			Result:               domain.TransactionSuccess,
			Amount:               amount,
			BalanceSnapshot:      account.Balance,
			RelatedTransactionID: original.TransactionID,
		})

		return err
	})
	if err != nil {
		return domain.Transaction{}, err
	}

	return result, nil
}

func validateCancelBalance(original domain.Transaction, account domain.Account, amount int64) error {
	if original.AccountID != account.ID {
		return domain.ErrTransactionAccountMismatch
	}

	if original.Amount != amount {
		return domain.ErrCancelMustBeFull
	}

	if original.TransactedAt.Before(time.Now().AddDate(-1, 0, 0)) {
		return domain.ErrTooOldToCancel
	}

	if account.Balance > math.MaxInt64-amount {
		return domain.ErrBalanceOverflow
	}

	return nil
}

// Get returns the ledger entry with the given transaction id.
func (s *Service) Get(ctx context.Context, transactionID string) (domain.Transaction, error) {
	return s.ledgerRepo.GetByTransactionID(ctx, transactionID)
}
