// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"
	"strconv"

	"github.com/go-petr/account-ledger/internal/domain"
	"github.com/go-petr/account-ledger/pkg/errorspkg"
	"github.com/rs/zerolog"
)

// Account number issuance starts at firstAccountNumber and grows by one
// per created account.
const (
	firstAccountNumber = "1000000000"
	maxAccountsPerUser = 10
	initialBalance     = int64(0)
)

// Repo provides account data access interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	Create(ctx context.Context, userID int64, number string, balance int64) (domain.Account, error)
	GetByNumber(ctx context.Context, number string) (domain.Account, error)
	Close(ctx context.Context, id int64) (domain.Account, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Account, error)
	CountOpenForUser(ctx context.Context, userID int64) (int64, error)
	LastNumber(ctx context.Context) (string, error)
}

// UserRepo provides user lookup interface needed by account service layer.
type UserRepo interface {
	Get(ctx context.Context, id int64) (domain.User, error)
}

// Service facilitates account service layer logic.
type Service struct {
	repo     Repo
	userRepo UserRepo
}

// New returns account service struct to manage account business logic.
func New(ar Repo, ur UserRepo) *Service {
	return &Service{
		repo:     ar,
		userRepo: ur,
	}
}

// Create opens a new zero-balance account for the given user. The account
// number is the successor of the most recently issued one.
func (s *Service) Create(ctx context.Context, userID int64) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return domain.Account{}, err
	}

	count, err := s.repo.CountOpenForUser(ctx, user.ID)
	if err != nil {
		return domain.Account{}, err
	}

	if count >= maxAccountsPerUser {
		l.Info().Err(domain.ErrAccountLimitExceeded).Int64("user_id", userID).Send()
		return domain.Account{}, domain.ErrAccountLimitExceeded
	}

	number, err := s.nextNumber(ctx)
	if err != nil {
		return domain.Account{}, err
	}

	return s.repo.Create(ctx, user.ID, number, initialBalance)
}

func (s *Service) nextNumber(ctx context.Context) (string, error) {
	l := zerolog.Ctx(ctx)

	last, err := s.repo.LastNumber(ctx)
	if err != nil {
		return "", err
	}

	if last == "" {
		return firstAccountNumber, nil
	}

	n, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		l.Error().Err(err).Str("last_number", last).Send()
		return "", errorspkg.ErrInternal
	}

	return strconv.FormatInt(n+1, 10), nil
}

// Get returns the account with the given number if it belongs to the user.
func (s *Service) Get(ctx context.Context, userID int64, number string) (domain.Account, error) {
	account, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return domain.Account{}, err
	}

	if account.UserID != userID {
		return domain.Account{}, domain.ErrUserAccountMismatch
	}

	return account, nil
}

// Close marks the given account closed. Only the owner can close the account
// and only when its balance is fully drained.
func (s *Service) Close(ctx context.Context, userID int64, number string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return domain.Account{}, err
	}

	account, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return domain.Account{}, err
	}

	if err := validateClose(user, account); err != nil {
		l.Info().Err(err).Int64("user_id", userID).Str("account_number", number).Send()
		return domain.Account{}, err
	}

	return s.repo.Close(ctx, account.ID)
}

func validateClose(user domain.User, account domain.Account) error {
	if user.ID != account.UserID {
		return domain.ErrUserAccountMismatch
	}

	if account.Status != domain.AccountActive {
		return domain.ErrAccountAlreadyClosed
	}

	if account.Balance != 0 {
		return domain.ErrBalanceNotEmpty
	}

	return nil
}

// List returns all accounts of the given user.
func (s *Service) List(ctx context.Context, userID int64) ([]domain.Account, error) {
	return s.repo.ListByUser(ctx, userID)
}
