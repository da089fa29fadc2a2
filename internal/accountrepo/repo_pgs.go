// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"database/sql"

	"github.com/go-petr/account-ledger/internal/domain"
	"github.com/go-petr/account-ledger/pkg/dbpkg"
	"github.com/go-petr/account-ledger/pkg/errorspkg"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates account repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns account RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const createQuery = `
INSERT INTO
    accounts (user_id, number, status, balance)
VALUES
    ($1, $2, $3, $4)
RETURNING id, user_id, number, status, balance, created_at
`

// Create creates the account and then returns it.
func (r *RepoPGS) Create(ctx context.Context, userID int64, number string, balance int64) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery, userID, number, domain.AccountActive, balance)

	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Number,
		&a.Status,
		&a.Balance,
		&a.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Constraint == "accounts_user_id_fkey" {
				return a, domain.ErrUserNotFound
			}
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const getByNumberQuery = `
SELECT
	id, user_id, number, status, balance, created_at
FROM accounts
WHERE number = $1
`

// GetByNumber returns the account with the given account number.
func (r *RepoPGS) GetByNumber(ctx context.Context, number string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getByNumberQuery, number)

	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Number,
		&a.Status,
		&a.Balance,
		&a.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const setBalanceQuery = `
UPDATE accounts
SET balance = $1
WHERE id = $2
RETURNING id, user_id, number, status, balance, created_at
`

// SetBalance stores the new account balance and returns the changed account.
// Callers mutate the balance only while holding the account-number lease.
func (r *RepoPGS) SetBalance(ctx context.Context, id int64, balance int64) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, setBalanceQuery, balance, id)

	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Number,
		&a.Status,
		&a.Balance,
		&a.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Constraint == "accounts_balance_check" {
				return a, domain.ErrAmountExceedsBalance
			}
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const closeQuery = `
UPDATE accounts
SET status = $1
WHERE id = $2
RETURNING id, user_id, number, status, balance, created_at
`

// Close marks the account closed and returns it.
func (r *RepoPGS) Close(ctx context.Context, id int64) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, closeQuery, domain.AccountClosed, id)

	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Number,
		&a.Status,
		&a.Balance,
		&a.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const listByUserQuery = `
SELECT
	id, user_id, number, status, balance, created_at
FROM accounts
WHERE user_id = $1
ORDER BY id
`

// ListByUser returns all accounts of the given user.
func (r *RepoPGS) ListByUser(ctx context.Context, userID int64) ([]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listByUserQuery, userID)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Account{}

	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Number, &a.Status, &a.Balance, &a.CreatedAt); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, a)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const countOpenForUserQuery = `
SELECT count(*) FROM accounts
WHERE user_id = $1 AND status = $2
`

// CountOpenForUser returns the number of open accounts of the given user.
func (r *RepoPGS) CountOpenForUser(ctx context.Context, userID int64) (int64, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, countOpenForUserQuery, userID, domain.AccountActive)

	var count int64

	if err := row.Scan(&count); err != nil {
		l.Error().Err(err).Send()
		return 0, errorspkg.ErrInternal
	}

	return count, nil
}

const lastNumberQuery = `
SELECT number FROM accounts
ORDER BY id DESC
LIMIT 1
`

// LastNumber returns the most recently issued account number
// or an empty string when no accounts exist yet.
func (r *RepoPGS) LastNumber(ctx context.Context) (string, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, lastNumberQuery)

	var number string

	if err := row.Scan(&number); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}

		l.Error().Err(err).Send()

		return "", errorspkg.ErrInternal
	}

	return number, nil
}
