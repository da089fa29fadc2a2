// Package transactionrepo manages repository layer of the append-only transaction ledger.
package transactionrepo

import (
	"context"
	"database/sql"

	"github.com/go-petr/account-ledger/internal/domain"
	"github.com/go-petr/account-ledger/pkg/dbpkg"
	"github.com/go-petr/account-ledger/pkg/errorspkg"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates transaction repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns transaction RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

const createQuery = `
INSERT INTO transactions (
    transaction_id,
    account_id,
    kind,
    result,
    amount,
    balance_snapshot,
    related_transaction_id
) VALUES (
    $1, $2, $3, $4, $5, $6, $7
) RETURNING
	id, transaction_id, account_id, kind, result,
	amount, balance_snapshot, related_transaction_id, transacted_at
`

// Create appends the ledger entry and then returns it.
// Entries are never updated or deleted afterwards.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	var related sql.NullString
	if arg.RelatedTransactionID != "" {
		related = sql.NullString{String: arg.RelatedTransactionID, Valid: true}
	}

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.TransactionID,
		arg.AccountID,
		arg.Kind,
		arg.Result,
		arg.Amount,
		arg.BalanceSnapshot,
		related,
	)

	tx, err := scanTransaction(row)
	if err != nil {
		l.Error().Err(err).Send()
		return tx, errorspkg.ErrInternal
	}

	return tx, nil
}

const getByTransactionIDQuery = `
SELECT
	id, transaction_id, account_id, kind, result,
	amount, balance_snapshot, related_transaction_id, transacted_at
FROM transactions
WHERE transaction_id = $1
`

// GetByTransactionID returns the ledger entry with the given opaque transaction id.
func (r *RepoPGS) GetByTransactionID(ctx context.Context, transactionID string) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getByTransactionIDQuery, transactionID)

	tx, err := scanTransaction(row)
	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return tx, domain.ErrTransactionNotFound
		}

		return tx, errorspkg.ErrInternal
	}

	return tx, nil
}

const lastForAccountQuery = `
SELECT
	id, transaction_id, account_id, kind, result,
	amount, balance_snapshot, related_transaction_id, transacted_at
FROM transactions
WHERE account_id = $1
ORDER BY id DESC
LIMIT 1
`

// LastForAccount returns the latest ledger entry of the given account.
func (r *RepoPGS) LastForAccount(ctx context.Context, accountID int64) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, lastForAccountQuery, accountID)

	tx, err := scanTransaction(row)
	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return tx, domain.ErrTransactionNotFound
		}

		return tx, errorspkg.ErrInternal
	}

	return tx, nil
}

func scanTransaction(row *sql.Row) (domain.Transaction, error) {
	var (
		tx      domain.Transaction
		related sql.NullString
	)

	err := row.Scan(
		&tx.ID,
		&tx.TransactionID,
		&tx.AccountID,
		&tx.Kind,
		&tx.Result,
		&tx.Amount,
		&tx.BalanceSnapshot,
		&related,
		&tx.TransactedAt,
	)
	if err != nil {
		return tx, err
	}

	tx.RelatedTransactionID = related.String

	return tx, nil
}
