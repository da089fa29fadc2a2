// Package transactiondelivery manages delivery layer of balance transactions.
package transactiondelivery

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/account-ledger/internal/domain"
	"github.com/go-petr/account-ledger/pkg/errorspkg"
	"github.com/go-petr/account-ledger/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Service provides service layer interface needed by transaction delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package transactiondelivery
type Service interface {
	UseBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (domain.Transaction, error)
	RecordFailedUse(ctx context.Context, accountNumber string, amount int64) (domain.Transaction, error)
	CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (domain.Transaction, error)
	RecordFailedCancel(ctx context.Context, accountNumber string, amount int64) (domain.Transaction, error)
	Get(ctx context.Context, transactionID string) (domain.Transaction, error)
}

// Handler facilitates transaction delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns transaction handler.
func NewHandler(ts Service) *Handler {
	return &Handler{service: ts}
}

type transactionData struct {
	AccountNumber     string                   `json:"account_number"`
	TransactionResult domain.TransactionResult `json:"transaction_result"`
	TransactionID     string                   `json:"transaction_id"`
	Amount            int64                    `json:"amount"`
	TransactedAt      time.Time                `json:"transacted_at"`
}

func newTransactionData(accountNumber string, tx domain.Transaction) transactionData {
	return transactionData{
		AccountNumber:     accountNumber,
		TransactionResult: tx.Result,
		TransactionID:     tx.TransactionID,
		Amount:            tx.Amount,
		TransactedAt:      tx.TransactedAt,
	}
}

type useRequest struct {
	UserID        int64  `json:"user_id" binding:"required,min=1"`
	AccountNumber string `json:"account_number" binding:"required,accnumber"`
	Amount        int64  `json:"amount" binding:"required,min=1"`
}

// Use handles http request to withdraw balance from an account.
//
// A rejected withdrawal leaves a failure entry in the ledger before the error
// response is returned.
func (h *Handler) Use(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req useRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()

		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			gctx.JSON(http.StatusBadRequest, web.Response{Error: web.GetErrorMsg(ve)})

			return
		}

		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	tx, err := h.service.UseBalance(ctx, req.UserID, req.AccountNumber, req.Amount)
	if err != nil {
		h.recordUseFailure(ctx, req.AccountNumber, req.Amount, err)

		switch err {
		case domain.ErrUserNotFound, domain.ErrAccountNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		case domain.ErrUserAccountMismatch:
			gctx.JSON(http.StatusUnauthorized, web.Error(err))
			return
		case domain.ErrAccountAlreadyClosed, domain.ErrLockUnavailable:
			gctx.JSON(http.StatusConflict, web.Error(err))
			return
		case domain.ErrAmountExceedsBalance, domain.ErrNonPositiveAmount:
			gctx.JSON(http.StatusBadRequest, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: newTransactionData(req.AccountNumber, tx)})
}

// recordUseFailure appends the failure audit entry for a rejected withdrawal.
// Lease contention and infrastructure faults are not ledger-worthy outcomes.
func (h *Handler) recordUseFailure(ctx context.Context, accountNumber string, amount int64, cause error) {
	if !isBusinessRejection(cause) {
		return
	}

	if _, err := h.service.RecordFailedUse(ctx, accountNumber, amount); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("account_number", accountNumber).
			Msg("recording failed use transaction")
	}
}

type cancelRequest struct {
	TransactionID string `json:"transaction_id" binding:"required,alphanum"`
	AccountNumber string `json:"account_number" binding:"required,accnumber"`
	Amount        int64  `json:"amount" binding:"required,min=1"`
}

// Cancel handles http request to reverse a prior withdrawal in full.
func (h *Handler) Cancel(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req cancelRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()

		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			gctx.JSON(http.StatusBadRequest, web.Response{Error: web.GetErrorMsg(ve)})

			return
		}

		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	tx, err := h.service.CancelBalance(ctx, req.TransactionID, req.AccountNumber, req.Amount)
	if err != nil {
		h.recordCancelFailure(ctx, req.AccountNumber, req.Amount, err)

		switch err {
		case domain.ErrTransactionNotFound, domain.ErrAccountNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		case domain.ErrTransactionAccountMismatch:
			gctx.JSON(http.StatusUnauthorized, web.Error(err))
			return
		case domain.ErrLockUnavailable:
			gctx.JSON(http.StatusConflict, web.Error(err))
			return
		case domain.ErrCancelMustBeFull, domain.ErrTooOldToCancel, domain.ErrBalanceOverflow, domain.ErrNonPositiveAmount:
			gctx.JSON(http.StatusBadRequest, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: newTransactionData(req.AccountNumber, tx)})
}

func (h *Handler) recordCancelFailure(ctx context.Context, accountNumber string, amount int64, cause error) {
	if !isBusinessRejection(cause) {
		return
	}

	if _, err := h.service.RecordFailedCancel(ctx, accountNumber, amount); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("account_number", accountNumber).
			Msg("recording failed cancel transaction")
	}
}

func isBusinessRejection(err error) bool {
	switch err {
	case domain.ErrUserNotFound,
		domain.ErrAccountNotFound,
		domain.ErrUserAccountMismatch,
		domain.ErrAccountAlreadyClosed,
		domain.ErrAmountExceedsBalance,
		domain.ErrTransactionNotFound,
		domain.ErrTransactionAccountMismatch,
		domain.ErrCancelMustBeFull,
		domain.ErrTooOldToCancel,
		domain.ErrBalanceOverflow:
		return true
	}

	return false
}

type getRequest struct {
	TransactionID string `uri:"transaction_id" binding:"required,alphanum"`
}

// Get handles http request to query a single ledger entry.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req getRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()

		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			gctx.JSON(http.StatusBadRequest, web.Response{Error: web.GetErrorMsg(ve)})

			return
		}

		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	tx, err := h.service.Get(ctx, req.TransactionID)
	if err != nil {
		if err == domain.ErrTransactionNotFound {
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: struct {
		Transaction domain.Transaction `json:"transaction"`
	}{tx}})
}
