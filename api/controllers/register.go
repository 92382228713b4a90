package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fairshop/fairpos-backend/api/responses"
	"github.com/fairshop/fairpos-backend/api/validators"
	"github.com/fairshop/fairpos-backend/internal/register"
	"github.com/fairshop/fairpos-backend/internal/transactions"
	pkgerrors "github.com/fairshop/fairpos-backend/pkg/errors"
	"github.com/fairshop/fairpos-backend/pkg/logger"
)

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

type scanRequest struct {
	Code string `json:"code" validate:"required,max=128"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type discountRequest struct {
	Discount *decimal.Decimal `json:"discount" validate:"required"`
}

// confirmResponse adds the persisted sale to a commit result.
type confirmResponse struct {
	register.ConfirmResult
	Transaction *transactions.TransactionDTO `json:"transaction,omitempty"`
}

type viewFunc func(w http.ResponseWriter, r *http.Request, sessionID string) (register.View, error)

// registerView runs fn for the current session and writes the resulting register view.
func registerView(svc register.Service, logg *logger.Logger, fn viewFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "register")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		view, err := fn(w, r, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// RegisterState returns the cart, loading a queued edit first.
func RegisterState(svc register.Service, logg *logger.Logger) http.HandlerFunc {
	return registerView(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) (register.View, error) {
		return svc.State(r.Context(), sessionID)
	})
}

func RegisterAddItem(svc register.Service, logg *logger.Logger) http.HandlerFunc {
	return registerView(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) (register.View, error) {
		var req addItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return register.View{}, err
		}
		return svc.AddProduct(r.Context(), sessionID, req.ProductID)
	})
}

// RegisterScan adds the product matching a scanned code. Unknown codes are kept for the add-product form.
func RegisterScan(svc register.Service, logg *logger.Logger) http.HandlerFunc {
	return registerView(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) (register.View, error) {
		var req scanRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return register.View{}, err
		}
		return svc.Scan(r.Context(), sessionID, validators.SanitizeString(req.Code, maxBarcodeLength))
	})
}

func RegisterSetQuantity(svc register.Service, logg *logger.Logger) http.HandlerFunc {
	return registerView(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) (register.View, error) {
		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if productID == "" {
			return register.View{}, pkgerrors.New(pkgerrors.CodeValidation, "missing path parameter").WithDetails(map[string]any{"field": "productId"})
		}
		var req quantityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return register.View{}, err
		}
		return svc.SetQuantity(r.Context(), sessionID, productID, *req.Quantity)
	})
}

func RegisterSetDiscount(svc register.Service, logg *logger.Logger) http.HandlerFunc {
	return registerView(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) (register.View, error) {
		var req discountRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return register.View{}, err
		}
		return svc.SetDiscount(r.Context(), sessionID, *req.Discount)
	})
}

func RegisterClear(svc register.Service, logg *logger.Logger) http.HandlerFunc {
	return registerView(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) (register.View, error) {
		return svc.Clear(r.Context(), sessionID)
	})
}

func RegisterCancelPayment(svc register.Service, logg *logger.Logger) http.HandlerFunc {
	return registerView(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) (register.View, error) {
		return svc.CancelPayment(r.Context(), sessionID)
	})
}

func RegisterCancelEdit(svc register.Service, logg *logger.Logger) http.HandlerFunc {
	return registerView(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) (register.View, error) {
		return svc.CancelEdit(r.Context(), sessionID)
	})
}

// RegisterConfirm moves a new sale to payment, or writes an edited sale back.
func RegisterConfirm(svc register.Service, logg *logger.Logger) http.HandlerFunc {
	return registerCommit(svc, logg, register.Service.Confirm)
}

// RegisterConfirmPayment records the sale once the cashier confirms payment arrived.
func RegisterConfirmPayment(svc register.Service, logg *logger.Logger) http.HandlerFunc {
	return registerCommit(svc, logg, register.Service.ConfirmPayment)
}

type commitFunc func(register.Service, context.Context, string) (register.ConfirmResult, error)

func registerCommit(svc register.Service, logg *logger.Logger, commit commitFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "register")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		result, err := commit(svc, r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if result.Step == register.StepCompleted {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, confirmResponse{
			ConfirmResult: result,
			Transaction:   transactions.NewTransactionDTO(result.Transaction),
		})
	}
}
