package controllers

import (
	"net/http"

	"github.com/fairshop/fairpos-backend/api/responses"
	"github.com/fairshop/fairpos-backend/api/validators"
	"github.com/fairshop/fairpos-backend/internal/register"
	"github.com/fairshop/fairpos-backend/internal/transactions"
	"github.com/fairshop/fairpos-backend/pkg/logger"
	"github.com/fairshop/fairpos-backend/pkg/pagination"
)

const nextCursorHeader = "X-Next-Cursor"

// ListTransactions returns the sales history, newest first. With ?limit= or ?cursor=
// it returns one page and sets X-Next-Cursor when more rows remain.
func ListTransactions(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "transaction")
			return
		}
		query := r.URL.Query()
		if query.Has("limit") || query.Has("cursor") {
			limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			page, err := svc.ListPage(r.Context(), pagination.Params{Limit: limit, Cursor: query.Get("cursor")})
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if page.NextCursor != "" {
				w.Header().Set(nextCursorHeader, page.NextCursor)
			}
			responses.WriteSuccess(w, transactions.NewTransactionDTOs(page.Items))
			return
		}

		txs, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transactions.NewTransactionDTOs(txs))
	}
}

func GetTransaction(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "transaction")
			return
		}
		id, ok := urlParam(w, r, logg, "transactionId")
		if !ok {
			return
		}
		tx, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transactions.NewTransactionDTO(tx))
	}
}

// EditTransaction queues a stored sale for the register; the client then opens the register.
func EditTransaction(svc register.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "register")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		id, ok := urlParam(w, r, logg, "transactionId")
		if !ok {
			return
		}
		if err := svc.QueueEdit(r.Context(), sessionID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"next": "register"})
	}
}
