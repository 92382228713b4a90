package controllers

import (
	"net/http"
	"strings"

	"github.com/fairshop/fairpos-backend/api/responses"
	"github.com/fairshop/fairpos-backend/internal/receipt"
	"github.com/fairshop/fairpos-backend/pkg/logger"
)

type receiptResponse struct {
	receipt.Snapshot
	Text string `json:"text"`
}

// CurrentReceipt consumes the receipt handed off by the last sale or reprint.
// ?format=text returns the printable layout as plain text.
func CurrentReceipt(svc receipt.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "receipt")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		snap, err := svc.Current(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeReceipt(w, r, svc, snap)
	}
}

// ReprintReceipt queues a stored sale for the receipt view and returns it.
func ReprintReceipt(svc receipt.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "receipt")
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
		snap, err := svc.Reprint(r.Context(), sessionID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, receiptResponse{Snapshot: snap, Text: svc.Text(snap)})
	}
}

func writeReceipt(w http.ResponseWriter, r *http.Request, svc receipt.Service, snap receipt.Snapshot) {
	text := svc.Text(snap)
	if strings.EqualFold(r.URL.Query().Get("format"), "text") {
		responses.WriteText(w, http.StatusOK, text)
		return
	}
	responses.WriteSuccess(w, receiptResponse{Snapshot: snap, Text: text})
}
