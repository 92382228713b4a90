package controllers

import (
	"net/http"

	"github.com/fairshop/fairpos-backend/api/responses"
	"github.com/fairshop/fairpos-backend/api/validators"
	"github.com/fairshop/fairpos-backend/internal/settings"
	pkgerrors "github.com/fairshop/fairpos-backend/pkg/errors"
	"github.com/fairshop/fairpos-backend/pkg/logger"
)

// PaymentSettings returns the payment QR image URL, empty when none is configured.
func PaymentSettings(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "settings")
			return
		}
		url, err := svc.PaymentQRCodeURL(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings.PaymentDTO{QRCodeURL: url})
	}
}

// ReplacePaymentQR publishes the uploaded `file` part and stores its URL.
func ReplacePaymentQR(svc settings.Service, maxUpload int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "settings")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		if err := validators.ParseMultipart(w, r, maxUpload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		img, err := validators.FormImage(r, "file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if img == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{"file": "is required"}))
			return
		}

		url, err := svc.ReplacePaymentQR(r.Context(), sessionID, settings.Image{MimeType: img.MimeType, Ext: img.Ext, Body: img.Body})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings.PaymentDTO{QRCodeURL: url})
	}
}
