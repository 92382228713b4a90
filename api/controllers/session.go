package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fairshop/fairpos-backend/api/middleware"
	"github.com/fairshop/fairpos-backend/api/responses"
	pkgerrors "github.com/fairshop/fairpos-backend/pkg/errors"
	"github.com/fairshop/fairpos-backend/pkg/logger"
)

// requireSession writes 401 and returns false when the request carries no session.
func requireSession(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (string, bool) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session context missing"))
		return "", false
	}
	return sessionID, true
}

func urlParam(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) (string, bool) {
	value := strings.TrimSpace(chi.URLParam(r, name))
	if value == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "missing path parameter").WithDetails(map[string]any{"field": name}))
		return "", false
	}
	return value, true
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}
