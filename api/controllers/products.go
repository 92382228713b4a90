package controllers

import (
	"net/http"

	"github.com/fairshop/fairpos-backend/api/responses"
	"github.com/fairshop/fairpos-backend/api/validators"
	"github.com/fairshop/fairpos-backend/internal/catalog"
	pkgerrors "github.com/fairshop/fairpos-backend/pkg/errors"
	"github.com/fairshop/fairpos-backend/pkg/logger"
)

const (
	maxNameLength        = 200
	maxDescriptionLength = 2000
	maxBarcodeLength     = 128
	maxQueryLength       = 200
)

// ListProducts returns the catalog, newest first, filtered by ?q= on the name.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}
		query := validators.SanitizeString(r.URL.Query().Get("q"), maxQueryLength)
		products, err := svc.List(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.NewProductDTOs(products))
	}
}

// LookupProduct resolves a scanned code. An unknown code is a normal result.
func LookupProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}
		code := validators.SanitizeString(r.URL.Query().Get("code"), maxBarcodeLength)
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "code is required").WithDetails(map[string]any{"field": "code"}))
			return
		}
		res, err := svc.ResolveByCode(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.NewLookupDTO(res))
	}
}

// ProductDraft hands the add-product form the barcode the register could not resolve.
func ProductDraft(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		draft, err := svc.Draft(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, draft)
	}
}

func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}
		id, ok := urlParam(w, r, logg, "productId")
		if !ok {
			return
		}
		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.NewProductDTO(product))
	}
}

// CreateProduct accepts the add-product multipart form with an optional image part.
func CreateProduct(svc catalog.Service, maxUpload int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		form, err := parseProductForm(w, r, maxUpload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if form.name == nil || *form.name == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{"name": "is required"}))
			return
		}
		if form.price == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{"price": "is required"}))
			return
		}

		product, err := svc.Create(r.Context(), sessionID, catalog.CreateInput{
			Name:        *form.name,
			Description: form.description,
			Price:       *form.price,
			Quantity:    form.quantity,
			Barcode:     form.barcode,
			Image:       form.image,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, catalog.NewProductDTO(product))
	}
}

// UpdateProduct applies the fields present in the multipart form.
func UpdateProduct(svc catalog.Service, maxUpload int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		id, ok := urlParam(w, r, logg, "productId")
		if !ok {
			return
		}
		form, err := parseProductForm(w, r, maxUpload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), sessionID, id, catalog.UpdateInput{
			Name:        form.name,
			Description: form.description,
			Price:       form.price,
			Quantity:    form.quantity,
			Barcode:     form.barcode,
			Image:       form.image,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.NewProductDTO(product))
	}
}

func DeleteProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		id, ok := urlParam(w, r, logg, "productId")
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), sessionID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
