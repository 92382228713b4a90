package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/fairshop/fairpos-backend/api/validators"
	"github.com/fairshop/fairpos-backend/internal/catalog"
)

type productForm struct {
	name        *string
	description *string
	price       *decimal.Decimal
	quantity    *int
	barcode     *string
	image       *catalog.Image
}

// parseProductForm reads the product multipart form. Absent fields stay nil.
func parseProductForm(w http.ResponseWriter, r *http.Request, maxUpload int64) (productForm, error) {
	var form productForm
	if err := validators.ParseMultipart(w, r, maxUpload); err != nil {
		return form, err
	}
	if v, ok := validators.FormString(r, "name", maxNameLength); ok {
		form.name = &v
	}
	if v, ok := validators.FormString(r, "description", maxDescriptionLength); ok {
		form.description = &v
	}
	if v, ok := validators.FormString(r, "barcode", maxBarcodeLength); ok {
		form.barcode = &v
	}

	price, err := validators.FormDecimal(r, "price")
	if err != nil {
		return form, err
	}
	form.price = price

	quantity, err := validators.FormInt(r, "quantity")
	if err != nil {
		return form, err
	}
	form.quantity = quantity

	img, err := validators.FormImage(r, "image")
	if err != nil {
		return form, err
	}
	if img != nil {
		form.image = &catalog.Image{MimeType: img.MimeType, Ext: img.Ext, Body: img.Body}
	}
	return form, nil
}
