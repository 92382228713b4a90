package catalog

import (
	"time"

	"github.com/fairshop/fairpos-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// ProductDTO is the product payload returned to clients.
type ProductDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Barcode     *string         `json:"barcode"`
	ImageURL    *string         `json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// LookupDTO is the barcode lookup payload.
type LookupDTO struct {
	Found   bool        `json:"found"`
	Product *ProductDTO `json:"product"`
}

func NewProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    p.Quantity,
		Barcode:     p.Barcode,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func NewProductDTOs(products []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		out = append(out, *NewProductDTO(&products[i]))
	}
	return out
}

func NewLookupDTO(res Resolution) LookupDTO {
	return LookupDTO{Found: res.Found, Product: NewProductDTO(res.Product)}
}
