package catalog

import (
	"context"
	"strings"

	"github.com/fairshop/fairpos-backend/internal/repo"
	"github.com/fairshop/fairpos-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists catalog products.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// List returns products newest first, optionally filtered by a case-insensitive name fragment.
func (r *Repository) List(ctx context.Context, query string) ([]models.Product, error) {
	tx := r.DB(ctx).Scopes(repo.NewestFirst)
	if q := strings.TrimSpace(query); q != "" {
		tx = tx.Where("LOWER(name) LIKE ? ESCAPE '\\'", "%"+strings.ToLower(escapeLike(q))+"%")
	}
	var products []models.Product
	if err := tx.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindByID loads a product or returns gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByBarcode returns the newest product whose barcode equals code exactly.
func (r *Repository) FindByBarcode(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).Scopes(repo.NewestFirst).Where("barcode = ?", code).Take(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Create inserts product, assigning its id and timestamps.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	now := r.Now()
	if product.ID == "" {
		product.ID = r.NewID()
	}
	product.CreatedAt = now
	product.UpdatedAt = now
	return r.DB(ctx).Create(product).Error
}

// Update overwrites every column of product except created_at.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = r.Now()
	res := r.DB(ctx).Model(&models.Product{}).Where("id = ?", product.ID).Select("*").Omit("id", "created_at").Updates(product)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the product row.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res := r.DB(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}
