package transactions

import (
	"context"

	"github.com/fairshop/fairpos-backend/internal/repo"
	"github.com/fairshop/fairpos-backend/pkg/db/models"
	"github.com/fairshop/fairpos-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists completed sales.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// List returns every transaction newest first.
func (r *Repository) List(ctx context.Context) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := r.DB(ctx).Scopes(repo.NewestFirst).Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// ListAfter returns up to limit transactions older than the cursor, newest first.
func (r *Repository) ListAfter(ctx context.Context, limit int, after *pagination.Cursor) ([]models.Transaction, error) {
	q := r.DB(ctx).Scopes(repo.NewestFirst).Limit(limit)
	if after != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", after.CreatedAt.UTC(), after.CreatedAt.UTC(), after.ID)
	}
	var txs []models.Transaction
	if err := q.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// FindByID loads a transaction or returns gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.DB(ctx).First(&tx, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

// Create inserts tx with a fresh id; created_at is stamped now.
func (r *Repository) Create(ctx context.Context, tx *models.Transaction) error {
	now := r.Now()
	if tx.ID == "" {
		tx.ID = r.NewID()
	}
	tx.CreatedAt = now
	tx.UpdatedAt = now
	return r.DB(ctx).Create(tx).Error
}

// Update overwrites items and amounts. created_at is never touched.
func (r *Repository) Update(ctx context.Context, tx *models.Transaction) error {
	tx.UpdatedAt = r.Now()
	res := r.DB(ctx).Model(&models.Transaction{}).Where("id = ?", tx.ID).Updates(map[string]any{
		"order_items": tx.OrderItems,
		"subtotal":    tx.Subtotal,
		"discount":    tx.Discount,
		"total":       tx.Total,
		"updated_at":  tx.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
