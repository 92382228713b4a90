package settings

import (
	"context"

	"github.com/fairshop/fairpos-backend/internal/repo"
	"github.com/fairshop/fairpos-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository stores key/value settings.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Get returns the value for key or gorm.ErrRecordNotFound.
func (r *Repository) Get(ctx context.Context, key string) (string, error) {
	var setting models.Setting
	if err := r.DB(ctx).First(&setting, "key = ?", key).Error; err != nil {
		return "", err
	}
	return setting.Value, nil
}

// Set upserts key.
func (r *Repository) Set(ctx context.Context, key, value string) error {
	setting := models.Setting{Key: key, Value: value, UpdatedAt: r.Now()}
	return r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
}
