package models

import (
	"time"

	"github.com/fairshop/fairpos-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Transaction is a persisted sale. Edits overwrite the row in place; CreatedAt
// is written once.
type Transaction struct {
	ID         string           `gorm:"column:id;primaryKey"`
	OrderItems types.OrderItems `gorm:"column:order_items;type:jsonb;not null"`
	Subtotal   decimal.Decimal  `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Discount   decimal.Decimal  `gorm:"column:discount;type:numeric(12,2);not null"`
	Total      decimal.Decimal  `gorm:"column:total;type:numeric(12,2);not null"`
	CreatedAt  time.Time        `gorm:"column:created_at;index"`
	UpdatedAt  time.Time        `gorm:"column:updated_at"`
}

func (Transaction) TableName() string { return "transactions" }
