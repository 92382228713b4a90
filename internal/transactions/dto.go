package transactions

import (
	"time"

	"github.com/fairshop/fairpos-backend/pkg/db/models"
	"github.com/fairshop/fairpos-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// TransactionDTO is the sale payload returned to clients.
type TransactionDTO struct {
	ID         string           `json:"id"`
	OrderItems types.OrderItems `json:"order_items"`
	Subtotal   decimal.Decimal  `json:"subtotal"`
	Discount   decimal.Decimal  `json:"discount"`
	Total      decimal.Decimal  `json:"total"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func NewTransactionDTO(tx *models.Transaction) *TransactionDTO {
	if tx == nil {
		return nil
	}
	return &TransactionDTO{
		ID:         tx.ID,
		OrderItems: tx.OrderItems,
		Subtotal:   tx.Subtotal,
		Discount:   tx.Discount,
		Total:      tx.Total,
		CreatedAt:  tx.CreatedAt,
		UpdatedAt:  tx.UpdatedAt,
	}
}

func NewTransactionDTOs(txs []models.Transaction) []TransactionDTO {
	out := make([]TransactionDTO, 0, len(txs))
	for i := range txs {
		out = append(out, *NewTransactionDTO(&txs[i]))
	}
	return out
}
