// Package cart is the in-session order being built at the register.
package cart

import (
	"github.com/fairshop/fairpos-backend/internal/money"
	"github.com/fairshop/fairpos-backend/pkg/db/models"
	"github.com/fairshop/fairpos-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// EditingMarker identifies the persisted transaction the cart was hydrated from.
type EditingMarker struct {
	TransactionID string          `json:"transaction_id"`
	Discount      decimal.Decimal `json:"discount"`
}

// Cart holds line items in insertion order. Totals are derived, never stored.
type Cart struct {
	Items    types.OrderItems `json:"items"`
	Editing  *EditingMarker   `json:"editing,omitempty"`
	Discount decimal.Decimal  `json:"discount"`
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{Items: types.OrderItems{}}
}

// Add merges by product id or appends a snapshot with quantity 1.
func (c *Cart) Add(p models.Product) {
	for i := range c.Items {
		if c.Items[i].ProductID == p.ID {
			c.Items[i].Quantity++
			return
		}
	}
	c.Items = append(c.Items, snapshot(p))
}

// SetQuantity overwrites the quantity of a line; q <= 0 removes it. Unknown ids are ignored.
func (c *Cart) SetQuantity(productID string, q int) {
	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		if q <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
		c.Items[i].Quantity = q
		return
	}
}

// SetDiscount stores the discount after clamping negatives to zero.
func (c *Cart) SetDiscount(d decimal.Decimal) {
	c.Discount = money.ClampDiscount(d)
}

// Clear empties items, resets the discount and leaves edit mode.
func (c *Cart) Clear() {
	c.Items = types.OrderItems{}
	c.Discount = decimal.Zero
	c.Editing = nil
}

// LoadTransaction replaces the cart with a persisted transaction and enters edit mode.
func (c *Cart) LoadTransaction(tx models.Transaction) {
	c.Items = tx.OrderItems.Clone()
	c.Discount = tx.Discount
	c.Editing = &EditingMarker{TransactionID: tx.ID, Discount: tx.Discount}
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (c *Cart) IsEditing() bool { return c.Editing != nil }

func (c *Cart) Subtotal() decimal.Decimal { return money.Subtotal(c.Items) }

func (c *Cart) Total() decimal.Decimal { return money.Total(c.Subtotal(), c.Discount) }

// Clone returns a deep copy, used to restore state when a commit fails.
func (c *Cart) Clone() *Cart {
	out := &Cart{Items: c.Items.Clone(), Discount: c.Discount}
	if c.Editing != nil {
		marker := *c.Editing
		out.Editing = &marker
	}
	return out
}

func snapshot(p models.Product) types.OrderItem {
	item := types.OrderItem{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Quantity,
		CreatedAt:   p.CreatedAt,
		Quantity:    1,
	}
	if p.Barcode != nil {
		v := *p.Barcode
		item.Barcode = &v
	}
	if p.ImageURL != nil {
		v := *p.ImageURL
		item.ImageURL = &v
	}
	return item
}
