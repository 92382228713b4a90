package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is a product snapshot plus a cart-local quantity. It never
// references the live catalog row, so later catalog edits do not alter it.
type OrderItem struct {
	ProductID   string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Barcode     *string         `json:"barcode,omitempty"`
	ImageURL    *string         `json:"image_url,omitempty"`
	// Stock is the product's on-hand count when it was added; informational only.
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	Quantity  int       `json:"quantity"`
}

// LineTotal is price × quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderItems is stored as a JSON document column.
type OrderItems []OrderItem

// Clone returns a deep copy so snapshots never share backing arrays or pointers.
func (o OrderItems) Clone() OrderItems {
	if o == nil {
		return OrderItems{}
	}
	out := make(OrderItems, len(o))
	for i, item := range o {
		out[i] = item
		if item.Barcode != nil {
			v := *item.Barcode
			out[i].Barcode = &v
		}
		if item.ImageURL != nil {
			v := *item.ImageURL
			out[i].ImageURL = &v
		}
	}
	return out
}

// Value implements driver.Valuer.
func (o OrderItems) Value() (driver.Value, error) {
	if o == nil {
		return "[]", nil
	}
	payload, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("order items: marshal: %w", err)
	}
	return string(payload), nil
}

// Scan implements sql.Scanner for json/jsonb/text columns.
func (o *OrderItems) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*o = OrderItems{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("order items: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*o = OrderItems{}
		return nil
	}
	var decoded OrderItems
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("order items: unmarshal: %w", err)
	}
	if decoded == nil {
		decoded = OrderItems{}
	}
	*o = decoded
	return nil
}
