package register

import (
	"github.com/fairshop/fairpos-backend/internal/cart"
	"github.com/fairshop/fairpos-backend/pkg/db/models"
	"github.com/fairshop/fairpos-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// View is the register as shown to the cashier.
type View struct {
	Items          types.OrderItems    `json:"items"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	Discount       decimal.Decimal     `json:"discount"`
	Total          decimal.Decimal     `json:"total"`
	Editing        *cart.EditingMarker `json:"editing"`
	PaymentPending bool                `json:"payment_pending"`
}

// ConfirmResult tells the client which screen comes next.
type ConfirmResult struct {
	Step        string              `json:"step"`
	QRCodeURL   *string             `json:"qr_code_url,omitempty"`
	Subtotal    *decimal.Decimal    `json:"subtotal,omitempty"`
	Discount    *decimal.Decimal    `json:"discount,omitempty"`
	Total       *decimal.Decimal    `json:"total,omitempty"`
	Transaction *models.Transaction `json:"-"`
	Next        string              `json:"next,omitempty"`
}

func newView(st *State) View {
	items := st.Cart.Items
	if items == nil {
		items = types.OrderItems{}
	}
	return View{
		Items:          items,
		Subtotal:       st.Cart.Subtotal(),
		Discount:       st.Cart.Discount,
		Total:          st.Cart.Total(),
		Editing:        st.Cart.Editing,
		PaymentPending: st.PaymentPending,
	}
}
