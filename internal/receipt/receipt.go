// Package receipt renders printable sale receipts.
package receipt

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/fairshop/fairpos-backend/internal/money"
	"github.com/fairshop/fairpos-backend/pkg/db/models"
	"github.com/fairshop/fairpos-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Width is the column count of a printed receipt.
const Width = 40

// buddhistEraOffset converts Gregorian years to the Thai calendar.
const buddhistEraOffset = 543

// Snapshot is an immutable copy of a sale handed to the receipt view.
type Snapshot struct {
	TransactionID string           `json:"transaction_id"`
	OrderItems    types.OrderItems `json:"order_items"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	Discount      decimal.Decimal  `json:"discount"`
	Total         decimal.Decimal  `json:"total"`
	CreatedAt     time.Time        `json:"created_at"`
}

// FromTransaction copies a persisted transaction into a snapshot.
func FromTransaction(tx *models.Transaction) Snapshot {
	return Snapshot{
		TransactionID: tx.ID,
		OrderItems:    tx.OrderItems.Clone(),
		Subtotal:      tx.Subtotal,
		Discount:      tx.Discount,
		Total:         tx.Total,
		CreatedAt:     tx.CreatedAt,
	}
}

// Header identifies the shop on a receipt.
type Header struct {
	ShopName string
	Footer   []string
}

// Render lays the snapshot out as fixed-width text in the shop's time zone.
func Render(h Header, snap Snapshot, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	at := snap.CreatedAt.In(loc)
	rule := strings.Repeat("-", Width)

	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	line(center(h.ShopName))
	line(center("ใบเสร็จรับเงิน"))
	line(center(fmt.Sprintf("วันที่: %02d/%02d/%d เวลา: %s น.", at.Day(), at.Month(), at.Year()+buddhistEraOffset, at.Format("15:04"))))
	line(rule)
	for _, item := range snap.OrderItems {
		line(item.Name)
		line(spread(fmt.Sprintf("  %d x %s", item.Quantity, money.Format(item.Price)), money.Format(item.LineTotal())))
	}
	line(rule)
	line(spread("ยอดรวม (ก่อนลด)", money.Format(snap.Subtotal)))
	line(spread("ส่วนลด", "-"+money.Format(snap.Discount)))
	line(spread("ยอดสุทธิ", money.Format(snap.Total)))
	line(rule)
	line(center("ขอบคุณที่ใช้บริการ"))
	for _, f := range h.Footer {
		if f = strings.TrimSpace(f); f != "" {
			line(center(f))
		}
	}
	return b.String()
}

// displayWidth counts printed columns; Thai vowel and tone marks take none.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		n++
	}
	return n
}

func center(s string) string {
	pad := (Width - displayWidth(s)) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}

func spread(left, right string) string {
	gap := Width - displayWidth(left) - utf8.RuneCountInString(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
