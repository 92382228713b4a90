package money

import (
	"testing"

	"github.com/fairshop/fairpos-backend/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSubtotal(t *testing.T) {
	assert.True(t, Subtotal(nil).IsZero())

	items := []types.OrderItem{
		{ProductID: "a", Price: d("0.10"), Quantity: 3},
		{ProductID: "b", Price: d("19.99"), Quantity: 2},
	}
	assert.Equal(t, "40.28", Subtotal(items).StringFixed(2))
}

func TestTotalAllowsNegative(t *testing.T) {
	cases := []struct {
		subtotal, discount, want string
	}{
		{"100", "0", "100"},
		{"100", "30", "70"},
		{"100", "150", "-50"},
	}
	for _, tc := range cases {
		got := Total(d(tc.subtotal), d(tc.discount))
		assert.Truef(t, got.Equal(d(tc.want)), "Total(%s,%s)=%s", tc.subtotal, tc.discount, got)
	}
}

func TestClampDiscount(t *testing.T) {
	assert.True(t, ClampDiscount(d("-5")).IsZero())
	assert.True(t, ClampDiscount(d("12.5")).Equal(d("12.5")))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1,234.50", Format(d("1234.5")))
	assert.Equal(t, "0.00", Format(decimal.Zero))
	assert.Equal(t, "-50.00", Format(d("-50")))
}
