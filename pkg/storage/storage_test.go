package storage

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileIDFromURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		err  bool
	}{
		{name: "uc link", in: "https://drive.google.com/uc?id=abc123", want: "abc123"},
		{name: "open link", in: "https://drive.google.com/open?id=xyz&usp=sharing", want: "xyz"},
		{name: "view link", in: "https://drive.google.com/file/d/file-9/view?usp=drivesdk", want: "file-9"},
		{name: "empty", in: "  ", err: true},
		{name: "no id", in: "https://example.com/image.png", err: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FileIDFromURL(tc.in)
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPublicURLRoundTrip(t *testing.T) {
	id, err := FileIDFromURL(PublicURL("file-1"))
	require.NoError(t, err)
	assert.Equal(t, "file-1", id)
}

func TestFileNames(t *testing.T) {
	now := time.Date(2025, 2, 3, 14, 5, 6, 0, time.UTC)

	assert.Equal(t, "2025-02-03_14-05-06_น้ำดื่ม_12.5.png",
		ProductImageName(now, " น้ำดื่ม ", decimal.RequireFromString("12.50"), ".PNG"))
	assert.Equal(t, "2025-02-03_14-05-06_a-b_0.jpg",
		ProductImageName(now, "a/b", decimal.Zero, ""))
	assert.Equal(t, "2025-02-03_QR_จ่ายเงิน.webp", PaymentQRName(now, "webp"))
	assert.Equal(t, "2025-02-03_QR_จ่ายเงิน.png", PaymentQRName(now, ""))
}
