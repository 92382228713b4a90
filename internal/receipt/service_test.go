package receipt

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fairshop/fairpos-backend/internal/handoff"
	"github.com/fairshop/fairpos-backend/pkg/db/models"
	pkgerrors "github.com/fairshop/fairpos-backend/pkg/errors"
	redisclient "github.com/fairshop/fairpos-backend/pkg/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type txByID map[string]*models.Transaction

func (m txByID) Get(ctx context.Context, id string) (*models.Transaction, error) {
	if tx, ok := m[id]; ok {
		return tx, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
}

func newReceiptService(t *testing.T) Service {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	slot := handoff.NewSlot[Snapshot](redisclient.NewFromRedis(raw), handoff.Receipt, time.Minute)

	svc, err := NewService(slot, txByID{"tx-1": sampleTx()}, Header{ShopName: "ร้านแฟร์"}, time.UTC)
	require.NoError(t, err)
	return svc
}

func TestCurrentIsSingleUse(t *testing.T) {
	svc := newReceiptService(t)
	ctx := context.Background()

	_, err := svc.Current(ctx, "s-1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	printed, err := svc.Reprint(ctx, "s-1", "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "tx-1", printed.TransactionID)

	got, err := svc.Current(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(printed.Total))
	assert.Len(t, got.OrderItems, 2)

	_, err = svc.Current(ctx, "s-1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestReprintUnknownTransaction(t *testing.T) {
	svc := newReceiptService(t)
	_, err := svc.Reprint(context.Background(), "s-1", "missing")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Current(context.Background(), "s-1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestText(t *testing.T) {
	svc := newReceiptService(t)
	out := svc.Text(FromTransaction(sampleTx()))
	assert.Contains(t, out, "ร้านแฟร์")
	assert.Contains(t, out, "1,250.00")
}
