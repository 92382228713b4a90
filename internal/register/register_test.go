package register

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fairshop/fairpos-backend/internal/catalog"
	"github.com/fairshop/fairpos-backend/internal/handoff"
	"github.com/fairshop/fairpos-backend/internal/receipt"
	"github.com/fairshop/fairpos-backend/internal/repo/repotest"
	"github.com/fairshop/fairpos-backend/internal/settings"
	"github.com/fairshop/fairpos-backend/internal/transactions"
	"github.com/fairshop/fairpos-backend/pkg/db/models"
	pkgerrors "github.com/fairshop/fairpos-backend/pkg/errors"
	redisclient "github.com/fairshop/fairpos-backend/pkg/redis"
	"github.com/fairshop/fairpos-backend/pkg/storage"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noFiles struct{}

func (noFiles) Publish(ctx context.Context, token string, u storage.Upload) (storage.Object, error) {
	return storage.Object{}, errors.New("not used")
}
func (noFiles) Delete(ctx context.Context, token, fileID string) error { return nil }

type noTokens struct{}

func (noTokens) DriveToken(ctx context.Context, sessionID string) (string, error) { return "", nil }

type flakyTransactions struct {
	transactionStore
	fail bool
}

func (f *flakyTransactions) Create(ctx context.Context, snap transactions.Snapshot) (*models.Transaction, error) {
	if f.fail {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("db down"), "db: insert transaction")
	}
	return f.transactionStore.Create(ctx, snap)
}

type flakyStates struct {
	stateStore
	failSave bool
}

func (f *flakyStates) Save(ctx context.Context, sessionID string, st *State) error {
	if f.failSave {
		return errors.New("redis down")
	}
	return f.stateStore.Save(ctx, sessionID, st)
}

type fixture struct {
	svc      Service
	deps     Deps
	products *catalog.Repository
	txs      *flakyTransactions
	qr       *settings.Repository
	states   *StateStore
	barcodes *handoff.Slot[string]
	receipts *handoff.Slot[receipt.Snapshot]
	redis    *redisclient.Client
	mr       *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := repotest.Open(t)
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	rc := redisclient.NewFromRedis(raw)

	products := catalog.NewRepository(conn.DB())
	barcodes := handoff.NewSlot[string](rc, handoff.ScannedBarcode, time.Minute)
	catalogSvc, err := catalog.NewService(catalog.Deps{Repo: products, Files: noFiles{}, Tokens: noTokens{}, Barcodes: barcodes})
	require.NoError(t, err)

	txSvc, err := transactions.NewService(transactions.NewRepository(conn.DB()))
	require.NoError(t, err)
	txs := &flakyTransactions{transactionStore: txSvc}

	qr := settings.NewRepository(conn.DB())
	settingsSvc, err := settings.NewService(settings.Deps{Repo: qr, Files: noFiles{}, Tokens: noTokens{}})
	require.NoError(t, err)

	states, err := NewStateStore(rc, time.Hour)
	require.NoError(t, err)
	receipts := handoff.NewSlot[receipt.Snapshot](rc, handoff.Receipt, time.Minute)

	deps := Deps{
		States:       states,
		Products:     catalogSvc,
		Transactions: txs,
		Settings:     settingsSvc,
		Locks:        NewCommitLocks(rc, time.Minute),
		Barcodes:     barcodes,
		Receipts:     receipts,
		Edits:        handoff.NewSlot[models.Transaction](rc, handoff.EditTransaction, time.Minute),
	}
	svc, err := NewService(deps)
	require.NoError(t, err)
	return &fixture{svc: svc, deps: deps, products: products, txs: txs, qr: qr, states: states, barcodes: barcodes, receipts: receipts, redis: rc, mr: mr}
}

func (f *fixture) product(t *testing.T, name, price string, qty int, barcode string) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: decimal.RequireFromString(price), Quantity: qty}
	if barcode != "" {
		p.Barcode = &barcode
	}
	require.NoError(t, f.products.Create(context.Background(), &p))
	return p
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNewSaleFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.qr.Set(ctx, models.SettingPaymentQRCodeURL, "https://qr.example/1"))
	water := f.product(t, "Water", "10", 5, "885")

	view, err := f.svc.AddProduct(ctx, "s1", water.ID)
	require.NoError(t, err)
	view, err = f.svc.Scan(ctx, "s1", "885")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)

	view, err = f.svc.SetDiscount(ctx, "s1", dec("5"))
	require.NoError(t, err)
	assert.True(t, view.Total.Equal(dec("15")))

	res, err := f.svc.Confirm(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StepPayment, res.Step)
	require.NotNil(t, res.QRCodeURL)
	assert.Equal(t, "https://qr.example/1", *res.QRCodeURL)
	assert.True(t, res.Total.Equal(dec("15")))

	res, err = f.svc.ConfirmPayment(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StepCompleted, res.Step)
	assert.Equal(t, NextReceipt, res.Next)
	require.NotNil(t, res.Transaction)
	assert.True(t, res.Transaction.Subtotal.Equal(dec("20")))
	assert.True(t, res.Transaction.Total.Equal(dec("15")))

	snap, found, err := f.receipts.Take(ctx, "s1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, res.Transaction.ID, snap.TransactionID)

	view, err = f.svc.State(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.False(t, view.PaymentPending)
	assert.True(t, view.Discount.IsZero())
}

func TestCommitLeavesStockUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Tea", "25", 3, "")

	_, err := f.svc.AddProduct(ctx, "s1", p.ID)
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, "s1")
	require.NoError(t, err)
	_, err = f.svc.ConfirmPayment(ctx, "s1")
	require.NoError(t, err)

	stored, err := f.products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Quantity)
}

func TestConfirmEmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Confirm(context.Background(), "s1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = f.svc.ConfirmPayment(context.Background(), "s1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestConfirmEmptiedEditCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tea := f.product(t, "Tea", "25", 3, "")
	chips := f.product(t, "Chips", "40", 3, "")

	for _, id := range []string{tea.ID, tea.ID, chips.ID} {
		_, err := f.svc.AddProduct(ctx, "s1", id)
		require.NoError(t, err)
	}
	_, err := f.svc.Confirm(ctx, "s1")
	require.NoError(t, err)
	sale, err := f.svc.ConfirmPayment(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, f.svc.QueueEdit(ctx, "s1", sale.Transaction.ID))
	_, err = f.svc.State(ctx, "s1")
	require.NoError(t, err)
	_, err = f.svc.SetQuantity(ctx, "s1", tea.ID, 0)
	require.NoError(t, err)
	view, err := f.svc.SetQuantity(ctx, "s1", chips.ID, 0)
	require.NoError(t, err)
	require.NotNil(t, view.Editing)
	require.Empty(t, view.Items)

	_, err = f.svc.Confirm(ctx, "s1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	stored, err := f.txs.Get(ctx, sale.Transaction.ID)
	require.NoError(t, err)
	require.Len(t, stored.OrderItems, 2)
	assert.True(t, stored.Subtotal.Equal(dec("90")))
	assert.True(t, stored.Total.Equal(dec("90")))
}

func TestSaleTotalsWithDiscount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tea := f.product(t, "Tea", "25", 3, "")
	chips := f.product(t, "Chips", "40", 3, "")

	for _, id := range []string{tea.ID, tea.ID, chips.ID} {
		_, err := f.svc.AddProduct(ctx, "s1", id)
		require.NoError(t, err)
	}
	view, err := f.svc.SetDiscount(ctx, "s1", dec("10"))
	require.NoError(t, err)
	assert.True(t, view.Subtotal.Equal(dec("90")))
	assert.True(t, view.Total.Equal(dec("80")))

	_, err = f.svc.Confirm(ctx, "s1")
	require.NoError(t, err)
	res, err := f.svc.ConfirmPayment(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, res.Transaction.Subtotal.Equal(dec("90")))
	assert.True(t, res.Transaction.Discount.Equal(dec("10")))
	assert.True(t, res.Transaction.Total.Equal(dec("80")))
}

func TestQueuedEditSurvivesFailedLoad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tea := f.product(t, "Tea", "25", 3, "")
	_, err := f.svc.AddProduct(ctx, "s1", tea.ID)
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, "s1")
	require.NoError(t, err)
	sale, err := f.svc.ConfirmPayment(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, f.svc.QueueEdit(ctx, "s1", sale.Transaction.ID))

	states := &flakyStates{stateStore: f.states, failSave: true}
	deps := f.deps
	deps.States = states
	svc, err := NewService(deps)
	require.NoError(t, err)

	_, err = svc.State(ctx, "s1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	states.failSave = false
	view, err := svc.State(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, view.Editing)
	assert.Equal(t, sale.Transaction.ID, view.Editing.TransactionID)
	assert.Len(t, view.Items, 1)
}

func TestConfirmWithoutQRStillEntersPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Tea", "25", 3, "")
	_, err := f.svc.AddProduct(ctx, "s1", p.ID)
	require.NoError(t, err)

	res, err := f.svc.Confirm(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, res.QRCodeURL)
	assert.Equal(t, "", *res.QRCodeURL)
}

func TestCartChangeLeavesPaymentStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Tea", "25", 3, "")
	_, err := f.svc.AddProduct(ctx, "s1", p.ID)
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, "s1")
	require.NoError(t, err)

	view, err := f.svc.SetQuantity(ctx, "s1", p.ID, 4)
	require.NoError(t, err)
	assert.False(t, view.PaymentPending)

	_, err = f.svc.ConfirmPayment(ctx, "s1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestCancelPaymentKeepsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Tea", "25", 3, "")
	_, err := f.svc.AddProduct(ctx, "s1", p.ID)
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, "s1")
	require.NoError(t, err)

	view, err := f.svc.CancelPayment(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, view.PaymentPending)
	assert.Len(t, view.Items, 1)
}

func TestScanUnknownBarcode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Scan(ctx, "s1", "999")
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
	assert.Equal(t, map[string]any{"code": "999", "next": []string{"retry", "create_product"}}, appErr.Details())

	code, found, err := f.barcodes.Take(ctx, "s1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "999", code)

	view, err := f.svc.State(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestEditFlowOverwritesTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tea := f.product(t, "Tea", "25", 3, "")
	cake := f.product(t, "Cake", "40", 1, "")

	_, err := f.svc.AddProduct(ctx, "s1", tea.ID)
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, "s1")
	require.NoError(t, err)
	sale, err := f.svc.ConfirmPayment(ctx, "s1")
	require.NoError(t, err)
	before, err := f.txs.Get(ctx, sale.Transaction.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.QueueEdit(ctx, "s1", sale.Transaction.ID))
	view, err := f.svc.State(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, view.Editing)
	assert.Equal(t, sale.Transaction.ID, view.Editing.TransactionID)
	assert.Len(t, view.Items, 1)

	_, err = f.svc.AddProduct(ctx, "s1", cake.ID)
	require.NoError(t, err)
	_, err = f.svc.SetDiscount(ctx, "s1", dec("5"))
	require.NoError(t, err)

	res, err := f.svc.Confirm(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StepUpdated, res.Step)
	assert.Equal(t, NextHistory, res.Next)
	assert.Equal(t, sale.Transaction.ID, res.Transaction.ID)
	assert.True(t, res.Transaction.Subtotal.Equal(dec("65")))
	assert.True(t, res.Transaction.Total.Equal(dec("60")))
	assert.True(t, before.CreatedAt.Equal(res.Transaction.CreatedAt))

	view, err = f.svc.State(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, view.Editing)
	assert.Empty(t, view.Items)

	_, found, err := f.receipts.Take(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, found, "an edit does not produce a new receipt")
}

func TestCancelEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CancelEdit(ctx, "s1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	tea := f.product(t, "Tea", "25", 3, "")
	_, err = f.svc.AddProduct(ctx, "s1", tea.ID)
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, "s1")
	require.NoError(t, err)
	sale, err := f.svc.ConfirmPayment(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, f.svc.QueueEdit(ctx, "s1", sale.Transaction.ID))
	_, err = f.svc.State(ctx, "s1")
	require.NoError(t, err)
	_, err = f.svc.SetQuantity(ctx, "s1", tea.ID, 9)
	require.NoError(t, err)

	view, err := f.svc.CancelEdit(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, view.Editing)
	assert.Empty(t, view.Items)

	stored, err := f.txs.Get(ctx, sale.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.OrderItems[0].Quantity)
}

func TestQueueEditUnknownTransaction(t *testing.T) {
	f := newFixture(t)
	err := f.svc.QueueEdit(context.Background(), "s1", "missing")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestFailedCommitKeepsState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tea := f.product(t, "Tea", "25", 3, "")
	_, err := f.svc.AddProduct(ctx, "s1", tea.ID)
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, "s1")
	require.NoError(t, err)

	f.txs.fail = true
	_, err = f.svc.ConfirmPayment(ctx, "s1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	st, err := f.states.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, st.PaymentPending)
	assert.Len(t, st.Cart.Items, 1)

	f.txs.fail = false
	res, err := f.svc.ConfirmPayment(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StepCompleted, res.Step)
}

func TestConcurrentCommitRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tea := f.product(t, "Tea", "25", 3, "")
	_, err := f.svc.AddProduct(ctx, "s1", tea.ID)
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, "s1")
	require.NoError(t, err)

	held, err := NewRedisLock(f.redis, f.redis.CommitLockKey("s1"), time.Minute)
	require.NoError(t, err)
	ok, err := held.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.ConfirmPayment(ctx, "s1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	require.NoError(t, held.Release(ctx))
	_, err = f.svc.ConfirmPayment(ctx, "s1")
	require.NoError(t, err)
}

func TestSessionsAreIsolated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tea := f.product(t, "Tea", "25", 3, "")
	_, err := f.svc.AddProduct(ctx, "s1", tea.ID)
	require.NoError(t, err)

	view, err := f.svc.State(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}
