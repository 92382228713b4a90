// Package register runs the sale flow: cart edits, payment step, and commit or re-edit of transactions.
package register

import (
	"context"
	"fmt"

	"github.com/fairshop/fairpos-backend/internal/cart"
	"github.com/fairshop/fairpos-backend/internal/catalog"
	"github.com/fairshop/fairpos-backend/internal/receipt"
	"github.com/fairshop/fairpos-backend/internal/transactions"
	"github.com/fairshop/fairpos-backend/pkg/db/models"
	pkgerrors "github.com/fairshop/fairpos-backend/pkg/errors"
	"github.com/fairshop/fairpos-backend/pkg/logger"
	"github.com/fairshop/fairpos-backend/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Steps reported by Confirm and ConfirmPayment.
const (
	StepPayment   = "payment"
	StepUpdated   = "updated"
	StepCompleted = "completed"

	NextHistory = "history"
	NextReceipt = "receipt"
)

// Service is the register of one signed-in session.
type Service interface {
	State(ctx context.Context, sessionID string) (View, error)
	AddProduct(ctx context.Context, sessionID, productID string) (View, error)
	Scan(ctx context.Context, sessionID, code string) (View, error)
	SetQuantity(ctx context.Context, sessionID, productID string, quantity int) (View, error)
	SetDiscount(ctx context.Context, sessionID string, discount decimal.Decimal) (View, error)
	Clear(ctx context.Context, sessionID string) (View, error)
	Confirm(ctx context.Context, sessionID string) (ConfirmResult, error)
	ConfirmPayment(ctx context.Context, sessionID string) (ConfirmResult, error)
	CancelPayment(ctx context.Context, sessionID string) (View, error)
	CancelEdit(ctx context.Context, sessionID string) (View, error)
	QueueEdit(ctx context.Context, sessionID, transactionID string) error
}

type stateStore interface {
	Load(ctx context.Context, sessionID string) (*State, error)
	Save(ctx context.Context, sessionID string, st *State) error
}

type productSource interface {
	Get(ctx context.Context, id string) (*models.Product, error)
	ResolveByCode(ctx context.Context, code string) (catalog.Resolution, error)
}

type transactionStore interface {
	Get(ctx context.Context, id string) (*models.Transaction, error)
	Create(ctx context.Context, snap transactions.Snapshot) (*models.Transaction, error)
	Update(ctx context.Context, id string, snap transactions.Snapshot) (*models.Transaction, error)
}

type paymentSettings interface {
	PaymentQRCodeURL(ctx context.Context) (string, error)
}

type slot[T any] interface {
	Put(ctx context.Context, sessionID string, value T) error
	Take(ctx context.Context, sessionID string) (T, bool, error)
}

// Deps wires the register service.
type Deps struct {
	States       stateStore
	Products     productSource
	Transactions transactionStore
	Settings     paymentSettings
	Locks        LockFactory
	Barcodes     slot[string]
	Receipts     slot[receipt.Snapshot]
	Edits        slot[models.Transaction]
	Metrics      *metrics.CommitMetrics
	Logger       *logger.Logger
}

type service struct {
	Deps
}

func NewService(deps Deps) (Service, error) {
	switch {
	case deps.States == nil:
		return nil, fmt.Errorf("register state store required")
	case deps.Products == nil:
		return nil, fmt.Errorf("product source required")
	case deps.Transactions == nil:
		return nil, fmt.Errorf("transaction store required")
	case deps.Settings == nil:
		return nil, fmt.Errorf("payment settings required")
	case deps.Locks == nil:
		return nil, fmt.Errorf("commit lock factory required")
	case deps.Barcodes == nil || deps.Receipts == nil || deps.Edits == nil:
		return nil, fmt.Errorf("handoff slots required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	return &service{Deps: deps}, nil
}

// State returns the register, first hydrating it from a transaction queued for editing.
func (s *service) State(ctx context.Context, sessionID string) (View, error) {
	st, err := s.load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	tx, found, err := s.Edits.Take(ctx, sessionID)
	if err != nil {
		return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read edit handoff")
	}
	if found {
		st.Cart.LoadTransaction(tx)
		st.PaymentPending = false
		if err := s.save(ctx, sessionID, st); err != nil {
			if putErr := s.Edits.Put(ctx, sessionID, tx); putErr != nil {
				s.Logger.Error(s.Logger.WithField(ctx, "transaction_id", tx.ID), "register.edit_requeue_failed", putErr)
			}
			return View{}, err
		}
		s.Logger.Info(s.Logger.WithField(ctx, "transaction_id", tx.ID), "register.edit_loaded")
	}
	return newView(st), nil
}

func (s *service) AddProduct(ctx context.Context, sessionID, productID string) (View, error) {
	product, err := s.Products.Get(ctx, productID)
	if err != nil {
		return View{}, err
	}
	return s.mutate(ctx, sessionID, func(c *cart.Cart) { c.Add(*product) })
}

// Scan adds the product with the given barcode. An unknown code leaves the cart alone
// and is remembered so the add-product form can be pre-filled.
func (s *service) Scan(ctx context.Context, sessionID, code string) (View, error) {
	res, err := s.Products.ResolveByCode(ctx, code)
	if err != nil {
		return View{}, err
	}
	if !res.Found {
		if err := s.Barcodes.Put(ctx, sessionID, code); err != nil {
			s.Logger.WarnErr(ctx, "register.scan_handoff_failed", err)
		}
		return View{}, pkgerrors.New(pkgerrors.CodeNotFound, "no product with this barcode").
			WithDetails(map[string]any{"code": code, "next": []string{"retry", "create_product"}})
	}
	return s.mutate(ctx, sessionID, func(c *cart.Cart) { c.Add(*res.Product) })
}

func (s *service) SetQuantity(ctx context.Context, sessionID, productID string, quantity int) (View, error) {
	return s.mutate(ctx, sessionID, func(c *cart.Cart) { c.SetQuantity(productID, quantity) })
}

func (s *service) SetDiscount(ctx context.Context, sessionID string, discount decimal.Decimal) (View, error) {
	return s.mutate(ctx, sessionID, func(c *cart.Cart) { c.SetDiscount(discount) })
}

func (s *service) Clear(ctx context.Context, sessionID string) (View, error) {
	return s.mutate(ctx, sessionID, func(c *cart.Cart) { c.Clear() })
}

// Confirm starts payment for a new sale, or writes an edited sale straight back.
func (s *service) Confirm(ctx context.Context, sessionID string) (ConfirmResult, error) {
	st, err := s.load(ctx, sessionID)
	if err != nil {
		return ConfirmResult{}, err
	}
	if st.Cart.IsEmpty() {
		return ConfirmResult{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}

	if !st.Cart.IsEditing() {
		qr, err := s.Settings.PaymentQRCodeURL(ctx)
		if err != nil {
			return ConfirmResult{}, err
		}
		st.PaymentPending = true
		if err := s.save(ctx, sessionID, st); err != nil {
			return ConfirmResult{}, err
		}
		subtotal := st.Cart.Subtotal()
		return ConfirmResult{
			Step:      StepPayment,
			QRCodeURL: &qr,
			Subtotal:  &subtotal,
			Discount:  &st.Cart.Discount,
			Total:     ptr(st.Cart.Total()),
		}, nil
	}

	var result ConfirmResult
	err = s.withCommitLock(ctx, sessionID, func() error {
		// reload under the lock so a commit that just finished is observed
		st, err := s.load(ctx, sessionID)
		if err != nil {
			return err
		}
		if st.Cart.IsEmpty() || !st.Cart.IsEditing() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "nothing to update")
		}

		next := st.Clone()
		var tx *models.Transaction
		err = s.Metrics.Track(metrics.CommitSaleUpdate, func() error {
			var err error
			tx, err = s.Transactions.Update(ctx, st.Cart.Editing.TransactionID, snapshotOf(st.Cart))
			return err
		})
		if err != nil {
			return err
		}

		next.Cart.Clear()
		next.PaymentPending = false
		s.saveAfterCommit(ctx, sessionID, next, tx.ID)
		s.Logger.Info(s.Logger.WithField(ctx, "transaction_id", tx.ID), "register.sale_updated")
		result = ConfirmResult{Step: StepUpdated, Transaction: tx, Next: NextHistory}
		return nil
	})
	return result, err
}

// ConfirmPayment records the sale after the cashier affirms the QR payment arrived.
func (s *service) ConfirmPayment(ctx context.Context, sessionID string) (ConfirmResult, error) {
	var result ConfirmResult
	err := s.withCommitLock(ctx, sessionID, func() error {
		st, err := s.load(ctx, sessionID)
		if err != nil {
			return err
		}
		if st.Cart.IsEditing() || !st.PaymentPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no payment awaiting confirmation")
		}
		if st.Cart.IsEmpty() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
		}

		next := st.Clone()
		var tx *models.Transaction
		err = s.Metrics.Track(metrics.CommitSaleCreate, func() error {
			var err error
			tx, err = s.Transactions.Create(ctx, snapshotOf(st.Cart))
			return err
		})
		if err != nil {
			return err
		}

		if err := s.Receipts.Put(ctx, sessionID, receipt.FromTransaction(tx)); err != nil {
			s.Logger.WarnErr(s.Logger.WithField(ctx, "transaction_id", tx.ID), "register.receipt_handoff_failed", err)
		}
		next.Cart.Clear()
		next.PaymentPending = false
		s.saveAfterCommit(ctx, sessionID, next, tx.ID)
		s.Logger.Info(s.Logger.WithField(ctx, "transaction_id", tx.ID), "register.sale_created")
		result = ConfirmResult{Step: StepCompleted, Transaction: tx, Next: NextReceipt}
		return nil
	})
	return result, err
}

// CancelPayment leaves the payment step; the cart is kept.
func (s *service) CancelPayment(ctx context.Context, sessionID string) (View, error) {
	st, err := s.load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	st.PaymentPending = false
	if err := s.save(ctx, sessionID, st); err != nil {
		return View{}, err
	}
	return newView(st), nil
}

// CancelEdit abandons an edit without writing anything.
func (s *service) CancelEdit(ctx context.Context, sessionID string) (View, error) {
	st, err := s.load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	if !st.Cart.IsEditing() {
		return View{}, pkgerrors.New(pkgerrors.CodeStateConflict, "register is not editing a transaction")
	}
	st.Cart.Clear()
	st.PaymentPending = false
	if err := s.save(ctx, sessionID, st); err != nil {
		return View{}, err
	}
	return newView(st), nil
}

// QueueEdit hands a stored transaction to the register; the next State call loads it.
func (s *service) QueueEdit(ctx context.Context, sessionID, transactionID string) error {
	tx, err := s.Transactions.Get(ctx, transactionID)
	if err != nil {
		return err
	}
	if err := s.Edits.Put(ctx, sessionID, *tx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write edit handoff")
	}
	return nil
}

// mutate applies a cart edit. Any change to the cart leaves the payment step.
func (s *service) mutate(ctx context.Context, sessionID string, fn func(c *cart.Cart)) (View, error) {
	st, err := s.load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	fn(st.Cart)
	st.PaymentPending = false
	if err := s.save(ctx, sessionID, st); err != nil {
		return View{}, err
	}
	return newView(st), nil
}

func (s *service) withCommitLock(ctx context.Context, sessionID string, fn func() error) error {
	lock, err := s.Locks(sessionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build commit lock")
	}
	ok, err := lock.Acquire(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire commit lock")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "commit already in progress")
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.Logger.WarnErr(ctx, "register.lock_release_failed", err)
		}
	}()
	return fn()
}

// saveAfterCommit clears the stored register once the sale is durable. The sale
// stands even if this write fails, so the failure is logged rather than returned.
func (s *service) saveAfterCommit(ctx context.Context, sessionID string, st *State, txID string) {
	if err := s.save(ctx, sessionID, st); err != nil {
		s.Logger.Error(s.Logger.WithField(ctx, "transaction_id", txID), "register.clear_after_commit_failed", err)
	}
}

func (s *service) load(ctx context.Context, sessionID string) (*State, error) {
	st, err := s.States.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load register")
	}
	return st, nil
}

func (s *service) save(ctx context.Context, sessionID string, st *State) error {
	if err := s.States.Save(ctx, sessionID, st); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save register")
	}
	return nil
}

func snapshotOf(c *cart.Cart) transactions.Snapshot {
	return transactions.Snapshot{OrderItems: c.Items.Clone(), Discount: c.Discount}
}

func ptr[T any](v T) *T { return &v }
