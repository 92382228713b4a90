// Package transactions reads and writes the sale history.
package transactions

import (
	"context"
	"fmt"

	"github.com/fairshop/fairpos-backend/internal/money"
	"github.com/fairshop/fairpos-backend/pkg/db"
	"github.com/fairshop/fairpos-backend/pkg/db/models"
	pkgerrors "github.com/fairshop/fairpos-backend/pkg/errors"
	"github.com/fairshop/fairpos-backend/pkg/pagination"
	"github.com/fairshop/fairpos-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Snapshot is the content of a sale: items plus the amounts derived from them.
type Snapshot struct {
	OrderItems types.OrderItems
	Discount   decimal.Decimal
}

// Page is one slice of the history. NextCursor is empty on the last page.
type Page struct {
	Items      []models.Transaction
	NextCursor string
}

// Service exposes the transaction store.
type Service interface {
	List(ctx context.Context) ([]models.Transaction, error)
	ListPage(ctx context.Context, params pagination.Params) (Page, error)
	Get(ctx context.Context, id string) (*models.Transaction, error)
	Create(ctx context.Context, snap Snapshot) (*models.Transaction, error)
	Update(ctx context.Context, id string, snap Snapshot) (*models.Transaction, error)
}

type txStore interface {
	List(ctx context.Context) ([]models.Transaction, error)
	ListAfter(ctx context.Context, limit int, after *pagination.Cursor) ([]models.Transaction, error)
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
	Create(ctx context.Context, tx *models.Transaction) error
	Update(ctx context.Context, tx *models.Transaction) error
}

type service struct {
	repo txStore
}

func NewService(repo txStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transaction repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.Transaction, error) {
	txs, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list transactions")
	}
	return txs, nil
}

func (s *service) ListPage(ctx context.Context, params pagination.Params) (Page, error) {
	after, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").WithDetails(map[string]any{"field": "cursor"})
	}
	limit := pagination.NormalizeLimit(params.Limit)
	txs, err := s.repo.ListAfter(ctx, pagination.LimitWithBuffer(limit), after)
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list transactions")
	}

	page := Page{Items: txs}
	if len(txs) > limit {
		page.Items = txs[:limit]
		last := page.Items[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.Transaction, error) {
	tx, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load transaction")
	}
	return tx, nil
}

// Create persists a new sale with amounts computed from the snapshot.
func (s *service) Create(ctx context.Context, snap Snapshot) (*models.Transaction, error) {
	tx := build(snap)
	if err := s.repo.Create(ctx, tx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert transaction")
	}
	return tx, nil
}

// Update overwrites an existing sale in place, keeping its creation time.
func (s *service) Update(ctx context.Context, id string, snap Snapshot) (*models.Transaction, error) {
	tx := build(snap)
	tx.ID = id
	if err := s.repo.Update(ctx, tx); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update transaction")
	}
	return s.Get(ctx, id)
}

func build(snap Snapshot) *models.Transaction {
	items := snap.OrderItems.Clone()
	subtotal := money.Subtotal(items)
	return &models.Transaction{
		OrderItems: items,
		Subtotal:   subtotal,
		Discount:   snap.Discount,
		Total:      money.Total(subtotal, snap.Discount),
	}
}
