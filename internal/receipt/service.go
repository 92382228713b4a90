package receipt

import (
	"context"
	"fmt"
	"time"

	"github.com/fairshop/fairpos-backend/pkg/db/models"
	pkgerrors "github.com/fairshop/fairpos-backend/pkg/errors"
)

// Service hands receipts to the receipt view and re-queues past sales for printing.
type Service interface {
	Current(ctx context.Context, sessionID string) (Snapshot, error)
	Reprint(ctx context.Context, sessionID, transactionID string) (Snapshot, error)
	Text(snap Snapshot) string
}

type snapshotSlot interface {
	Put(ctx context.Context, sessionID string, value Snapshot) error
	Take(ctx context.Context, sessionID string) (Snapshot, bool, error)
}

type transactionSource interface {
	Get(ctx context.Context, id string) (*models.Transaction, error)
}

type service struct {
	slot     snapshotSlot
	txs      transactionSource
	header   Header
	location *time.Location
}

func NewService(slot snapshotSlot, txs transactionSource, header Header, loc *time.Location) (Service, error) {
	if slot == nil {
		return nil, fmt.Errorf("receipt slot required")
	}
	if txs == nil {
		return nil, fmt.Errorf("transaction source required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{slot: slot, txs: txs, header: header, location: loc}, nil
}

// Current consumes the receipt waiting for the session. Reading it twice yields NOT_FOUND.
func (s *service) Current(ctx context.Context, sessionID string) (Snapshot, error) {
	snap, found, err := s.slot.Take(ctx, sessionID)
	if err != nil {
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read receipt handoff")
	}
	if !found {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, "no receipt to show")
	}
	return snap, nil
}

func (s *service) Reprint(ctx context.Context, sessionID, transactionID string) (Snapshot, error) {
	tx, err := s.txs.Get(ctx, transactionID)
	if err != nil {
		return Snapshot{}, err
	}
	snap := FromTransaction(tx)
	if err := s.slot.Put(ctx, sessionID, snap); err != nil {
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write receipt handoff")
	}
	return snap, nil
}

func (s *service) Text(snap Snapshot) string {
	return Render(s.header, snap, s.location)
}
