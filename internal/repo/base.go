package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base provides the connection, clock and id source shared by the domain repositories.
type Base struct {
	db  *gorm.DB
	now func() time.Time
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db, now: time.Now}
}

// WithClock overrides the timestamp source.
func (b Base) WithClock(now func() time.Time) Base {
	b.now = now
	return b
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Now returns the current time in UTC, the zone every row is written in.
func (b Base) Now() time.Time {
	if b.now == nil {
		return time.Now().UTC()
	}
	return b.now().UTC()
}

// NewID issues a primary key for a new row.
func (b Base) NewID() string {
	return uuid.NewString()
}

// NewestFirst orders rows by creation time, most recent first.
func NewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}
