// Package repotest opens migrated SQLite databases for repository tests.
package repotest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/fairshop/fairpos-backend/pkg/db"
	"github.com/fairshop/fairpos-backend/pkg/migrate"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a client over a private in-memory database with the embedded migrations applied.
func Open(t *testing.T) *db.Client {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migrate.Run(context.Background(), sqlDB, db.DialectSQLite, migrate.Source{}, "up"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db.NewFromGorm(conn)
}
