// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/gorm"

	"github.com/cppla/sigil/config"
	"github.com/cppla/sigil/models"
)

var seq atomic.Int64

// DB returns a migrated in-memory SQLite database private to tb. The pool
// holds a single connection, so concurrent transactions queue up.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(tb.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))
	db, err := config.OpenDatabase("sqlite", dsn, "silent")
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	if err := config.Migrate(db, models.All()...); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	tb.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Config returns defaults suitable for tests: Redis off, gin in test mode
// and a fixed JWT secret.
func Config() config.AppConfig {
	config.Set(config.AppConfig{JWTSecret: "test-secret", RedisDisabled: true, DBDriver: "sqlite", GinMode: "test"})
	return config.Get()
}
