package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/sigil/utils"
)

var conflictMarkers = []string{
	"deadlock",
	"could not serialize",
	"serialization failure",
	"lock wait timeout",
	"database is locked",
	"database table is locked",
	"sqlite_busy",
}

// withRetry runs fn in a transaction and re-runs it when the database
// reports a write conflict. Other errors, including validation errors
// raised by fn, return immediately and roll the transaction back.
func (s *Service) withRetry(ctx context.Context, fn func(tx *gorm.DB) error) error {
	attempts := s.cfg.LedgerMaxRetries
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		err = s.db.WithContext(ctx).Transaction(fn)
		if err == nil || !isConflict(err) {
			return err
		}
		utils.Sugar.Debugw("transaction conflict, retrying", "attempt", i+1, "err", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * 15 * time.Millisecond):
		}
	}
	return fmt.Errorf("transaction failed after %d attempts: %w", attempts, err)
}

func isConflict(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range conflictMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// lockForUpdate adds SELECT ... FOR UPDATE where the dialect has it.
// SQLite serialises writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// notFound maps gorm's missing-row error to the given sentinel.
func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
