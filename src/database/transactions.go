package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TxManager runs journal writes inside transactions with context support
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a new transaction manager
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

// TxOptions defines options for transaction execution
type TxOptions struct {
	Isolation sql.IsolationLevel
	ReadOnly  bool
	Timeout   time.Duration
}

// DefaultTxOptions leaves isolation to libSQL, which rejects explicit levels
func DefaultTxOptions() *TxOptions {
	return &TxOptions{
		Isolation: sql.LevelDefault,
		Timeout:   30 * time.Second,
	}
}

// ExecuteInTransaction runs fn inside a transaction, rolling back on error or panic
func (tm *TxManager) ExecuteInTransaction(ctx context.Context, opts *TxOptions, fn func(*sql.Tx) error) error {
	if opts == nil {
		opts = DefaultTxOptions()
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	tx, err := tm.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: opts.Isolation,
		ReadOnly:  opts.ReadOnly,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %v, rollback failed: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// WithRetry retries fn on SQLite lock conflicts with exponential backoff
func (tm *TxManager) WithRetry(ctx context.Context, opts *TxOptions, fn func(*sql.Tx) error) error {
	const maxRetries = 3
	baseDelay := 50 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		err = tm.ExecuteInTransaction(ctx, opts, fn)
		if err == nil || !isLockError(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if i == maxRetries-1 {
			break
		}

		select {
		case <-time.After(baseDelay * time.Duration(1<<uint(i))):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("transaction failed after %d retries: %w", maxRetries, err)
}

var lockMarkers = []string{
	"database is locked",
	"database table is locked",
	"database schema is locked",
	"SQLITE_BUSY",
	"SQLITE_LOCKED",
}

func isLockError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	msg := err.Error()
	for _, m := range lockMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
