// Package dbx holds the database handle shared by repositories and the
// transaction helper that lets several repositories join one transaction.
package dbx

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/ports/secondary"
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx
type DBTX interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

var (
	_ DBTX = (*sqlx.DB)(nil)
	_ DBTX = (*sqlx.Tx)(nil)
)

type txKey struct{}

// Conn returns the transaction bound to ctx, or db when there is none
func Conn(ctx context.Context, db *sqlx.DB) DBTX {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

// WithTx begins a transaction, runs fn with it, then commits on success or
// rolls back on error or panic. Panics are rethrown.
func WithTx(ctx context.Context, db *sqlx.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

var _ secondary.Transactor = (*Transactor)(nil)

type Transactor struct {
	db     *sqlx.DB
	logger primary.Logger
}

func NewTransactor(db *sqlx.DB, logger primary.Logger) *Transactor {
	return &Transactor{db: db, logger: logger}
}

// WithinTx joins the transaction already bound to ctx, if any
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	err := WithTx(ctx, t.db, nil, func(ctx context.Context, tx *sqlx.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
	if err != nil {
		t.logger.Error("Transaction rolled back", "error", err)
		return fmt.Errorf("transaction aborted: %w", err)
	}
	return nil
}

// UUIDArray wraps ids as a Postgres text array for `= ANY(?)` conditions
func UUIDArray(ids []uuid.UUID) interface{} {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	return pq.Array(strs)
}
