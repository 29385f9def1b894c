package store

import (
	"context"
	"database/sql"
	"time"

	dErrors "artpriv/pkg/domain-errors"
	txcontext "artpriv/pkg/platform/tx"
)

const defaultPostgresTxTimeout = 5 * time.Second

// PostgresTx runs units of work inside a SQL transaction. The transaction
// travels in the context handed to fn, so every Postgres call made with that
// context joins it.
type PostgresTx struct {
	db      *sql.DB
	store   *Postgres
	timeout time.Duration
}

// NewPostgresTx returns a TxRunner over db. A zero timeout uses the default.
func NewPostgresTx(db *sql.DB, timeout time.Duration) *PostgresTx {
	return &PostgresTx{db: db, store: NewPostgres(db), timeout: timeout}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultPostgresTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx), t.store); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		if ctx.Err() != nil {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
		}
		return err
	}
	return nil
}
