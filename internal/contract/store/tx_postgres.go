package store

import (
	"context"
	"database/sql"
	"time"

	"casedesk/internal/contract/ports"
	dErrors "casedesk/pkg/domain-errors"
	"casedesk/pkg/platform/tx"
)

// PostgresTx runs each transaction on one *sql.Tx carried in the context, so
// every PostgresStore call made by fn joins it.
type PostgresTx struct {
	db      *sql.DB
	store   *PostgresStore
	timeout time.Duration
}

// NewPostgresTx builds a transactional boundary over db.
func NewPostgresTx(db *sql.DB, timeout time.Duration) *PostgresTx {
	return &PostgresTx{db: db, store: NewPostgres(db), timeout: timeout}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, store ports.CaseStore) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	ctx, cancel := withTxTimeout(ctx, t.timeout)
	defer cancel()

	sqlTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(tx.WithTx(ctx, sqlTx), t.store); err != nil {
		return err
	}

	return sqlTx.Commit()
}
