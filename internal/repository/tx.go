package repository

import (
	"context"
	"database/sql"

	"squad-ladder/internal/db"

	"github.com/rs/zerolog"
)

type txKey struct{}

// TxManager runs a unit of work inside one transaction. The DSN opens every
// transaction with BEGIN IMMEDIATE, so concurrent units serialize on the
// write lock and a busy wait that times out surfaces as ErrTxConflict.
type TxManager struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewTxManager(sqlDB *sql.DB, logger zerolog.Logger) *TxManager {
	return &TxManager{
		db:     sqlDB,
		logger: logger.With().Str("component", "tx_manager").Logger(),
	}
}

func (m *TxManager) WithinTx(ctx context.Context, fn TxFunc) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return MapSQLiteError(err)
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		m.logger.Debug().Err(err).Msg("rolling back transaction")
		return MapSQLiteError(err)
	}

	if err := tx.Commit(); err != nil {
		return MapSQLiteError(err)
	}
	return nil
}

// queriesFor binds q to the transaction carried by ctx, if any.
func queriesFor(ctx context.Context, q *db.Queries) *db.Queries {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok && tx != nil {
		return q.WithTx(tx)
	}
	return q
}

var _ Transactor = (*TxManager)(nil)
