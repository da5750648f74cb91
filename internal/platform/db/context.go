package db

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type contextKey string

// DBTxKey carries an open transaction through a context so repositories can
// join it instead of acquiring their own connection.
const DBTxKey contextKey = "db_tx"

// WithTx returns a context carrying tx.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, DBTxKey, tx)
}

// TxFromContext retrieves the transaction from context, or nil.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(DBTxKey).(pgx.Tx)
	return tx
}
