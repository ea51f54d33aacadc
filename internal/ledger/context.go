package ledger

import (
	"context"
	"fmt"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTransaction stores the active transaction in context for downstream
// repositories.
func WithTransaction(ctx context.Context, tx Transaction) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts the active transaction from context if present.
func From(ctx context.Context) (Transaction, bool) {
	tx, ok := ctx.Value(txKey).(Transaction)
	return tx, ok
}

// MustFrom is From for callers that cannot proceed without a transaction.
func MustFrom(ctx context.Context) (Transaction, error) {
	tx, ok := From(ctx)
	if !ok {
		return nil, fmt.Errorf("no ledger transaction in context")
	}
	return tx, nil
}

// Run opens a transaction, executes fn with the transaction in context and
// commits when fn succeeds. Any error from fn discards the whole write-set.
func Run(ctx context.Context, l Ledger, meta TxMeta, fn func(ctx context.Context) error) error {
	tx, err := l.Begin(ctx, meta)
	if err != nil {
		return err
	}
	if err := fn(WithTransaction(ctx, tx)); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit(ctx)
}
