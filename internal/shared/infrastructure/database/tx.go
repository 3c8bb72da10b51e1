package database

import (
	"context"
	"errors"
)

// ErrNoTransaction is returned when committing or rolling back a context
// that carries no transaction.
var ErrNoTransaction = errors.New("no transaction in context")

type txKey struct{}

// TxScope is the transaction bound to a context. Owner is false for units
// nested inside another one; only the owner ends the transaction.
type TxScope struct {
	Tx    Transaction
	Owner bool
}

func withScope(ctx context.Context, scope TxScope) context.Context {
	return context.WithValue(ctx, txKey{}, scope)
}

// ScopeFromContext returns the transaction scope bound to ctx.
func ScopeFromContext(ctx context.Context) (TxScope, bool) {
	scope, ok := ctx.Value(txKey{}).(TxScope)
	if !ok || scope.Tx == nil {
		return TxScope{}, false
	}
	return scope, true
}

// ExecutorFromContext returns the transaction bound to ctx, or conn when there is none.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if scope, ok := ScopeFromContext(ctx); ok {
		return scope.Tx
	}
	return conn
}

// GenericUnitOfWork binds one transaction per unit of work to the context.
// Nested units join the outer transaction.
type GenericUnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a unit of work over conn.
func NewUnitOfWork(conn Connection) *GenericUnitOfWork {
	return &GenericUnitOfWork{conn: conn}
}

func (u *GenericUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if outer, ok := ScopeFromContext(ctx); ok {
		return withScope(ctx, TxScope{Tx: outer.Tx}), nil
	}
	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return withScope(ctx, TxScope{Tx: tx, Owner: true}), nil
}

func (u *GenericUnitOfWork) Commit(ctx context.Context) error {
	return u.end(ctx, Transaction.Commit)
}

func (u *GenericUnitOfWork) Rollback(ctx context.Context) error {
	return u.end(ctx, Transaction.Rollback)
}

func (u *GenericUnitOfWork) end(ctx context.Context, fn func(Transaction, context.Context) error) error {
	scope, ok := ScopeFromContext(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !scope.Owner {
		return nil
	}
	return fn(scope.Tx, ctx)
}
