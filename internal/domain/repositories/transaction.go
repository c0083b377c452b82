package repositories

import "context"

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager handles database transactions
type TransactionManager interface {
	// ExecTx executes a function within a transaction
	ExecTx(ctx context.Context, fn TxFn) error
}

// Locker serializes writers on a key for the lifetime of the surrounding
// transaction. It must be called with a context produced by ExecTx.
type Locker interface {
	LockKey(ctx context.Context, key string) error
}
