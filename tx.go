package quarry

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"sync"

	"github.com/quarrydb/quarry/dialect"
	"github.com/quarrydb/quarry/dialect/sql"
)

// Tx is a client-level transaction. It is created through Client.Tx or
// Client.BeginTx and finished by exactly one of Commit, Rollback or Close.
type Tx struct {
	client *Client
	tx     dialect.Tx

	mu   sync.Mutex
	done bool
}

type txCtxKey struct{}

// NewTxContext returns a context carrying the transaction. Statement
// execution through a client routes to the context transaction when one
// is present.
func NewTxContext(ctx context.Context, tx *Tx) context.Context {
	return context.WithValue(ctx, txCtxKey{}, tx)
}

// TxFromContext returns the transaction carried by the context, or nil.
func TxFromContext(ctx context.Context) *Tx {
	tx, _ := ctx.Value(txCtxKey{}).(*Tx)
	return tx
}

// Tx starts a new transaction. It fails with ErrTxStarted when the context
// already carries one.
func (c *Client) Tx(ctx context.Context) (*Tx, error) {
	if TxFromContext(ctx) != nil {
		return nil, ErrTxStarted
	}
	tx, err := c.driver.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("quarry: starting a transaction: %w", err)
	}
	return &Tx{client: c, tx: tx}, nil
}

// BeginTx starts a new transaction with options such as isolation level and
// read-only mode. Like Tx, it fails with ErrTxStarted inside a transaction.
func (c *Client) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	if TxFromContext(ctx) != nil {
		return nil, ErrTxStarted
	}
	type txBeginner interface {
		BeginTx(context.Context, *sql.TxOptions) (dialect.Tx, error)
	}
	b, ok := c.driver.(txBeginner)
	if !ok {
		return nil, fmt.Errorf("quarry: driver %T does not support transaction options", c.driver)
	}
	tx, err := b.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("quarry: starting a transaction: %w", err)
	}
	return &Tx{client: c, tx: tx}, nil
}

// WithTx runs fn inside a transaction. When the context already carries one,
// fn joins it and the enclosing owner remains responsible for finishing it.
// Otherwise a new transaction is started, committed when fn returns nil, and
// rolled back when fn returns an error or panics. The context passed to fn
// carries the transaction so nested calls join it.
func (c *Client) WithTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	if tx := TxFromContext(ctx); tx != nil {
		return fn(ctx, tx)
	}
	tx, err := c.Tx(ctx)
	if err != nil {
		return err
	}
	ctx = NewTxContext(ctx, tx)
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()
	if err := fn(ctx, tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return &RollbackError{Err: rerr, Orig: err}
		}
		return err
	}
	return tx.Commit()
}

// Commit commits the transaction and releases its connection.
func (tx *Tx) Commit() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return stdsql.ErrTxDone
	}
	tx.done = true
	return tx.tx.Commit()
}

// Rollback aborts the transaction and releases its connection.
func (tx *Tx) Rollback() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return stdsql.ErrTxDone
	}
	tx.done = true
	return tx.tx.Rollback()
}

// Close rolls back the transaction if it is still open. Unlike Rollback it
// is a no-op on an already finished transaction, so it is safe to defer
// alongside an explicit Commit. The connection is released exactly once.
func (tx *Tx) Close() error {
	tx.mu.Lock()
	if tx.done {
		tx.mu.Unlock()
		return nil
	}
	tx.done = true
	tx.mu.Unlock()
	return tx.tx.Rollback()
}

// Client returns the client the transaction was started from.
func (tx *Tx) Client() *Client {
	return tx.client
}

// querier returns the execution target for the context: the context
// transaction when one is present, the root driver otherwise.
func (c *Client) querier(ctx context.Context) dialect.ExecQuerier {
	if tx := TxFromContext(ctx); tx != nil {
		return tx.tx
	}
	return c.driver
}
