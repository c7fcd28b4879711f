// Package storage is the Storage Gateway (C1): the only component in the system that touches
// Postgres directly, and the only component that ever sees a decrypted channel delivery URL.
package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soonish-io/notifycore/internal/crypto"
)

// Gateway owns the connection pool and the channel cipher. All higher components reach the
// database exclusively through a Gateway.
type Gateway struct {
	pool   *pgxpool.Pool
	cipher *crypto.Cipher
}

// New builds a Gateway over an already-established connection pool.
func New(pool *pgxpool.Pool, cipher *crypto.Cipher) *Gateway {
	return &Gateway{pool: pool, cipher: cipher}
}

// Close releases the underlying connection pool. The `start worker` command defers it.
func (g *Gateway) Close() {
	g.pool.Close()
}

// Scope is a unit of work run inside a single database transaction. Every read the scope needs
// must happen inside fn: no lazy relationship access is allowed once Scope returns, since the
// transaction it ran in is gone by then (§4.1).
type Scope struct {
	tx Queryer
}

// Work runs fn inside a new transaction, committing on a nil return and rolling back otherwise.
// Every Storage Gateway operation that mutates more than one table, or that must observe a
// consistent snapshot across several reads, is expressed as a single Work call.
func (g *Gateway) Work(ctx context.Context, fn func(ctx context.Context, s *Scope) error) error {
	err := pgx.BeginFunc(ctx, g.pool, func(tx pgx.Tx) error {
		return fn(ctx, &Scope{tx: tx})
	})
	if err != nil {
		return fmt.Errorf("work scope failed: %w", err)
	}
	return nil
}

// Read runs fn against the bare pool, without opening a transaction, for a single query whose
// isolation requirements don't call for one.
func (g *Gateway) Read(ctx context.Context, fn func(ctx context.Context, s *Scope) error) error {
	return fn(ctx, &Scope{tx: g.pool})
}
