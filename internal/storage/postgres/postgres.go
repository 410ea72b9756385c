// Package postgres persists users, companions and inventories in PostgreSQL
// using pgx v5, and mirrors the content catalog into reference tables.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/mythic/internal/config"
	"github.com/cory-johannsen/mythic/internal/gameserver"
)

// Pool wraps a pgx connection pool with health-check and lifecycle methods.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool creates a new PostgreSQL connection pool from the given configuration.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a connected Pool or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Pool{pool: pool}, nil
}

// Wrap adopts an existing pgxpool.Pool.
func Wrap(pool *pgxpool.Pool) *Pool {
	return &Pool{pool: pool}
}

// Health checks that the database is reachable within the given timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Close releases all pool resources.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}

// Store implements gameserver.Store with one database transaction per unit
// of work. Row locks are taken with SELECT ... FOR UPDATE.
type Store struct {
	pool *Pool
}

var _ gameserver.Store = (*Store)(nil)

// NewStore creates a Store over pool.
//
// Precondition: pool must be connected and migrated.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// RunInTx runs fn inside a transaction that commits iff fn returns nil.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx gameserver.Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool.pool, func(t pgx.Tx) error {
		return fn(ctx, &tx{db: t})
	})
}

// tx implements gameserver.Tx over a pgx transaction. Its methods live in
// users.go, companions.go and inventory.go.
type tx struct {
	db pgx.Tx
}
