// Package postgres implements the domain engine's persistence on
// PostgreSQL via pgx. The store stays policy-free: it carries the
// constraint mechanics (unique domain, single primary, guarded delete)
// while all lifecycle decisions live in the domains service.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLSTATE classes the store maps back onto domain errors.
const (
	codeUniqueViolation = "23505"
)

// Store provides the domain binding table and the tenant directory.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store on top of an established connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}
