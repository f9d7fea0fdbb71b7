package license

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is one license row: whether it is enabled and the account/server
// pair it is bound to.
type Record struct {
	Enabled     bool
	BindAccount int64
	BindServer  string
}

// Store looks up license records. The second return is false when no row
// exists for the given ID.
type Store interface {
	Lookup(ctx context.Context, licenseID string) (Record, bool, error)
}

// PostgresStore implements Store over a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store over an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Lookup(ctx context.Context, licenseID string) (Record, bool, error) {
	var rec Record
	err := s.pool.QueryRow(ctx,
		`SELECT enabled, bind_account, bind_server FROM licenses WHERE license_id = $1 LIMIT 1`,
		licenseID,
	).Scan(&rec.Enabled, &rec.BindAccount, &rec.BindServer)

	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("lookup license: %w", err)
	}
	return rec, true, nil
}
