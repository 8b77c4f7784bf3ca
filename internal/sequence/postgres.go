package sequence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/invoice-bundler/constants"
	"github.com/joseph-ayodele/invoice-bundler/internal/repository"
)

const pgSchema = `CREATE TABLE IF NOT EXISTS invoice_counter (
	id         SMALLINT PRIMARY KEY CHECK (id = 1),
	next_value BIGINT NOT NULL CHECK (next_value >= 1)
)`

// PostgresStore keeps the counter in a single-row table. The increment is one
// UPDATE ... RETURNING statement, so the row lock serializes callers.
type PostgresStore struct {
	pool   *pgxpool.Pool
	owned  bool
	logger *slog.Logger
}

// OpenPostgresStore dials dsn and prepares the counter table.
func OpenPostgresStore(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := repository.Open(ctx, repository.DefaultConfig(dsn), logger)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	s, err := NewPostgresStore(ctx, pool, logger)
	if err != nil {
		repository.Close(pool, logger)
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewPostgresStore uses an existing pool; Close leaves it open.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		return nil, fmt.Errorf("create counter table: %w", err)
	}
	if _, err := pool.Exec(ctx,
		`INSERT INTO invoice_counter (id, next_value) VALUES (1, $1) ON CONFLICT (id) DO NOTHING`,
		constants.InitialInvoiceValue); err != nil {
		return nil, fmt.Errorf("seed counter: %w", err)
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) Read(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT next_value FROM invoice_counter WHERE id = 1`).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return constants.InitialInvoiceValue, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read counter: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) IncrementAndGet(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`UPDATE invoice_counter SET next_value = next_value + 1 WHERE id = 1 RETURNING next_value - 1`).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		// row deleted out from under us; reseed and retry once
		s.logger.Warn("sequence.postgres.reseed", "reset_to", constants.InitialInvoiceValue)
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO invoice_counter (id, next_value) VALUES (1, $1) ON CONFLICT (id) DO NOTHING`,
			constants.InitialInvoiceValue); err != nil {
			return 0, fmt.Errorf("seed counter: %w", err)
		}
		return s.IncrementAndGet(ctx)
	}
	if err != nil {
		return 0, fmt.Errorf("increment counter: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Close() error {
	if s.owned {
		repository.Close(s.pool, s.logger)
	}
	return nil
}
