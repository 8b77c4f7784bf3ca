package sequence

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/joseph-ayodele/invoice-bundler/constants"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS invoice_counter (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	next_value INTEGER NOT NULL
)`

// SQLiteStore keeps the counter in a single-row table. Increments run in an
// immediate transaction so concurrent writers serialize on the database lock.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create counter table: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Read(ctx context.Context) (int64, error) {
	var n sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT next_value FROM invoice_counter WHERE id = 1`).Scan(&n)
	if err == sql.ErrNoRows {
		return constants.InitialInvoiceValue, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read counter: %w", err)
	}
	return s.sanitize(n), nil
}

func (s *SQLiteStore) IncrementAndGet(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var cur sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT next_value FROM invoice_counter WHERE id = 1`).Scan(&cur)
	switch {
	case err == sql.ErrNoRows:
		cur = sql.NullInt64{Int64: constants.InitialInvoiceValue, Valid: true}
	case err != nil:
		return 0, fmt.Errorf("read counter: %w", err)
	}
	n := s.sanitize(cur)

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO invoice_counter (id, next_value) VALUES (1, ?)
		 ON CONFLICT (id) DO UPDATE SET next_value = excluded.next_value`, n+1); err != nil {
		return 0, fmt.Errorf("write counter: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) sanitize(n sql.NullInt64) int64 {
	if !n.Valid || n.Int64 < 1 {
		s.logger.Warn("sequence.sqlite.corrupt_reset", "reset_to", constants.InitialInvoiceValue)
		return constants.InitialInvoiceValue
	}
	return n.Int64
}
