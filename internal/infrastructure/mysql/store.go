package mysql

import (
	"context"
	"database/sql"
	"errors"

	"art-auction/internal/config"
	"art-auction/internal/domain"

	mysqldriver "github.com/go-sql-driver/mysql"
)

// Store implements domain.Store over MySQL. Every Update call is one
// transaction; the FOR UPDATE reads inside it hold their row locks until
// commit or rollback.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to MySQL with the configured pool limits and verifies
// the connection.
func Open(ctx context.Context, cfg config.MySQLConfig) (*Store, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) View(ctx context.Context, fn func(tx domain.Tx) error) error {
	return s.run(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (s *Store) Update(ctx context.Context, fn func(tx domain.Tx) error) error {
	return s.run(ctx, nil, fn)
}

func (s *Store) run(ctx context.Context, opts *sql.TxOptions, fn func(tx domain.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	if err := fn(&sqlTx{tx: tx}); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// sqlTx adapts *sql.Tx to domain.Tx. Methods live in the per-entity
// repository files.
type sqlTx struct {
	tx *sql.Tx
}

const duplicateEntryErrNo = 1062

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysqldriver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == duplicateEntryErrNo
}
