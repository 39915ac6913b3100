package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/graphcapture/internal/apperrors"
)

//go:embed schema.sql
var schemaSQL string

// foreignKeyViolation is the PostgreSQL SQLSTATE for a broken foreign key
const foreignKeyViolation = "23503"

// PoolConfig holds connection pool settings
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to PostgreSQL and verifies the connection
func Open(ctx context.Context, url string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// EnsureSchema creates the curves and data_points tables if they are missing
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	log.Info().Msg("Database schema ready")
	return nil
}

// base carries what every repository needs: the pool and the per-call timeout
type base struct {
	db      *sql.DB
	timeout time.Duration
}

func (b base) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}

// withTx runs fn in a transaction. Any error from fn rolls back every write
// made inside it; errors that are not already apperrors become storage errors.
func (b base) withTx(ctx context.Context, opts *sql.TxOptions, op string, fn func(tx *sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, opts)
	if err != nil {
		return storageError(op, err)
	}
	defer tx.Rollback() // no-op once committed

	if err := fn(tx); err != nil {
		if _, ok := apperrors.As(err); ok {
			return err
		}
		return storageError(op, err)
	}

	if err := tx.Commit(); err != nil {
		return storageError(op, err)
	}
	return nil
}

func storageError(op string, err error) error {
	appErr := apperrors.NewStorageError(fmt.Sprintf("failed to %s", op), err)
	log.Error().Err(err).Bool("timeout", appErr.Timeout).Str("op", op).Msg("Storage operation failed")
	return appErr
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt64(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	i := ni.Int64
	return &i
}
