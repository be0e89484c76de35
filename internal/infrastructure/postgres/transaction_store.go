// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package postgres stores recorded payment transactions in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/port"
	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS membership_transactions (
	seq            BIGSERIAL PRIMARY KEY,
	id             TEXT NOT NULL UNIQUE,
	email          TEXT NOT NULL,
	first_name     TEXT NOT NULL DEFAULT '',
	last_name      TEXT NOT NULL DEFAULT '',
	payment_status TEXT NOT NULL DEFAULT '',
	payment        TEXT NOT NULL DEFAULT '',
	submitted_at   TIMESTAMPTZ NOT NULL,
	processed_at   TIMESTAMPTZ,
	modified_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS membership_transactions_unprocessed_idx
	ON membership_transactions (seq) WHERE processed_at IS NULL;
`

// Config holds the database settings
type Config struct {
	// DSN is a lib/pq connection string or URL
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewConfigFromEnv reads DATABASE_URL
func NewConfigFromEnv() (Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return Config{}, errs.NewValidation("DATABASE_URL is required for the postgres transaction store")
	}
	return Config{
		DSN:             dsn,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}, nil
}

// TransactionStore implements port.TransactionStore
type TransactionStore struct {
	db *sql.DB
}

// Migrate creates the table when it does not exist
func (s *TransactionStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errs.NewServiceUnavailable("failed to create transaction table", err)
	}
	return nil
}

// ListUnprocessed returns the pending transactions in arrival order
func (s *TransactionStore) ListUnprocessed(ctx context.Context) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, first_name, last_name, payment_status, payment, submitted_at
		FROM membership_transactions
		WHERE processed_at IS NULL
		ORDER BY seq`)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list unprocessed transactions", "error", err)
		return nil, classify("failed to list unprocessed transactions", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var tx model.Transaction
		if err := rows.Scan(&tx.ID, &tx.Email, &tx.FirstName, &tx.LastName,
			&tx.PaymentStatus, &tx.Payment, &tx.Timestamp); err != nil {
			return nil, errs.NewUnexpected("failed to read transaction row", err)
		}
		tx.Timestamp = tx.Timestamp.UTC()
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("failed to list unprocessed transactions", err)
	}
	return out, nil
}

// LastModified returns the latest modification time, zero for an empty table
func (s *TransactionStore) LastModified(ctx context.Context) (time.Time, error) {
	var last sql.NullTime
	if err := s.db.QueryRowContext(ctx,
		`SELECT MAX(modified_at) FROM membership_transactions`).Scan(&last); err != nil {
		return time.Time{}, classify("failed to read transaction watermark", err)
	}
	if !last.Valid {
		return time.Time{}, nil
	}
	return last.Time.UTC(), nil
}

// Append records tx, assigning an id and timestamp when missing
func (s *TransactionStore) Append(ctx context.Context, tx model.Transaction) (model.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO membership_transactions
			(id, email, first_name, last_name, payment_status, payment, submitted_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		tx.ID, tx.Email, tx.FirstName, tx.LastName, tx.PaymentStatus, tx.Payment, tx.Timestamp, tx.ProcessedAt)
	if err != nil {
		slog.ErrorContext(ctx, "failed to append transaction", "error", err, "transaction_id", tx.ID)
		return model.Transaction{}, classify(fmt.Sprintf("failed to append transaction %s", tx.ID), err)
	}

	slog.DebugContext(ctx, "transaction recorded", "transaction_id", tx.ID)
	return tx, nil
}

// MarkProcessed stamps the transaction with at
func (s *TransactionStore) MarkProcessed(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE membership_transactions
		SET processed_at = $2, modified_at = now()
		WHERE id = $1`, id, at)
	if err != nil {
		return classify(fmt.Sprintf("failed to mark transaction %s processed", id), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errs.NewUnexpected("failed to read affected rows", err)
	}
	if n == 0 {
		return errs.NewNotFound(fmt.Sprintf("transaction %s not found", id))
	}
	return nil
}

// IsReady pings the database
func (s *TransactionStore) IsReady(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errs.NewServiceUnavailable("postgres is not reachable", err)
	}
	return nil
}

// Close closes the connection pool
func (s *TransactionStore) Close() error {
	return s.db.Close()
}

// classify maps driver errors onto the error taxonomy
func classify(message string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return errs.NewAlreadyExists(message, err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errs.NewNotFound(message, err)
	}
	return errs.NewServiceUnavailable(message, err)
}

// NewTransactionStore opens the pool and verifies the connection
func NewTransactionStore(ctx context.Context, config Config) (*TransactionStore, error) {
	db, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, errs.NewServiceUnavailable("failed to open database", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errs.NewServiceUnavailable("failed to ping database", err)
	}
	return &TransactionStore{db: db}, nil
}

var _ port.TransactionStore = (*TransactionStore)(nil)
