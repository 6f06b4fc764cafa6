/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bubu-finance-go/internal/models"
	"bubu-finance-go/internal/store"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.Store.
var _ store.Store = (*Service)(nil)

type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Service) initSchema(ctx context.Context) error {
	schema := `
	-- Users are keyed by their normalized 10-digit phone
	CREATE TABLE IF NOT EXISTS users (
		phone TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);

	-- Categories are global; names are unique case-insensitively
	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL COLLATE NOCASE UNIQUE,
		type TEXT NOT NULL CHECK (type IN ('expense', 'income')),
		color TEXT NOT NULL DEFAULT '',
		icon TEXT NOT NULL DEFAULT '',
		is_predefined BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	);

	-- Ledger rows; amounts are decimal strings, dates are YYYY-MM-DD
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		phone TEXT NOT NULL REFERENCES users(phone),
		category_id TEXT NOT NULL REFERENCES categories(id),
		type TEXT NOT NULL CHECK (type IN ('expense', 'income')),
		amount TEXT NOT NULL CHECK (CAST(amount AS REAL) > 0),
		description TEXT NOT NULL DEFAULT '',
		transaction_date TEXT NOT NULL,
		is_shared BOOLEAN NOT NULL DEFAULT 0,
		shared_transaction_id TEXT,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_phone_date ON transactions(phone, transaction_date);
	CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_shared ON transactions(shared_transaction_id);

	-- One row per unordered phone pair; pair_key is "min:max"
	CREATE TABLE IF NOT EXISTS relationships (
		id TEXT PRIMARY KEY,
		phone_1 TEXT NOT NULL REFERENCES users(phone),
		phone_2 TEXT NOT NULL REFERENCES users(phone),
		pair_key TEXT NOT NULL UNIQUE,
		default_split_1 TEXT NOT NULL,
		default_split_2 TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('pending', 'active', 'rejected', 'inactive')),
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_relationships_phone_1 ON relationships(phone_1, status);
	CREATE INDEX IF NOT EXISTS idx_relationships_phone_2 ON relationships(phone_2, status);

	-- Link between the two ledger legs of a shared expense
	CREATE TABLE IF NOT EXISTS shared_transactions (
		id TEXT PRIMARY KEY,
		relationship_id TEXT NOT NULL REFERENCES relationships(id),
		transaction_1_id TEXT NOT NULL REFERENCES transactions(id),
		transaction_2_id TEXT NOT NULL REFERENCES transactions(id),
		phone_1 TEXT NOT NULL,
		phone_2 TEXT NOT NULL,
		payer_phone TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		split_percentage_1 TEXT NOT NULL,
		split_percentage_2 TEXT NOT NULL,
		amount_1 TEXT NOT NULL CHECK (CAST(amount_1 AS REAL) > 0),
		amount_2 TEXT NOT NULL CHECK (CAST(amount_2 AS REAL) > 0),
		type TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		expense_date TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_shared_phones_date ON shared_transactions(phone_1, phone_2, expense_date);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		zap.L().Warn("Failed to close rows", zap.Error(err))
	}
}
