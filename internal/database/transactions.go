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
	"strings"
	"time"

	"bubu-finance-go/internal/models"
	"bubu-finance-go/internal/store"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultListLimit = 100

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var t models.Transaction
	var typ, date string
	var sharedId sql.NullString
	err := row.Scan(&t.Id, &t.Phone, &t.CategoryId, &t.CategoryName, &typ, &t.Amount, &t.Description,
		&date, &t.IsShared, &sharedId, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	t.Type = models.TransactionType(typ)
	t.SharedTransactionId = sharedId.String
	t.Date, err = civil.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transaction date %q: %w", date, err)
	}
	return &t, nil
}

// insertTransaction writes one ledger row using the given executor, so it can
// run standalone or as part of a larger database transaction.
func insertTransaction(ctx context.Context, exec interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, id string, params store.CreateTransactionParams, sharedId string) error {
	var shared sql.NullString
	if sharedId != "" {
		shared = sql.NullString{String: sharedId, Valid: true}
	}

	_, err := exec.ExecContext(ctx, queryInsertTransaction,
		id, params.Phone, params.CategoryId, string(params.Type),
		params.Amount.StringFixed(2), params.Description, params.Date.String(),
		shared.Valid, shared, time.Now().UTC())
	return err
}

func (s *Service) CreateTransaction(ctx context.Context, params store.CreateTransactionParams) (*models.Transaction, error) {
	zap.L().Info("Creating transaction",
		zap.String("phone", params.Phone),
		zap.String("type", string(params.Type)),
		zap.String("amount", params.Amount.String()),
		zap.String("category_id", params.CategoryId))

	id := uuid.New().String()
	if err := insertTransaction(ctx, s.db, id, params, ""); err != nil {
		zap.L().Error("Failed to insert transaction", zap.String("phone", params.Phone), zap.Error(err))
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	return s.GetTransaction(ctx, id)
}

func (s *Service) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	t, err := scanTransaction(s.db.QueryRowContext(ctx, queryGetTransaction, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrTransactionNotFound, id)
		}
		return nil, fmt.Errorf("unable to query transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns a user's rows newest first (by date, then by
// creation order), capped at filter.Limit.
func (s *Service) ListTransactions(ctx context.Context, phone string, filter models.TransactionFilter) ([]models.Transaction, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	zap.L().Debug("Listing transactions",
		zap.String("phone", phone),
		zap.String("from", filter.Range.From.String()),
		zap.String("to", filter.Range.To.String()),
		zap.Int("limit", limit))

	query := queryListTransactionsBase
	args := []any{phone}
	if filter.Range.From.IsValid() {
		query += " AND t.transaction_date >= ?"
		args = append(args, filter.Range.From.String())
	}
	if filter.Range.To.IsValid() {
		query += " AND t.transaction_date <= ?"
		args = append(args, filter.Range.To.String())
	}
	if filter.Type != "" {
		query += " AND t.type = ?"
		args = append(args, string(filter.Type))
	}
	if filter.CategoryId != "" {
		query += " AND t.category_id = ?"
		args = append(args, filter.CategoryId)
	}
	query += queryListTransactionsOrder
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer closeRows(rows)

	var transactions []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during transaction row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}

// UpdateTransaction applies patch to a row owned by phone.
func (s *Service) UpdateTransaction(ctx context.Context, id, phone string, patch store.TransactionPatch) (*models.Transaction, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, queryCheckTransactionOwner, id, phone).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrTransactionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to check transaction owner: %w", err)
	}

	var sets []string
	var args []any
	if patch.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, patch.Amount.StringFixed(2))
	}
	if patch.CategoryId != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, *patch.CategoryId)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Date != nil {
		sets = append(sets, "transaction_date = ?")
		args = append(args, patch.Date.String())
	}

	if len(sets) > 0 {
		args = append(args, id, phone)
		_, err = s.db.ExecContext(ctx,
			"UPDATE transactions SET "+strings.Join(sets, ", ")+" WHERE id = ? AND phone = ?", args...)
		if err != nil {
			zap.L().Error("Failed to update transaction", zap.String("id", id), zap.Error(err))
			return nil, fmt.Errorf("failed to update transaction: %w", err)
		}
		zap.L().Info("Transaction updated", zap.String("id", id), zap.String("phone", phone), zap.Int("fields", len(sets)))
	}

	return s.GetTransaction(ctx, id)
}

func (s *Service) DeleteTransaction(ctx context.Context, id, phone string) error {
	result, err := s.db.ExecContext(ctx, queryDeleteTransaction, id, phone)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", store.ErrTransactionNotFound, id)
	}

	zap.L().Info("Transaction deleted", zap.String("id", id), zap.String("phone", phone))
	return nil
}

// ReassignCategory moves rows from one category to another, optionally only
// those owned by phone.
func (s *Service) ReassignCategory(ctx context.Context, fromId, toId, phone string) (int64, error) {
	var result sql.Result
	var err error
	if phone == "" {
		result, err = s.db.ExecContext(ctx, queryReassignCategory, toId, fromId)
	} else {
		result, err = s.db.ExecContext(ctx, queryReassignCategoryForPhone, toId, fromId, phone)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to reassign category: %w", err)
	}

	moved, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}

	zap.L().Info("Transactions reassigned",
		zap.String("from_category_id", fromId),
		zap.String("to_category_id", toId),
		zap.String("phone", phone),
		zap.Int64("moved", moved))
	return moved, nil
}
