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
	"time"

	"bubu-finance-go/internal/models"
	"bubu-finance-go/internal/store"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func scanShared(row rowScanner) (*models.SharedTransaction, error) {
	var st models.SharedTransaction
	var typ, date string
	err := row.Scan(&st.Id, &st.RelationshipId, &st.Transaction1Id, &st.Transaction2Id,
		&st.Phone1, &st.Phone2, &st.PayerPhone,
		&st.TotalAmount, &st.SplitPercentage1, &st.SplitPercentage2, &st.Amount1, &st.Amount2,
		&typ, &st.Description, &date, &st.CreatedAt)
	if err != nil {
		return nil, err
	}

	st.Type = models.TransactionType(typ)
	st.Date, err = civil.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("failed to parse expense date %q: %w", date, err)
	}
	return &st, nil
}

// CreateShared atomically writes both ledger legs and the link row. Either
// all three rows exist afterwards or none do.
func (s *Service) CreateShared(ctx context.Context, params store.CreateSharedParams) (*models.SharedTransaction, error) {
	zap.L().Info("Creating shared transaction",
		zap.String("relationship_id", params.RelationshipId),
		zap.String("payer_phone", params.PayerPhone),
		zap.String("total_amount", params.TotalAmount.String()),
		zap.String("amount_1", params.Amount1.String()),
		zap.String("amount_2", params.Amount2.String()))

	sharedId := uuid.New().String()
	tx1Id := uuid.New().String()
	tx2Id := uuid.New().String()

	// Start database transaction for atomicity
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	leg1 := store.CreateTransactionParams{
		Phone:       params.Phone1,
		CategoryId:  params.CategoryId,
		Type:        params.Type,
		Amount:      params.Amount1,
		Description: params.Description,
		Date:        params.Date,
	}
	if err := insertTransaction(ctx, tx, tx1Id, leg1, sharedId); err != nil {
		return nil, fmt.Errorf("failed to insert first leg: %w", err)
	}

	leg2 := leg1
	leg2.Phone = params.Phone2
	leg2.Amount = params.Amount2
	if err := insertTransaction(ctx, tx, tx2Id, leg2, sharedId); err != nil {
		return nil, fmt.Errorf("failed to insert second leg: %w", err)
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, queryInsertShared,
		sharedId, params.RelationshipId, tx1Id, tx2Id, params.Phone1, params.Phone2, params.PayerPhone,
		params.TotalAmount.StringFixed(2), params.SplitPercentage1.String(), params.SplitPercentage2.String(),
		params.Amount1.StringFixed(2), params.Amount2.StringFixed(2),
		string(params.Type), params.Description, params.Date.String(), now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert shared transaction: %w", err)
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Shared transaction created",
		zap.String("shared_transaction_id", sharedId),
		zap.String("transaction_1_id", tx1Id),
		zap.String("transaction_2_id", tx2Id))

	return s.GetShared(ctx, sharedId)
}

func (s *Service) GetShared(ctx context.Context, id string) (*models.SharedTransaction, error) {
	st, err := scanShared(s.db.QueryRowContext(ctx, queryGetShared, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrSharedNotFound, id)
		}
		return nil, fmt.Errorf("unable to query shared transaction: %w", err)
	}
	return st, nil
}

func (s *Service) ListShared(ctx context.Context, phoneA, phoneB string, dateRange models.DateRange) ([]models.SharedTransaction, error) {
	query := queryListSharedBase
	args := []any{phoneA, phoneB, phoneB, phoneA}
	if dateRange.From.IsValid() {
		query += " AND expense_date >= ?"
		args = append(args, dateRange.From.String())
	}
	if dateRange.To.IsValid() {
		query += " AND expense_date <= ?"
		args = append(args, dateRange.To.String())
	}
	query += " ORDER BY expense_date DESC, created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared transactions: %w", err)
	}
	defer closeRows(rows)

	var shared []models.SharedTransaction
	for rows.Next() {
		st, err := scanShared(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shared transaction: %w", err)
		}
		shared = append(shared, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shared transaction rows: %w", err)
	}

	zap.L().Debug("Retrieved shared transactions",
		zap.String("phone_a", phoneA),
		zap.String("phone_b", phoneB),
		zap.Int("count", len(shared)))
	return shared, nil
}

// DeleteShared removes the link row and both legs as one unit.
func (s *Service) DeleteShared(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, queryDeleteShared, id)
	if err != nil {
		return fmt.Errorf("failed to delete shared transaction: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("%w: %s", store.ErrSharedNotFound, id)
	}

	result, err = tx.ExecContext(ctx, queryDeleteSharedLegs, id)
	if err != nil {
		return fmt.Errorf("failed to delete shared legs: %w", err)
	}
	legs, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Shared transaction deleted", zap.String("id", id), zap.Int64("legs_deleted", legs))
	return nil
}
