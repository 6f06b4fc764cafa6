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

package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"bubu-finance-go/internal/models"
	"bubu-finance-go/internal/money"
	"bubu-finance-go/internal/store"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// summaryLimit bounds the rows folded into one summary.
const summaryLimit = 1 << 20

// Store is the slice of persistence the ledger needs.
type Store interface {
	store.TransactionStore
	store.CategoryStore
	store.SharedStore
}

type Service struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

func NewService(s Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: s, loc: loc, now: time.Now}
}

// Today is the current calendar date in the configured timezone.
func (s *Service) Today() civil.Date {
	return civil.DateOf(s.now().In(s.loc))
}

// Location is the timezone periods are resolved in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Create validates and records one transaction. A zero Date means today.
func (s *Service) Create(ctx context.Context, params store.CreateTransactionParams) (*models.Transaction, error) {
	if err := ValidateAmount(params.Amount); err != nil {
		return nil, err
	}
	if !params.Type.Valid() {
		return nil, store.Validationf("invalid transaction type %q", params.Type)
	}
	if params.CategoryId == "" {
		return nil, store.Validationf("category is required")
	}
	if err := s.requireCategory(ctx, params.CategoryId); err != nil {
		return nil, err
	}
	if !params.Date.IsValid() {
		params.Date = s.Today()
	}
	params.Amount = money.Round(params.Amount)

	return s.store.CreateTransaction(ctx, params)
}

func (s *Service) Get(ctx context.Context, id string) (*models.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// GetOwned returns the transaction only if phone owns it.
func (s *Service) GetOwned(ctx context.Context, id, phone string) (*models.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.Phone != phone {
		return nil, fmt.Errorf("%w: %s", store.ErrTransactionNotFound, id)
	}
	return tx, nil
}

func (s *Service) List(ctx context.Context, phone string, filter models.TransactionFilter) ([]models.Transaction, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, store.Validationf("invalid transaction type %q", filter.Type)
	}
	return s.store.ListTransactions(ctx, phone, filter)
}

// Summarize totals income and expense for phone within dateRange.
func (s *Service) Summarize(ctx context.Context, phone string, dateRange models.DateRange) (*models.Summary, error) {
	txs, err := s.store.ListTransactions(ctx, phone, models.TransactionFilter{Range: dateRange, Limit: summaryLimit})
	if err != nil {
		return nil, err
	}

	type groupKey struct {
		categoryId string
		typ        models.TransactionType
	}
	groups := make(map[groupKey]*models.CategoryBreakdown)

	summary := &models.Summary{IncomeTotal: decimal.Zero, ExpenseTotal: decimal.Zero}
	for _, tx := range txs {
		switch tx.Type {
		case models.TypeIncome:
			summary.IncomeTotal = summary.IncomeTotal.Add(tx.Amount)
		case models.TypeExpense:
			summary.ExpenseTotal = summary.ExpenseTotal.Add(tx.Amount)
		}

		key := groupKey{tx.CategoryId, tx.Type}
		g, ok := groups[key]
		if !ok {
			g = &models.CategoryBreakdown{
				CategoryId:   tx.CategoryId,
				CategoryName: tx.CategoryName,
				Type:         tx.Type,
				Total:        decimal.Zero,
			}
			groups[key] = g
		}
		g.Total = g.Total.Add(tx.Amount)
		g.Count++
	}

	summary.Balance = summary.IncomeTotal.Sub(summary.ExpenseTotal)
	summary.Breakdown = make([]models.CategoryBreakdown, 0, len(groups))
	for _, g := range groups {
		summary.Breakdown = append(summary.Breakdown, *g)
	}
	sort.Slice(summary.Breakdown, func(i, j int) bool {
		a, b := summary.Breakdown[i], summary.Breakdown[j]
		if c := a.Total.Cmp(b.Total); c != 0 {
			return c > 0
		}
		return a.CategoryName < b.CategoryName
	})

	zap.L().Debug("Ledger summarized",
		zap.String("phone", phone),
		zap.Int("transactions", len(txs)),
		zap.String("income", summary.IncomeTotal.String()),
		zap.String("expense", summary.ExpenseTotal.String()))
	return summary, nil
}

// Update applies patch to a transaction owned by phone. Amount and date of a
// shared leg are locked to keep the link row consistent.
func (s *Service) Update(ctx context.Context, id, phone string, patch store.TransactionPatch) (*models.Transaction, error) {
	if patch.Empty() {
		return nil, store.Validationf("nothing to update")
	}

	tx, err := s.GetOwned(ctx, id, phone)
	if err != nil {
		return nil, err
	}

	if tx.IsShared && (patch.Amount != nil || patch.Date != nil) {
		return nil, fmt.Errorf("%w: %s", store.ErrSharedLegLocked, id)
	}
	if patch.Amount != nil {
		if err := ValidateAmount(*patch.Amount); err != nil {
			return nil, err
		}
		rounded := money.Round(*patch.Amount)
		patch.Amount = &rounded
	}
	if patch.CategoryId != nil {
		if err := s.requireCategory(ctx, *patch.CategoryId); err != nil {
			return nil, err
		}
	}
	if patch.Date != nil && !patch.Date.IsValid() {
		return nil, store.Validationf("invalid date")
	}

	return s.store.UpdateTransaction(ctx, id, phone, patch)
}

// Delete removes a transaction owned by phone. Deleting either leg of a
// shared expense deletes the whole shared expense; the returned flag says so.
func (s *Service) Delete(ctx context.Context, id, phone string) (*models.Transaction, bool, error) {
	tx, err := s.GetOwned(ctx, id, phone)
	if err != nil {
		return nil, false, err
	}

	if tx.IsShared && tx.SharedTransactionId != "" {
		if err := s.store.DeleteShared(ctx, tx.SharedTransactionId); err != nil {
			return nil, false, err
		}
		return tx, true, nil
	}

	if err := s.store.DeleteTransaction(ctx, id, phone); err != nil {
		return nil, false, err
	}
	return tx, false, nil
}

// ReassignCategory moves transactions between categories; an empty phone
// moves every user's rows.
func (s *Service) ReassignCategory(ctx context.Context, fromId, toId, phone string) (int64, error) {
	if fromId == toId {
		return 0, nil
	}
	if err := s.requireCategory(ctx, toId); err != nil {
		return 0, err
	}
	return s.store.ReassignCategory(ctx, fromId, toId, phone)
}

func (s *Service) requireCategory(ctx context.Context, id string) error {
	_, err := s.store.GetCategory(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Validationf("category %s does not exist", id)
	}
	return err
}

// ValidateAmount rejects amounts that are not positive once rounded to cents.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return store.Validationf("amount must be greater than zero, got %s", amount.String())
	}
	if !money.Round(amount).IsPositive() {
		return store.Validationf("amount %s rounds to zero", amount.String())
	}
	return nil
}
