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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func scanCategory(row rowScanner) (*models.Category, error) {
	var c models.Category
	var typ string
	if err := row.Scan(&c.Id, &c.Name, &typ, &c.Color, &c.Icon, &c.Predefined, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Type = models.TransactionType(typ)
	return &c, nil
}

func (s *Service) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx, queryGetCategory, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrCategoryNotFound, id)
		}
		return nil, fmt.Errorf("unable to query category: %w", err)
	}
	return c, nil
}

func (s *Service) FindCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx, queryFindCategoryByName, strings.TrimSpace(name)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrCategoryNotFound, name)
		}
		return nil, fmt.Errorf("unable to query category by name: %w", err)
	}
	return c, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, queryListCategories)
	if err != nil {
		return nil, fmt.Errorf("unable to query categories: %w", err)
	}
	defer closeRows(rows)

	var categories []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan category row: %w", err)
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}
	return categories, nil
}

func (s *Service) CreateCategory(ctx context.Context, name string, typ models.TransactionType, color, icon string, predefined bool) (*models.Category, error) {
	c := &models.Category{
		Id:         uuid.New().String(),
		Name:       strings.TrimSpace(name),
		Type:       typ,
		Color:      color,
		Icon:       icon,
		Predefined: predefined,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, queryInsertCategory,
		c.Id, c.Name, string(c.Type), c.Color, c.Icon, c.Predefined, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrCategoryExists, c.Name)
		}
		zap.L().Error("Failed to insert category", zap.String("name", c.Name), zap.Error(err))
		return nil, fmt.Errorf("unable to insert category: %w", err)
	}

	zap.L().Info("Category created",
		zap.String("id", c.Id),
		zap.String("name", c.Name),
		zap.String("type", string(c.Type)),
		zap.Bool("predefined", c.Predefined))
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id string, patch store.CategoryPatch) (*models.Category, error) {
	var sets []string
	var args []any
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, strings.TrimSpace(*patch.Name))
	}
	if patch.Color != nil {
		sets = append(sets, "color = ?")
		args = append(args, *patch.Color)
	}
	if patch.Icon != nil {
		sets = append(sets, "icon = ?")
		args = append(args, *patch.Icon)
	}
	if len(sets) == 0 {
		return s.GetCategory(ctx, id)
	}

	args = append(args, id)
	result, err := s.db.ExecContext(ctx, "UPDATE categories SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrCategoryExists, *patch.Name)
		}
		return nil, fmt.Errorf("unable to update category: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrCategoryNotFound, id)
	}

	zap.L().Info("Category updated", zap.String("id", id))
	return s.GetCategory(ctx, id)
}

// DeleteCategoryReassigning moves every transaction of the category to the
// fallback and deletes the category row inside one database transaction,
// so no transaction is ever left pointing at a missing category.
func (s *Service) DeleteCategoryReassigning(ctx context.Context, id, fallbackId string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, queryReassignCategory, fallbackId, id)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign transactions: %w", err)
	}
	moved, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}

	result, err = tx.ExecContext(ctx, queryDeleteCategory, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete category: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if deleted == 0 {
		return 0, fmt.Errorf("%w: %s", store.ErrCategoryNotFound, id)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Category deleted",
		zap.String("id", id),
		zap.String("fallback_id", fallbackId),
		zap.Int64("moved", moved))
	return moved, nil
}
