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

	"go.uber.org/zap"
)

// GetOrCreateUser returns the user for phone, inserting it on first contact.
// An existing user's name is never overwritten here.
func (s *Service) GetOrCreateUser(ctx context.Context, phone, name string) (*models.User, error) {
	result, err := s.db.ExecContext(ctx, queryInsertUserIgnore, phone, name, time.Now().UTC())
	if err != nil {
		zap.L().Error("Failed to insert user", zap.String("phone", phone), zap.Error(err))
		return nil, fmt.Errorf("unable to insert user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		zap.L().Info("User created", zap.String("phone", phone), zap.String("name", name))
	}

	return s.GetUser(ctx, phone)
}

func (s *Service) GetUser(ctx context.Context, phone string) (*models.User, error) {
	zap.L().Debug("Querying user by phone", zap.String("phone", phone))

	var user models.User
	err := s.db.QueryRowContext(ctx, queryGetUser, phone).Scan(&user.Phone, &user.Name, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, phone)
		}
		zap.L().Error("Failed to query user", zap.String("phone", phone), zap.Error(err))
		return nil, fmt.Errorf("unable to query user: %w", err)
	}

	return &user, nil
}

func (s *Service) SetUserName(ctx context.Context, phone, name string) error {
	result, err := s.db.ExecContext(ctx, queryUpdateUserName, name, phone)
	if err != nil {
		return fmt.Errorf("unable to update user name: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", store.ErrUserNotFound, phone)
	}

	zap.L().Info("User name updated", zap.String("phone", phone), zap.String("name", name))
	return nil
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, queryListUsers)
	if err != nil {
		zap.L().Error("Failed to query users", zap.Error(err))
		return nil, fmt.Errorf("unable to query users: %w", err)
	}
	defer closeRows(rows)

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.Phone, &user.Name, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("unable to scan user row: %w", err)
		}
		users = append(users, user)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during user row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	zap.L().Debug("Retrieved users", zap.Int("count", len(users)))
	return users, nil
}
