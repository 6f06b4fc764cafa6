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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// pairKey orders the two phones so the unordered pair maps to one row.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

func scanRelationship(row rowScanner) (*models.Relationship, error) {
	var r models.Relationship
	var status string
	err := row.Scan(&r.Id, &r.Phone1, &r.Phone2, &r.DefaultSplit1, &r.DefaultSplit2, &status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Status = models.RelationshipStatus(status)
	return &r, nil
}

func (s *Service) FindRelationshipByPair(ctx context.Context, phoneA, phoneB string) (*models.Relationship, error) {
	r, err := scanRelationship(s.db.QueryRowContext(ctx, queryFindRelationshipByPair, pairKey(phoneA, phoneB)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s/%s", store.ErrRelationshipNotFound, phoneA, phoneB)
		}
		return nil, fmt.Errorf("unable to query relationship: %w", err)
	}
	return r, nil
}

func (s *Service) GetActiveRelationship(ctx context.Context, phone string) (*models.Relationship, error) {
	r, err := scanRelationship(s.db.QueryRowContext(ctx, queryGetActiveRelationship, phone, phone))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no active relationship for %s", store.ErrRelationshipNotFound, phone)
		}
		return nil, fmt.Errorf("unable to query active relationship: %w", err)
	}
	return r, nil
}

func (s *Service) InsertRelationship(ctx context.Context, rel *models.Relationship) error {
	if rel.Id == "" {
		rel.Id = uuid.New().String()
	}
	now := time.Now().UTC()
	rel.CreatedAt = now
	rel.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, queryInsertRelationship,
		rel.Id, rel.Phone1, rel.Phone2, pairKey(rel.Phone1, rel.Phone2),
		rel.DefaultSplit1.String(), rel.DefaultSplit2.String(), string(rel.Status), now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: relationship %s/%s already exists", store.ErrConflict, rel.Phone1, rel.Phone2)
		}
		zap.L().Error("Failed to insert relationship", zap.Error(err))
		return fmt.Errorf("unable to insert relationship: %w", err)
	}

	zap.L().Info("Relationship created",
		zap.String("id", rel.Id),
		zap.String("phone_1", rel.Phone1),
		zap.String("phone_2", rel.Phone2),
		zap.String("status", string(rel.Status)))
	return nil
}

func (s *Service) UpdateRelationship(ctx context.Context, rel *models.Relationship) error {
	rel.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, queryUpdateRelationship,
		rel.Phone1, rel.Phone2, rel.DefaultSplit1.String(), rel.DefaultSplit2.String(),
		string(rel.Status), rel.UpdatedAt, rel.Id)
	if err != nil {
		return fmt.Errorf("unable to update relationship: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", store.ErrRelationshipNotFound, rel.Id)
	}

	zap.L().Info("Relationship updated",
		zap.String("id", rel.Id),
		zap.String("status", string(rel.Status)),
		zap.String("split_1", rel.DefaultSplit1.String()),
		zap.String("split_2", rel.DefaultSplit2.String()))
	return nil
}

// ActivateRelationship checks and writes in a single UPDATE so two accepts
// racing for the same phone cannot both succeed.
func (s *Service) ActivateRelationship(ctx context.Context, rel *models.Relationship) error {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, queryActivateRelationship,
		now, rel.Id, rel.Phone1, rel.Phone2, rel.Phone1, rel.Phone2)
	if err != nil {
		return fmt.Errorf("unable to activate relationship: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		current, err := s.FindRelationshipByPair(ctx, rel.Phone1, rel.Phone2)
		if err != nil {
			return err
		}
		if current.Id != rel.Id || current.Status != models.RelationshipPending {
			return fmt.Errorf("%w: %s is no longer pending", store.ErrRelationshipNotFound, rel.Id)
		}
		zap.L().Warn("Relationship activation lost to another active partner",
			zap.String("id", rel.Id),
			zap.String("phone_1", rel.Phone1),
			zap.String("phone_2", rel.Phone2))
		return fmt.Errorf("%w: %s/%s", store.ErrPartnerAlreadyActive, rel.Phone1, rel.Phone2)
	}

	rel.Status = models.RelationshipActive
	rel.UpdatedAt = now
	zap.L().Info("Relationship activated",
		zap.String("id", rel.Id),
		zap.String("phone_1", rel.Phone1),
		zap.String("phone_2", rel.Phone2))
	return nil
}

func (s *Service) ListPendingRelationships(ctx context.Context, recipientPhone string) ([]models.Relationship, error) {
	rows, err := s.db.QueryContext(ctx, queryListPendingRelationships, recipientPhone)
	if err != nil {
		return nil, fmt.Errorf("unable to query pending relationships: %w", err)
	}
	defer closeRows(rows)

	var relationships []models.Relationship
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan relationship row: %w", err)
		}
		relationships = append(relationships, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating relationship rows: %w", err)
	}
	return relationships, nil
}
