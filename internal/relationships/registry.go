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

// Package relationships manages the pairing lifecycle between two users:
// none -> pending -> active | rejected, rejected -> pending, active -> inactive.
package relationships

import (
	"context"
	"errors"
	"fmt"

	"bubu-finance-go/internal/models"
	"bubu-finance-go/internal/money"
	"bubu-finance-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Registry struct {
	store store.RelationshipStore
}

func NewRegistry(s store.RelationshipStore) *Registry {
	return &Registry{store: s}
}

// Create opens a pending request from requester to recipient. A previously
// rejected or deactivated pair is reopened in place.
func (r *Registry) Create(ctx context.Context, requester, recipient string, splitRequester, splitRecipient decimal.Decimal) (*models.Relationship, error) {
	if requester == recipient {
		return nil, store.ErrSelfRelationship
	}
	if err := validateSplit(splitRequester, splitRecipient); err != nil {
		return nil, err
	}

	existing, err := r.store.FindRelationshipByPair(ctx, requester, recipient)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		switch existing.Status {
		case models.RelationshipPending:
			return nil, store.ErrRelationshipPending
		case models.RelationshipActive:
			return nil, store.ErrRelationshipActive
		}
	}

	if err := r.ensureNoActivePartner(ctx, requester, recipient); err != nil {
		return nil, err
	}

	if existing != nil {
		previous := existing.Status
		existing.Phone1 = requester
		existing.Phone2 = recipient
		existing.DefaultSplit1 = splitRequester
		existing.DefaultSplit2 = splitRecipient
		existing.Status = models.RelationshipPending
		if err := r.store.UpdateRelationship(ctx, existing); err != nil {
			return nil, err
		}
		zap.L().Info("Relationship resubmitted",
			zap.String("id", existing.Id),
			zap.String("previous_status", string(previous)))
		return existing, nil
	}

	rel := &models.Relationship{
		Phone1:        requester,
		Phone2:        recipient,
		DefaultSplit1: splitRequester,
		DefaultSplit2: splitRecipient,
		Status:        models.RelationshipPending,
	}
	if err := r.store.InsertRelationship(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// GetActive returns phone's active relationship or ErrNoRelationship.
func (r *Registry) GetActive(ctx context.Context, phone string) (*models.Relationship, error) {
	rel, err := r.store.GetActiveRelationship(ctx, phone)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", store.ErrNoRelationship, phone)
		}
		return nil, err
	}
	return rel, nil
}

// Accept activates the pending request counterpart sent to phone. The
// single-active-partner check happens inside the store write.
func (r *Registry) Accept(ctx context.Context, phone, counterpart string) (*models.Relationship, error) {
	rel, err := r.incomingPending(ctx, phone, counterpart)
	if err != nil {
		return nil, err
	}
	if err := r.store.ActivateRelationship(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// Reject declines the pending request counterpart sent to phone.
func (r *Registry) Reject(ctx context.Context, phone, counterpart string) (*models.Relationship, error) {
	rel, err := r.incomingPending(ctx, phone, counterpart)
	if err != nil {
		return nil, err
	}

	rel.Status = models.RelationshipRejected
	if err := r.store.UpdateRelationship(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// UpdateDefaultSplit sets the default split of phone's active relationship,
// given from phone's point of view.
func (r *Registry) UpdateDefaultSplit(ctx context.Context, phone string, userSplit, partnerSplit decimal.Decimal) (*models.Relationship, error) {
	if err := validateSplit(userSplit, partnerSplit); err != nil {
		return nil, err
	}

	rel, err := r.GetActive(ctx, phone)
	if err != nil {
		return nil, err
	}

	if rel.Slot(phone) == 1 {
		rel.DefaultSplit1, rel.DefaultSplit2 = userSplit, partnerSplit
	} else {
		rel.DefaultSplit1, rel.DefaultSplit2 = partnerSplit, userSplit
	}
	if err := r.store.UpdateRelationship(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// ListPending returns requests waiting for phone's answer, newest first.
func (r *Registry) ListPending(ctx context.Context, phone string) ([]models.Relationship, error) {
	return r.store.ListPendingRelationships(ctx, phone)
}

// Deactivate ends phone's active relationship. It cannot be reactivated
// except through a new request.
func (r *Registry) Deactivate(ctx context.Context, phone string) (*models.Relationship, error) {
	rel, err := r.GetActive(ctx, phone)
	if err != nil {
		return nil, err
	}

	rel.Status = models.RelationshipInactive
	if err := r.store.UpdateRelationship(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

func (r *Registry) incomingPending(ctx context.Context, phone, counterpart string) (*models.Relationship, error) {
	rel, err := r.store.FindRelationshipByPair(ctx, phone, counterpart)
	if err != nil {
		return nil, err
	}
	if rel.Status != models.RelationshipPending || rel.Phone2 != phone {
		return nil, fmt.Errorf("%w: no pending request from %s to %s", store.ErrRelationshipNotFound, counterpart, phone)
	}
	return rel, nil
}

func (r *Registry) ensureNoActivePartner(ctx context.Context, phones ...string) error {
	for _, phone := range phones {
		_, err := r.store.GetActiveRelationship(ctx, phone)
		if err == nil {
			return fmt.Errorf("%w: %s", store.ErrPartnerAlreadyActive, phone)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	return nil
}

func validateSplit(a, b decimal.Decimal) error {
	if !a.IsPositive() || !b.IsPositive() {
		return store.Validationf("split percentages must be greater than zero: %s/%s", a.String(), b.String())
	}
	if !money.ExactSplit(a, b) {
		return store.Validationf("split percentages must sum to 100, got %s", a.Add(b).String())
	}
	return nil
}
