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

package sharing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bubu-finance-go/internal/models"
	"bubu-finance-go/internal/money"
	"bubu-finance-go/internal/store"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RelationshipFinder resolves a phone's active relationship, failing with
// store.ErrNoRelationship when there is none.
type RelationshipFinder interface {
	GetActive(ctx context.Context, phone string) (*models.Relationship, error)
}

// Store is the slice of persistence the engine needs.
type Store interface {
	store.SharedStore
	GetCategory(ctx context.Context, id string) (*models.Category, error)
}

// CreateParams describes one shared expense from the payer's point of view.
type CreateParams struct {
	PayerPhone     string
	PartnerPhone   string
	TotalAmount    decimal.Decimal
	CategoryId     string
	Type           models.TransactionType
	Description    string
	SplitPayer     decimal.Decimal
	SplitPartner   decimal.Decimal
	Date           civil.Date
	RelationshipId string
}

// Split is a resolved percentage pair oriented to the requesting phone.
type Split struct {
	Own          decimal.Decimal
	Partner      decimal.Decimal
	IsCustom     bool
	Relationship *models.Relationship
}

type Engine struct {
	store         Store
	relationships RelationshipFinder
	loc           *time.Location
	now           func() time.Time
}

func NewEngine(s Store, relationships RelationshipFinder, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{store: s, relationships: relationships, loc: loc, now: time.Now}
}

// ResolveSplit returns the explicit percentages when both are given,
// otherwise the relationship default oriented to phone.
func (e *Engine) ResolveSplit(ctx context.Context, phone string, own, partner *decimal.Decimal) (*Split, error) {
	rel, err := e.relationships.GetActive(ctx, phone)
	if err != nil {
		return nil, err
	}

	if own != nil || partner != nil {
		o, p, err := completeSplit(own, partner)
		if err != nil {
			return nil, err
		}
		return &Split{Own: o, Partner: p, IsCustom: true, Relationship: rel}, nil
	}

	o, p := rel.SplitFor(phone)
	return &Split{Own: o, Partner: p, Relationship: rel}, nil
}

// completeSplit fills in a missing side as 100 minus the other.
func completeSplit(own, partner *decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	var o, p decimal.Decimal
	switch {
	case own != nil && partner != nil:
		o, p = *own, *partner
	case own != nil:
		o, p = *own, money.Hundred.Sub(*own)
	default:
		o, p = money.Hundred.Sub(*partner), *partner
	}
	return normalizeSplit(o, p)
}

// normalizeSplit validates a and b and returns them with b replaced by
// 100 - a, so stored percentages always sum to exactly 100.
func normalizeSplit(a, b decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if err := validateSplit(a, b); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	b = money.Hundred.Sub(a)
	if !b.IsPositive() {
		return decimal.Zero, decimal.Zero, store.Validationf("split percentages must be greater than zero: %s/%s", a.String(), b.String())
	}
	return a, b, nil
}

// validateSplit accepts two strictly positive percentages summing to 100
// within money.SplitTolerance.
func validateSplit(a, b decimal.Decimal) error {
	if !a.IsPositive() || !b.IsPositive() {
		return store.Validationf("split percentages must be greater than zero: %s/%s", a.String(), b.String())
	}
	if !money.SplitSumsTo100(a, b) {
		return store.Validationf("split percentages must sum to 100, got %s", a.Add(b).String())
	}
	return nil
}

// CreateShared splits one expense into two ledger legs plus a link row,
// written atomically.
func (e *Engine) CreateShared(ctx context.Context, params CreateParams) (*models.SharedTransaction, error) {
	if !params.TotalAmount.IsPositive() || !money.Round(params.TotalAmount).IsPositive() {
		return nil, store.Validationf("total amount must be greater than zero, got %s", params.TotalAmount.String())
	}
	splitPayer, splitPartner, err := normalizeSplit(params.SplitPayer, params.SplitPartner)
	if err != nil {
		return nil, err
	}
	params.SplitPayer, params.SplitPartner = splitPayer, splitPartner
	if !params.Type.Valid() {
		return nil, store.Validationf("invalid transaction type %q", params.Type)
	}
	if _, err := e.store.GetCategory(ctx, params.CategoryId); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.Validationf("category %s does not exist", params.CategoryId)
		}
		return nil, err
	}

	rel, err := e.relationships.GetActive(ctx, params.PayerPhone)
	if err != nil {
		return nil, err
	}
	if rel.Counterpart(params.PayerPhone) != params.PartnerPhone ||
		(params.RelationshipId != "" && rel.Id != params.RelationshipId) {
		return nil, fmt.Errorf("%w: %s and %s are not active partners", store.ErrNoRelationship, params.PayerPhone, params.PartnerPhone)
	}

	if !params.Date.IsValid() {
		params.Date = civil.DateOf(e.now().In(e.loc))
	}

	total := money.Round(params.TotalAmount)
	amountPayer, amountPartner := money.Split(total, params.SplitPayer, params.SplitPartner)
	if !amountPayer.IsPositive() || !amountPartner.IsPositive() {
		return nil, store.Validationf("%s split %s/%s leaves a leg without amount",
			money.Format(total), params.SplitPayer.String(), params.SplitPartner.String())
	}

	create := store.CreateSharedParams{
		RelationshipId: rel.Id,
		PayerPhone:     params.PayerPhone,
		TotalAmount:    total,
		CategoryId:     params.CategoryId,
		Type:           params.Type,
		Description:    params.Description,
		Date:           params.Date,
	}
	if rel.Slot(params.PayerPhone) == 1 {
		create.Phone1, create.Phone2 = params.PayerPhone, params.PartnerPhone
		create.SplitPercentage1, create.SplitPercentage2 = params.SplitPayer, params.SplitPartner
		create.Amount1, create.Amount2 = amountPayer, amountPartner
	} else {
		create.Phone1, create.Phone2 = params.PartnerPhone, params.PayerPhone
		create.SplitPercentage1, create.SplitPercentage2 = params.SplitPartner, params.SplitPayer
		create.Amount1, create.Amount2 = amountPartner, amountPayer
	}

	st, err := e.store.CreateShared(ctx, create)
	if err != nil {
		zap.L().Error("Failed to create shared expense",
			zap.String("payer_phone", params.PayerPhone),
			zap.String("partner_phone", params.PartnerPhone),
			zap.Error(err))
		return nil, err
	}
	return st, nil
}

// LegsFor returns the payer's and partner's leg amounts of st.
func LegsFor(st *models.SharedTransaction, phone string) (own, partner decimal.Decimal) {
	if st.Phone2 == phone {
		return st.Amount2, st.Amount1
	}
	return st.Amount1, st.Amount2
}

// Get returns a shared expense visible to phone.
func (e *Engine) Get(ctx context.Context, id, phone string) (*models.SharedTransaction, error) {
	st, err := e.store.GetShared(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.Phone1 != phone && st.Phone2 != phone {
		return nil, fmt.Errorf("%w: %s", store.ErrSharedNotFound, id)
	}
	return st, nil
}

// DeleteShared removes a shared expense of phone and both of its legs.
func (e *Engine) DeleteShared(ctx context.Context, id, phone string) error {
	if _, err := e.Get(ctx, id, phone); err != nil {
		return err
	}
	return e.store.DeleteShared(ctx, id)
}

// List returns the shared expenses between phone and its active partner
// inside dateRange, newest first.
func (e *Engine) List(ctx context.Context, phone string, dateRange models.DateRange) ([]models.SharedTransaction, *models.Relationship, error) {
	rel, err := e.relationships.GetActive(ctx, phone)
	if err != nil {
		return nil, nil, err
	}
	shared, err := e.store.ListShared(ctx, phone, rel.Counterpart(phone), dateRange)
	if err != nil {
		return nil, nil, err
	}
	return shared, rel, nil
}
