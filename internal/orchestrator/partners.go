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

package orchestrator

import (
	"context"
	"fmt"

	"bubu-finance-go/internal/intent"
	"bubu-finance-go/internal/models"
	"bubu-finance-go/internal/money"
	"bubu-finance-go/internal/notify"
	"bubu-finance-go/internal/sharing"
	"bubu-finance-go/internal/store"
	"bubu-finance-go/internal/users"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var evenSplit = decimal.NewFromInt(50)

// SharedExpenseView is one shared expense oriented to the reader.
type SharedExpenseView struct {
	*models.SharedTransaction
	OwnAmount     decimal.Decimal `json:"own_amount"`
	PartnerAmount decimal.Decimal `json:"partner_amount"`
	PaidByUser    bool            `json:"paid_by_user"`
}

// SharedList is the payload of a shared expense listing.
type SharedList struct {
	Period       models.Period       `json:"period"`
	PartnerPhone string              `json:"partner_phone"`
	Expenses     []SharedExpenseView `json:"expenses"`
}

func (o *Orchestrator) registerPartner(ctx context.Context, phone string, in intent.Intent) (*Result, error) {
	raw := in.Params.String("partner_phone")
	if raw == "" {
		return nil, store.Validationf("partner_phone is required")
	}
	partner, err := o.Users.GetOrCreate(ctx, raw, in.Params.String("partner_name"))
	if err != nil {
		return nil, err
	}

	own, other, err := splitParams(in.Params, true)
	if err != nil {
		return nil, err
	}

	rel, err := o.Relationships.Create(ctx, phone, partner.Phone, own, other)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Partner requested",
		zap.String("phone", phone),
		zap.String("partner", partner.Phone),
		zap.String("relationship_id", rel.Id))

	o.notify(ctx, partner.Phone, notify.RelationshipRequestReceived, map[string]any{
		"relationship_id": rel.Id,
		"from":            phone,
		"split_requester": rel.DefaultSplit1.String(),
		"split_recipient": rel.DefaultSplit2.String(),
	})
	return ok(intent.RegisterPartner, OutcomePartnerRequested, rel), nil
}

// splitParams reads split_user/split_partner, completing a missing side to
// 100. With neither present it returns 50/50 when allowed, else a
// validation error.
func splitParams(p intent.Params, defaultEven bool) (decimal.Decimal, decimal.Decimal, error) {
	own, err := p.Decimal("split_user")
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	other, err := p.Decimal("split_partner")
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	switch {
	case own != nil && other != nil:
		return *own, *other, nil
	case own != nil:
		return *own, money.Hundred.Sub(*own), nil
	case other != nil:
		return money.Hundred.Sub(*other), *other, nil
	case defaultEven:
		return evenSplit, evenSplit, nil
	}
	return decimal.Zero, decimal.Zero, store.Validationf("split_user or split_partner is required")
}

// requester resolves whose pending request phone is answering: the given
// partner_phone, or the most recent request.
func (o *Orchestrator) requester(ctx context.Context, phone string, p intent.Params) (string, error) {
	if raw := p.String("partner_phone"); raw != "" {
		return users.NormalizePhone(raw)
	}

	pending, err := o.Relationships.ListPending(ctx, phone)
	if err != nil {
		return "", err
	}
	if len(pending) == 0 {
		return "", fmt.Errorf("%w: no pending partner request", store.ErrRelationshipNotFound)
	}
	return pending[0].Counterpart(phone), nil
}

func (o *Orchestrator) acceptPartnerRequest(ctx context.Context, phone string, in intent.Intent) (*Result, error) {
	counterpart, err := o.requester(ctx, phone, in.Params)
	if err != nil {
		return nil, err
	}
	rel, err := o.Relationships.Accept(ctx, phone, counterpart)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Partner request accepted", zap.String("phone", phone), zap.String("relationship_id", rel.Id))
	o.notify(ctx, counterpart, notify.RelationshipAccepted, map[string]any{
		"relationship_id": rel.Id,
		"from":            phone,
	})
	return ok(intent.AcceptPartnerRequest, OutcomePartnerAccepted, rel), nil
}

func (o *Orchestrator) rejectPartnerRequest(ctx context.Context, phone string, in intent.Intent) (*Result, error) {
	counterpart, err := o.requester(ctx, phone, in.Params)
	if err != nil {
		return nil, err
	}
	rel, err := o.Relationships.Reject(ctx, phone, counterpart)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Partner request rejected", zap.String("phone", phone), zap.String("relationship_id", rel.Id))
	o.notify(ctx, counterpart, notify.RelationshipRejected, map[string]any{
		"relationship_id": rel.Id,
		"from":            phone,
	})
	return ok(intent.RejectPartnerRequest, OutcomePartnerRejected, rel), nil
}

func (o *Orchestrator) removePartner(ctx context.Context, phone string, _ intent.Intent) (*Result, error) {
	rel, err := o.Relationships.Deactivate(ctx, phone)
	if err != nil {
		return nil, err
	}
	zap.L().Info("Partner removed", zap.String("phone", phone), zap.String("relationship_id", rel.Id))
	return ok(intent.RemovePartner, OutcomePartnerRemoved, rel), nil
}

func (o *Orchestrator) queryBalance(ctx context.Context, phone string, in intent.Intent) (*Result, error) {
	period, err := parsePeriod(in.Params)
	if err != nil {
		return nil, err
	}
	report, err := o.Balances.Calculate(ctx, phone, "", period)
	if err != nil {
		return nil, err
	}
	return ok(intent.QueryBalance, OutcomeBalance, report), nil
}

func (o *Orchestrator) listSharedExpenses(ctx context.Context, phone string, in intent.Intent) (*Result, error) {
	period, err := parsePeriod(in.Params)
	if err != nil {
		return nil, err
	}
	shared, rel, err := o.Sharing.List(ctx, phone, period.Range(o.now(), o.Ledger.Location()))
	if err != nil {
		return nil, err
	}

	list := &SharedList{
		Period:       period,
		PartnerPhone: rel.Counterpart(phone),
		Expenses:     make([]SharedExpenseView, len(shared)),
	}
	for i := range shared {
		own, partner := sharing.LegsFor(&shared[i], phone)
		list.Expenses[i] = SharedExpenseView{
			SharedTransaction: &shared[i],
			OwnAmount:         own,
			PartnerAmount:     partner,
			PaidByUser:        shared[i].PayerPhone == phone,
		}
	}
	return ok(intent.ListSharedExpenses, OutcomeSharedList, list), nil
}

func (o *Orchestrator) updateDefaultSplit(ctx context.Context, phone string, in intent.Intent) (*Result, error) {
	own, other, err := splitParams(in.Params, false)
	if err != nil {
		return nil, err
	}
	rel, err := o.Relationships.UpdateDefaultSplit(ctx, phone, own, other)
	if err != nil {
		return nil, err
	}

	partner := rel.Counterpart(phone)
	zap.L().Info("Default split updated",
		zap.String("phone", phone),
		zap.String("own", own.String()),
		zap.String("partner", other.String()))
	o.notify(ctx, partner, notify.DefaultSplitUpdated, map[string]any{
		"relationship_id": rel.Id,
		"from":            phone,
		"split_user":      other.String(),
		"split_partner":   own.String(),
	})
	return ok(intent.UpdateDefaultSplit, OutcomeSplitUpdated, rel), nil
}
