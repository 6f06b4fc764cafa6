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
	"errors"
	"strings"

	"bubu-finance-go/internal/conversation"
	"bubu-finance-go/internal/intent"
	"bubu-finance-go/internal/models"
	"bubu-finance-go/internal/store"

	"go.uber.org/zap"
)

// ActionReceipt tags results of an inbound receipt image. It is not a
// classifier action.
const ActionReceipt intent.Action = "receipt"

var errNoExtractor = errors.New("orchestrator: no receipt extractor configured")

// HandleReceipt extracts a receipt image and either registers it or parks it
// in the pendingReceipt slot until the user completes or confirms it. The
// extractor runs before the phone lock is taken.
func (o *Orchestrator) HandleReceipt(ctx context.Context, rawPhone string, image []byte, mimeType string) (*Result, error) {
	if o.Extractor == nil {
		return o.finish(ActionReceipt, nil, errNoExtractor)
	}

	data, err := o.Extractor.Extract(ctx, image, mimeType)
	if err != nil {
		zap.L().Warn("Receipt extraction failed", zap.String("phone", rawPhone), zap.Error(err))
		return ok(ActionReceipt, OutcomeRephrase, nil), nil
	}

	pending := &conversation.PendingReceipt{
		Amount:       data.Amount,
		Merchant:     strings.TrimSpace(data.Merchant),
		CategoryName: strings.TrimSpace(data.Category),
		Description:  strings.TrimSpace(data.Description),
		Date:         data.Date,
		Confidence:   data.Confidence,
	}

	return o.run(ctx, rawPhone, "", ActionReceipt, func(ctx context.Context, phone string) (*Result, error) {
		switch {
		case o.Policy.NeedsAmount(data):
			return o.parkReceipt(ctx, phone, ActionReceipt, OutcomeReceiptNeedsAmount, pending)
		case o.Policy.NeedsConfirmation(data):
			return o.parkReceipt(ctx, phone, ActionReceipt, OutcomeReceiptNeedsConfirmation, pending)
		}
		return o.registerReceipt(ctx, phone, ActionReceipt, pending)
	})
}

func (o *Orchestrator) parkReceipt(ctx context.Context, phone string, action intent.Action, outcome Outcome, pending *conversation.PendingReceipt) (*Result, error) {
	if err := o.Context.Put(ctx, phone, conversation.SlotPendingReceipt, pending); err != nil {
		return nil, err
	}
	zap.L().Debug("Receipt parked",
		zap.String("phone", phone),
		zap.String("outcome", string(outcome)),
		zap.Int("confidence", pending.Confidence))
	return ok(action, outcome, pending), nil
}

// registerReceipt writes a complete receipt as an individual expense.
func (o *Orchestrator) registerReceipt(ctx context.Context, phone string, action intent.Action, r *conversation.PendingReceipt) (*Result, error) {
	if r.Amount == nil || !r.Amount.IsPositive() {
		return o.parkReceipt(ctx, phone, action, OutcomeReceiptNeedsAmount, r)
	}

	description := r.Description
	if description == "" {
		description = r.Merchant
	}
	category, err := o.resolveCategory(ctx, r.CategoryName, strings.TrimSpace(r.Merchant+" "+r.Description), models.TypeExpense)
	if err != nil {
		return nil, err
	}
	date := o.Ledger.Today()
	if r.Date != nil && r.Date.IsValid() {
		date = *r.Date
	}

	return o.commitIndividual(ctx, phone, action, &conversation.PendingTransaction{
		Type:         models.TypeExpense,
		Amount:       *r.Amount,
		CategoryId:   category.Id,
		CategoryName: category.Name,
		Description:  description,
		Date:         date,
	})
}

func (o *Orchestrator) confirmReceipt(ctx context.Context, phone string, _ intent.Intent) (*Result, error) {
	var pending conversation.PendingReceipt
	found, err := o.Context.Take(ctx, phone, conversation.SlotPendingReceipt, &pending)
	if err != nil {
		return nil, err
	}
	if !found {
		return ok(intent.ConfirmReceipt, OutcomeNothingPending, nil), nil
	}
	return o.registerReceipt(ctx, phone, intent.ConfirmReceipt, &pending)
}

// correctReceipt overrides the extracted fields with the user's values and
// registers the receipt once it has an amount.
func (o *Orchestrator) correctReceipt(ctx context.Context, phone string, in intent.Intent) (*Result, error) {
	var pending conversation.PendingReceipt
	found, err := o.Context.Take(ctx, phone, conversation.SlotPendingReceipt, &pending)
	if err != nil {
		return nil, err
	}
	if !found {
		return ok(intent.CorrectReceipt, OutcomeNothingPending, nil), nil
	}

	if err := applyReceiptCorrection(&pending, in.Params); err != nil {
		if perr := o.Context.Put(ctx, phone, conversation.SlotPendingReceipt, &pending); perr != nil {
			return nil, perr
		}
		return nil, err
	}
	return o.registerReceipt(ctx, phone, intent.CorrectReceipt, &pending)
}

func applyReceiptCorrection(r *conversation.PendingReceipt, p intent.Params) error {
	amount, err := p.Decimal("amount")
	if err != nil {
		return err
	}
	if amount != nil {
		r.Amount = amount
	}
	date, err := p.Date("date")
	if err != nil {
		return err
	}
	if date != nil {
		r.Date = date
	}
	if v := p.String("category"); v != "" {
		r.CategoryName = v
	}
	if v := p.String("merchant"); v != "" {
		r.Merchant = v
	}
	if p.Has("description") {
		r.Description = p.String("description")
	}
	return nil
}

// provideAmount completes a receipt that was parked without an amount.
func (o *Orchestrator) provideAmount(ctx context.Context, phone string, in intent.Intent) (*Result, error) {
	amount, err := in.Params.Decimal("amount")
	if err != nil {
		return nil, err
	}
	if amount == nil || !amount.IsPositive() {
		return nil, store.Validationf("a positive amount is required")
	}

	var pending conversation.PendingReceipt
	found, err := o.Context.Take(ctx, phone, conversation.SlotPendingReceipt, &pending)
	if err != nil {
		return nil, err
	}
	if !found {
		return ok(intent.ProvideAmount, OutcomeNothingPending, nil), nil
	}

	pending.Amount = amount
	return o.registerReceipt(ctx, phone, intent.ProvideAmount, &pending)
}
