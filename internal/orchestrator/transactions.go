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
	"fmt"
	"strings"

	"bubu-finance-go/internal/conversation"
	"bubu-finance-go/internal/intent"
	"bubu-finance-go/internal/ledger"
	"bubu-finance-go/internal/models"
	"bubu-finance-go/internal/notify"
	"bubu-finance-go/internal/sharing"
	"bubu-finance-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultListLimit = 10

// SharedRegistration is the payload of a newly created shared expense, seen
// from the sender.
type SharedRegistration struct {
	Shared        *models.SharedTransaction `json:"shared"`
	Transaction   *models.Transaction       `json:"transaction"`
	OwnAmount     decimal.Decimal           `json:"own_amount"`
	PartnerAmount decimal.Decimal           `json:"partner_amount"`
	PartnerPhone  string                    `json:"partner_phone"`
	CustomSplit   bool                      `json:"custom_split"`
}

// Deletion is the payload of a confirmed deletion.
type Deletion struct {
	Transaction   *models.Transaction `json:"transaction"`
	SharedDeleted bool                `json:"shared_deleted"`
}

// TransactionList is the payload of a listing; entries are numbered from 1
// in the order given.
type TransactionList struct {
	Period       models.Period        `json:"period"`
	Transactions []models.Transaction `json:"transactions"`
}

// PeriodSummary is the payload of a summary query.
type PeriodSummary struct {
	Period models.Period `json:"period"`
	*models.Summary
}

func (o *Orchestrator) registerTransaction(ctx context.Context, phone string, in intent.Intent) (*Result, error) {
	pending, err := o.pendingFromParams(ctx, in.Params)
	if err != nil {
		return nil, err
	}

	if in.Params.Bool("requires_confirmation") {
		if err := o.Context.Put(ctx, phone, conversation.SlotPendingTransaction, pending); err != nil {
			return nil, err
		}
		return ok(intent.RegisterTransaction, OutcomeConfirmationRequired, pending), nil
	}
	return o.commitPending(ctx, phone, intent.RegisterTransaction, pending)
}

// pendingFromParams turns classifier parameters into a proposed transaction
// with its category and date resolved.
func (o *Orchestrator) pendingFromParams(ctx context.Context, p intent.Params) (*conversation.PendingTransaction, error) {
	amount, err := p.Decimal("amount")
	if err != nil {
		return nil, err
	}
	if amount == nil {
		return nil, store.Validationf("amount is required")
	}
	if err := ledger.ValidateAmount(*amount); err != nil {
		return nil, err
	}

	typ := models.TransactionType(strings.ToLower(p.String("type")))
	if typ == "" {
		typ = models.TypeExpense
	}
	if !typ.Valid() {
		return nil, store.Validationf("invalid transaction type %q", typ)
	}

	description := p.String("description")
	category, err := o.resolveCategory(ctx, p.String("category"), description, typ)
	if err != nil {
		return nil, err
	}

	date := o.Ledger.Today()
	if d, err := p.Date("date"); err != nil {
		return nil, err
	} else if d != nil {
		date = *d
	}

	splitUser, err := p.Decimal("split_user")
	if err != nil {
		return nil, err
	}
	splitPartner, err := p.Decimal("split_partner")
	if err != nil {
		return nil, err
	}

	return &conversation.PendingTransaction{
		Type:         typ,
		Amount:       *amount,
		CategoryId:   category.Id,
		CategoryName: category.Name,
		Description:  description,
		Date:         date,
		Shared:       p.Bool("shared"),
		PartnerPaid:  p.Bool("partner_paid"),
		SplitUser:    splitUser,
		SplitPartner: splitPartner,
	}, nil
}

// resolveCategory uses the named category when it exists and otherwise
// suggests one from the name and description.
func (o *Orchestrator) resolveCategory(ctx context.Context, name, description string, typ models.TransactionType) (*models.Category, error) {
	if name != "" {
		c, err := o.Categories.FindByName(ctx, name)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		zap.L().Debug("Unknown category, suggesting instead", zap.String("category", name))
	}
	return o.Categories.Suggest(ctx, strings.TrimSpace(name+" "+description), typ)
}

// commitPending persists a proposed transaction. A shared proposal without an
// active partner is registered individually with a partner suggestion.
func (o *Orchestrator) commitPending(ctx context.Context, phone string, action intent.Action, p *conversation.PendingTransaction) (*Result, error) {
	if !p.Shared {
		return o.commitIndividual(ctx, phone, action, p)
	}

	r, err := o.commitShared(ctx, phone, action, p)
	if !errors.Is(err, store.ErrNoRelationship) {
		return r, err
	}

	zap.L().Info("No active partner, registering shared expense individually", zap.String("phone", phone))
	r, err = o.commitIndividual(ctx, phone, action, p)
	if err != nil {
		return nil, err
	}
	r.SuggestPartner = true
	return r, nil
}

func (o *Orchestrator) commitIndividual(ctx context.Context, phone string, action intent.Action, p *conversation.PendingTransaction) (*Result, error) {
	tx, err := o.Ledger.Create(ctx, store.CreateTransactionParams{
		Phone:       phone,
		CategoryId:  p.CategoryId,
		Type:        p.Type,
		Amount:      p.Amount,
		Description: p.Description,
		Date:        p.Date,
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Transaction registered",
		zap.String("phone", phone),
		zap.String("id", tx.Id),
		zap.String("amount", tx.Amount.StringFixed(2)),
		zap.String("category", tx.CategoryName))

	o.remember(ctx, phone, tx)
	return ok(action, OutcomeTransactionRegistered, tx), nil
}

func (o *Orchestrator) commitShared(ctx context.Context, phone string, action intent.Action, p *conversation.PendingTransaction) (*Result, error) {
	split, err := o.Sharing.ResolveSplit(ctx, phone, p.SplitUser, p.SplitPartner)
	if err != nil {
		return nil, err
	}
	partner := split.Relationship.Counterpart(phone)

	params := sharing.CreateParams{
		PayerPhone:     phone,
		PartnerPhone:   partner,
		TotalAmount:    p.Amount,
		CategoryId:     p.CategoryId,
		Type:           p.Type,
		Description:    p.Description,
		SplitPayer:     split.Own,
		SplitPartner:   split.Partner,
		Date:           p.Date,
		RelationshipId: split.Relationship.Id,
	}
	if p.PartnerPaid {
		params.PayerPhone, params.PartnerPhone = partner, phone
		params.SplitPayer, params.SplitPartner = split.Partner, split.Own
	}

	st, err := o.Sharing.CreateShared(ctx, params)
	if err != nil {
		return nil, err
	}

	legId := st.Transaction1Id
	if st.Phone2 == phone {
		legId = st.Transaction2Id
	}
	tx, err := o.Ledger.Get(ctx, legId)
	if err != nil {
		return nil, err
	}
	o.remember(ctx, phone, tx)

	own, partnerAmount := sharing.LegsFor(st, phone)
	o.notify(ctx, partner, notify.SharedExpenseCreated, map[string]any{
		"shared_transaction_id": st.Id,
		"from":                  phone,
		"payer_phone":           st.PayerPhone,
		"total_amount":          st.TotalAmount.StringFixed(2),
		"amount":                partnerAmount.StringFixed(2),
		"description":           st.Description,
	})

	return ok(action, OutcomeSharedRegistered, &SharedRegistration{
		Shared:        st,
		Transaction:   tx,
		OwnAmount:     own,
		PartnerAmount: partnerAmount,
		PartnerPhone:  partner,
		CustomSplit:   split.IsCustom,
	}), nil
}

// remember points lastTransaction at tx. The write is already persisted, so
// a context failure is only logged.
func (o *Orchestrator) remember(ctx context.Context, phone string, tx *models.Transaction) {
	if err := o.Context.Put(ctx, phone, conversation.SlotLastTransaction, conversation.RefOf(tx)); err != nil {
		zap.L().Warn("Failed to remember last transaction",
			zap.String("phone", phone),
			zap.String("id", tx.Id),
			zap.Error(err))
	}
}

// confirmTransaction answers "yes" to whatever is open: a deletion first,
// then a pending transaction, then a pending receipt.
func (o *Orchestrator) confirmTransaction(ctx context.Context, phone string, in intent.Intent) (*Result, error) {
	var target conversation.TransactionRef
	found, err := o.Context.Take(ctx, phone, conversation.SlotDeletionTransaction, &target)
	if err != nil {
		return nil, err
	}
	if found {
		return o.deleteOwned(ctx, phone, intent.ConfirmTransaction, target.Id)
	}

	var pending conversation.PendingTransaction
	found, err = o.Context.Take(ctx, phone, conversation.SlotPendingTransaction, &pending)
	if err != nil {
		return nil, err
	}
	if found {
		return o.commitPending(ctx, phone, intent.ConfirmTransaction, &pending)
	}

	found, err = o.Context.Get(ctx, phone, conversation.SlotPendingReceipt, nil)
	if err != nil {
		return nil, err
	}
	if found {
		return o.confirmReceipt(ctx, phone, in)
	}

	return ok(intent.ConfirmTransaction, OutcomeNothingPending, nil), nil
}

func (o *Orchestrator) deleteOwned(ctx context.Context, phone string, action intent.Action, id string) (*Result, error) {
	tx, sharedDeleted, err := o.Ledger.Delete(ctx, id, phone)
	if err != nil {
		return nil, err
	}

	var last conversation.TransactionRef
	if found, err := o.Context.Get(ctx, phone, conversation.SlotLastTransaction, &last); err == nil && found && last.Id == tx.Id {
		if err := o.Context.Clear(ctx, phone, conversation.SlotLastTransaction); err != nil {
			zap.L().Warn("Failed to clear last transaction", zap.String("phone", phone), zap.Error(err))
		}
	}

	zap.L().Info("Transaction deleted",
		zap.String("phone", phone),
		zap.String("id", tx.Id),
		zap.Bool("shared", sharedDeleted))
	return ok(action, OutcomeTransactionDeleted, &Deletion{Transaction: tx, SharedDeleted: sharedDeleted}), nil
}

// cancelTransaction drops every open interaction. Nothing open is not an
// error.
func (o *Orchestrator) cancelTransaction(ctx context.Context, phone string, _ intent.Intent) (*Result, error) {
	var cleared []conversation.Slot
	for _, slot := range []conversation.Slot{
		conversation.SlotPendingTransaction,
		conversation.SlotPendingReceipt,
		conversation.SlotDeletionTransaction,
		conversation.SlotEditingTransaction,
	} {
		found, err := o.Context.Take(ctx, phone, slot, nil)
		if err != nil {
			return nil, err
		}
		if found {
			cleared = append(cleared, slot)
		}
	}

	if len(cleared) == 0 {
		return ok(intent.CancelTransaction, OutcomeNothingPending, nil), nil
	}
	return ok(intent.CancelTransaction, OutcomeCancelled, cleared), nil
}

func (o *Orchestrator) correctLastTransaction(ctx context.Context, phone string, in intent.Intent) (*Result, error) {
	var last conversation.TransactionRef
	found, err := o.Context.Get(ctx, phone, conversation.SlotLastTransaction, &last)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: no recent transaction to correct", store.ErrTransactionNotFound)
	}

	patch, err := o.patchFromParams(ctx, in.Params)
	if err != nil {
		return nil, err
	}
	tx, err := o.Ledger.Update(ctx, last.Id, phone, patch)
	if err != nil {
		return nil, err
	}

	o.remember(ctx, phone, tx)
	return ok(intent.CorrectLastTransaction, OutcomeTransactionUpdated, tx), nil
}

func (o *Orchestrator) patchFromParams(ctx context.Context, p intent.Params) (store.TransactionPatch, error) {
	var patch store.TransactionPatch

	amount, err := p.Decimal("amount")
	if err != nil {
		return patch, err
	}
	patch.Amount = amount

	if name := p.String("category"); name != "" {
		c, err := o.Categories.FindByName(ctx, name)
		if err != nil {
			return patch, err
		}
		patch.CategoryId = &c.Id
	}
	if p.Has("description") {
		description := p.String("description")
		patch.Description = &description
	}

	date, err := p.Date("date")
	if err != nil {
		return patch, err
	}
	patch.Date = date
	return patch, nil
}

// targetTransaction resolves which transaction a message refers to: an
// explicit id, a number from the last list, or the first present fallback
// slot.
func (o *Orchestrator) targetTransaction(ctx context.Context, phone string, p intent.Params, fallbacks ...conversation.Slot) (*conversation.TransactionRef, error) {
	if id := p.String("transaction_id"); id != "" {
		tx, err := o.Ledger.GetOwned(ctx, id, phone)
		if err != nil {
			return nil, err
		}
		ref := conversation.RefOf(tx)
		return &ref, nil
	}

	n, hasIndex, err := p.Int("index")
	if err != nil {
		return nil, err
	}
	if hasIndex {
		ref, found, err := conversation.ResolveListIndex(ctx, o.Context, phone, n)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%w: no transaction number %d in the last list", store.ErrTransactionNotFound, n)
		}
		return ref, nil
	}

	for _, slot := range fallbacks {
		var ref conversation.TransactionRef
		found, err := o.Context.Get(ctx, phone, slot, &ref)
		if err != nil {
			return nil, err
		}
		if found {
			return &ref, nil
		}
	}
	return nil, fmt.Errorf("%w: no transaction selected", store.ErrTransactionNotFound)
}

// editTransaction applies a patch to the referenced transaction, or remembers
// the reference and asks for the change when no patch is given.
func (o *Orchestrator) editTransaction(ctx context.Context, phone string, in intent.Intent) (*Result, error) {
	ref, err := o.targetTransaction(ctx, phone, in.Params, conversation.SlotEditingTransaction, conversation.SlotLastTransaction)
	if err != nil {
		return nil, err
	}
	patch, err := o.patchFromParams(ctx, in.Params)
	if err != nil {
		return nil, err
	}

	if patch.Empty() {
		if err := o.Context.Put(ctx, phone, conversation.SlotEditingTransaction, ref); err != nil {
			return nil, err
		}
		return ok(intent.EditTransaction, OutcomeEditPrompt, ref), nil
	}

	tx, err := o.Ledger.Update(ctx, ref.Id, phone, patch)
	if err != nil {
		return nil, err
	}
	if err := o.Context.Clear(ctx, phone, conversation.SlotEditingTransaction); err != nil {
		return nil, err
	}

	o.remember(ctx, phone, tx)
	return ok(intent.EditTransaction, OutcomeTransactionUpdated, tx), nil
}

// deleteTransaction only arms the deletion; the next confirmation executes it.
func (o *Orchestrator) deleteTransaction(ctx context.Context, phone string, in intent.Intent) (*Result, error) {
	ref, err := o.targetTransaction(ctx, phone, in.Params, conversation.SlotLastTransaction)
	if err != nil {
		return nil, err
	}
	tx, err := o.Ledger.GetOwned(ctx, ref.Id, phone)
	if err != nil {
		return nil, err
	}

	current := conversation.RefOf(tx)
	if err := o.Context.Put(ctx, phone, conversation.SlotDeletionTransaction, current); err != nil {
		return nil, err
	}
	return ok(intent.DeleteTransaction, OutcomeConfirmDeletion, current), nil
}

func (o *Orchestrator) listTransactions(ctx context.Context, phone string, in intent.Intent) (*Result, error) {
	period, err := parsePeriod(in.Params)
	if err != nil {
		return nil, err
	}

	filter := models.TransactionFilter{
		Range: period.Range(o.now(), o.Ledger.Location()),
		Type:  models.TransactionType(strings.ToLower(in.Params.String("type"))),
		Limit: defaultListLimit,
	}
	if limit, has, err := in.Params.Int("limit"); err != nil {
		return nil, err
	} else if has && limit > 0 {
		filter.Limit = limit
	}
	if name := in.Params.String("category"); name != "" {
		c, err := o.Categories.FindByName(ctx, name)
		if err != nil {
			return nil, err
		}
		filter.CategoryId = c.Id
	}

	txs, err := o.Ledger.List(ctx, phone, filter)
	if err != nil {
		return nil, err
	}

	refs := make([]conversation.TransactionRef, len(txs))
	for i := range txs {
		refs[i] = conversation.RefOf(&txs[i])
	}
	if err := o.Context.Put(ctx, phone, conversation.SlotTransactionList, refs); err != nil {
		return nil, err
	}
	return ok(intent.ListTransactions, OutcomeTransactionList, &TransactionList{Period: period, Transactions: txs}), nil
}

func (o *Orchestrator) querySummary(ctx context.Context, phone string, in intent.Intent) (*Result, error) {
	period, err := parsePeriod(in.Params)
	if err != nil {
		return nil, err
	}
	summary, err := o.Ledger.Summarize(ctx, phone, period.Range(o.now(), o.Ledger.Location()))
	if err != nil {
		return nil, err
	}
	return ok(intent.QuerySummary, OutcomeSummary, &PeriodSummary{Period: period, Summary: summary}), nil
}

func parsePeriod(p intent.Params) (models.Period, error) {
	period, err := models.ParsePeriod(p.String("period"))
	if err != nil {
		return "", store.Validationf("%v", err)
	}
	return period, nil
}
