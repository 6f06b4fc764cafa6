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
	"path/filepath"
	"sync"
	"testing"
	"time"

	"bubu-finance-go/internal/categories"
	"bubu-finance-go/internal/config"
	"bubu-finance-go/internal/conversation"
	"bubu-finance-go/internal/database"
	"bubu-finance-go/internal/intent"
	"bubu-finance-go/internal/ledger"
	"bubu-finance-go/internal/models"
	"bubu-finance-go/internal/notify"
	"bubu-finance-go/internal/receipt"
	"bubu-finance-go/internal/relationships"
	"bubu-finance-go/internal/sharing"
	"bubu-finance-go/internal/store"
	"bubu-finance-go/internal/users"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	userA = "5551234567"
	userB = "5559876543"
)

type sentEvent struct {
	phone   string
	event   notify.Event
	payload map[string]any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, phone string, event notify.Event, payload map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{phone: phone, event: event, payload: payload})
	return n.err
}

func (n *recordingNotifier) sent(event notify.Event) []sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentEvent
	for _, e := range n.events {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

type stubExtractor struct {
	data *receipt.Data
	err  error
}

func (s stubExtractor) Extract(context.Context, []byte, string) (*receipt.Data, error) {
	return s.data, s.err
}

type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, string, string) (intent.Intent, error) {
	return intent.Intent{}, errors.New("model unavailable")
}

type fixture struct {
	o        *Orchestrator
	db       *database.Service
	ctx      conversation.Store
	notifier *recordingNotifier
}

func newFixture(t *testing.T, extractor receipt.Extractor) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewService(ctx, models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "orchestrator.db"),
		MaxOpenConns: 2,
		PingTimeout:  5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	rules, err := categories.LoadKeywordRules("")
	require.NoError(t, err)
	directory := categories.NewDirectory(db, rules)
	require.NoError(t, directory.EnsurePredefined(ctx))

	registry := relationships.NewRegistry(db)
	contextStore := conversation.NewMemoryStore(config.DefaultSlotTTLs())
	notifier := &recordingNotifier{}

	o, err := New(Deps{
		Users:         users.NewService(db),
		Ledger:        ledger.NewService(db, time.UTC),
		Categories:    directory,
		Relationships: registry,
		Sharing:       sharing.NewEngine(db, registry, time.UTC),
		Balances:      sharing.NewCalculator(db, registry, time.UTC),
		Context:       contextStore,
		Locker:        conversation.NewMemoryLocker(),
		Extractor:     extractor,
		Notifier:      notifier,
	})
	require.NoError(t, err)

	return &fixture{o: o, db: db, ctx: contextStore, notifier: notifier}
}

func (f *fixture) handle(t *testing.T, phone string, action intent.Action, params intent.Params) *Result {
	t.Helper()
	r, err := f.o.Handle(context.Background(), phone, intent.New(action, params))
	require.NoError(t, err)
	require.NotNil(t, r)
	return r
}

// pair makes userA and userB active partners with a 65/35 default split.
func (f *fixture) pair(t *testing.T) {
	t.Helper()
	r := f.handle(t, userA, intent.RegisterPartner, intent.Params{
		"partner_phone": userB, "split_user": 65, "split_partner": 35,
	})
	require.False(t, r.Failed(), r.Detail)
	r = f.handle(t, userB, intent.AcceptPartnerRequest, nil)
	require.False(t, r.Failed(), r.Detail)
}

func TestNew_EveryActionHasAHandler(t *testing.T) {
	f := newFixture(t, nil)
	for _, a := range intent.All() {
		_, found := f.o.handlers[a]
		assert.True(t, found, "no handler for %s", a)
	}
	assert.Empty(t, missingHandlers(f.o.handlers))

	partial := map[intent.Action]handlerFunc{intent.Greeting: f.o.greeting}
	assert.Contains(t, missingHandlers(partial), intent.RegisterTransaction)
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

func TestRegisterTransaction_SuggestsCategory(t *testing.T) {
	f := newFixture(t, nil)

	r := f.handle(t, userA, intent.RegisterTransaction, intent.Params{
		"amount": 350, "type": "expense", "description": "tacos",
	})
	require.Equal(t, OutcomeTransactionRegistered, r.Outcome, r.Detail)

	tx := r.Data.(*models.Transaction)
	assert.Equal(t, "Comida", tx.CategoryName)
	assert.Equal(t, "350.00", tx.Amount.StringFixed(2))
	assert.Equal(t, models.TypeExpense, tx.Type)
	assert.Equal(t, userA, tx.Phone)

	var last conversation.TransactionRef
	found, err := f.ctx.Get(context.Background(), userA, conversation.SlotLastTransaction, &last)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, tx.Id, last.Id)
}

func TestRegisterTransaction_NormalizesSender(t *testing.T) {
	f := newFixture(t, nil)

	r := f.handle(t, "+52 1 (555) 123-4567", intent.RegisterTransaction, intent.Params{"amount": "$1,200.50", "description": "uber"})
	require.Equal(t, OutcomeTransactionRegistered, r.Outcome, r.Detail)
	tx := r.Data.(*models.Transaction)
	assert.Equal(t, userA, tx.Phone)
	assert.Equal(t, "Transporte", tx.CategoryName)
	assert.Equal(t, "1200.50", tx.Amount.StringFixed(2))
}

func TestRegisterTransaction_ValidationIsAResult(t *testing.T) {
	f := newFixture(t, nil)

	for name, params := range map[string]intent.Params{
		"missing amount":  {"description": "tacos"},
		"negative amount": {"amount": -5},
		"bad type":        {"amount": 10, "type": "transfer"},
		"bad date":        {"amount": 10, "date": "15/03/2025"},
	} {
		r := f.handle(t, userA, intent.RegisterTransaction, params)
		assert.Equal(t, KindValidation, r.ErrorKind, name)
		assert.Equal(t, OutcomeError, r.Outcome, name)
		assert.NotEmpty(t, r.Detail, name)
	}
}

func TestRegisterTransaction_GatedAmountValidatedBeforeParking(t *testing.T) {
	f := newFixture(t, nil)

	for name, amount := range map[string]any{
		"negative":       -5,
		"zero":           0,
		"rounds to zero": "0.004",
	} {
		r := f.handle(t, userA, intent.RegisterTransaction, intent.Params{
			"amount": amount, "description": "cafe", "requires_confirmation": true,
		})
		assert.Equal(t, KindValidation, r.ErrorKind, name)

		var pending conversation.PendingTransaction
		found, err := f.ctx.Get(context.Background(), userA, conversation.SlotPendingTransaction, &pending)
		require.NoError(t, err)
		assert.False(t, found, "%s: nothing should be awaiting confirmation", name)
	}

	r := f.handle(t, userA, intent.ConfirmTransaction, nil)
	assert.Equal(t, OutcomeNothingPending, r.Outcome)
}

func TestInvalidSenderPhone(t *testing.T) {
	f := newFixture(t, nil)

	r, err := f.o.Handle(context.Background(), "123", intent.New(intent.Greeting, nil))
	require.NoError(t, err)
	assert.Equal(t, KindValidation, r.ErrorKind)
}

func TestPendingTransaction_ConfirmOnce(t *testing.T) {
	f := newFixture(t, nil)

	r := f.handle(t, userA, intent.RegisterTransaction, intent.Params{
		"amount": 500, "type": "income", "description": "ingreso nómina", "requires_confirmation": true,
	})
	require.Equal(t, OutcomeConfirmationRequired, r.Outcome, r.Detail)

	txs, err := f.db.ListTransactions(context.Background(), userA, models.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txs)

	r, err = f.o.HandleMessage(context.Background(), userA, "sí")
	require.NoError(t, err)
	require.Equal(t, OutcomeTransactionRegistered, r.Outcome, r.Detail)
	assert.Equal(t, intent.ConfirmTransaction, r.Action)
	tx := r.Data.(*models.Transaction)
	assert.Equal(t, "Salario", tx.CategoryName)
	assert.Equal(t, models.TypeIncome, tx.Type)

	r, err = f.o.HandleMessage(context.Background(), userA, "sí")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNothingPending, r.Outcome)
	assert.False(t, r.Failed())

	txs, err = f.db.ListTransactions(context.Background(), userA, models.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestPendingTransaction_ConcurrentConfirmCommitsOnce(t *testing.T) {
	f := newFixture(t, nil)
	f.handle(t, userA, intent.RegisterTransaction, intent.Params{"amount": 80, "description": "cafe", "requires_confirmation": true})

	var wg sync.WaitGroup
	outcomes := make([]Outcome, 8)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := f.o.Handle(context.Background(), userA, intent.New(intent.ConfirmTransaction, nil))
			if err == nil {
				outcomes[i] = r.Outcome
			}
		}(i)
	}
	wg.Wait()

	registered := 0
	for _, o := range outcomes {
		if o == OutcomeTransactionRegistered {
			registered++
		}
	}
	assert.Equal(t, 1, registered)

	txs, err := f.db.ListTransactions(context.Background(), userA, models.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestCancel_IsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	f.handle(t, userA, intent.RegisterTransaction, intent.Params{"amount": 120, "description": "pizza", "requires_confirmation": true})

	r := f.handle(t, userA, intent.CancelTransaction, nil)
	assert.Equal(t, OutcomeCancelled, r.Outcome)
	assert.Equal(t, []conversation.Slot{conversation.SlotPendingTransaction}, r.Data)

	for i := 0; i < 2; i++ {
		r = f.handle(t, userA, intent.CancelTransaction, nil)
		assert.Equal(t, OutcomeNothingPending, r.Outcome)
		assert.False(t, r.Failed())
	}

	r = f.handle(t, userA, intent.ConfirmTransaction, nil)
	assert.Equal(t, OutcomeNothingPending, r.Outcome)
}

func TestCorrectLastTransaction(t *testing.T) {
	f := newFixture(t, nil)

	r := f.handle(t, userA, intent.CorrectLastTransaction, intent.Params{"amount": 10})
	assert.Equal(t, KindNotFound, r.ErrorKind)

	f.handle(t, userA, intent.RegisterTransaction, intent.Params{"amount": 350, "description": "tacos"})
	r = f.handle(t, userA, intent.CorrectLastTransaction, intent.Params{"amount": 380, "category": "entretenimiento"})
	require.Equal(t, OutcomeTransactionUpdated, r.Outcome, r.Detail)

	tx := r.Data.(*models.Transaction)
	assert.Equal(t, "380.00", tx.Amount.StringFixed(2))
	assert.Equal(t, "Entretenimiento", tx.CategoryName)

	r = f.handle(t, userA, intent.CorrectLastTransaction, intent.Params{})
	assert.Equal(t, KindValidation, r.ErrorKind)
}

func TestEditByListIndex(t *testing.T) {
	f := newFixture(t, nil)
	f.handle(t, userA, intent.RegisterTransaction, intent.Params{"amount": 100, "description": "uber", "date": "2000-01-02"})
	f.handle(t, userA, intent.RegisterTransaction, intent.Params{"amount": 200, "description": "cine", "date": "2000-01-03"})

	r := f.handle(t, userA, intent.ListTransactions, intent.Params{"period": "all"})
	require.Equal(t, OutcomeTransactionList, r.Outcome, r.Detail)
	list := r.Data.(*TransactionList)
	require.Len(t, list.Transactions, 2)
	assert.Equal(t, "cine", list.Transactions[0].Description)

	r = f.handle(t, userA, intent.EditTransaction, intent.Params{"index": 2})
	require.Equal(t, OutcomeEditPrompt, r.Outcome, r.Detail)
	ref := r.Data.(*conversation.TransactionRef)
	assert.Equal(t, "uber", ref.Description)

	r = f.handle(t, userA, intent.EditTransaction, intent.Params{"description": "didi"})
	require.Equal(t, OutcomeTransactionUpdated, r.Outcome, r.Detail)
	tx := r.Data.(*models.Transaction)
	assert.Equal(t, ref.Id, tx.Id)
	assert.Equal(t, "didi", tx.Description)

	found, err := f.ctx.Get(context.Background(), userA, conversation.SlotEditingTransaction, nil)
	require.NoError(t, err)
	assert.False(t, found)

	r = f.handle(t, userA, intent.EditTransaction, intent.Params{"index": 7, "amount": 5})
	assert.Equal(t, KindNotFound, r.ErrorKind)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	f := newFixture(t, nil)
	r := f.handle(t, userA, intent.RegisterTransaction, intent.Params{"amount": 90, "description": "farmacia"})
	id := r.Data.(*models.Transaction).Id

	r = f.handle(t, userB, intent.DeleteTransaction, intent.Params{"transaction_id": id})
	assert.Equal(t, KindNotFound, r.ErrorKind)

	r = f.handle(t, userA, intent.DeleteTransaction, nil)
	require.Equal(t, OutcomeConfirmDeletion, r.Outcome, r.Detail)

	_, err := f.db.GetTransaction(context.Background(), id)
	require.NoError(t, err)

	r = f.handle(t, userA, intent.ConfirmTransaction, nil)
	require.Equal(t, OutcomeTransactionDeleted, r.Outcome, r.Detail)
	assert.False(t, r.Data.(*Deletion).SharedDeleted)

	_, err = f.db.GetTransaction(context.Background(), id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	found, err := f.ctx.Get(context.Background(), userA, conversation.SlotLastTransaction, nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSharedExpense_SplitsAndNotifies(t *testing.T) {
	f := newFixture(t, nil)
	f.pair(t)

	require.Len(t, f.notifier.sent(notify.RelationshipRequestReceived), 1)
	accepted := f.notifier.sent(notify.RelationshipAccepted)
	require.Len(t, accepted, 1)
	assert.Equal(t, userA, accepted[0].phone)

	r := f.handle(t, userA, intent.RegisterTransaction, intent.Params{"amount": 200, "description": "cena", "shared": true})
	require.Equal(t, OutcomeSharedRegistered, r.Outcome, r.Detail)

	reg := r.Data.(*SharedRegistration)
	assert.Equal(t, "130.00", reg.OwnAmount.StringFixed(2))
	assert.Equal(t, "70.00", reg.PartnerAmount.StringFixed(2))
	assert.Equal(t, "200.00", reg.Shared.TotalAmount.StringFixed(2))
	assert.True(t, reg.Shared.SplitPercentage1.Equal(decimal.NewFromInt(65)))
	assert.True(t, reg.Shared.SplitPercentage2.Equal(decimal.NewFromInt(35)))
	assert.Equal(t, userA, reg.Shared.PayerPhone)
	assert.False(t, reg.CustomSplit)

	created := f.notifier.sent(notify.SharedExpenseCreated)
	require.Len(t, created, 1)
	assert.Equal(t, userB, created[0].phone)
	assert.Equal(t, "70.00", created[0].payload["amount"])

	r = f.handle(t, userA, intent.QueryBalance, nil)
	require.Equal(t, OutcomeBalance, r.Outcome, r.Detail)
	report := r.Data.(*models.BalanceReport)
	assert.Equal(t, models.PartnerOwesUser, report.Direction)
	assert.Equal(t, "70.00", report.AmountOwed.StringFixed(2))

	r = f.handle(t, userB, intent.QueryBalance, intent.Params{"period": "current_month"})
	report = r.Data.(*models.BalanceReport)
	assert.Equal(t, models.UserOwesPartner, report.Direction)
	assert.Equal(t, "70.00", report.AmountOwed.StringFixed(2))

	r = f.handle(t, userB, intent.ListSharedExpenses, nil)
	require.Equal(t, OutcomeSharedList, r.Outcome, r.Detail)
	list := r.Data.(*SharedList)
	require.Len(t, list.Expenses, 1)
	assert.Equal(t, userA, list.PartnerPhone)
	assert.Equal(t, "70.00", list.Expenses[0].OwnAmount.StringFixed(2))
	assert.False(t, list.Expenses[0].PaidByUser)
}

func TestSharedExpense_PartnerPaidWithCustomSplit(t *testing.T) {
	f := newFixture(t, nil)
	f.pair(t)

	r := f.handle(t, userB, intent.RegisterTransaction, intent.Params{
		"amount": 100, "description": "super", "shared": true, "partner_paid": true, "split_user": 40,
	})
	require.Equal(t, OutcomeSharedRegistered, r.Outcome, r.Detail)
	reg := r.Data.(*SharedRegistration)
	assert.Equal(t, userA, reg.Shared.PayerPhone)
	assert.Equal(t, "40.00", reg.OwnAmount.StringFixed(2))
	assert.Equal(t, "60.00", reg.PartnerAmount.StringFixed(2))
	assert.True(t, reg.CustomSplit)
	assert.Equal(t, userB, reg.Transaction.Phone)
}

func TestSharedExpense_NoPartnerFallsBack(t *testing.T) {
	f := newFixture(t, nil)

	r := f.handle(t, userA, intent.RegisterTransaction, intent.Params{"amount": 200, "description": "cena", "shared": true})
	require.Equal(t, OutcomeTransactionRegistered, r.Outcome, r.Detail)
	assert.True(t, r.SuggestPartner)
	assert.False(t, r.Data.(*models.Transaction).IsShared)

	r = f.handle(t, userA, intent.QueryBalance, nil)
	assert.Equal(t, KindNoRelationship, r.ErrorKind)
	assert.True(t, r.SuggestPartner)
}

func TestDeleteSharedLeg_RemovesWholeExpense(t *testing.T) {
	f := newFixture(t, nil)
	f.pair(t)

	r := f.handle(t, userA, intent.RegisterTransaction, intent.Params{"amount": 300, "description": "renta", "shared": true})
	reg := r.Data.(*SharedRegistration)

	r = f.handle(t, userA, intent.CorrectLastTransaction, intent.Params{"amount": 999})
	assert.Equal(t, KindConflict, r.ErrorKind)

	f.handle(t, userB, intent.DeleteTransaction, intent.Params{"transaction_id": otherLeg(reg.Shared, reg.Transaction.Id)})
	r = f.handle(t, userB, intent.ConfirmTransaction, nil)
	require.Equal(t, OutcomeTransactionDeleted, r.Outcome, r.Detail)
	assert.True(t, r.Data.(*Deletion).SharedDeleted)

	_, err := f.db.GetShared(context.Background(), reg.Shared.Id)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.db.GetTransaction(context.Background(), reg.Transaction.Id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func otherLeg(st *models.SharedTransaction, id string) string {
	if st.Transaction1Id == id {
		return st.Transaction2Id
	}
	return st.Transaction1Id
}

func TestPartnerLifecycle(t *testing.T) {
	f := newFixture(t, nil)

	r := f.handle(t, userA, intent.RegisterPartner, intent.Params{"partner_phone": userA})
	assert.Equal(t, KindConflict, r.ErrorKind)

	r = f.handle(t, userA, intent.RegisterPartner, intent.Params{"partner_phone": "555 987 6543", "split_user": 60, "split_partner": 30})
	assert.Equal(t, KindValidation, r.ErrorKind)

	r = f.handle(t, userA, intent.RegisterPartner, intent.Params{"partner_phone": "555 987 6543"})
	require.Equal(t, OutcomePartnerRequested, r.Outcome, r.Detail)
	rel := r.Data.(*models.Relationship)
	assert.Equal(t, models.RelationshipPending, rel.Status)
	assert.True(t, rel.DefaultSplit1.Equal(decimal.NewFromInt(50)))

	r = f.handle(t, userA, intent.AcceptPartnerRequest, nil)
	assert.Equal(t, KindNotFound, r.ErrorKind)

	r = f.handle(t, userB, intent.RejectPartnerRequest, intent.Params{"partner_phone": userA})
	require.Equal(t, OutcomePartnerRejected, r.Outcome, r.Detail)
	require.Len(t, f.notifier.sent(notify.RelationshipRejected), 1)

	r = f.handle(t, userA, intent.RegisterPartner, intent.Params{"partner_phone": userB, "split_user": 70})
	require.Equal(t, OutcomePartnerRequested, r.Outcome, r.Detail)
	r = f.handle(t, userB, intent.AcceptPartnerRequest, nil)
	require.Equal(t, OutcomePartnerAccepted, r.Outcome, r.Detail)

	r = f.handle(t, userB, intent.UpdateDefaultSplit, intent.Params{"split_user": 45})
	require.Equal(t, OutcomeSplitUpdated, r.Outcome, r.Detail)
	rel = r.Data.(*models.Relationship)
	own, partner := rel.SplitFor(userB)
	assert.True(t, own.Equal(decimal.NewFromInt(45)))
	assert.True(t, partner.Equal(decimal.NewFromInt(55)))
	updated := f.notifier.sent(notify.DefaultSplitUpdated)
	require.Len(t, updated, 1)
	assert.Equal(t, userA, updated[0].phone)

	r = f.handle(t, userB, intent.UpdateDefaultSplit, nil)
	assert.Equal(t, KindValidation, r.ErrorKind)

	r = f.handle(t, userA, intent.RemovePartner, nil)
	require.Equal(t, OutcomePartnerRemoved, r.Outcome, r.Detail)
	r = f.handle(t, userB, intent.QueryBalance, nil)
	assert.Equal(t, KindNoRelationship, r.ErrorKind)
}

func TestNotifierFailureIsSwallowed(t *testing.T) {
	f := newFixture(t, nil)
	f.notifier.err = errors.New("transport down")

	r := f.handle(t, userA, intent.RegisterPartner, intent.Params{"partner_phone": userB})
	require.Equal(t, OutcomePartnerRequested, r.Outcome, r.Detail)

	rel, err := f.db.FindRelationshipByPair(context.Background(), userA, userB)
	require.NoError(t, err)
	assert.Equal(t, models.RelationshipPending, rel.Status)
}

func TestDeleteCustomCategory_ReassignsToFallback(t *testing.T) {
	f := newFixture(t, nil)

	r := f.handle(t, userA, intent.CreateCategory, intent.Params{"name": "Mascotas"})
	require.Equal(t, OutcomeCategoryCreated, r.Outcome, r.Detail)

	for _, d := range []string{"croquetas", "veterinario", "correa"} {
		r = f.handle(t, userA, intent.RegisterTransaction, intent.Params{"amount": 150, "description": d, "category": "mascotas"})
		require.Equal(t, "Mascotas", r.Data.(*models.Transaction).CategoryName)
	}

	r = f.handle(t, userA, intent.DeleteCategory, intent.Params{"category": "Mascotas"})
	require.Equal(t, OutcomeCategoryDeleted, r.Outcome, r.Detail)
	del := r.Data.(*CategoryDeletion)
	assert.EqualValues(t, 3, del.MovedCount)
	assert.Equal(t, categories.FallbackExpense, del.MovedToName)

	txs, err := f.db.ListTransactions(context.Background(), userA, models.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 3)
	for _, tx := range txs {
		assert.Equal(t, categories.FallbackExpense, tx.CategoryName)
	}

	r = f.handle(t, userA, intent.DeleteCategory, intent.Params{"category": "Comida"})
	assert.Equal(t, KindConflict, r.ErrorKind)
}

func TestCategoryIntents(t *testing.T) {
	f := newFixture(t, nil)

	r := f.handle(t, userA, intent.ListCategories, nil)
	require.Equal(t, OutcomeCategoryList, r.Outcome)
	assert.Len(t, r.Data, len(categories.Predefined))

	r = f.handle(t, userA, intent.UpdateCategory, intent.Params{"category": "Comida", "new_name": "Comidas"})
	assert.Equal(t, KindConflict, r.ErrorKind)

	f.handle(t, userA, intent.CreateCategory, intent.Params{"name": "Gym"})
	r = f.handle(t, userA, intent.UpdateCategory, intent.Params{"category": "gym", "new_name": "Gimnasio"})
	require.Equal(t, OutcomeCategoryUpdated, r.Outcome, r.Detail)
	assert.Equal(t, "Gimnasio", r.Data.(*models.Category).Name)

	r = f.handle(t, userA, intent.UpdateCategory, intent.Params{"category": "Gimnasio"})
	assert.Equal(t, KindValidation, r.ErrorKind)
}

func TestMoveCategoryTransactions_CreatesTarget(t *testing.T) {
	f := newFixture(t, nil)
	f.handle(t, userA, intent.RegisterTransaction, intent.Params{"amount": 60, "description": "netflix"})
	f.handle(t, userA, intent.RegisterTransaction, intent.Params{"amount": 99, "description": "spotify"})
	f.handle(t, userB, intent.RegisterTransaction, intent.Params{"amount": 60, "description": "netflix"})

	r := f.handle(t, userA, intent.MoveCategoryTransactions, intent.Params{
		"from_category": "Entretenimiento", "to_category": "Suscripciones",
	})
	require.Equal(t, OutcomeCategoryTransactionsMoved, r.Outcome, r.Detail)
	move := r.Data.(*CategoryMove)
	assert.True(t, move.Created)
	assert.EqualValues(t, 2, move.MovedCount)
	assert.Equal(t, models.TypeExpense, move.To.Type)

	txs, err := f.db.ListTransactions(context.Background(), userB, models.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Entretenimiento", txs[0].CategoryName)
}

func TestQuerySummary(t *testing.T) {
	f := newFixture(t, nil)
	f.handle(t, userA, intent.RegisterTransaction, intent.Params{"amount": 1000, "type": "income", "description": "quincena"})
	f.handle(t, userA, intent.RegisterTransaction, intent.Params{"amount": 250.5, "description": "tacos"})

	r := f.handle(t, userA, intent.QuerySummary, nil)
	require.Equal(t, OutcomeSummary, r.Outcome, r.Detail)
	s := r.Data.(*PeriodSummary)
	assert.Equal(t, models.PeriodCurrentMonth, s.Period)
	assert.Equal(t, "749.50", s.Balance.StringFixed(2))

	r = f.handle(t, userA, intent.QuerySummary, intent.Params{"period": "last_year"})
	assert.Equal(t, KindValidation, r.ErrorKind)
}

func TestHandleReceipt(t *testing.T) {
	amount := decimal.NewFromInt(430)
	date := civil.Date{Year: 2025, Month: 4, Day: 2}

	t.Run("confident receipt registers directly", func(t *testing.T) {
		f := newFixture(t, stubExtractor{data: &receipt.Data{Amount: &amount, Merchant: "Farmacia Guadalajara", Date: &date, Confidence: 92}})
		r, err := f.o.HandleReceipt(context.Background(), userA, []byte("img"), "image/jpeg")
		require.NoError(t, err)
		require.Equal(t, OutcomeTransactionRegistered, r.Outcome, r.Detail)
		tx := r.Data.(*models.Transaction)
		assert.Equal(t, "Salud", tx.CategoryName)
		assert.Equal(t, date, tx.Date)
		assert.Equal(t, "Farmacia Guadalajara", tx.Description)
	})

	t.Run("low confidence waits for confirmation", func(t *testing.T) {
		f := newFixture(t, stubExtractor{data: &receipt.Data{Amount: &amount, Merchant: "OXXO", Confidence: 40}})
		r, err := f.o.HandleReceipt(context.Background(), userA, []byte("img"), "image/png")
		require.NoError(t, err)
		require.Equal(t, OutcomeReceiptNeedsConfirmation, r.Outcome)

		r = f.handle(t, userA, intent.CorrectReceipt, intent.Params{"amount": 415})
		require.Equal(t, OutcomeTransactionRegistered, r.Outcome, r.Detail)
		tx := r.Data.(*models.Transaction)
		assert.Equal(t, "415.00", tx.Amount.StringFixed(2))
		assert.Equal(t, "Comida", tx.CategoryName)

		r = f.handle(t, userA, intent.ConfirmReceipt, nil)
		assert.Equal(t, OutcomeNothingPending, r.Outcome)
	})

	t.Run("missing amount asks for it", func(t *testing.T) {
		f := newFixture(t, stubExtractor{data: &receipt.Data{Merchant: "Cinepolis", Confidence: 85}})
		r, err := f.o.HandleReceipt(context.Background(), userA, []byte("img"), "image/png")
		require.NoError(t, err)
		require.Equal(t, OutcomeReceiptNeedsAmount, r.Outcome)

		r = f.handle(t, userA, intent.ConfirmTransaction, nil)
		assert.Equal(t, OutcomeReceiptNeedsAmount, r.Outcome)

		r = f.handle(t, userA, intent.ProvideAmount, intent.Params{"amount": "0"})
		assert.Equal(t, KindValidation, r.ErrorKind)

		r = f.handle(t, userA, intent.ProvideAmount, intent.Params{"amount": "180"})
		require.Equal(t, OutcomeTransactionRegistered, r.Outcome, r.Detail)
		assert.Equal(t, "Entretenimiento", r.Data.(*models.Transaction).CategoryName)
	})

	t.Run("extractor failure asks to retry", func(t *testing.T) {
		f := newFixture(t, stubExtractor{err: errors.New("ocr timeout")})
		r, err := f.o.HandleReceipt(context.Background(), userA, []byte("img"), "image/png")
		require.NoError(t, err)
		assert.Equal(t, OutcomeRephrase, r.Outcome)
	})

	t.Run("no extractor is an internal error", func(t *testing.T) {
		f := newFixture(t, nil)
		r, err := f.o.HandleReceipt(context.Background(), userA, []byte("img"), "image/png")
		require.Error(t, err)
		assert.Equal(t, KindInternal, r.ErrorKind)
		assert.Empty(t, r.Detail)
	})
}

func TestClassifierFailureAsksToRephrase(t *testing.T) {
	f := newFixture(t, nil)
	f.o.Classifier = failingClassifier{}

	r, err := f.o.HandleMessage(context.Background(), userA, "gasté 300 en tacos")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRephrase, r.Outcome)
	assert.False(t, r.Failed())
}

func TestHandleButton(t *testing.T) {
	f := newFixture(t, nil)

	r, err := f.o.HandleButton(context.Background(), userA, "categories")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCategoryList, r.Outcome)

	r, err = f.o.HandleButton(context.Background(), userA, "nope")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRephrase, r.Outcome)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(store.ErrSharedLegLocked))
	assert.Equal(t, KindNotFound, KindOf(store.ErrCategoryNotFound))
	assert.Equal(t, KindNoRelationship, KindOf(store.ErrNoRelationship))
	assert.Equal(t, KindValidation, KindOf(store.Validationf("x")))
	assert.Equal(t, KindInternal, KindOf(errors.New("disk full")))
}
