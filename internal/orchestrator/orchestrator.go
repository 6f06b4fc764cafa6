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

// Package orchestrator routes a classified message to the ledger, category,
// relationship and sharing services while keeping per-phone conversation
// state consistent.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"bubu-finance-go/internal/categories"
	"bubu-finance-go/internal/conversation"
	"bubu-finance-go/internal/intent"
	"bubu-finance-go/internal/ledger"
	"bubu-finance-go/internal/models"
	"bubu-finance-go/internal/notify"
	"bubu-finance-go/internal/receipt"
	"bubu-finance-go/internal/relationships"
	"bubu-finance-go/internal/sharing"
	"bubu-finance-go/internal/users"

	"go.uber.org/zap"
)

type handlerFunc func(ctx context.Context, phone string, in intent.Intent) (*Result, error)

// Deps are the collaborators of an Orchestrator. Extractor and Classifier may
// be nil; a nil Notifier logs instead.
type Deps struct {
	Users         *users.Service
	Ledger        *ledger.Service
	Categories    *categories.Directory
	Relationships *relationships.Registry
	Sharing       *sharing.Engine
	Balances      *sharing.Calculator
	Context       conversation.Store
	Locker        conversation.Locker
	Classifier    intent.Classifier
	Extractor     receipt.Extractor
	Notifier      notify.Notifier
	Policy        receipt.Policy
}

type Orchestrator struct {
	Deps
	handlers map[intent.Action]handlerFunc
	now      func() time.Time
}

func New(deps Deps) (*Orchestrator, error) {
	if deps.Users == nil || deps.Ledger == nil || deps.Categories == nil || deps.Relationships == nil ||
		deps.Sharing == nil || deps.Balances == nil || deps.Context == nil || deps.Locker == nil {
		return nil, fmt.Errorf("orchestrator: missing required dependency")
	}
	if deps.Classifier == nil {
		deps.Classifier = intent.KeywordClassifier{}
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.LogNotifier{}
	}
	if deps.Policy.MinConfidence <= 0 {
		deps.Policy = receipt.NewPolicy(0)
	}

	o := &Orchestrator{Deps: deps, now: time.Now}
	o.handlers = map[intent.Action]handlerFunc{
		intent.ConfirmTransaction:       o.confirmTransaction,
		intent.CancelTransaction:        o.cancelTransaction,
		intent.CorrectLastTransaction:   o.correctLastTransaction,
		intent.RegisterTransaction:      o.registerTransaction,
		intent.EditTransaction:          o.editTransaction,
		intent.DeleteTransaction:        o.deleteTransaction,
		intent.ListTransactions:         o.listTransactions,
		intent.QuerySummary:             o.querySummary,
		intent.RegisterPartner:          o.registerPartner,
		intent.AcceptPartnerRequest:     o.acceptPartnerRequest,
		intent.RejectPartnerRequest:     o.rejectPartnerRequest,
		intent.RemovePartner:            o.removePartner,
		intent.QueryBalance:             o.queryBalance,
		intent.ListSharedExpenses:       o.listSharedExpenses,
		intent.UpdateDefaultSplit:       o.updateDefaultSplit,
		intent.ConfirmReceipt:           o.confirmReceipt,
		intent.CorrectReceipt:           o.correctReceipt,
		intent.ProvideAmount:            o.provideAmount,
		intent.ListCategories:           o.listCategories,
		intent.CreateCategory:           o.createCategory,
		intent.UpdateCategory:           o.updateCategory,
		intent.DeleteCategory:           o.deleteCategory,
		intent.MoveCategoryTransactions: o.moveCategoryTransactions,
		intent.Greeting:                 o.greeting,
		intent.Unknown:                  o.unknown,
	}

	if missing := missingHandlers(o.handlers); len(missing) > 0 {
		return nil, fmt.Errorf("orchestrator: no handler for actions %v", missing)
	}
	return o, nil
}

func missingHandlers(handlers map[intent.Action]handlerFunc) []intent.Action {
	var missing []intent.Action
	for _, a := range intent.All() {
		if _, ok := handlers[a]; !ok {
			missing = append(missing, a)
		}
	}
	return missing
}

// Handle runs one classified intent for rawPhone. Domain errors come back as
// a failed Result; the error return is reserved for internal failures.
func (o *Orchestrator) Handle(ctx context.Context, rawPhone string, in intent.Intent) (*Result, error) {
	if in.Params == nil {
		in.Params = intent.Params{}
	}
	handler, found := o.handlers[in.Action]
	if !found {
		handler = o.unknown
	}
	return o.run(ctx, rawPhone, in.Params.String("user_name"), in.Action, func(ctx context.Context, phone string) (*Result, error) {
		return handler(ctx, phone, in)
	})
}

// run registers the sender and executes fn while holding the sender's lock.
func (o *Orchestrator) run(ctx context.Context, rawPhone, name string, action intent.Action, fn func(ctx context.Context, phone string) (*Result, error)) (*Result, error) {
	phone, err := o.enter(ctx, rawPhone, name)
	if err != nil {
		return o.finish(action, nil, err)
	}

	fields := []zap.Field{zap.String("phone", phone), zap.String("action", string(action))}
	if mc := models.GetMessageContext(ctx); mc != nil {
		fields = append(fields, zap.String("message_id", mc.MessageId), zap.String("channel", mc.Channel))
	}
	zap.L().Debug("Handling intent", fields...)

	var result *Result
	err = o.Locker.WithLock(ctx, phone, func(ctx context.Context) error {
		var herr error
		result, herr = fn(ctx, phone)
		return herr
	})
	return o.finish(action, result, err)
}

// HandleMessage classifies text and handles the resulting intent. A
// classifier failure asks the user to rephrase.
func (o *Orchestrator) HandleMessage(ctx context.Context, rawPhone, text string) (*Result, error) {
	in, err := o.Classifier.Classify(ctx, text, rawPhone)
	if err != nil {
		zap.L().Warn("Intent classification failed", zap.String("phone", rawPhone), zap.Error(err))
		return ok(intent.Unknown, OutcomeRephrase, nil), nil
	}
	return o.Handle(ctx, rawPhone, in)
}

// HandleButton handles a quick-reply button press.
func (o *Orchestrator) HandleButton(ctx context.Context, rawPhone, buttonId string) (*Result, error) {
	in, found := intent.FromButton(buttonId)
	if !found {
		return ok(intent.Unknown, OutcomeRephrase, nil), nil
	}
	return o.Handle(ctx, rawPhone, in)
}

// enter normalizes the sender and makes sure they exist.
func (o *Orchestrator) enter(ctx context.Context, rawPhone, name string) (string, error) {
	user, err := o.Users.GetOrCreate(ctx, rawPhone, name)
	if err != nil {
		return "", err
	}
	return user.Phone, nil
}

func (o *Orchestrator) finish(action intent.Action, result *Result, err error) (*Result, error) {
	if err == nil {
		if result.Action == "" {
			result.Action = action
		}
		return result, nil
	}

	r := failure(action, err)
	if r.ErrorKind == KindInternal {
		zap.L().Error("Failed to handle intent", zap.String("action", string(action)), zap.Error(err))
		return r, err
	}
	zap.L().Debug("Intent rejected",
		zap.String("action", string(action)),
		zap.String("kind", string(r.ErrorKind)),
		zap.Error(err))
	return r, nil
}

// notify delivers an event without letting a failure reach the caller.
func (o *Orchestrator) notify(ctx context.Context, phone string, event notify.Event, payload map[string]any) {
	if err := o.Notifier.Notify(ctx, phone, event, payload); err != nil {
		zap.L().Warn("Notification failed",
			zap.String("phone", phone),
			zap.String("event", string(event)),
			zap.Error(err))
	}
}

func (o *Orchestrator) greeting(_ context.Context, _ string, _ intent.Intent) (*Result, error) {
	return ok(intent.Greeting, OutcomeGreeting, nil), nil
}

func (o *Orchestrator) unknown(_ context.Context, _ string, _ intent.Intent) (*Result, error) {
	return ok(intent.Unknown, OutcomeRephrase, nil), nil
}
