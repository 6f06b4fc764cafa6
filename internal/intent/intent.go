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

// Package intent defines the closed set of actions the assistant understands
// and the parameter bag a classifier attaches to them.
package intent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"bubu-finance-go/internal/store"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

type Action string

const (
	ConfirmTransaction       Action = "confirm_transaction"
	CancelTransaction        Action = "cancel_transaction"
	CorrectLastTransaction   Action = "correct_last_transaction"
	RegisterTransaction      Action = "register_transaction"
	EditTransaction          Action = "edit_transaction"
	DeleteTransaction        Action = "delete_transaction"
	ListTransactions         Action = "list_transactions"
	QuerySummary             Action = "query_summary"
	RegisterPartner          Action = "register_partner"
	AcceptPartnerRequest     Action = "accept_partner_request"
	RejectPartnerRequest     Action = "reject_partner_request"
	RemovePartner            Action = "remove_partner"
	QueryBalance             Action = "query_balance"
	ListSharedExpenses       Action = "list_shared_expenses"
	UpdateDefaultSplit       Action = "update_default_split"
	ConfirmReceipt           Action = "confirm_receipt"
	CorrectReceipt           Action = "correct_receipt"
	ProvideAmount            Action = "provide_amount"
	ListCategories           Action = "list_categories"
	CreateCategory           Action = "create_category"
	UpdateCategory           Action = "update_category"
	DeleteCategory           Action = "delete_category"
	MoveCategoryTransactions Action = "move_category_transactions"
	Greeting                 Action = "greeting"
	Unknown                  Action = "unknown"
)

// All lists every action. A dispatcher must handle each of them.
func All() []Action {
	return []Action{
		ConfirmTransaction, CancelTransaction, CorrectLastTransaction,
		RegisterTransaction, EditTransaction, DeleteTransaction,
		ListTransactions, QuerySummary,
		RegisterPartner, AcceptPartnerRequest, RejectPartnerRequest, RemovePartner,
		QueryBalance, ListSharedExpenses, UpdateDefaultSplit,
		ConfirmReceipt, CorrectReceipt, ProvideAmount,
		ListCategories, CreateCategory, UpdateCategory, DeleteCategory, MoveCategoryTransactions,
		Greeting, Unknown,
	}
}

// Parse maps a classifier action name onto the closed set; anything else is
// Unknown.
func Parse(name string) Action {
	a := Action(strings.TrimSpace(strings.ToLower(name)))
	for _, known := range All() {
		if a == known {
			return a
		}
	}
	return Unknown
}

// Intent is one classified user message.
type Intent struct {
	Action Action `json:"action"`
	Params Params `json:"parameters,omitempty"`
}

func New(action Action, params Params) Intent {
	if params == nil {
		params = Params{}
	}
	return Intent{Action: action, Params: params}
}

// Classifier turns free text into an intent.
type Classifier interface {
	Classify(ctx context.Context, text, phone string) (Intent, error)
}

// Params is the loosely typed bag produced by a classifier. Accessors accept
// both JSON numbers and strings.
type Params map[string]any

func (p Params) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

func (p Params) String(key string) string {
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (p Params) Bool(key string) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}
	return false
}

// Int returns the integer under key, if any.
func (p Params) Int(key string) (int, bool, error) {
	switch v := p[key].(type) {
	case nil:
		return 0, false, nil
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case float64:
		if v != float64(int(v)) {
			return 0, false, store.Validationf("%s must be a whole number", key)
		}
		return int(v), true, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false, store.Validationf("%s must be a whole number, got %q", key, v)
		}
		return n, true, nil
	}
	return 0, false, store.Validationf("%s has unexpected type %T", key, p[key])
}

// Decimal returns the decimal under key, nil when absent.
func (p Params) Decimal(key string) (*decimal.Decimal, error) {
	var d decimal.Decimal
	var err error
	switch v := p[key].(type) {
	case nil:
		return nil, nil
	case float64:
		d = decimal.NewFromFloat(v)
	case int:
		d = decimal.NewFromInt(int64(v))
	case int64:
		d = decimal.NewFromInt(v)
	case decimal.Decimal:
		d = v
	case string:
		s := strings.NewReplacer("$", "", ",", "", " ", "").Replace(v)
		if s == "" {
			return nil, nil
		}
		d, err = decimal.NewFromString(s)
		if err != nil {
			return nil, store.Validationf("%s is not a number: %q", key, v)
		}
	default:
		return nil, store.Validationf("%s has unexpected type %T", key, v)
	}
	return &d, nil
}

// Date returns the YYYY-MM-DD date under key, nil when absent.
func (p Params) Date(key string) (*civil.Date, error) {
	s := p.String(key)
	if s == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return nil, store.Validationf("%s must be a YYYY-MM-DD date, got %q", key, s)
	}
	return &d, nil
}
