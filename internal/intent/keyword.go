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

package intent

import (
	"context"
	"strings"
)

// KeywordClassifier recognizes the short replies of a conversation (yes/no,
// greetings, simple queries) without a language model. It is the fallback
// classifier and the one used for quick-reply buttons.
type KeywordClassifier struct{}

var (
	yesWords      = []string{"si", "sí", "confirmar", "confirmo", "ok", "dale", "claro", "correcto", "yes"}
	noWords       = []string{"no", "cancelar", "cancela", "olvidalo", "olvídalo", "nel"}
	greetingWords = []string{"hola", "buenos dias", "buenos días", "buenas tardes", "buenas noches", "hey", "qué tal", "que tal"}
)

// buttons maps quick-reply button ids onto actions.
var buttons = map[string]Action{
	"confirm_yes":     ConfirmTransaction,
	"confirm_no":      CancelTransaction,
	"receipt_ok":      ConfirmReceipt,
	"receipt_cancel":  CancelTransaction,
	"delete_yes":      ConfirmTransaction,
	"delete_no":       CancelTransaction,
	"partner_accept":  AcceptPartnerRequest,
	"partner_reject":  RejectPartnerRequest,
	"balance":         QueryBalance,
	"summary":         QuerySummary,
	"list":            ListTransactions,
	"shared_expenses": ListSharedExpenses,
	"categories":      ListCategories,
}

// FromButton resolves a quick-reply button id.
func FromButton(buttonId string) (Intent, bool) {
	action, ok := buttons[strings.TrimSpace(buttonId)]
	if !ok {
		return Intent{}, false
	}
	return New(action, nil), true
}

func (KeywordClassifier) Classify(_ context.Context, text, _ string) (Intent, error) {
	t := strings.ToLower(strings.TrimSpace(strings.Trim(text, "!¡.¿?")))

	switch {
	case t == "":
		return New(Unknown, nil), nil
	case matchesAny(t, yesWords):
		return New(ConfirmTransaction, nil), nil
	case matchesAny(t, noWords):
		return New(CancelTransaction, nil), nil
	case matchesAny(t, greetingWords):
		return New(Greeting, nil), nil
	case strings.Contains(t, "balance") || strings.Contains(t, "cuánto me debe") || strings.Contains(t, "cuanto me debe"):
		return New(QueryBalance, nil), nil
	case strings.Contains(t, "resumen"):
		return New(QuerySummary, nil), nil
	case strings.Contains(t, "gastos compartidos"):
		return New(ListSharedExpenses, nil), nil
	case strings.Contains(t, "categorias") || strings.Contains(t, "categorías"):
		return New(ListCategories, nil), nil
	case strings.Contains(t, "movimientos") || strings.Contains(t, "transacciones"):
		return New(ListTransactions, nil), nil
	}
	return New(Unknown, Params{"text": text}), nil
}

func matchesAny(t string, words []string) bool {
	for _, w := range words {
		if t == w {
			return true
		}
	}
	return false
}
