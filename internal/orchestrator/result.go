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
	"errors"

	"bubu-finance-go/internal/intent"
	"bubu-finance-go/internal/store"
)

// Outcome tells the response generator what happened and what to say.
type Outcome string

const (
	OutcomeTransactionRegistered     Outcome = "transaction_registered"
	OutcomeSharedRegistered          Outcome = "shared_expense_registered"
	OutcomeConfirmationRequired      Outcome = "confirmation_required"
	OutcomeNothingPending            Outcome = "nothing_pending"
	OutcomeCancelled                 Outcome = "cancelled"
	OutcomeTransactionUpdated        Outcome = "transaction_updated"
	OutcomeEditPrompt                Outcome = "edit_prompt"
	OutcomeConfirmDeletion           Outcome = "confirm_deletion"
	OutcomeTransactionDeleted        Outcome = "transaction_deleted"
	OutcomeTransactionList           Outcome = "transaction_list"
	OutcomeSummary                   Outcome = "summary"
	OutcomePartnerRequested          Outcome = "partner_requested"
	OutcomePartnerAccepted           Outcome = "partner_accepted"
	OutcomePartnerRejected           Outcome = "partner_rejected"
	OutcomePartnerRemoved            Outcome = "partner_removed"
	OutcomeBalance                   Outcome = "balance"
	OutcomeSharedList                Outcome = "shared_expense_list"
	OutcomeSplitUpdated              Outcome = "split_updated"
	OutcomeReceiptNeedsAmount        Outcome = "receipt_needs_amount"
	OutcomeReceiptNeedsConfirmation  Outcome = "receipt_needs_confirmation"
	OutcomeCategoryList              Outcome = "category_list"
	OutcomeCategoryCreated           Outcome = "category_created"
	OutcomeCategoryUpdated           Outcome = "category_updated"
	OutcomeCategoryDeleted           Outcome = "category_deleted"
	OutcomeCategoryTransactionsMoved Outcome = "category_transactions_moved"
	OutcomeGreeting                  Outcome = "greeting"
	OutcomeRephrase                  Outcome = "rephrase"
	OutcomeError                     Outcome = "error"
)

// ErrorKind classifies a failed request for the response generator.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindNotFound       ErrorKind = "not_found"
	KindConflict       ErrorKind = "conflict"
	KindNoRelationship ErrorKind = "no_relationship"
	KindInternal       ErrorKind = "internal"
)

// Result is the outcome of one handled message.
type Result struct {
	Action         intent.Action `json:"action,omitempty"`
	Outcome        Outcome       `json:"outcome"`
	Data           any           `json:"data,omitempty"`
	ErrorKind      ErrorKind     `json:"error_kind,omitempty"`
	Detail         string        `json:"detail,omitempty"`
	SuggestPartner bool          `json:"suggest_partner,omitempty"`
}

// Failed reports whether the result carries an error.
func (r *Result) Failed() bool {
	return r.ErrorKind != ""
}

// KindOf maps an error onto its kind.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, store.ErrValidation):
		return KindValidation
	case errors.Is(err, store.ErrNoRelationship):
		return KindNoRelationship
	case errors.Is(err, store.ErrNotFound):
		return KindNotFound
	case errors.Is(err, store.ErrConflict):
		return KindConflict
	}
	return KindInternal
}

func ok(action intent.Action, outcome Outcome, data any) *Result {
	return &Result{Action: action, Outcome: outcome, Data: data}
}

// failure builds the result for a domain error. Internal errors carry no
// detail.
func failure(action intent.Action, err error) *Result {
	kind := KindOf(err)
	r := &Result{Action: action, Outcome: OutcomeError, ErrorKind: kind}
	if kind != KindInternal {
		r.Detail = err.Error()
	}
	if kind == KindNoRelationship {
		r.SuggestPartner = true
	}
	return r
}
