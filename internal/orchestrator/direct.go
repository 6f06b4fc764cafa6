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

	"bubu-finance-go/internal/intent"
	"bubu-finance-go/internal/store"
)

// DeleteTransaction deletes transaction id of rawPhone right away, without
// the conversational confirmation step.
func (o *Orchestrator) DeleteTransaction(ctx context.Context, rawPhone, id string) (*Result, error) {
	return o.run(ctx, rawPhone, "", intent.DeleteTransaction, func(ctx context.Context, phone string) (*Result, error) {
		return o.deleteOwned(ctx, phone, intent.DeleteTransaction, id)
	})
}

// UpdateTransaction applies amount, category, description and date
// parameters to transaction id of rawPhone.
func (o *Orchestrator) UpdateTransaction(ctx context.Context, rawPhone, id string, params intent.Params) (*Result, error) {
	return o.run(ctx, rawPhone, "", intent.EditTransaction, func(ctx context.Context, phone string) (*Result, error) {
		patch, err := o.patchFromParams(ctx, params)
		if err != nil {
			return nil, err
		}
		if patch.Empty() {
			return nil, store.Validationf("nothing to update")
		}

		tx, err := o.Ledger.Update(ctx, id, phone, patch)
		if err != nil {
			return nil, err
		}
		o.remember(ctx, phone, tx)
		return ok(intent.EditTransaction, OutcomeTransactionUpdated, tx), nil
	})
}
