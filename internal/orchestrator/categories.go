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
	"strings"

	"bubu-finance-go/internal/categories"
	"bubu-finance-go/internal/intent"
	"bubu-finance-go/internal/models"
	"bubu-finance-go/internal/store"

	"go.uber.org/zap"
)

// CategoryDeletion is the payload of a deleted custom category.
type CategoryDeletion struct {
	Category *models.Category `json:"category"`
	*categories.DeleteResult
}

// CategoryMove is the payload of moving a user's transactions between
// categories.
type CategoryMove struct {
	From       *models.Category `json:"from"`
	To         *models.Category `json:"to"`
	Created    bool             `json:"created"`
	MovedCount int64            `json:"moved_count"`
}

func (o *Orchestrator) listCategories(ctx context.Context, _ string, _ intent.Intent) (*Result, error) {
	all, err := o.Categories.List(ctx)
	if err != nil {
		return nil, err
	}
	return ok(intent.ListCategories, OutcomeCategoryList, all), nil
}

func (o *Orchestrator) createCategory(ctx context.Context, phone string, in intent.Intent) (*Result, error) {
	typ := models.TransactionType(strings.ToLower(in.Params.String("type")))
	if typ == "" {
		typ = models.TypeExpense
	}
	c, err := o.Categories.Create(ctx, in.Params.String("name"), typ, in.Params.String("color"), in.Params.String("icon"))
	if err != nil {
		return nil, err
	}
	zap.L().Info("Category created", zap.String("phone", phone), zap.String("name", c.Name), zap.String("type", string(c.Type)))
	return ok(intent.CreateCategory, OutcomeCategoryCreated, c), nil
}

func (o *Orchestrator) updateCategory(ctx context.Context, phone string, in intent.Intent) (*Result, error) {
	c, err := o.Categories.FindByName(ctx, in.Params.String("category"))
	if err != nil {
		return nil, err
	}

	var patch store.CategoryPatch
	if v := in.Params.String("new_name"); v != "" {
		patch.Name = &v
	}
	if v := in.Params.String("color"); v != "" {
		patch.Color = &v
	}
	if v := in.Params.String("icon"); v != "" {
		patch.Icon = &v
	}
	if patch.Name == nil && patch.Color == nil && patch.Icon == nil {
		return nil, store.Validationf("nothing to update")
	}

	updated, err := o.Categories.Update(ctx, c.Id, patch)
	if err != nil {
		return nil, err
	}
	zap.L().Info("Category updated", zap.String("phone", phone), zap.String("from", c.Name), zap.String("to", updated.Name))
	return ok(intent.UpdateCategory, OutcomeCategoryUpdated, updated), nil
}

func (o *Orchestrator) deleteCategory(ctx context.Context, _ string, in intent.Intent) (*Result, error) {
	c, err := o.Categories.FindByName(ctx, in.Params.String("category"))
	if err != nil {
		return nil, err
	}
	res, err := o.Categories.Delete(ctx, c.Id)
	if err != nil {
		return nil, err
	}
	return ok(intent.DeleteCategory, OutcomeCategoryDeleted, &CategoryDeletion{Category: c, DeleteResult: res}), nil
}

// moveCategoryTransactions moves the sender's transactions to another
// category, creating the target when it does not exist yet.
func (o *Orchestrator) moveCategoryTransactions(ctx context.Context, phone string, in intent.Intent) (*Result, error) {
	from, err := o.Categories.FindByName(ctx, in.Params.String("from_category"))
	if err != nil {
		return nil, err
	}
	toName := in.Params.String("to_category")
	if toName == "" {
		return nil, store.Validationf("to_category is required")
	}

	to, created, err := o.Categories.EnsureCategory(ctx, toName, from.Type)
	if err != nil {
		return nil, err
	}
	moved, err := o.Ledger.ReassignCategory(ctx, from.Id, to.Id, phone)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Category transactions moved",
		zap.String("phone", phone),
		zap.String("from", from.Name),
		zap.String("to", to.Name),
		zap.Bool("created", created),
		zap.Int64("moved", moved))
	return ok(intent.MoveCategoryTransactions, OutcomeCategoryTransactionsMoved, &CategoryMove{
		From:       from,
		To:         to,
		Created:    created,
		MovedCount: moved,
	}), nil
}
