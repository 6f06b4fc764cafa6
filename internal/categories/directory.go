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

package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bubu-finance-go/internal/models"
	"bubu-finance-go/internal/store"

	"go.uber.org/zap"
)

const (
	FallbackExpense = "Otros Gastos"
	FallbackIncome  = "Otros Ingresos"

	defaultColor = "#95A5A6"
	defaultIcon  = "📁"
)

// Predefined is the fixed category set. These rows are immutable.
var Predefined = []models.Category{
	{Name: "Comida", Type: models.TypeExpense, Color: "#FF6B6B", Icon: "🍔"},
	{Name: "Transporte", Type: models.TypeExpense, Color: "#4ECDC4", Icon: "🚗"},
	{Name: "Entretenimiento", Type: models.TypeExpense, Color: "#A29BFE", Icon: "🎬"},
	{Name: "Salud", Type: models.TypeExpense, Color: "#55EFC4", Icon: "💊"},
	{Name: "Educación", Type: models.TypeExpense, Color: "#74B9FF", Icon: "📚"},
	{Name: "Hogar", Type: models.TypeExpense, Color: "#FDCB6E", Icon: "🏠"},
	{Name: "Ropa", Type: models.TypeExpense, Color: "#E17055", Icon: "👕"},
	{Name: "Servicios", Type: models.TypeExpense, Color: "#00B894", Icon: "💡"},
	{Name: FallbackExpense, Type: models.TypeExpense, Color: "#B2BEC3", Icon: "📦"},
	{Name: "Salario", Type: models.TypeIncome, Color: "#00B894", Icon: "💰"},
	{Name: "Freelance", Type: models.TypeIncome, Color: "#0984E3", Icon: "💻"},
	{Name: "Inversiones", Type: models.TypeIncome, Color: "#6C5CE7", Icon: "📈"},
	{Name: FallbackIncome, Type: models.TypeIncome, Color: "#636E72", Icon: "💵"},
}

// IsPredefinedName reports whether name is one of the fixed categories,
// ignoring case and accents.
func IsPredefinedName(name string) bool {
	folded := Fold(name)
	for _, c := range Predefined {
		if Fold(c.Name) == folded {
			return true
		}
	}
	return false
}

// FallbackName is the category that absorbs transactions of typ when their
// own category is deleted or no better match exists.
func FallbackName(typ models.TransactionType) string {
	if typ == models.TypeIncome {
		return FallbackIncome
	}
	return FallbackExpense
}

// DeleteResult reports what a category deletion did.
type DeleteResult struct {
	Deleted     bool   `json:"deleted"`
	MovedCount  int64  `json:"moved_count"`
	MovedToName string `json:"moved_to_name"`
}

type Directory struct {
	store store.CategoryStore
	rules []KeywordRule
}

func NewDirectory(s store.CategoryStore, rules []KeywordRule) *Directory {
	return &Directory{store: s, rules: rules}
}

// EnsurePredefined inserts any missing predefined category.
func (d *Directory) EnsurePredefined(ctx context.Context) error {
	created := 0
	for _, p := range Predefined {
		_, err := d.store.FindCategoryByName(ctx, p.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("failed to look up predefined category %s: %w", p.Name, err)
		}
		if _, err := d.store.CreateCategory(ctx, p.Name, p.Type, p.Color, p.Icon, true); err != nil {
			return fmt.Errorf("failed to create predefined category %s: %w", p.Name, err)
		}
		created++
	}

	if created > 0 {
		zap.L().Info("Seeded predefined categories", zap.Int("created", created))
	}
	return nil
}

func (d *Directory) List(ctx context.Context) ([]models.Category, error) {
	return d.store.ListCategories(ctx)
}

func (d *Directory) Get(ctx context.Context, id string) (*models.Category, error) {
	return d.store.GetCategory(ctx, id)
}

// FindByName is a case-insensitive exact match that also ignores accents.
func (d *Directory) FindByName(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, store.Validationf("category name is required")
	}

	c, err := d.store.FindCategoryByName(ctx, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	// SQLite NOCASE folds ASCII only
	all, err := d.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	folded := Fold(name)
	for i := range all {
		if Fold(all[i].Name) == folded {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", store.ErrCategoryNotFound, name)
}

// Fallback returns the catch-all category for typ.
func (d *Directory) Fallback(ctx context.Context, typ models.TransactionType) (*models.Category, error) {
	return d.FindByName(ctx, FallbackName(typ))
}

// Suggest picks a category for description by keyword, falling back to the
// catch-all category of typ.
func (d *Directory) Suggest(ctx context.Context, description string, typ models.TransactionType) (*models.Category, error) {
	if !typ.Valid() {
		return nil, store.Validationf("invalid transaction type %q", typ)
	}

	if name := d.match(description, typ); name != "" {
		c, err := d.FindByName(ctx, name)
		if err == nil {
			zap.L().Debug("Category suggested by keyword",
				zap.String("description", description),
				zap.String("category", c.Name))
			return c, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		zap.L().Warn("Keyword rule points at a missing category", zap.String("category", name))
	}

	return d.Fallback(ctx, typ)
}

func (d *Directory) match(description string, typ models.TransactionType) string {
	text := Fold(description)
	if text == "" {
		return ""
	}
	for _, rule := range d.rules {
		if rule.Type != typ {
			continue
		}
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				return rule.Category
			}
		}
	}
	return ""
}

// Create adds a custom category. Empty color and icon get defaults.
func (d *Directory) Create(ctx context.Context, name string, typ models.TransactionType, color, icon string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, store.Validationf("category name is required")
	}
	if !typ.Valid() {
		return nil, store.Validationf("invalid category type %q", typ)
	}

	if existing, err := d.FindByName(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrCategoryExists, existing.Name)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if color == "" {
		color = defaultColor
	}
	if icon == "" {
		icon = defaultIcon
	}
	return d.store.CreateCategory(ctx, name, typ, color, icon, false)
}

// EnsureCategory returns the category called name, creating it as a custom
// category of typ when it does not exist.
func (d *Directory) EnsureCategory(ctx context.Context, name string, typ models.TransactionType) (*models.Category, bool, error) {
	c, err := d.FindByName(ctx, name)
	if err == nil {
		return c, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	c, err = d.Create(ctx, name, typ, "", "")
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// Update changes a custom category. Predefined categories are rejected.
func (d *Directory) Update(ctx context.Context, id string, patch store.CategoryPatch) (*models.Category, error) {
	c, err := d.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Predefined || IsPredefinedName(c.Name) {
		return nil, fmt.Errorf("%w: %s", store.ErrPredefinedCategory, c.Name)
	}

	if patch.Name != nil {
		newName := strings.TrimSpace(*patch.Name)
		if newName == "" {
			return nil, store.Validationf("category name is required")
		}
		if IsPredefinedName(newName) {
			return nil, fmt.Errorf("%w: %s", store.ErrCategoryExists, newName)
		}
		existing, err := d.FindByName(ctx, newName)
		if err == nil && existing.Id != id {
			return nil, fmt.Errorf("%w: %s", store.ErrCategoryExists, existing.Name)
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		patch.Name = &newName
	}

	return d.store.UpdateCategory(ctx, id, patch)
}

// Delete removes a custom category after moving its transactions to the
// fallback category of the same type.
func (d *Directory) Delete(ctx context.Context, id string) (*DeleteResult, error) {
	c, err := d.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Predefined || IsPredefinedName(c.Name) {
		return nil, fmt.Errorf("%w: %s", store.ErrPredefinedCategory, c.Name)
	}

	fallback, err := d.Fallback(ctx, c.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve fallback category: %w", err)
	}

	moved, err := d.store.DeleteCategoryReassigning(ctx, c.Id, fallback.Id)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Custom category deleted",
		zap.String("name", c.Name),
		zap.Int64("moved", moved),
		zap.String("moved_to", fallback.Name))

	return &DeleteResult{Deleted: true, MovedCount: moved, MovedToName: fallback.Name}, nil
}
