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

package store

import (
	"context"

	"bubu-finance-go/internal/models"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// CreateTransactionParams contains the fields of a new ledger row.
type CreateTransactionParams struct {
	Phone       string
	CategoryId  string
	Type        models.TransactionType
	Amount      decimal.Decimal
	Description string
	Date        civil.Date
}

// TransactionPatch holds optional field updates; nil means unchanged.
type TransactionPatch struct {
	Amount      *decimal.Decimal
	CategoryId  *string
	Description *string
	Date        *civil.Date
}

// Empty reports whether the patch changes nothing.
func (p TransactionPatch) Empty() bool {
	return p.Amount == nil && p.CategoryId == nil && p.Description == nil && p.Date == nil
}

// CategoryPatch holds optional category updates; nil means unchanged.
type CategoryPatch struct {
	Name  *string
	Color *string
	Icon  *string
}

// CreateSharedParams contains one shared expense already split into legs.
// Leg 1 belongs to Phone1 of the relationship.
type CreateSharedParams struct {
	RelationshipId   string
	Phone1           string
	Phone2           string
	PayerPhone       string
	TotalAmount      decimal.Decimal
	SplitPercentage1 decimal.Decimal
	SplitPercentage2 decimal.Decimal
	Amount1          decimal.Decimal
	Amount2          decimal.Decimal
	CategoryId       string
	Type             models.TransactionType
	Description      string
	Date             civil.Date
}

// UserStore persists users keyed by normalized phone.
type UserStore interface {
	GetOrCreateUser(ctx context.Context, phone, name string) (*models.User, error)
	GetUser(ctx context.Context, phone string) (*models.User, error)
	SetUserName(ctx context.Context, phone, name string) error
	ListUsers(ctx context.Context) ([]models.User, error)
}

// CategoryStore persists the category directory.
type CategoryStore interface {
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	FindCategoryByName(ctx context.Context, name string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, name string, typ models.TransactionType, color, icon string, predefined bool) (*models.Category, error)
	UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (*models.Category, error)
	// DeleteCategoryReassigning moves every transaction of id to fallbackId and
	// removes the category in one database transaction.
	DeleteCategoryReassigning(ctx context.Context, id, fallbackId string) (int64, error)
}

// TransactionStore persists ledger rows.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, params CreateTransactionParams) (*models.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, phone string, filter models.TransactionFilter) ([]models.Transaction, error)
	UpdateTransaction(ctx context.Context, id, phone string, patch TransactionPatch) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, id, phone string) error
	ReassignCategory(ctx context.Context, fromId, toId, phone string) (int64, error)
}

// RelationshipStore persists pairings between users.
type RelationshipStore interface {
	// FindRelationshipByPair returns the row for the unordered pair regardless of status.
	FindRelationshipByPair(ctx context.Context, phoneA, phoneB string) (*models.Relationship, error)
	GetActiveRelationship(ctx context.Context, phone string) (*models.Relationship, error)
	InsertRelationship(ctx context.Context, rel *models.Relationship) error
	// UpdateRelationship rewrites phones, splits and status of an existing row.
	UpdateRelationship(ctx context.Context, rel *models.Relationship) error
	// ActivateRelationship moves a pending row to active in one statement,
	// failing with ErrPartnerAlreadyActive when either phone already has an
	// active relationship.
	ActivateRelationship(ctx context.Context, rel *models.Relationship) error
	ListPendingRelationships(ctx context.Context, recipientPhone string) ([]models.Relationship, error)
}

// SharedStore persists shared expenses and their ledger legs.
type SharedStore interface {
	// CreateShared writes both legs and the link row atomically.
	CreateShared(ctx context.Context, params CreateSharedParams) (*models.SharedTransaction, error)
	GetShared(ctx context.Context, id string) (*models.SharedTransaction, error)
	// ListShared returns shared expenses between the two phones, in either slot order.
	ListShared(ctx context.Context, phoneA, phoneB string, dateRange models.DateRange) ([]models.SharedTransaction, error)
	// DeleteShared removes the link row and both legs atomically.
	DeleteShared(ctx context.Context, id string) error
}

// Store defines the contract that every persistence backend must satisfy.
type Store interface {
	UserStore
	CategoryStore
	TransactionStore
	RelationshipStore
	SharedStore

	Ping(ctx context.Context) error
	Close()
}
