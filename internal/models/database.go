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

package models

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// TransactionType distinguishes money going out from money coming in.
// Categories carry the same type.
type TransactionType string

const (
	TypeExpense TransactionType = "expense"
	TypeIncome  TransactionType = "income"
)

func (t TransactionType) Valid() bool {
	return t == TypeExpense || t == TypeIncome
}

// RelationshipStatus is the lifecycle state of a pairing between two users
type RelationshipStatus string

const (
	RelationshipPending  RelationshipStatus = "pending"
	RelationshipActive   RelationshipStatus = "active"
	RelationshipRejected RelationshipStatus = "rejected"
	RelationshipInactive RelationshipStatus = "inactive"
)

// User represents a user in the system, keyed by normalized phone number
type User struct {
	Phone     string    `db:"phone"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// Category groups transactions; predefined categories cannot be edited or deleted
type Category struct {
	Id         string          `db:"id"`
	Name       string          `db:"name"`
	Type       TransactionType `db:"type"`
	Color      string          `db:"color"`
	Icon       string          `db:"icon"`
	Predefined bool            `db:"is_predefined"`
	CreatedAt  time.Time       `db:"created_at"`
}

// Transaction is a single income or expense row owned by one phone
type Transaction struct {
	Id                  string          `db:"id"`
	Phone               string          `db:"phone"`
	CategoryId          string          `db:"category_id"`
	CategoryName        string          `db:"category_name"`
	Type                TransactionType `db:"type"`
	Amount              decimal.Decimal `db:"amount"`
	Description         string          `db:"description"`
	Date                civil.Date      `db:"transaction_date"`
	IsShared            bool            `db:"is_shared"`
	SharedTransactionId string          `db:"shared_transaction_id"`
	CreatedAt           time.Time       `db:"created_at"`
}

// Relationship pairs two users for shared expenses. Phone1 is the requester,
// Phone2 the recipient; splits are stored per slot and always sum to 100.
type Relationship struct {
	Id            string             `db:"id"`
	Phone1        string             `db:"phone_1"`
	Phone2        string             `db:"phone_2"`
	DefaultSplit1 decimal.Decimal    `db:"default_split_1"`
	DefaultSplit2 decimal.Decimal    `db:"default_split_2"`
	Status        RelationshipStatus `db:"status"`
	CreatedAt     time.Time          `db:"created_at"`
	UpdatedAt     time.Time          `db:"updated_at"`
}

// Slot returns 1 or 2 depending on which stored position phone occupies, 0 if neither.
func (r *Relationship) Slot(phone string) int {
	switch phone {
	case r.Phone1:
		return 1
	case r.Phone2:
		return 2
	}
	return 0
}

// Counterpart returns the other phone of the pair.
func (r *Relationship) Counterpart(phone string) string {
	if phone == r.Phone1 {
		return r.Phone2
	}
	return r.Phone1
}

// SplitFor returns phone's default split and its partner's, oriented to phone.
func (r *Relationship) SplitFor(phone string) (own, partner decimal.Decimal) {
	if r.Slot(phone) == 2 {
		return r.DefaultSplit2, r.DefaultSplit1
	}
	return r.DefaultSplit1, r.DefaultSplit2
}

// SharedTransaction links the two ledger legs of one shared expense.
// Transaction1/SplitPercentage1 belong to the relationship's Phone1.
type SharedTransaction struct {
	Id               string          `db:"id"`
	RelationshipId   string          `db:"relationship_id"`
	Transaction1Id   string          `db:"transaction_1_id"`
	Transaction2Id   string          `db:"transaction_2_id"`
	Phone1           string          `db:"phone_1"`
	Phone2           string          `db:"phone_2"`
	PayerPhone       string          `db:"payer_phone"`
	TotalAmount      decimal.Decimal `db:"total_amount"`
	SplitPercentage1 decimal.Decimal `db:"split_percentage_1"`
	SplitPercentage2 decimal.Decimal `db:"split_percentage_2"`
	Amount1          decimal.Decimal `db:"amount_1"`
	Amount2          decimal.Decimal `db:"amount_2"`
	Type             TransactionType `db:"type"`
	Description      string          `db:"description"`
	Date             civil.Date      `db:"expense_date"`
	CreatedAt        time.Time       `db:"created_at"`
}
