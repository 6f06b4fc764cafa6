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

// Package conversation keeps the short-lived per-phone state of a chat:
// independently expiring named slots behind a swappable Store.
package conversation

import (
	"context"
	"time"

	"bubu-finance-go/internal/models"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

type Slot string

const (
	SlotPendingTransaction  Slot = "pendingTransaction"
	SlotPendingReceipt      Slot = "pendingReceipt"
	SlotLastTransaction     Slot = "lastTransaction"
	SlotTransactionList     Slot = "transactionList"
	SlotEditingTransaction  Slot = "editingTransaction"
	SlotDeletionTransaction Slot = "deletionTransaction"
)

// AllSlots lists every slot a phone may hold.
func AllSlots() []Slot {
	return []Slot{
		SlotPendingTransaction,
		SlotPendingReceipt,
		SlotLastTransaction,
		SlotTransactionList,
		SlotEditingTransaction,
		SlotDeletionTransaction,
	}
}

// TTL returns the configured expiry of slot.
func TTL(ttls models.SlotTTLs, slot Slot) time.Duration {
	switch slot {
	case SlotPendingTransaction:
		return ttls.PendingTransaction
	case SlotPendingReceipt:
		return ttls.PendingReceipt
	case SlotLastTransaction:
		return ttls.LastTransaction
	case SlotTransactionList:
		return ttls.TransactionList
	case SlotEditingTransaction:
		return ttls.EditingTransaction
	case SlotDeletionTransaction:
		return ttls.DeletionTransaction
	}
	return 0
}

// PendingTransaction is a proposed transaction awaiting yes/no. Date is
// always resolved before the slot is written.
type PendingTransaction struct {
	Type         models.TransactionType `json:"type"`
	Amount       decimal.Decimal        `json:"amount"`
	CategoryId   string                 `json:"category_id"`
	CategoryName string                 `json:"category_name"`
	Description  string                 `json:"description"`
	Date         civil.Date             `json:"date"`
	Shared       bool                   `json:"shared,omitempty"`
	PartnerPaid  bool                   `json:"partner_paid,omitempty"`
	SplitUser    *decimal.Decimal       `json:"split_user,omitempty"`
	SplitPartner *decimal.Decimal       `json:"split_partner,omitempty"`
}

// PendingReceipt is extracted receipt data awaiting confirmation,
// correction or a missing amount.
type PendingReceipt struct {
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Merchant     string           `json:"merchant,omitempty"`
	CategoryName string           `json:"category_name,omitempty"`
	Description  string           `json:"description,omitempty"`
	Date         *civil.Date      `json:"date,omitempty"`
	Confidence   int              `json:"confidence"`
}

// TransactionRef points at a persisted transaction. It backs the
// lastTransaction, editingTransaction and deletionTransaction slots and the
// entries of transactionList.
type TransactionRef struct {
	Id                  string                 `json:"id"`
	Type                models.TransactionType `json:"type"`
	Amount              decimal.Decimal        `json:"amount"`
	CategoryName        string                 `json:"category_name"`
	Description         string                 `json:"description"`
	Date                civil.Date             `json:"date"`
	SharedTransactionId string                 `json:"shared_transaction_id,omitempty"`
}

// RefOf builds the context pointer for t.
func RefOf(t *models.Transaction) TransactionRef {
	return TransactionRef{
		Id:                  t.Id,
		Type:                t.Type,
		Amount:              t.Amount,
		CategoryName:        t.CategoryName,
		Description:         t.Description,
		Date:                t.Date,
		SharedTransactionId: t.SharedTransactionId,
	}
}

// ResolveListIndex returns the entry shown as number displayNumber (1-based)
// in the last list sent to phone.
func ResolveListIndex(ctx context.Context, s Store, phone string, displayNumber int) (*TransactionRef, bool, error) {
	var list []TransactionRef
	ok, err := s.Get(ctx, phone, SlotTransactionList, &list)
	if err != nil || !ok {
		return nil, false, err
	}
	if displayNumber < 1 || displayNumber > len(list) {
		return nil, false, nil
	}
	return &list[displayNumber-1], true, nil
}
