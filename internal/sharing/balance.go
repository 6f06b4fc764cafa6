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

package sharing

import (
	"context"
	"fmt"
	"time"

	"bubu-finance-go/internal/models"
	"bubu-finance-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Calculator folds a couple's shared expenses into who owes whom.
type Calculator struct {
	store         store.SharedStore
	relationships RelationshipFinder
	loc           *time.Location
	now           func() time.Time
}

func NewCalculator(s store.SharedStore, relationships RelationshipFinder, loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{store: s, relationships: relationships, loc: loc, now: time.Now}
}

// Calculate reports the balance between phone and its active partner for
// period. An empty partnerPhone means "whoever the active partner is".
func (c *Calculator) Calculate(ctx context.Context, phone, partnerPhone string, period models.Period) (*models.BalanceReport, error) {
	rel, err := c.relationships.GetActive(ctx, phone)
	if err != nil {
		return nil, err
	}
	partner := rel.Counterpart(phone)
	if partnerPhone != "" && partnerPhone != partner {
		return nil, fmt.Errorf("%w: %s is not the active partner of %s", store.ErrNoRelationship, partnerPhone, phone)
	}

	dateRange := period.Range(c.now(), c.loc)
	shared, err := c.store.ListShared(ctx, phone, partner, dateRange)
	if err != nil {
		return nil, err
	}

	report := Fold(phone, partner, shared)
	report.Period = period
	report.RelationshipId = rel.Id

	zap.L().Debug("Balance calculated",
		zap.String("phone", phone),
		zap.String("partner", partner),
		zap.String("period", string(period)),
		zap.Int("expenses", report.ExpenseCount),
		zap.String("direction", string(report.Direction)),
		zap.String("amount_owed", report.AmountOwed.String()))
	return report, nil
}

// Fold computes paid and owed totals for phone and partner over shared,
// counting each shared expense once.
func Fold(phone, partner string, shared []models.SharedTransaction) *models.BalanceReport {
	report := &models.BalanceReport{
		UserPhone:    phone,
		PartnerPhone: partner,
		UserPaid:     decimal.Zero,
		UserOwed:     decimal.Zero,
		PartnerPaid:  decimal.Zero,
		PartnerOwed:  decimal.Zero,
	}

	seen := make(map[string]struct{}, len(shared))
	for i := range shared {
		st := &shared[i]
		if _, dup := seen[st.Id]; dup {
			continue
		}
		seen[st.Id] = struct{}{}
		report.ExpenseCount++

		switch st.PayerPhone {
		case phone:
			report.UserPaid = report.UserPaid.Add(st.TotalAmount)
		case partner:
			report.PartnerPaid = report.PartnerPaid.Add(st.TotalAmount)
		}

		own, other := LegsFor(st, phone)
		report.UserOwed = report.UserOwed.Add(own)
		report.PartnerOwed = report.PartnerOwed.Add(other)
	}

	net := report.UserPaid.Sub(report.UserOwed)
	switch net.Sign() {
	case 1:
		report.Direction = models.PartnerOwesUser
	case -1:
		report.Direction = models.UserOwesPartner
	default:
		report.Direction = models.Balanced
	}
	report.AmountOwed = net.Abs()
	return report
}
