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
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Period names a reporting window relative to today
type Period string

const (
	PeriodCurrentMonth  Period = "current_month"
	PeriodPreviousMonth Period = "previous_month"
	PeriodAll           Period = "all"
)

// ParsePeriod accepts the three known period names; empty means current month.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "":
		return PeriodCurrentMonth, nil
	case PeriodCurrentMonth, PeriodPreviousMonth, PeriodAll:
		return Period(s), nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// DateRange is an inclusive calendar range; a zero bound is open.
type DateRange struct {
	From civil.Date
	To   civil.Date
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d civil.Date) bool {
	if r.From.IsValid() && d.Before(r.From) {
		return false
	}
	if r.To.IsValid() && d.After(r.To) {
		return false
	}
	return true
}

// Range resolves the period against now in loc.
func (p Period) Range(now time.Time, loc *time.Location) DateRange {
	if loc == nil {
		loc = time.UTC
	}
	today := civil.DateOf(now.In(loc))
	first := civil.Date{Year: today.Year, Month: today.Month, Day: 1}

	switch p {
	case PeriodPreviousMonth:
		prevFirst := civil.DateOf(first.In(time.UTC).AddDate(0, -1, 0))
		return DateRange{From: prevFirst, To: first.AddDays(-1)}
	case PeriodAll:
		return DateRange{}
	default:
		lastDay := civil.DateOf(first.In(time.UTC).AddDate(0, 1, -1))
		return DateRange{From: first, To: lastDay}
	}
}

// TransactionFilter narrows a ledger listing
type TransactionFilter struct {
	Range      DateRange
	Type       TransactionType
	CategoryId string
	Limit      int
}

// CategoryBreakdown is one (category, type) group of a summary
type CategoryBreakdown struct {
	CategoryId   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Type         TransactionType `json:"type"`
	Total        decimal.Decimal `json:"total"`
	Count        int             `json:"count"`
}

// Summary aggregates a user's ledger over a date range
type Summary struct {
	IncomeTotal  decimal.Decimal     `json:"income_total"`
	ExpenseTotal decimal.Decimal     `json:"expense_total"`
	Balance      decimal.Decimal     `json:"balance"`
	Breakdown    []CategoryBreakdown `json:"breakdown"`
}

// BalanceDirection is the verdict of a shared balance calculation
type BalanceDirection string

const (
	PartnerOwesUser BalanceDirection = "partner_owes_user"
	UserOwesPartner BalanceDirection = "user_owes_partner"
	Balanced        BalanceDirection = "balanced"
)

// BalanceReport states who owes whom for a period of shared expenses
type BalanceReport struct {
	UserPhone      string           `json:"user_phone"`
	PartnerPhone   string           `json:"partner_phone"`
	Period         Period           `json:"period"`
	UserPaid       decimal.Decimal  `json:"user_paid"`
	UserOwed       decimal.Decimal  `json:"user_owed"`
	PartnerPaid    decimal.Decimal  `json:"partner_paid"`
	PartnerOwed    decimal.Decimal  `json:"partner_owed"`
	ExpenseCount   int              `json:"expense_count"`
	Direction      BalanceDirection `json:"direction"`
	AmountOwed     decimal.Decimal  `json:"amount_owed"`
	RelationshipId string           `json:"relationship_id"`
}
