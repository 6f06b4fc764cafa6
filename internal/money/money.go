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

// Package money holds the decimal arithmetic for amounts and split percentages.
// Amounts are rounded half-up to cents; split legs always reconcile to the total.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const Places = 2

var (
	Hundred = decimal.NewFromInt(100)
	// SplitTolerance bounds how far a pair of percentages may drift from 100.
	SplitTolerance = decimal.RequireFromString("0.01")
)

// Round rounds to cents, half away from zero (half-up for positive amounts).
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Format renders an amount with exactly two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}

// Parse reads an amount from user or classifier input.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// Share returns total * percentage / 100 rounded to cents.
func Share(total, percentage decimal.Decimal) decimal.Decimal {
	return Round(total.Mul(percentage).Div(Hundred))
}

// SplitSumsTo100 reports whether a+b is within SplitTolerance of 100.
func SplitSumsTo100(a, b decimal.Decimal) bool {
	return a.Add(b).Sub(Hundred).Abs().LessThanOrEqual(SplitTolerance)
}

// ExactSplit reports whether a+b is exactly 100.
func ExactSplit(a, b decimal.Decimal) bool {
	return a.Add(b).Equal(Hundred)
}

// Split divides total into two legs by percentage. Each leg is rounded to
// cents and any rounding remainder is added to the smaller leg, so the legs
// always sum exactly to the rounded total. A negative remainder that would
// take the smaller leg to zero or below is taken from the larger one.
// Legs can still be zero when total is too small for the split; callers
// that need two non-empty legs must check.
func Split(total, pctA, pctB decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	total = Round(total)
	a := Share(total, pctA)
	b := Share(total, pctB)

	remainder := total.Sub(a.Add(b))
	if remainder.IsZero() {
		return a, b
	}

	smaller, larger := &a, &b
	if b.LessThan(a) {
		smaller, larger = &b, &a
	}
	if remainder.IsNegative() && !smaller.Add(remainder).IsPositive() {
		*larger = larger.Add(remainder)
	} else {
		*smaller = smaller.Add(remainder)
	}
	return a, b
}
