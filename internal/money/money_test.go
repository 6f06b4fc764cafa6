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

package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSplit(t *testing.T) {
	tests := []struct {
		total, pctA, pctB string
		wantA, wantB      string
	}{
		{"200", "65", "35", "130.00", "70.00"},
		{"100", "50", "50", "50.00", "50.00"},
		{"100", "33.33", "66.67", "33.33", "66.67"},
		{"10", "33.335", "66.665", "3.33", "6.67"},
		{"0.01", "50", "50", "0.01", "0.00"},
		{"100", "33.335", "66.665", "33.33", "66.67"},
		{"0.02", "50", "50", "0.01", "0.01"},
		{"0.03", "50", "50", "0.01", "0.02"},
		{"99.99", "70", "30", "69.99", "30.00"},
	}
	for _, tt := range tests {
		a, b := Split(d(tt.total), d(tt.pctA), d(tt.pctB))
		if !a.Equal(d(tt.wantA)) || !b.Equal(d(tt.wantB)) {
			t.Errorf("Split(%s, %s, %s) = %s/%s, want %s/%s",
				tt.total, tt.pctA, tt.pctB, a, b, tt.wantA, tt.wantB)
		}
		if !a.Add(b).Equal(Round(d(tt.total))) {
			t.Errorf("Split(%s) legs %s+%s do not sum to total", tt.total, a, b)
		}
	}
}

func TestSplitLegsAlwaysReconcile(t *testing.T) {
	totals := []string{"0.07", "1", "13.13", "250.55", "1000.01", "7.77"}
	pcts := []string{"1", "12.5", "33.33", "50", "65", "99.99"}
	for _, total := range totals {
		for _, p := range pcts {
			pctA := d(p)
			pctB := Hundred.Sub(pctA)
			a, b := Split(d(total), pctA, pctB)
			if !a.Add(b).Equal(d(total)) {
				t.Errorf("Split(%s, %s) = %s + %s, want sum %s", total, p, a, b, total)
			}
		}
	}
}

func TestSplitRemainderNeverEmptiesSmallerLeg(t *testing.T) {
	// both shares round up, so the remainder is negative
	for _, total := range []string{"0.03", "0.05", "1.01", "100.01"} {
		a, b := Split(d(total), d("50"), d("50"))
		if !a.Add(b).Equal(d(total)) {
			t.Errorf("Split(%s) = %s + %s, want sum %s", total, a, b, total)
		}
		if !a.IsPositive() || !b.IsPositive() {
			t.Errorf("Split(%s) = %s/%s, want both legs positive", total, a, b)
		}
	}
}

func TestSplitSumsTo100(t *testing.T) {
	if !SplitSumsTo100(d("33.33"), d("66.67")) {
		t.Error("33.33 + 66.67 should be accepted")
	}
	if !SplitSumsTo100(d("33.33"), d("66.66")) {
		t.Error("99.99 is within tolerance")
	}
	if SplitSumsTo100(d("60"), d("30")) {
		t.Error("60 + 30 should be rejected")
	}
	if ExactSplit(d("33.33"), d("66.66")) {
		t.Error("ExactSplit must not apply tolerance")
	}
}

func TestRoundHalfUp(t *testing.T) {
	if got := Format(Round(d("2.345"))); got != "2.35" {
		t.Errorf("Round(2.345) = %s, want 2.35", got)
	}
	if got := Format(d("350")); got != "350.00" {
		t.Errorf("Format(350) = %s, want 350.00", got)
	}
	if _, err := Parse("abc"); err == nil {
		t.Error("expected parse error")
	}
}
