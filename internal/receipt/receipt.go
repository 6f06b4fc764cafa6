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

// Package receipt holds the contract of the receipt extractor and the policy
// deciding when extracted data needs a human in the loop.
package receipt

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// DefaultMinConfidence is the score below which extracted data must be
// confirmed by the user.
const DefaultMinConfidence = 70

// Data is what an extractor read off a receipt image.
type Data struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Merchant    string           `json:"merchant,omitempty"`
	Category    string           `json:"category,omitempty"`
	Date        *civil.Date      `json:"date,omitempty"`
	Description string           `json:"description,omitempty"`
	Confidence  int              `json:"confidence_score"`
}

// Extractor reads structured data from a receipt image.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) (*Data, error)
}

type Policy struct {
	MinConfidence int
}

func NewPolicy(minConfidence int) Policy {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return Policy{MinConfidence: minConfidence}
}

// NeedsAmount reports whether no usable amount was extracted.
func (p Policy) NeedsAmount(d *Data) bool {
	return d.Amount == nil || !d.Amount.IsPositive()
}

// NeedsConfirmation reports whether the extraction is too uncertain to
// register without asking.
func (p Policy) NeedsConfirmation(d *Data) bool {
	return d.Confidence < p.MinConfidence
}
