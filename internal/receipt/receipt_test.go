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

package receipt

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPolicy(t *testing.T) {
	amount := decimal.NewFromInt(120)
	zero := decimal.Zero

	tests := []struct {
		name         string
		data         Data
		needsAmount  bool
		needsConfirm bool
	}{
		{"confident", Data{Amount: &amount, Confidence: 95}, false, false},
		{"at threshold", Data{Amount: &amount, Confidence: 70}, false, false},
		{"below threshold", Data{Amount: &amount, Confidence: 69}, false, true},
		{"missing amount", Data{Confidence: 90}, true, false},
		{"zero amount", Data{Amount: &zero, Confidence: 90}, true, false},
	}

	p := NewPolicy(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.needsAmount, p.NeedsAmount(&tt.data))
			assert.Equal(t, tt.needsConfirm, p.NeedsConfirmation(&tt.data))
		})
	}
}

func TestNewPolicy_Custom(t *testing.T) {
	assert.Equal(t, 80, NewPolicy(80).MinConfidence)
	assert.Equal(t, DefaultMinConfidence, NewPolicy(-1).MinConfidence)
}
