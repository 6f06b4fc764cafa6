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

package users

import (
	"strings"

	"bubu-finance-go/internal/store"
)

// NormalizePhone reduces a phone number to its 10 national digits. Country
// code prefixes (521, 52, or a leading 1) and spaces, dashes, parens and
// plus signs are stripped.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '+' || r == '.':
		default:
			return "", store.Validationf("invalid character %q in phone number", r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 13 && strings.HasPrefix(digits, "521"):
		digits = digits[3:]
	case len(digits) == 12 && strings.HasPrefix(digits, "52"):
		digits = digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		digits = digits[1:]
	}

	if len(digits) != 10 {
		return "", store.Validationf("phone number must have 10 digits, got %q", raw)
	}
	return digits, nil
}
