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

package categories

import (
	"os"
	"path/filepath"
	"testing"

	"bubu-finance-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKeywordRules_Embedded(t *testing.T) {
	rules, err := LoadKeywordRules("")
	require.NoError(t, err)
	require.NotEmpty(t, rules)

	for _, rule := range rules {
		assert.True(t, IsPredefinedName(rule.Category), "rule category %s should be predefined", rule.Category)
	}
}

func TestLoadKeywordRules_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := "rules:\n  - category: Mascotas\n    type: expense\n    keywords: [Croquetas, VETERINARIO]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rules, err := LoadKeywordRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, models.TypeExpense, rules[0].Type)
	assert.Equal(t, []string{"croquetas", "veterinario"}, rules[0].Keywords)
}

func TestParseKeywordRules_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing category": "rules:\n  - type: expense\n    keywords: [a]\n",
		"bad type":         "rules:\n  - category: X\n    type: transfer\n    keywords: [a]\n",
		"no keywords":      "rules:\n  - category: X\n    type: income\n",
		"not yaml":         "rules: [",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseKeywordRules([]byte(content))
			assert.Error(t, err)
		})
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "educacion", Fold("  Educación "))
	assert.Equal(t, "nomina", Fold("NÓMINA"))
	assert.Equal(t, "pinata", Fold("piñata"))
}
