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
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"bubu-finance-go/internal/models"

	"gopkg.in/yaml.v2"
)

//go:embed keywords.yaml
var defaultKeywords []byte

// KeywordRule maps description keywords to a category name.
type KeywordRule struct {
	Category string                 `yaml:"category"`
	Type     models.TransactionType `yaml:"type"`
	Keywords []string               `yaml:"keywords"`
}

type keywordTable struct {
	Rules []KeywordRule `yaml:"rules"`
}

// LoadKeywordRules reads the keyword table from rulesFile, or the built-in
// table when rulesFile is empty.
func LoadKeywordRules(rulesFile string) ([]KeywordRule, error) {
	data := defaultKeywords
	if rulesFile != "" {
		rulesPath := rulesFile
		if !filepath.IsAbs(rulesFile) {
			wd, err := os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to get working directory: %w", err)
			}
			rulesPath = filepath.Join(wd, rulesFile)
		}

		var err error
		data, err = os.ReadFile(rulesPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read %s: %w", rulesFile, err)
		}
	}

	return parseKeywordRules(data)
}

func parseKeywordRules(data []byte) ([]KeywordRule, error) {
	var table keywordTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("unable to parse keyword table: %w", err)
	}

	for i, rule := range table.Rules {
		if rule.Category == "" {
			return nil, fmt.Errorf("rule at index %d missing category", i)
		}
		if !rule.Type.Valid() {
			return nil, fmt.Errorf("rule at index %d has invalid type %q", i, rule.Type)
		}
		if len(rule.Keywords) == 0 {
			return nil, fmt.Errorf("rule at index %d has no keywords", i)
		}
		for j, kw := range rule.Keywords {
			table.Rules[i].Keywords[j] = Fold(kw)
		}
	}

	return table.Rules, nil
}
