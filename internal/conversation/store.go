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

package conversation

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store holds per-phone slots. Values are JSON-encoded so every backend
// behaves the same. A slot older than its TTL reads as absent.
type Store interface {
	// Put overwrites slot for phone and restarts its TTL.
	Put(ctx context.Context, phone string, slot Slot, value any) error
	// Get decodes the slot into dest and reports whether it was present.
	Get(ctx context.Context, phone string, slot Slot, dest any) (bool, error)
	// Take is Get followed by Clear as one atomic step.
	Take(ctx context.Context, phone string, slot Slot, dest any) (bool, error)
	Clear(ctx context.Context, phone string, slot Slot) error
	ClearAll(ctx context.Context, phone string) error
}

func encode(slot Slot, value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", slot, err)
	}
	return data, nil
}

func decode(slot Slot, data []byte, dest any) error {
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode %s: %w", slot, err)
	}
	return nil
}
