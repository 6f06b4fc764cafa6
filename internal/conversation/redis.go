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
	"errors"
	"fmt"

	"bubu-finance-go/internal/models"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "bubu:ctx:"

// RedisStore keeps slots in Redis with native key expiry so several server
// instances share one view of each conversation.
type RedisStore struct {
	client redis.UniversalClient
	ttls   models.SlotTTLs
}

func NewRedisStore(client redis.UniversalClient, ttls models.SlotTTLs) *RedisStore {
	return &RedisStore{client: client, ttls: ttls}
}

func redisKey(phone string, slot Slot) string {
	return redisKeyPrefix + phone + ":" + string(slot)
}

func (r *RedisStore) Put(ctx context.Context, phone string, slot Slot, value any) error {
	data, err := encode(slot, value)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, redisKey(phone, slot), data, TTL(r.ttls, slot)).Err(); err != nil {
		return fmt.Errorf("failed to store %s: %w", slot, err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, phone string, slot Slot, dest any) (bool, error) {
	data, err := r.client.Get(ctx, redisKey(phone, slot)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", slot, err)
	}
	return true, decode(slot, data, dest)
}

func (r *RedisStore) Take(ctx context.Context, phone string, slot Slot, dest any) (bool, error) {
	data, err := r.client.GetDel(ctx, redisKey(phone, slot)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to take %s: %w", slot, err)
	}
	return true, decode(slot, data, dest)
}

func (r *RedisStore) Clear(ctx context.Context, phone string, slot Slot) error {
	if err := r.client.Del(ctx, redisKey(phone, slot)).Err(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", slot, err)
	}
	return nil
}

func (r *RedisStore) ClearAll(ctx context.Context, phone string) error {
	slots := AllSlots()
	keys := make([]string, len(slots))
	for i, slot := range slots {
		keys[i] = redisKey(phone, slot)
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear context for %s: %w", phone, err)
	}
	return nil
}
