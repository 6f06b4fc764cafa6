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
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Locker serializes work for one phone. fn runs while the lock is held.
type Locker interface {
	WithLock(ctx context.Context, phone string, fn func(ctx context.Context) error) error
}

type phoneLock struct {
	mu   sync.Mutex
	refs int
}

// MemoryLocker holds one mutex per phone for as long as someone waits on it.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*phoneLock
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*phoneLock)}
}

func (l *MemoryLocker) WithLock(ctx context.Context, phone string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	pl, ok := l.locks[phone]
	if !ok {
		pl = &phoneLock{}
		l.locks[phone] = pl
	}
	pl.refs++
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.locks, phone)
		}
		l.mu.Unlock()
	}()

	pl.mu.Lock()
	defer pl.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

// A held Redis lock is extended every redisLockExpiry/3 until fn returns, so
// the expiry only bounds how long a crashed holder blocks the phone.
const (
	redisLockPrefix     = "bubu:lock:"
	redisLockExpiry     = 30 * time.Second
	redisLockTries      = 32
	redisLockRetryDelay = 100 * time.Millisecond
)

// RedisLocker is a RedLock-based Locker shared by every server instance.
type RedisLocker struct {
	rs     *redsync.Redsync
	expiry time.Duration
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{rs: redsync.New(goredis.NewPool(client)), expiry: redisLockExpiry}
}

func (l *RedisLocker) WithLock(ctx context.Context, phone string, fn func(ctx context.Context) error) error {
	mutex := l.rs.NewMutex(
		redisLockPrefix+phone,
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(redisLockTries),
		redsync.WithRetryDelay(redisLockRetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return fmt.Errorf("failed to acquire lock for %s: %w", phone, err)
	}

	stopChan := make(chan struct{})
	doneChan := make(chan struct{})
	go l.keepAlive(context.WithoutCancel(ctx), mutex, phone, stopChan, doneChan)

	defer func() {
		close(stopChan)
		<-doneChan
		if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); !ok || err != nil {
			zap.L().Error("Failed to release phone lock",
				zap.String("phone", phone),
				zap.Bool("unlock_ok", ok),
				zap.Error(err))
		}
	}()

	return fn(ctx)
}

// keepAlive extends mutex until stopChan is closed.
func (l *RedisLocker) keepAlive(ctx context.Context, mutex *redsync.Mutex, phone string, stopChan <-chan struct{}, doneChan chan<- struct{}) {
	defer close(doneChan)

	ticker := time.NewTicker(l.expiry / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stopChan:
			return
		case <-ticker.C:
			if ok, err := mutex.ExtendContext(ctx); !ok || err != nil {
				zap.L().Error("Failed to extend phone lock",
					zap.String("phone", phone),
					zap.Bool("extend_ok", ok),
					zap.Error(err))
			}
		}
	}
}
