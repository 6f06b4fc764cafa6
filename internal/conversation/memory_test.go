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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bubu-finance-go/internal/models"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTTLs = models.SlotTTLs{
	PendingTransaction:  5 * time.Minute,
	PendingReceipt:      10 * time.Minute,
	LastTransaction:     10 * time.Minute,
	TransactionList:     30 * time.Minute,
	EditingTransaction:  5 * time.Minute,
	DeletionTransaction: 5 * time.Minute,
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newMemoryStore() (*MemoryStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(testTTLs)
	s.now = clock.Now
	return s, clock
}

func pending() PendingTransaction {
	return PendingTransaction{
		Type:        models.TypeIncome,
		Amount:      decimal.NewFromInt(500),
		Description: "ingreso nómina",
		Date:        civil.Date{Year: 2025, Month: 5, Day: 20},
	}
}

func TestMemoryStore_TTLBoundary(t *testing.T) {
	ctx := context.Background()

	for _, slot := range AllSlots() {
		t.Run(string(slot), func(t *testing.T) {
			s, clock := newMemoryStore()
			ttl := TTL(testTTLs, slot)
			require.Positive(t, ttl)

			require.NoError(t, s.Put(ctx, "5551234567", slot, "value"))

			clock.Advance(ttl - time.Millisecond)
			var got string
			ok, err := s.Get(ctx, "5551234567", slot, &got)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "value", got)

			clock.Advance(2 * time.Millisecond)
			ok, err = s.Get(ctx, "5551234567", slot, &got)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestMemoryStore_SlotsExpireIndependently(t *testing.T) {
	ctx := context.Background()
	s, clock := newMemoryStore()

	require.NoError(t, s.Put(ctx, "5551234567", SlotPendingTransaction, pending()))
	require.NoError(t, s.Put(ctx, "5551234567", SlotTransactionList, []TransactionRef{{Id: "t1"}}))

	clock.Advance(6 * time.Minute)

	ok, err := s.Get(ctx, "5551234567", SlotPendingTransaction, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Get(ctx, "5551234567", SlotTransactionList, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStore_PutOverwritesAndRestartsTTL(t *testing.T) {
	ctx := context.Background()
	s, clock := newMemoryStore()

	require.NoError(t, s.Put(ctx, "5551234567", SlotPendingTransaction, pending()))
	clock.Advance(4 * time.Minute)

	second := pending()
	second.Amount = decimal.NewFromInt(800)
	require.NoError(t, s.Put(ctx, "5551234567", SlotPendingTransaction, second))
	clock.Advance(4 * time.Minute)

	var got PendingTransaction
	ok, err := s.Get(ctx, "5551234567", SlotPendingTransaction, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(800)))
	assert.Equal(t, civil.Date{Year: 2025, Month: 5, Day: 20}, got.Date)
}

func TestMemoryStore_TakeConsumesOnce(t *testing.T) {
	ctx := context.Background()
	s, _ := newMemoryStore()
	require.NoError(t, s.Put(ctx, "5551234567", SlotPendingTransaction, pending()))

	var wg sync.WaitGroup
	var taken atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var p PendingTransaction
			ok, err := s.Take(ctx, "5551234567", SlotPendingTransaction, &p)
			assert.NoError(t, err)
			if ok {
				taken.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, taken.Load())
}

func TestMemoryStore_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newMemoryStore()

	require.NoError(t, s.Clear(ctx, "5551234567", SlotPendingTransaction))
	require.NoError(t, s.Put(ctx, "5551234567", SlotPendingTransaction, pending()))
	require.NoError(t, s.Put(ctx, "5551234567", SlotLastTransaction, TransactionRef{Id: "t1"}))
	require.NoError(t, s.Clear(ctx, "5551234567", SlotPendingTransaction))
	require.NoError(t, s.Clear(ctx, "5551234567", SlotPendingTransaction))

	ok, err := s.Get(ctx, "5551234567", SlotLastTransaction, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.ClearAll(ctx, "5551234567"))
	require.NoError(t, s.ClearAll(ctx, "5551234567"))
	ok, err = s.Get(ctx, "5551234567", SlotLastTransaction, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()
	s, clock := newMemoryStore()

	require.NoError(t, s.Put(ctx, "5551234567", SlotPendingTransaction, pending()))
	require.NoError(t, s.Put(ctx, "5559876543", SlotPendingTransaction, pending()))
	require.NoError(t, s.Put(ctx, "5559876543", SlotTransactionList, []TransactionRef{}))

	clock.Advance(6 * time.Minute)
	assert.Equal(t, 2, s.Sweep())
	assert.Equal(t, 0, s.Sweep())
	assert.Len(t, s.slots, 1)
}

func TestResolveListIndex(t *testing.T) {
	ctx := context.Background()
	s, clock := newMemoryStore()

	_, ok, err := ResolveListIndex(ctx, s, "5551234567", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	list := []TransactionRef{{Id: "a"}, {Id: "b"}, {Id: "c"}}
	require.NoError(t, s.Put(ctx, "5551234567", SlotTransactionList, list))

	ref, ok, err := ResolveListIndex(ctx, s, "5551234567", 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", ref.Id)

	for _, n := range []int{0, 4, -1} {
		_, ok, err := ResolveListIndex(ctx, s, "5551234567", n)
		require.NoError(t, err)
		assert.False(t, ok, "index %d", n)
	}

	clock.Advance(31 * time.Minute)
	_, ok, err = ResolveListIndex(ctx, s, "5551234567", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSweeper_StopsOnStop(t *testing.T) {
	s, _ := newMemoryStore()
	sweeper := NewSweeper(s, time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- sweeper.Run(context.Background()) }()

	time.Sleep(5 * time.Millisecond)
	sweeper.Stop()
	assert.NoError(t, <-done)
}

func TestSweeper_NonPositiveIntervalFallsBack(t *testing.T) {
	s, _ := newMemoryStore()
	sweeper := NewSweeper(s, 0)
	assert.Equal(t, DefaultSweepInterval, sweeper.interval)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}
