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
	"time"

	"bubu-finance-go/internal/models"
)

type memoryEntry struct {
	data     []byte
	storedAt time.Time
}

// MemoryStore is a single-process Store. Expiry is checked on every read.
type MemoryStore struct {
	mu    sync.Mutex
	ttls  models.SlotTTLs
	now   func() time.Time
	slots map[string]map[Slot]memoryEntry
}

func NewMemoryStore(ttls models.SlotTTLs) *MemoryStore {
	return &MemoryStore{
		ttls:  ttls,
		now:   time.Now,
		slots: make(map[string]map[Slot]memoryEntry),
	}
}

func (m *MemoryStore) Put(_ context.Context, phone string, slot Slot, value any) error {
	data, err := encode(slot, value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	bySlot, ok := m.slots[phone]
	if !ok {
		bySlot = make(map[Slot]memoryEntry)
		m.slots[phone] = bySlot
	}
	bySlot[slot] = memoryEntry{data: data, storedAt: m.now()}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, phone string, slot Slot, dest any) (bool, error) {
	m.mu.Lock()
	e, ok := m.lookupLocked(phone, slot)
	m.mu.Unlock()

	if !ok {
		return false, nil
	}
	return true, decode(slot, e.data, dest)
}

func (m *MemoryStore) Take(_ context.Context, phone string, slot Slot, dest any) (bool, error) {
	m.mu.Lock()
	e, ok := m.lookupLocked(phone, slot)
	if ok {
		m.deleteLocked(phone, slot)
	}
	m.mu.Unlock()

	if !ok {
		return false, nil
	}
	return true, decode(slot, e.data, dest)
}

func (m *MemoryStore) Clear(_ context.Context, phone string, slot Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(phone, slot)
	return nil
}

func (m *MemoryStore) ClearAll(_ context.Context, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, phone)
	return nil
}

// Sweep evicts every expired slot and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for phone, bySlot := range m.slots {
		for slot, e := range bySlot {
			if m.expired(slot, e, now) {
				delete(bySlot, slot)
				removed++
			}
		}
		if len(bySlot) == 0 {
			delete(m.slots, phone)
		}
	}
	return removed
}

// lookupLocked returns the live entry, evicting it if stale.
func (m *MemoryStore) lookupLocked(phone string, slot Slot) (memoryEntry, bool) {
	e, ok := m.slots[phone][slot]
	if !ok {
		return memoryEntry{}, false
	}
	if m.expired(slot, e, m.now()) {
		m.deleteLocked(phone, slot)
		return memoryEntry{}, false
	}
	return e, true
}

func (m *MemoryStore) deleteLocked(phone string, slot Slot) {
	bySlot, ok := m.slots[phone]
	if !ok {
		return
	}
	delete(bySlot, slot)
	if len(bySlot) == 0 {
		delete(m.slots, phone)
	}
}

func (m *MemoryStore) expired(slot Slot, e memoryEntry, now time.Time) bool {
	return now.Sub(e.storedAt) > TTL(m.ttls, slot)
}
