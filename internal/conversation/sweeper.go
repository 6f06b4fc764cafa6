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
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically evicts expired slots from a MemoryStore. Reads never
// depend on it; it only bounds memory.
type Sweeper struct {
	store    *MemoryStore
	interval time.Duration
	stopChan chan struct{}
	doneChan chan struct{}
}

// DefaultSweepInterval replaces a non-positive interval.
const DefaultSweepInterval = time.Minute

func NewSweeper(store *MemoryStore, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Run sweeps every interval until ctx is cancelled or Stop is called.
func (s *Sweeper) Run(ctx context.Context) error {
	defer close(s.doneChan)

	zap.L().Info("Context sweeper started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := s.store.Sweep(); removed > 0 {
				zap.L().Debug("Swept expired context slots", zap.Int("removed", removed))
			}
		case <-s.stopChan:
			zap.L().Info("Context sweeper stopped")
			return nil
		case <-ctx.Done():
			zap.L().Info("Context sweeper stopped")
			return nil
		}
	}
}

// Stop ends Run and waits for it to return.
func (s *Sweeper) Stop() {
	close(s.stopChan)
	<-s.doneChan
}
