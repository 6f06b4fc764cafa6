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

package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Path != "bubu.db" {
		t.Errorf("Expected default database path bubu.db, got %s", cfg.Database.Path)
	}
	if cfg.Conversation.Backend != BackendMemory {
		t.Errorf("Expected memory backend, got %s", cfg.Conversation.Backend)
	}
	if cfg.Conversation.TTLs != DefaultSlotTTLs() {
		t.Errorf("Expected default TTLs, got %+v", cfg.Conversation.TTLs)
	}
	if cfg.Assistant.ReceiptMinConfidence != 70 {
		t.Errorf("Expected receipt threshold 70, got %d", cfg.Assistant.ReceiptMinConfidence)
	}
	if cfg.Assistant.Timezone.String() != "America/Mexico_City" {
		t.Errorf("Expected America/Mexico_City, got %s", cfg.Assistant.Timezone)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_PATH", "/tmp/other.db")
	t.Setenv("CONTEXT_BACKEND", "Redis")
	t.Setenv("CONTEXT_TTL_TRANSACTION_LIST", "45m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("LOG_DEVELOPMENT", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Path != "/tmp/other.db" {
		t.Errorf("Expected overridden path, got %s", cfg.Database.Path)
	}
	if cfg.Conversation.Backend != BackendRedis {
		t.Errorf("Expected redis backend, got %s", cfg.Conversation.Backend)
	}
	if cfg.Conversation.TTLs.TransactionList != 45*time.Minute {
		t.Errorf("Expected 45m list TTL, got %v", cfg.Conversation.TTLs.TransactionList)
	}
	if cfg.Conversation.TTLs.PendingTransaction != 5*time.Minute {
		t.Errorf("Expected untouched pending TTL, got %v", cfg.Conversation.TTLs.PendingTransaction)
	}
	if cfg.Redis.DB != 3 {
		t.Errorf("Expected redis db 3, got %d", cfg.Redis.DB)
	}
	if !cfg.Development {
		t.Error("Expected development logging enabled")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad duration", "DB_PING_TIMEOUT", "soon"},
		{"bad backend", "CONTEXT_BACKEND", "memcached"},
		{"bad timezone", "TIMEZONE", "Mars/Olympus"},
		{"non-positive ttl", "CONTEXT_TTL_PENDING_RECEIPT", "0s"},
		{"zero sweep interval", "CONTEXT_SWEEP_INTERVAL", "0s"},
		{"negative sweep interval", "CONTEXT_SWEEP_INTERVAL", "-1m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestGetEnvInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	if got := getEnvInt("DB_MAX_OPEN_CONNS", 25); got != 25 {
		t.Errorf("Expected fallback 25, got %d", got)
	}
}
