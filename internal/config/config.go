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
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"bubu-finance-go/internal/models"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	sweepInterval, err := getEnvPositiveDuration("CONTEXT_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}

	ttls, err := loadSlotTTLs()
	if err != nil {
		return nil, err
	}

	backend := strings.ToLower(getEnvString("CONTEXT_BACKEND", BackendMemory))
	if backend != BackendMemory && backend != BackendRedis {
		return nil, fmt.Errorf("invalid CONTEXT_BACKEND %q: must be %q or %q", backend, BackendMemory, BackendRedis)
	}

	tzName := getEnvString("TIMEZONE", "America/Mexico_City")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q (%w)", tzName, err)
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "bubu.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Server: models.ServerConfig{
			Addr:            getEnvString("HTTP_ADDR", ":8080"),
			ShutdownTimeout: shutdownTimeout,
		},
		Conversation: models.ConversationConfig{
			Backend:       backend,
			SweepInterval: sweepInterval,
			TTLs:          ttls,
		},
		Redis: models.RedisConfig{
			Addr:     getEnvString("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Assistant: models.AssistantConfig{
			Timezone:             loc,
			CategoriesFile:       os.Getenv("CATEGORIES_FILE"),
			ReceiptMinConfidence: getEnvInt("RECEIPT_CONFIDENCE_THRESHOLD", 70),
		},
		Development: getEnvBool("LOG_DEVELOPMENT", false),
	}, nil
}

// DefaultSlotTTLs returns the built-in expiry of each conversation slot.
func DefaultSlotTTLs() models.SlotTTLs {
	return models.SlotTTLs{
		PendingTransaction:  5 * time.Minute,
		PendingReceipt:      10 * time.Minute,
		LastTransaction:     10 * time.Minute,
		TransactionList:     30 * time.Minute,
		EditingTransaction:  5 * time.Minute,
		DeletionTransaction: 5 * time.Minute,
	}
}

func loadSlotTTLs() (models.SlotTTLs, error) {
	ttls := DefaultSlotTTLs()
	overrides := []struct {
		key    string
		target *time.Duration
	}{
		{"CONTEXT_TTL_PENDING_TRANSACTION", &ttls.PendingTransaction},
		{"CONTEXT_TTL_PENDING_RECEIPT", &ttls.PendingReceipt},
		{"CONTEXT_TTL_LAST_TRANSACTION", &ttls.LastTransaction},
		{"CONTEXT_TTL_TRANSACTION_LIST", &ttls.TransactionList},
		{"CONTEXT_TTL_EDITING_TRANSACTION", &ttls.EditingTransaction},
		{"CONTEXT_TTL_DELETION_TRANSACTION", &ttls.DeletionTransaction},
	}

	for _, o := range overrides {
		d, err := getEnvPositiveDuration(o.key, *o.target)
		if err != nil {
			return models.SlotTTLs{}, err
		}
		*o.target = d
	}
	return ttls, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvPositiveDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	d, err := getEnvDuration(key, defaultValue)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid duration for %s: must be positive", key)
	}
	return d, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
