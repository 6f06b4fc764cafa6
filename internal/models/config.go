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

package models

import "time"

// Config represents the application configuration
type Config struct {
	Database     DatabaseConfig
	Server       ServerConfig
	Conversation ConversationConfig
	Redis        RedisConfig
	Assistant    AssistantConfig
	Development  bool
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// ServerConfig holds HTTP surface settings
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// ConversationConfig holds context store settings
type ConversationConfig struct {
	Backend       string // "memory" or "redis"
	SweepInterval time.Duration
	TTLs          SlotTTLs
}

// SlotTTLs holds the expiry of each conversation context slot
type SlotTTLs struct {
	PendingTransaction  time.Duration
	PendingReceipt      time.Duration
	LastTransaction     time.Duration
	TransactionList     time.Duration
	EditingTransaction  time.Duration
	DeletionTransaction time.Duration
}

// RedisConfig holds connection settings for the distributed context backend
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AssistantConfig holds conversational policy settings
type AssistantConfig struct {
	Timezone             *time.Location
	CategoriesFile       string
	ReceiptMinConfidence int
}
