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

package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"bubu-finance-go/internal/categories"
	"bubu-finance-go/internal/config"
	"bubu-finance-go/internal/conversation"
	"bubu-finance-go/internal/database"
	"bubu-finance-go/internal/ledger"
	"bubu-finance-go/internal/models"
	"bubu-finance-go/internal/orchestrator"
	"bubu-finance-go/internal/receipt"
	"bubu-finance-go/internal/relationships"
	"bubu-finance-go/internal/sharing"
	"bubu-finance-go/internal/users"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

// Services is the wired application graph.
type Services struct {
	DbService     *database.Service
	Users         *users.Service
	Ledger        *ledger.Service
	Categories    *categories.Directory
	Relationships *relationships.Registry
	Sharing       *sharing.Engine
	Balances      *sharing.Calculator
	Context       conversation.Store
	Orchestrator  *orchestrator.Orchestrator

	// MemoryContext is set only for the memory backend; it needs sweeping.
	MemoryContext *conversation.MemoryStore

	redisClient *redis.Client
}

func InitializeLogger(development bool) (*zap.Logger, func()) {
	build := zap.NewProduction
	if development {
		build = zap.NewDevelopment
	}
	logger, err := build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	s := &Services{DbService: dbService}

	if err := s.initialize(ctx, cfg); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Services) initialize(ctx context.Context, cfg *models.Config) error {
	loc := cfg.Assistant.Timezone

	rules, err := categories.LoadKeywordRules(cfg.Assistant.CategoriesFile)
	if err != nil {
		return err
	}
	s.Categories = categories.NewDirectory(s.DbService, rules)
	if err := s.Categories.EnsurePredefined(ctx); err != nil {
		return fmt.Errorf("failed to seed predefined categories: %w", err)
	}
	zap.L().Info("Category directory ready", zap.Int("keyword_rules", len(rules)))

	s.Users = users.NewService(s.DbService)
	s.Ledger = ledger.NewService(s.DbService, loc)
	s.Relationships = relationships.NewRegistry(s.DbService)
	s.Sharing = sharing.NewEngine(s.DbService, s.Relationships, loc)
	s.Balances = sharing.NewCalculator(s.DbService, s.Relationships, loc)

	var locker conversation.Locker
	switch cfg.Conversation.Backend {
	case config.BackendRedis:
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := s.redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		s.Context = conversation.NewRedisStore(s.redisClient, cfg.Conversation.TTLs)
		locker = conversation.NewRedisLocker(s.redisClient)
		zap.L().Info("Using redis conversation context", zap.String("addr", cfg.Redis.Addr))
	default:
		s.MemoryContext = conversation.NewMemoryStore(cfg.Conversation.TTLs)
		s.Context = s.MemoryContext
		locker = conversation.NewMemoryLocker()
		zap.L().Info("Using in-memory conversation context")
	}

	s.Orchestrator, err = orchestrator.New(orchestrator.Deps{
		Users:         s.Users,
		Ledger:        s.Ledger,
		Categories:    s.Categories,
		Relationships: s.Relationships,
		Sharing:       s.Sharing,
		Balances:      s.Balances,
		Context:       s.Context,
		Locker:        locker,
		Policy:        receipt.NewPolicy(cfg.Assistant.ReceiptMinConfidence),
	})
	return err
}

// InitializeDatabaseOnly initializes just the database service
// Useful for read-only operations like querying balances
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (s *Services) Close() {
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			zap.L().Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if s.DbService != nil {
		s.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
