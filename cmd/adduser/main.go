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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"bubu-finance-go/internal/common"
	"bubu-finance-go/internal/config"
	"bubu-finance-go/internal/users"

	"go.uber.org/zap"
)

func validateName(name string) error {
	if name == "" {
		return nil
	}
	if len([]rune(name)) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

func main() {
	ctx := context.Background()

	phoneFlag := flag.String("phone", "", "User phone number (required)")
	nameFlag := flag.String("name", "", "Display name / alias (optional)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, loggerCleanup := common.InitializeLogger(cfg.Development)
	defer loggerCleanup()

	phone, err := users.NormalizePhone(*phoneFlag)
	if err != nil {
		logger.Fatal("Invalid phone", zap.String("phone", *phoneFlag), zap.Error(err))
	}
	name := strings.TrimSpace(*nameFlag)
	if err := validateName(name); err != nil {
		logger.Fatal("Invalid name", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	userService := users.NewService(dbService)
	user, err := userService.GetOrCreate(ctx, phone, name)
	if err != nil {
		logger.Fatal("Failed to get or create user", zap.Error(err))
	}
	if name != "" && user.Name != name {
		if user, err = userService.SetAlias(ctx, phone, name); err != nil {
			logger.Fatal("Failed to set alias", zap.Error(err))
		}
	}

	common.PrintHeader("USER", common.DefaultWidth)
	fmt.Printf("Phone:   %s\n", user.Phone)
	fmt.Printf("Name:    %s\n", user.Name)
	fmt.Printf("Created: %s\n", user.CreatedAt.Format("2006-01-02 15:04:05"))
	common.PrintFooter("✓ User ready", common.DefaultWidth)
}
