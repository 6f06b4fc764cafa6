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
	"errors"
	"flag"
	"fmt"
	"log"

	"bubu-finance-go/internal/common"
	"bubu-finance-go/internal/config"
	"bubu-finance-go/internal/models"
	"bubu-finance-go/internal/relationships"
	"bubu-finance-go/internal/sharing"
	"bubu-finance-go/internal/store"

	"go.uber.org/zap"
)

type balanceStats struct {
	totalUsers      int
	usersWithReport int
	unsettled       int
}

func describeDirection(r *models.BalanceReport, user, partner string) string {
	switch r.Direction {
	case models.PartnerOwesUser:
		return fmt.Sprintf("%s owes %s", partner, user)
	case models.UserOwesPartner:
		return fmt.Sprintf("%s owes %s", user, partner)
	}
	return "balanced"
}

func printReport(user common.UserInfo, r *models.BalanceReport) {
	fmt.Printf("\n┌─ User: %s (%s)\n", user.DisplayName(), user.Phone)
	fmt.Printf("│  Partner: %s\n", r.PartnerPhone)
	fmt.Printf("│  Shared expenses: %d\n", r.ExpenseCount)
	common.PrintBoxSeparator(78)
	common.PrintAmountLine("Paid by user", r.UserPaid, false)
	common.PrintAmountLine("User share", r.UserOwed, false)
	common.PrintAmountLine("Paid by partner", r.PartnerPaid, false)
	common.PrintAmountLine("Partner share", r.PartnerOwed, false)
	common.PrintAmountLine(describeDirection(r, "user", "partner"), r.AmountOwed, true)
}

func processUser(ctx context.Context, user common.UserInfo, calc *sharing.Calculator, period models.Period) (*models.BalanceReport, error) {
	report, err := calc.Calculate(ctx, user.Phone, "", period)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate balance: %w", err)
	}
	printReport(user, report)
	return report, nil
}

func processUsersAndGenerateReport(ctx context.Context, users []common.UserInfo, calc *sharing.Calculator, period models.Period, logger *zap.Logger) balanceStats {
	stats := balanceStats{}

	for _, user := range users {
		stats.totalUsers++

		report, err := processUser(ctx, user, calc, period)
		if errors.Is(err, store.ErrNoRelationship) {
			continue
		}
		if err != nil {
			logger.Error("Failed to process user",
				zap.String("phone", user.Phone),
				zap.String("user_name", user.Name),
				zap.Error(err))
			continue
		}

		stats.usersWithReport++
		if report.Direction != models.Balanced {
			stats.unsettled++
		}
	}

	return stats
}

func main() {
	ctx := context.Background()

	phoneFlag := flag.String("phone", "", "Filter by specific user phone (optional)")
	periodFlag := flag.String("period", string(models.PeriodCurrentMonth), "current_month, previous_month or all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, loggerCleanup := common.InitializeLogger(cfg.Development)
	defer loggerCleanup()

	period, err := models.ParsePeriod(*periodFlag)
	if err != nil {
		logger.Fatal("Invalid period", zap.Error(err))
	}

	logger.Info("Starting shared balance query", zap.String("period", string(period)))

	// Read-only: no conversation context or orchestrator needed
	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	calc := sharing.NewCalculator(dbService, relationships.NewRegistry(dbService), cfg.Assistant.Timezone)

	users, err := common.InitializeUsers(ctx, dbService, *phoneFlag, logger)
	if err != nil {
		logger.Fatal("Failed to initialize users", zap.Error(err))
	}

	common.PrintHeader(fmt.Sprintf("SHARED BALANCE REPORT (%s)", period), common.DefaultWidth)

	stats := processUsersAndGenerateReport(ctx, users, calc, period, logger)

	summary := fmt.Sprintf("SUMMARY: %d users with an active partner, %d unsettled (%d users queried)",
		stats.usersWithReport, stats.unsettled, stats.totalUsers)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance query completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("users_with_partner", stats.usersWithReport),
		zap.Int("unsettled", stats.unsettled))
}
