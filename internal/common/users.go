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

	"bubu-finance-go/internal/store"
	"bubu-finance-go/internal/users"

	"go.uber.org/zap"
)

// UserInfo represents simplified user information for command-line utilities
type UserInfo struct {
	Phone string
	Name  string
}

// InitializeUsers retrieves users based on an optional phone filter.
// If phoneFilter is provided, returns the single user with that phone.
// If phoneFilter is empty, returns all users.
func InitializeUsers(ctx context.Context, userStore store.UserStore, phoneFilter string, logger *zap.Logger) ([]UserInfo, error) {
	var infos []UserInfo

	if phoneFilter != "" {
		phone, err := users.NormalizePhone(phoneFilter)
		if err != nil {
			return nil, err
		}
		logger.Info("Looking up user by phone", zap.String("phone", phone))
		user, err := userStore.GetUser(ctx, phone)
		if err != nil {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		infos = append(infos, UserInfo{Phone: user.Phone, Name: user.Name})
	} else {
		allUsers, err := userStore.ListUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get users: %w", err)
		}
		for _, u := range allUsers {
			infos = append(infos, UserInfo{Phone: u.Phone, Name: u.Name})
		}
	}

	logger.Info("Retrieved users", zap.Int("count", len(infos)))
	return infos, nil
}

// DisplayName is the alias when set, else the phone.
func (u UserInfo) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Phone
}
