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

package users

import (
	"context"
	"strings"

	"bubu-finance-go/internal/models"
	"bubu-finance-go/internal/store"
)

// Service is the user directory. Every entry point takes a raw phone and
// normalizes it first.
type Service struct {
	store store.UserStore
}

func NewService(s store.UserStore) *Service {
	return &Service{store: s}
}

// GetOrCreate returns the user behind rawPhone, creating it on first contact.
func (s *Service) GetOrCreate(ctx context.Context, rawPhone, name string) (*models.User, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}
	return s.store.GetOrCreateUser(ctx, phone, strings.TrimSpace(name))
}

// SetAlias changes the display name of an existing user.
func (s *Service) SetAlias(ctx context.Context, rawPhone, alias string) (*models.User, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return nil, store.Validationf("alias cannot be empty")
	}

	if err := s.store.SetUserName(ctx, phone, alias); err != nil {
		return nil, err
	}
	return s.store.GetUser(ctx, phone)
}

func (s *Service) Get(ctx context.Context, rawPhone string) (*models.User, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}
	return s.store.GetUser(ctx, phone)
}

func (s *Service) List(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}
