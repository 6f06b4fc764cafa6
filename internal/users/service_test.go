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
	"path/filepath"
	"testing"
	"time"

	"bubu-finance-go/internal/database"
	"bubu-finance-go/internal/models"
	"bubu-finance-go/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "users.db"),
		MaxOpenConns: 2,
		PingTimeout:  5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return NewService(db)
}

func TestGetOrCreate_Normalizes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u, err := svc.GetOrCreate(ctx, "+52 1 555 123 4567", " Ana ")
	require.NoError(t, err)
	assert.Equal(t, "5551234567", u.Phone)
	assert.Equal(t, "Ana", u.Name)

	same, err := svc.GetOrCreate(ctx, "5551234567", "")
	require.NoError(t, err)
	assert.Equal(t, "Ana", same.Name)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = svc.GetOrCreate(ctx, "12345", "")
	assert.ErrorIs(t, err, store.ErrValidation)
}

func TestSetAlias(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SetAlias(ctx, "5551234567", "Ana")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.GetOrCreate(ctx, "5551234567", "")
	require.NoError(t, err)

	u, err := svc.SetAlias(ctx, "555-123-4567", "Anita")
	require.NoError(t, err)
	assert.Equal(t, "Anita", u.Name)

	_, err = svc.SetAlias(ctx, "5551234567", "  ")
	assert.ErrorIs(t, err, store.ErrValidation)

	got, err := svc.Get(ctx, "5551234567")
	require.NoError(t, err)
	assert.Equal(t, "Anita", got.Name)
}
