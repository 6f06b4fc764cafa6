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

package store

import (
	"errors"
	"fmt"
)

// Error kinds shared across all backend implementations and services.
// Specific conditions below wrap one of these so callers can match either.
var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrNoRelationship = errors.New("no active relationship")
)

var (
	ErrUserNotFound         = fmt.Errorf("%w: user", ErrNotFound)
	ErrCategoryNotFound     = fmt.Errorf("%w: category", ErrNotFound)
	ErrTransactionNotFound  = fmt.Errorf("%w: transaction", ErrNotFound)
	ErrRelationshipNotFound = fmt.Errorf("%w: relationship", ErrNotFound)
	ErrSharedNotFound       = fmt.Errorf("%w: shared transaction", ErrNotFound)

	ErrCategoryExists       = fmt.Errorf("%w: category name already exists", ErrConflict)
	ErrPredefinedCategory   = fmt.Errorf("%w: predefined categories cannot be modified", ErrConflict)
	ErrSelfRelationship     = fmt.Errorf("%w: cannot create a relationship with yourself", ErrConflict)
	ErrRelationshipPending  = fmt.Errorf("%w: a request between these users is already pending", ErrConflict)
	ErrRelationshipActive   = fmt.Errorf("%w: these users are already partners", ErrConflict)
	ErrPartnerAlreadyActive = fmt.Errorf("%w: one of the users already has an active partner", ErrConflict)
	ErrSharedLegLocked      = fmt.Errorf("%w: amount and date of a shared expense leg cannot be edited", ErrConflict)
)

// Validationf builds an ErrValidation with a specific message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
