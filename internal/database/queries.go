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

package database

const (
	// User queries
	queryInsertUserIgnore = `
		INSERT OR IGNORE INTO users (phone, name, created_at) VALUES (?, ?, ?)`

	queryGetUser = `
		SELECT phone, name, created_at
		FROM users
		WHERE phone = ?`

	queryListUsers = `
		SELECT phone, name, created_at
		FROM users
		ORDER BY created_at`

	queryUpdateUserName = `
		UPDATE users SET name = ? WHERE phone = ?`

	// Category queries
	categoryColumns = `id, name, type, color, icon, is_predefined, created_at`

	queryGetCategory = `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE id = ?`

	queryFindCategoryByName = `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE name = ?`

	queryListCategories = `
		SELECT ` + categoryColumns + `
		FROM categories
		ORDER BY type, is_predefined DESC, name`

	queryInsertCategory = `
		INSERT INTO categories (id, name, type, color, icon, is_predefined, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryDeleteCategory = `
		DELETE FROM categories WHERE id = ?`

	// Transaction queries
	transactionColumns = `
		t.id, t.phone, t.category_id, COALESCE(c.name, ''), t.type, t.amount, t.description,
		t.transaction_date, t.is_shared, t.shared_transaction_id, t.created_at`

	queryGetTransaction = `
		SELECT ` + transactionColumns + `
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.id = ?`

	queryListTransactionsBase = `
		SELECT ` + transactionColumns + `
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.phone = ?`

	queryListTransactionsOrder = `
		ORDER BY t.transaction_date DESC, t.rowid DESC
		LIMIT ?`

	queryInsertTransaction = `
		INSERT INTO transactions (
			id, phone, category_id, type, amount, description, transaction_date,
			is_shared, shared_transaction_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryDeleteTransaction = `
		DELETE FROM transactions WHERE id = ? AND phone = ?`

	queryCheckTransactionOwner = `
		SELECT 1 FROM transactions WHERE id = ? AND phone = ?`

	queryReassignCategory = `
		UPDATE transactions SET category_id = ? WHERE category_id = ?`

	queryReassignCategoryForPhone = `
		UPDATE transactions SET category_id = ? WHERE category_id = ? AND phone = ?`

	// Relationship queries
	relationshipColumns = `
		id, phone_1, phone_2, default_split_1, default_split_2, status, created_at, updated_at`

	queryFindRelationshipByPair = `
		SELECT ` + relationshipColumns + `
		FROM relationships
		WHERE pair_key = ?`

	queryGetActiveRelationship = `
		SELECT ` + relationshipColumns + `
		FROM relationships
		WHERE status = 'active' AND (phone_1 = ? OR phone_2 = ?)
		ORDER BY updated_at DESC
		LIMIT 1`

	queryInsertRelationship = `
		INSERT INTO relationships (
			id, phone_1, phone_2, pair_key, default_split_1, default_split_2, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryUpdateRelationship = `
		UPDATE relationships
		SET phone_1 = ?, phone_2 = ?, default_split_1 = ?, default_split_2 = ?, status = ?, updated_at = ?
		WHERE id = ?`

	queryActivateRelationship = `
		UPDATE relationships
		SET status = 'active', updated_at = ?
		WHERE id = ? AND status = 'pending'
		AND NOT EXISTS (
			SELECT 1 FROM relationships
			WHERE status = 'active' AND (phone_1 IN (?, ?) OR phone_2 IN (?, ?))
		)`

	queryListPendingRelationships = `
		SELECT ` + relationshipColumns + `
		FROM relationships
		WHERE phone_2 = ? AND status = 'pending'
		ORDER BY updated_at DESC`

	// Shared transaction queries
	sharedColumns = `
		id, relationship_id, transaction_1_id, transaction_2_id, phone_1, phone_2, payer_phone,
		total_amount, split_percentage_1, split_percentage_2, amount_1, amount_2,
		type, description, expense_date, created_at`

	queryInsertShared = `
		INSERT INTO shared_transactions (` + sharedColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetShared = `
		SELECT ` + sharedColumns + `
		FROM shared_transactions
		WHERE id = ?`

	queryListSharedBase = `
		SELECT ` + sharedColumns + `
		FROM shared_transactions
		WHERE ((phone_1 = ? AND phone_2 = ?) OR (phone_1 = ? AND phone_2 = ?))`

	queryDeleteShared = `
		DELETE FROM shared_transactions WHERE id = ?`

	queryDeleteSharedLegs = `
		DELETE FROM transactions WHERE shared_transaction_id = ?`
)
