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

// Package notify is the outbound side of the assistant: events sent to a
// user outside of their own request/response cycle.
package notify

import (
	"context"

	"go.uber.org/zap"
)

type Event string

const (
	RelationshipRequestReceived Event = "relationship_request_received"
	RelationshipAccepted        Event = "relationship_accepted"
	RelationshipRejected        Event = "relationship_rejected"
	SharedExpenseCreated        Event = "shared_expense_created"
	DefaultSplitUpdated         Event = "default_split_updated"
)

// Notifier delivers an event to phone. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, phone string, event Event, payload map[string]any) error
}

// LogNotifier writes events to the structured log instead of a transport.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, phone string, event Event, payload map[string]any) error {
	zap.L().Info("Notification",
		zap.String("phone", phone),
		zap.String("event", string(event)),
		zap.Any("payload", payload))
	return nil
}
