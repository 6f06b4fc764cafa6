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

import (
	"context"
	"time"
)

type messageContextKey struct{}

// MessageContext carries inbound message metadata through context so
// services can log it without widening their signatures.
type MessageContext struct {
	MessageId  string    // transport message id (WhatsApp wamid or web request id)
	Channel    string    // "whatsapp" or "web"
	ReceivedAt time.Time // when the transport accepted the message
}

// WithMessageContext attaches inbound message metadata to a context.
func WithMessageContext(ctx context.Context, mc *MessageContext) context.Context {
	return context.WithValue(ctx, messageContextKey{}, mc)
}

// GetMessageContext retrieves inbound message metadata from context, or nil if absent.
func GetMessageContext(ctx context.Context) *MessageContext {
	mc, _ := ctx.Value(messageContextKey{}).(*MessageContext)
	return mc
}
