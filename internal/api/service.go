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

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bubu-finance-go/internal/orchestrator"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ChatService exposes the orchestrator over HTTP
type ChatService struct {
	orchestrator *orchestrator.Orchestrator
	db           Pinger
}

func NewChatService(o *orchestrator.Orchestrator, db Pinger) *ChatService {
	return &ChatService{
		orchestrator: o,
		db:           db,
	}
}

func (s *ChatService) HealthCheck(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Handler returns the routed handler with logging, recovery and message
// metadata applied. Cleartext HTTP/2 is accepted alongside HTTP/1.1.
func (s *ChatService) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat/message", s.handleChatMessage)
	mux.HandleFunc("DELETE /transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("PUT /transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	handler := recovery(logging(messageContext(mux)))
	return h2c.NewHandler(handler, &http2.Server{})
}

// NewServer builds the HTTP server for addr.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func (s *ChatService) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.HealthCheck(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "unhealthy")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  "healthy",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
