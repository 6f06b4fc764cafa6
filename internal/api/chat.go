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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"bubu-finance-go/internal/intent"
	"bubu-finance-go/internal/orchestrator"
)

const maxBodyBytes = 1 << 20

type chatRequest struct {
	Phone    string `json:"phone"`
	Text     string `json:"text"`
	ButtonId string `json:"buttonId"`
}

type transactionRequest struct {
	Phone       string  `json:"phone"`
	Amount      any     `json:"amount,omitempty"`
	Category    string  `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
	Date        string  `json:"date,omitempty"`
}

type resultResponse struct {
	Success bool                 `json:"success"`
	Intent  intent.Action        `json:"intent,omitempty"`
	Result  *orchestrator.Result `json:"result"`
}

func (s *ChatService) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Phone) == "" {
		writeError(w, http.StatusBadRequest, "phone is required")
		return
	}

	var (
		result *orchestrator.Result
		err    error
	)
	switch {
	case strings.TrimSpace(req.ButtonId) != "":
		result, err = s.orchestrator.HandleButton(r.Context(), req.Phone, req.ButtonId)
	case strings.TrimSpace(req.Text) != "":
		result, err = s.orchestrator.HandleMessage(r.Context(), req.Phone, req.Text)
	default:
		writeError(w, http.StatusBadRequest, "text or buttonId is required")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Domain failures are part of the conversation; the response generator
	// turns them into a reply.
	writeJSON(w, http.StatusOK, resultResponse{Success: !result.Failed(), Intent: result.Action, Result: result})
}

func (s *ChatService) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Phone) == "" {
		writeError(w, http.StatusBadRequest, "phone is required")
		return
	}

	result, err := s.orchestrator.DeleteTransaction(r.Context(), req.Phone, r.PathValue("id"))
	writeResult(w, result, err)
}

func (s *ChatService) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Phone) == "" {
		writeError(w, http.StatusBadRequest, "phone is required")
		return
	}

	params := intent.Params{}
	if req.Amount != nil {
		params["amount"] = req.Amount
	}
	if req.Category != "" {
		params["category"] = req.Category
	}
	if req.Description != nil {
		params["description"] = *req.Description
	}
	if req.Date != "" {
		params["date"] = req.Date
	}
	if len(params) == 0 {
		writeError(w, http.StatusBadRequest, "amount, category, description or date is required")
		return
	}

	result, err := s.orchestrator.UpdateTransaction(r.Context(), req.Phone, r.PathValue("id"), params)
	writeResult(w, result, err)
}

// writeResult maps a direct operation's result onto an HTTP status.
func writeResult(w http.ResponseWriter, result *orchestrator.Result, err error) {
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if result.Failed() {
		writeError(w, statusFor(result.ErrorKind), result.Detail)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{Success: true, Intent: result.Action, Result: result})
}

func statusFor(kind orchestrator.ErrorKind) int {
	switch kind {
	case orchestrator.KindValidation:
		return http.StatusBadRequest
	case orchestrator.KindNotFound:
		return http.StatusNotFound
	case orchestrator.KindConflict, orchestrator.KindNoRelationship:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "request body is required")
		} else {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
		}
		return false
	}
	return true
}
