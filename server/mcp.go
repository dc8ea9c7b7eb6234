//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"trpc.group/trpc-go/trpc-agent-composer/mcpcheck"
)

// validateMCPRequest is the body of POST /api/mcp/validate. It mirrors the
// declared server config; ID is optional and generated when absent.
type validateMCPRequest struct {
	ID      string            `json:"id,omitempty"`
	Name    string            `json:"name,omitempty"`
	Type    string            `json:"type"`
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	URL     string            `json:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

func (s *Server) handleValidateMCP(w http.ResponseWriter, r *http.Request) {
	var req validateMCPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("decode request: %v", err), http.StatusBadRequest)
		return
	}
	switch req.Type {
	case mcpcheck.TransportStdio:
		if req.Command == "" {
			http.Error(w, "command is required for stdio servers", http.StatusBadRequest)
			return
		}
	case mcpcheck.TransportSSE:
		if req.URL == "" {
			http.Error(w, "url is required for sse servers", http.StatusBadRequest)
			return
		}
	default:
		http.Error(w, fmt.Sprintf("unsupported transport %q", req.Type), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	state := s.validator.Validate(r.Context(), mcpcheck.ServerConfig{
		ID:      req.ID,
		Name:    req.Name,
		Type:    req.Type,
		Command: req.Command,
		Args:    req.Args,
		Env:     req.Env,
		URL:     req.URL,
		Headers: req.Headers,
	})
	s.probeCounter.WithLabelValues(string(state.Status)).Inc()
	s.writeJSON(w, state)
}
