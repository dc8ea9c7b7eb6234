//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

package evalset

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidInitialState reports unparseable JSON in a session's free-text
// initial state field. It surfaces as a user-facing validation error and never
// aborts the surrounding save flow.
var ErrInvalidInitialState = errors.New("invalid JSON in initial state")

// Part is one piece of message content.
type Part struct {
	Text string `json:"text"`
}

// Content is a single message in a scripted conversation.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// ToolUse records an expected tool invocation within a turn.
type ToolUse struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// IntermediateData contains the expected intermediate steps of a turn.
type IntermediateData struct {
	ToolUses []ToolUse `json:"tool_uses,omitempty"`
}

// Invocation is a single turn of a scripted conversation: the user input plus
// the expected agent behavior.
type Invocation struct {
	InvocationID      string            `json:"invocation_id,omitempty"`
	UserContent       *Content          `json:"user_content,omitempty"`
	FinalResponse     *Content          `json:"final_response,omitempty"`
	IntermediateData  *IntermediateData `json:"intermediate_data,omitempty"`
	CreationTimestamp time.Time         `json:"creation_timestamp,omitzero"`
}

// SessionInput carries values that initialize the session before a case runs.
type SessionInput struct {
	AppName string         `json:"app_name,omitempty"`
	UserID  string         `json:"user_id,omitempty"`
	State   map[string]any `json:"state,omitempty"`
}

// ParseInitialState decodes the free-text initial state JSON entered in the
// UI into the session state map. An empty string clears the state.
func (s *SessionInput) ParseInitialState(raw string) error {
	if raw == "" {
		s.State = nil
		return nil
	}
	var state map[string]any
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return ErrInvalidInitialState
	}
	s.State = state
	return nil
}

// EvalCase is a single evaluation case: one scripted conversation.
type EvalCase struct {
	EvalID            string        `json:"eval_id"`
	Conversation      []Invocation  `json:"conversation"`
	SessionInput      *SessionInput `json:"session_input,omitempty"`
	CreationTimestamp time.Time     `json:"creation_timestamp,omitzero"`
}

// NewCase creates a fresh case with a single empty conversation turn, ready
// for the user to fill in. This backs the UI's add-conversation flow.
func NewCase() *EvalCase {
	now := time.Now().UTC()
	return &EvalCase{
		EvalID: uuid.NewString(),
		Conversation: []Invocation{{
			InvocationID:      uuid.NewString(),
			UserContent:       &Content{Role: "user", Parts: []Part{{Text: ""}}},
			CreationTimestamp: now,
		}},
		CreationTimestamp: now,
	}
}
