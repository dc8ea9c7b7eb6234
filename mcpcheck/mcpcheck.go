//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

// Package mcpcheck validates declared MCP server configurations by probing the
// live server and tracking the observed connection state.
//
// The declared configuration (command/url, persisted with the owning node) and
// the observed runtime state (status, discovered tools) are kept in two
// separate stores joined by server id. Runtime state is never persisted; it is
// reconstructed by re-probing on load.
package mcpcheck

import "sync"

// Transport identifies how a declared server is reached.
const (
	// TransportStdio runs the server as a local process.
	TransportStdio = "stdio"
	// TransportSSE reaches the server over HTTP.
	TransportSSE = "sse"
)

// Status is the observed connection state of a declared server.
type Status string

const (
	// StatusDisconnected means the server has not been probed yet.
	StatusDisconnected Status = "disconnected"
	// StatusConnecting means a probe is in flight.
	StatusConnecting Status = "connecting"
	// StatusConnected means the last probe succeeded.
	StatusConnected Status = "connected"
	// StatusError means the last probe failed.
	StatusError Status = "error"
)

// ServerConfig is the declared configuration of an MCP server. Exactly one of
// the stdio fields (Command/Args/Env) or the remote fields (URL/Headers) is
// meaningful, selected by Type.
type ServerConfig struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Type string `json:"type"`

	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`

	URL     string            `json:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Clone returns a deep copy of the config.
func (c ServerConfig) Clone() ServerConfig {
	out := c
	out.Args = append([]string(nil), c.Args...)
	if c.Env != nil {
		out.Env = make(map[string]string, len(c.Env))
		for k, v := range c.Env {
			out.Env[k] = v
		}
	}
	if c.Headers != nil {
		out.Headers = make(map[string]string, len(c.Headers))
		for k, v := range c.Headers {
			out.Headers[k] = v
		}
	}
	return out
}

// ToolState is a discovered capability plus its local enabled bit.
type ToolState struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// RuntimeState is the ephemeral, per-server observation produced by probing.
type RuntimeState struct {
	Status       Status      `json:"status"`
	Tools        []ToolState `json:"tools,omitempty"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
}

func (s RuntimeState) clone() RuntimeState {
	out := s
	out.Tools = append([]ToolState(nil), s.Tools...)
	return out
}

// Registry joins declared server configs with their observed runtime state.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]ServerConfig
	states  map[string]RuntimeState
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		configs: make(map[string]ServerConfig),
		states:  make(map[string]RuntimeState),
	}
}

// Declare stores or replaces the declared config for a server. The runtime
// state of a newly declared server starts as disconnected.
func (r *Registry) Declare(cfg ServerConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[cfg.ID] = cfg.Clone()
	if _, ok := r.states[cfg.ID]; !ok {
		r.states[cfg.ID] = RuntimeState{Status: StatusDisconnected}
	}
}

// Forget drops both the declared config and the runtime state of a server.
func (r *Registry) Forget(serverID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.configs, serverID)
	delete(r.states, serverID)
}

// Config returns the declared config for a server.
func (r *Registry) Config(serverID string) (ServerConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[serverID]
	if !ok {
		return ServerConfig{}, false
	}
	return cfg.Clone(), true
}

// State returns the observed runtime state for a server. Unknown servers
// report disconnected.
func (r *Registry) State(serverID string) RuntimeState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.states[serverID]
	if !ok {
		return RuntimeState{Status: StatusDisconnected}
	}
	return st.clone()
}

// Toggle flips the enabled bit of a single discovered tool. It does not
// re-probe. The return reports whether the tool was found.
func (r *Registry) Toggle(serverID, toolName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.states[serverID]
	if !ok {
		return false
	}
	for i := range st.Tools {
		if st.Tools[i].Name == toolName {
			st.Tools[i].Enabled = !st.Tools[i].Enabled
			r.states[serverID] = st
			return true
		}
	}
	return false
}

func (r *Registry) setState(serverID string, st RuntimeState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[serverID] = st
}
