//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

package composer

import "sync"

// Section identifies one of the optional capability sections of an agent node.
type Section string

const (
	// SectionBuiltin covers the built-in tool list.
	SectionBuiltin Section = "builtin"
	// SectionMCP covers declared MCP servers.
	SectionMCP Section = "mcp"
	// SectionAgent covers sub-agent tools.
	SectionAgent Section = "agent"
	// SectionOpenAPI covers tools imported from OpenAPI documents.
	SectionOpenAPI Section = "openapi"
	// SectionPython covers custom code tools.
	SectionPython Section = "python"
)

// SectionTracker records, per node id, which capability sections the user has
// explicitly opted to show. The state is a UI convenience only: it is never
// persisted and resets on reload.
type SectionTracker struct {
	mu       sync.RWMutex
	expanded map[string]map[Section]bool
}

// NewSectionTracker creates an empty tracker.
func NewSectionTracker() *SectionTracker {
	return &SectionTracker{expanded: make(map[string]map[Section]bool)}
}

// Expand marks a section as explicitly shown for a node, so the user can add
// the first item to an otherwise empty section.
func (t *SectionTracker) Expand(nodeID string, section Section) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.expanded[nodeID]
	if !ok {
		set = make(map[Section]bool)
		t.expanded[nodeID] = set
	}
	set[section] = true
}

// Collapse removes the explicit-show mark for a node's section.
func (t *SectionTracker) Collapse(nodeID string, section Section) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if set, ok := t.expanded[nodeID]; ok {
		delete(set, section)
		if len(set) == 0 {
			delete(t.expanded, nodeID)
		}
	}
}

// Visible reports whether a section should be rendered for the node: true when
// the section's data collection is non-empty, or when the user expanded it.
// A section with items is always shown regardless of tracker state.
func (t *SectionTracker) Visible(node Node, section Section) bool {
	if sectionHasData(node, section) {
		return true
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.expanded[node.ID][section]
}

func sectionHasData(node Node, section Section) bool {
	data, ok := node.Data.(*LLMAgentData)
	if !ok {
		// Container agents carry no capability sections.
		return false
	}
	switch section {
	case SectionBuiltin:
		return len(data.Tools) > 0
	case SectionMCP:
		return len(data.MCPServers) > 0
	case SectionAgent:
		return len(data.AgentTools) > 0
	case SectionOpenAPI:
		return len(data.OpenAPITools) > 0
	case SectionPython:
		return len(data.PythonTools) > 0
	default:
		return false
	}
}
