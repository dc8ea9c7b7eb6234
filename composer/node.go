//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

// Package composer provides the state model behind the visual agent builder:
// the canonical node/edge store, resynchronization against externally persisted
// agent definitions, and the mutation pipeline the editing surface writes through.
package composer

import (
	"encoding/json"
	"fmt"

	"trpc.group/trpc-go/trpc-agent-composer/mcpcheck"
)

// NodeType represents the type of a node on the canvas.
type NodeType string

const (
	// NodeTypeAgent represents a single LLM-backed agent.
	NodeTypeAgent NodeType = "agent"
	// NodeTypeContainer represents a composite agent (sequential/parallel/loop)
	// whose children are other agents.
	NodeTypeContainer NodeType = "container"
)

// AgentClass identifies the concrete agent implementation behind a node.
type AgentClass string

const (
	// ClassLLMAgent is a single model-backed agent.
	ClassLLMAgent AgentClass = "LlmAgent"
	// ClassSequentialAgent runs its children one after another.
	ClassSequentialAgent AgentClass = "SequentialAgent"
	// ClassParallelAgent runs its children concurrently.
	ClassParallelAgent AgentClass = "ParallelAgent"
	// ClassLoopAgent repeats its children until a stop condition.
	ClassLoopAgent AgentClass = "LoopAgent"
)

// AgentCommon holds the fields shared by every agent node regardless of class.
//
// Filename is the stable external identity assigned by the persistence layer;
// node IDs are canvas-local and may change across reloads while Filename does not.
type AgentCommon struct {
	Name        string     `json:"name"`
	Class       AgentClass `json:"agent_class"`
	Description string     `json:"description,omitempty"`
	IsRoot      bool       `json:"is_root,omitempty"`
	Filename    string     `json:"filename,omitempty"`

	// HasValidationErrors is decoration derived from externally supplied
	// validation results. It is advisory only and never blocks editing.
	HasValidationErrors bool `json:"has_validation_errors,omitempty"`
}

// NodeData is the class-tagged payload of a node. The two implementations are
// LLMAgentData and ContainerData; consumers switch exhaustively on the
// concrete type rather than probing optional fields.
type NodeData interface {
	// Common returns the shared agent fields.
	Common() *AgentCommon
	// Clone returns a deep copy that shares no mutable state with the receiver.
	Clone() NodeData

	nodeType() NodeType
}

// GenerationConfig carries the optional sampling parameters of an LLM agent.
// Each field is independently defaulted by the execution backend when nil.
type GenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"top_p,omitempty"`
	TopK            *int     `json:"top_k,omitempty"`
	MaxOutputTokens *int     `json:"max_output_tokens,omitempty"`
}

// ToolDeclaration describes a single invokable capability imported from an
// external source such as an OpenAPI document.
type ToolDeclaration struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// LLMAgentData is the payload of an LLM-backed agent node.
type LLMAgentData struct {
	AgentCommon

	Model       string           `json:"model,omitempty"`
	Instruction string           `json:"instruction,omitempty"`
	Generation  GenerationConfig `json:"generation_config,omitzero"`

	// Tool collections. Each one maps to a capability section in the
	// properties panel; see SectionTracker for the visibility rule.
	Tools        []string                `json:"tools,omitempty"`
	MCPServers   []mcpcheck.ServerConfig `json:"mcp_servers,omitempty"`
	AgentTools   []string                `json:"agent_tools,omitempty"`
	OpenAPITools []ToolDeclaration       `json:"openapi_tools,omitempty"`
	PythonTools  []string                `json:"python_tools,omitempty"`

	ToolConfigs map[string]ToolConfig `json:"tool_configs,omitempty"`
	Callbacks   []string              `json:"callbacks,omitempty"`
}

// ChildAgentRef is a denormalized read-only projection of a child node for
// display inside a container card. The authoritative parent/child relation is
// expressed as graph edges plus filename references.
type ChildAgentRef struct {
	Name        string     `json:"name"`
	Class       AgentClass `json:"agent_class"`
	Description string     `json:"description,omitempty"`
	Filename    string     `json:"filename,omitempty"`
}

// ContainerData is the payload of a composite agent node.
type ContainerData struct {
	AgentCommon

	ChildAgents []ChildAgentRef `json:"child_agents,omitempty"`
}

// Common returns the shared agent fields.
func (d *LLMAgentData) Common() *AgentCommon { return &d.AgentCommon }

// Common returns the shared agent fields.
func (d *ContainerData) Common() *AgentCommon { return &d.AgentCommon }

func (d *LLMAgentData) nodeType() NodeType  { return NodeTypeAgent }
func (d *ContainerData) nodeType() NodeType { return NodeTypeContainer }

// Clone returns a deep copy of the agent data.
func (d *LLMAgentData) Clone() NodeData {
	out := *d
	out.Generation = d.Generation.clone()
	out.Tools = append([]string(nil), d.Tools...)
	out.AgentTools = append([]string(nil), d.AgentTools...)
	out.PythonTools = append([]string(nil), d.PythonTools...)
	out.OpenAPITools = append([]ToolDeclaration(nil), d.OpenAPITools...)
	out.Callbacks = append([]string(nil), d.Callbacks...)
	if d.MCPServers != nil {
		out.MCPServers = make([]mcpcheck.ServerConfig, len(d.MCPServers))
		for i, s := range d.MCPServers {
			out.MCPServers[i] = s.Clone()
		}
	}
	if d.ToolConfigs != nil {
		out.ToolConfigs = make(map[string]ToolConfig, len(d.ToolConfigs))
		for id, cfg := range d.ToolConfigs {
			out.ToolConfigs[id] = cfg.clone()
		}
	}
	return &out
}

// Clone returns a deep copy of the container data.
func (d *ContainerData) Clone() NodeData {
	out := *d
	out.ChildAgents = append([]ChildAgentRef(nil), d.ChildAgents...)
	return &out
}

func (g GenerationConfig) clone() GenerationConfig {
	out := g
	if g.Temperature != nil {
		v := *g.Temperature
		out.Temperature = &v
	}
	if g.TopP != nil {
		v := *g.TopP
		out.TopP = &v
	}
	if g.TopK != nil {
		v := *g.TopK
		out.TopK = &v
	}
	if g.MaxOutputTokens != nil {
		v := *g.MaxOutputTokens
		out.MaxOutputTokens = &v
	}
	return out
}

// Node is a single element on the canvas. ID is unique within a session and
// never reused; it carries no meaning outside the canvas.
type Node struct {
	ID   string
	Type NodeType
	Data NodeData
}

// Edge connects two nodes by canvas id. Duplicate edges between the same
// ordered pair are not deduplicated at this layer.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := n
	if n.Data != nil {
		out.Data = n.Data.Clone()
	}
	return out
}

type nodeEnvelope struct {
	ID   string          `json:"id"`
	Type NodeType        `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MarshalJSON encodes the node with its class-tagged data payload.
func (n Node) MarshalJSON() ([]byte, error) {
	env := nodeEnvelope{ID: n.ID, Type: n.Type}
	if n.Data != nil {
		raw, err := json.Marshal(n.Data)
		if err != nil {
			return nil, fmt.Errorf("marshal node %s data: %w", n.ID, err)
		}
		env.Data = raw
	}
	return json.Marshal(&env)
}

// UnmarshalJSON decodes the node, selecting the data shape from the type tag.
func (n *Node) UnmarshalJSON(b []byte) error {
	var env nodeEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return fmt.Errorf("unmarshal node: %w", err)
	}
	n.ID = env.ID
	n.Type = env.Type
	n.Data = nil
	if len(env.Data) == 0 {
		return nil
	}
	switch env.Type {
	case NodeTypeAgent:
		data := &LLMAgentData{}
		if err := json.Unmarshal(env.Data, data); err != nil {
			return fmt.Errorf("unmarshal agent node %s: %w", env.ID, err)
		}
		n.Data = data
	case NodeTypeContainer:
		data := &ContainerData{}
		if err := json.Unmarshal(env.Data, data); err != nil {
			return fmt.Errorf("unmarshal container node %s: %w", env.ID, err)
		}
		n.Data = data
	default:
		return fmt.Errorf("unknown node type %q", env.Type)
	}
	return nil
}

// Roots returns the nodes flagged as workflow roots. By convention at most one
// node is a root, but the store does not enforce it; callers may warn when more
// than one is returned.
func Roots(nodes []Node) []Node {
	var out []Node
	for _, n := range nodes {
		if n.Data != nil && n.Data.Common().IsRoot {
			out = append(out, n)
		}
	}
	return out
}
