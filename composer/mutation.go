//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

package composer

import "fmt"

// Pipeline applies partial updates to the selected node's data with two commit
// semantics: local-only (high-frequency edits, no persistence write) and
// committed (additionally invokes the external persistence callback).
//
// Every update reads the node state current at call time, so back-to-back
// updates compose instead of clobbering each other.
type Pipeline struct {
	store             *Store
	onNodeDataChanged func(nodeID string, data NodeData)
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithOnNodeDataChanged sets the external persistence callback fired by
// committed updates with the node id and its fully merged data.
func WithOnNodeDataChanged(fn func(nodeID string, data NodeData)) PipelineOption {
	return func(p *Pipeline) { p.onNodeDataChanged = fn }
}

// NewPipeline creates a pipeline writing through the given store.
func NewPipeline(store *Store, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// UpdateLocal merges a change into the selected node's data and notifies the
// graph-changed collaborator, without invoking the persistence callback. Used
// for keystroke-level edits to avoid redundant writes.
func (p *Pipeline) UpdateLocal(apply func(NodeData) error) error {
	_, err := p.store.mutateSelected(apply)
	return err
}

// UpdateCommitted performs the same merge and notification as UpdateLocal and
// additionally invokes the persistence callback with the merged data. Used on
// blur and explicit-save interactions.
func (p *Pipeline) UpdateCommitted(apply func(NodeData) error) error {
	node, err := p.store.mutateSelected(apply)
	if err != nil {
		return err
	}
	if p.onNodeDataChanged != nil {
		p.onNodeDataChanged(node.ID, node.Data)
	}
	return nil
}

// UpdateToolConfig is a committed update that merges one tool's config into
// the selected node's tool config map. Only the given tool id is touched, so
// rapid sequential calls for different tools never lose each other's writes.
func (p *Pipeline) UpdateToolConfig(toolID string, cfg ToolConfig) error {
	return p.UpdateCommitted(func(data NodeData) error {
		agent, ok := data.(*LLMAgentData)
		if !ok {
			return fmt.Errorf("tool config update on non-LLM agent %q", data.Common().Name)
		}
		if agent.ToolConfigs == nil {
			agent.ToolConfigs = make(map[string]ToolConfig)
		}
		agent.ToolConfigs[toolID] = cfg
		return nil
	})
}
