//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

package composer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func llmNode(id, name string) Node {
	return Node{
		ID:   id,
		Type: NodeTypeAgent,
		Data: &LLMAgentData{AgentCommon: AgentCommon{Name: name, Class: ClassLLMAgent}},
	}
}

func containerNode(id, name string, class AgentClass) Node {
	return Node{
		ID:   id,
		Type: NodeTypeContainer,
		Data: &ContainerData{AgentCommon: AgentCommon{Name: name, Class: class}},
	}
}

func TestStoreRemoveNodeCascadesEdges(t *testing.T) {
	tests := []struct {
		name   string
		edges  []Edge
		remove string
		want   []Edge
	}{
		{
			name:   "source and target edges removed",
			edges:  []Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "c"}, {Source: "a", Target: "c"}},
			remove: "b",
			want:   []Edge{{Source: "a", Target: "c"}},
		},
		{
			name:   "duplicate edges all removed",
			edges:  []Edge{{Source: "a", Target: "b"}, {Source: "a", Target: "b"}},
			remove: "a",
			want:   []Edge{},
		},
		{
			name:   "unrelated edges survive",
			edges:  []Edge{{Source: "b", Target: "c"}},
			remove: "a",
			want:   []Edge{{Source: "b", Target: "c"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			s.SetNodes([]Node{llmNode("a", "a"), llmNode("b", "b"), llmNode("c", "c")})
			s.SetEdges(tt.edges)

			s.RemoveNode(tt.remove)

			require.Equal(t, tt.want, s.Edges())
			for _, n := range s.Nodes() {
				assert.NotEqual(t, tt.remove, n.ID)
			}
		})
	}
}

func TestStoreSelectMissingIDClearsSelection(t *testing.T) {
	var got []*Node
	s := NewStore(WithOnSelect(func(n *Node) { got = append(got, n) }))
	s.SetNodes([]Node{llmNode("a", "a")})

	s.Select("a")
	_, ok := s.Selected()
	require.True(t, ok)

	s.Select("missing")
	_, ok = s.Selected()
	require.False(t, ok)

	require.Len(t, got, 2)
	require.NotNil(t, got[0])
	assert.Equal(t, "a", got[0].ID)
	assert.Nil(t, got[1])
}

func TestStoreNotifiesOnChangeWithFreshState(t *testing.T) {
	var notified int
	var lastNodes []Node
	var lastEdges []Edge
	s := NewStore(WithOnChange(func(nodes []Node, edges []Edge) {
		notified++
		lastNodes = nodes
		lastEdges = edges
	}))

	s.SetNodes([]Node{llmNode("a", "a"), llmNode("b", "b")})
	require.NoError(t, s.Connect("a", "b"))
	s.RemoveNode("b")

	assert.Equal(t, 3, notified)
	require.Len(t, lastNodes, 1)
	assert.Equal(t, "a", lastNodes[0].ID)
	assert.Empty(t, lastEdges)
}

func TestStoreAddNodeRejectsDuplicateID(t *testing.T) {
	s := NewStore()
	_, err := s.AddNode("a", &LLMAgentData{AgentCommon: AgentCommon{Name: "first"}})
	require.NoError(t, err)

	_, err = s.AddNode("a", &LLMAgentData{AgentCommon: AgentCommon{Name: "second"}})
	require.Error(t, err)
}

func TestStoreAddNodeDerivesType(t *testing.T) {
	s := NewStore()
	agent, err := s.AddNode("a", &LLMAgentData{AgentCommon: AgentCommon{Name: "agent"}})
	require.NoError(t, err)
	assert.Equal(t, NodeTypeAgent, agent.Type)

	seq, err := s.AddNode("c", &ContainerData{AgentCommon: AgentCommon{Name: "seq", Class: ClassSequentialAgent}})
	require.NoError(t, err)
	assert.Equal(t, NodeTypeContainer, seq.Type)
}

func TestStoreConnectUnknownNode(t *testing.T) {
	s := NewStore()
	s.SetNodes([]Node{llmNode("a", "a")})
	require.Error(t, s.Connect("a", "ghost"))
	assert.Empty(t, s.Edges())
}

func TestStoreCallbackMayReenterStore(t *testing.T) {
	var s *Store
	s = NewStore(WithOnChange(func(nodes []Node, edges []Edge) {
		// Collaborators read back from the store when notified.
		_ = s.Nodes()
		_ = s.Edges()
	}))
	s.SetNodes([]Node{llmNode("a", "a")})
	s.RemoveNode("a")
}

func TestStoreSnapshotsAreIsolated(t *testing.T) {
	s := NewStore()
	s.SetNodes([]Node{llmNode("a", "a")})

	nodes := s.Nodes()
	nodes[0].Data.Common().Name = "mutated"

	fresh := s.Nodes()
	assert.Equal(t, "a", fresh[0].Data.Common().Name)
}
