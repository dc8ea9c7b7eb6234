//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

package agentfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agent-composer/composer"
	"trpc.group/trpc-go/trpc-agent-composer/mcpcheck"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }

func TestSaveAndLoadLLMAgent(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	data := &composer.LLMAgentData{
		AgentCommon: composer.AgentCommon{
			Name:        "researcher",
			Class:       composer.ClassLLMAgent,
			Description: "Finds sources",
			IsRoot:      true,
			Filename:    "researcher",
		},
		Model:       "gpt-4o",
		Instruction: "Search and cite.",
		Generation: composer.GenerationConfig{
			Temperature:     floatPtr(0.2),
			MaxOutputTokens: intPtr(2048),
		},
		Tools: []string{"google_search"},
		MCPServers: []mcpcheck.ServerConfig{{
			ID:      "srv-1",
			Name:    "files",
			Type:    mcpcheck.TransportStdio,
			Command: "npx",
			Args:    []string{"-y", "@modelcontextprotocol/server-filesystem"},
		}},
		OpenAPITools: []composer.ToolDeclaration{{Name: "listPets", Description: "List pets"}},
		ToolConfigs: map[string]composer.ToolConfig{
			"google_search": {
				RequireConfirmation: boolPtr(true),
				RagSimilarityTopK:   intPtr(5),
			},
		},
		Callbacks: []string{"before_model"},
	}
	require.NoError(t, s.Save(data))

	nodes, err := s.LoadDir()
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	node := nodes[0]
	assert.Equal(t, "researcher", node.ID)
	assert.Equal(t, composer.NodeTypeAgent, node.Type)

	got, ok := node.Data.(*composer.LLMAgentData)
	require.True(t, ok)
	assert.Equal(t, data.AgentCommon, got.AgentCommon)
	assert.Equal(t, data.Model, got.Model)
	assert.Equal(t, data.Instruction, got.Instruction)
	assert.Equal(t, data.Generation, got.Generation)
	assert.Equal(t, data.Tools, got.Tools)
	assert.Equal(t, data.MCPServers, got.MCPServers)
	assert.Equal(t, data.OpenAPITools, got.OpenAPITools)
	assert.Equal(t, data.ToolConfigs, got.ToolConfigs)
	assert.Equal(t, data.Callbacks, got.Callbacks)
}

func TestSaveAndLoadContainerResolvesChildren(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	child := &composer.LLMAgentData{
		AgentCommon: composer.AgentCommon{
			Name:        "writer",
			Class:       composer.ClassLLMAgent,
			Description: "Drafts text",
			Filename:    "writer",
		},
		Model: "gpt-4o-mini",
	}
	parent := &composer.ContainerData{
		AgentCommon: composer.AgentCommon{
			Name:     "pipeline",
			Class:    composer.ClassSequentialAgent,
			Filename: "pipeline",
		},
		ChildAgents: []composer.ChildAgentRef{{Filename: "writer"}},
	}
	require.NoError(t, s.Save(child))
	require.NoError(t, s.Save(parent))

	nodes, err := s.LoadDir()
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	var container *composer.ContainerData
	for _, n := range nodes {
		if c, ok := n.Data.(*composer.ContainerData); ok {
			container = c
		}
	}
	require.NotNil(t, container)
	require.Len(t, container.ChildAgents, 1)
	assert.Equal(t, composer.ChildAgentRef{
		Name:        "writer",
		Class:       composer.ClassLLMAgent,
		Description: "Drafts text",
		Filename:    "writer",
	}, container.ChildAgents[0])
}

func TestLoadDirMissingChildKeepsFilename(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	parent := &composer.ContainerData{
		AgentCommon: composer.AgentCommon{
			Name:     "pipeline",
			Class:    composer.ClassLoopAgent,
			Filename: "pipeline",
		},
		ChildAgents: []composer.ChildAgentRef{{Filename: "ghost"}},
	}
	require.NoError(t, s.Save(parent))

	nodes, err := s.LoadDir()
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	container := nodes[0].Data.(*composer.ContainerData)
	require.Len(t, container.ChildAgents, 1)
	assert.Equal(t, "ghost", container.ChildAgents[0].Filename)
	assert.Empty(t, container.ChildAgents[0].Name)
}

func TestBuildEdges(t *testing.T) {
	nodes := []composer.Node{
		{
			ID:   "pipeline",
			Type: composer.NodeTypeContainer,
			Data: &composer.ContainerData{
				AgentCommon: composer.AgentCommon{Name: "pipeline", Class: composer.ClassSequentialAgent, Filename: "pipeline"},
				ChildAgents: []composer.ChildAgentRef{{Filename: "writer"}, {Filename: "missing"}},
			},
		},
		{
			ID:   "writer",
			Type: composer.NodeTypeAgent,
			Data: &composer.LLMAgentData{
				AgentCommon: composer.AgentCommon{Name: "writer", Class: composer.ClassLLMAgent, Filename: "writer"},
			},
		},
	}
	edges := BuildEdges(nodes)
	assert.Equal(t, []composer.Edge{{Source: "pipeline", Target: "writer"}}, edges)
}

func TestSaveFallsBackToAgentName(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	data := &composer.LLMAgentData{
		AgentCommon: composer.AgentCommon{Name: "solo", Class: composer.ClassLLMAgent},
	}
	require.NoError(t, s.Save(data))
	_, err := os.Stat(filepath.Join(dir, "solo.yaml"))
	require.NoError(t, err)
}

func TestLoadDirUnknownClass(t *testing.T) {
	dir := t.TempDir()
	raw := []byte("name: odd\nagent_class: TeleportAgent\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "odd.yaml"), raw, 0o644))

	_, err := New(dir).LoadDir()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown agent class")
}

func TestLoadDirRejectsUnknownToolConfigKeys(t *testing.T) {
	dir := t.TempDir()
	raw := []byte(`name: a
agent_class: LlmAgent
tool_configs:
  google_search:
    require_confirmatoin: true
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), raw, 0o644))

	_, err := New(dir).LoadDir()
	require.Error(t, err)
}
