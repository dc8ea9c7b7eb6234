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
)

func TestSectionVisibility(t *testing.T) {
	withTools := Node{ID: "n", Type: NodeTypeAgent, Data: &LLMAgentData{
		AgentCommon: AgentCommon{Name: "n"},
		Tools:       []string{"google_search"},
	}}
	empty := Node{ID: "e", Type: NodeTypeAgent, Data: &LLMAgentData{
		AgentCommon: AgentCommon{Name: "e"},
	}}

	tr := NewSectionTracker()

	// Data presence alone shows a section.
	assert.True(t, tr.Visible(withTools, SectionBuiltin))
	assert.False(t, tr.Visible(withTools, SectionMCP))

	// An empty section becomes visible only once explicitly expanded.
	assert.False(t, tr.Visible(empty, SectionPython))
	tr.Expand("e", SectionPython)
	assert.True(t, tr.Visible(empty, SectionPython))
	tr.Collapse("e", SectionPython)
	assert.False(t, tr.Visible(empty, SectionPython))

	// Collapsing a section that has data does not hide it.
	tr.Expand("n", SectionBuiltin)
	tr.Collapse("n", SectionBuiltin)
	assert.True(t, tr.Visible(withTools, SectionBuiltin))
}

func TestSectionVisibilityPerNode(t *testing.T) {
	a := Node{ID: "a", Type: NodeTypeAgent, Data: &LLMAgentData{AgentCommon: AgentCommon{Name: "a"}}}
	b := Node{ID: "b", Type: NodeTypeAgent, Data: &LLMAgentData{AgentCommon: AgentCommon{Name: "b"}}}

	tr := NewSectionTracker()
	tr.Expand("a", SectionMCP)

	assert.True(t, tr.Visible(a, SectionMCP))
	assert.False(t, tr.Visible(b, SectionMCP))
}

func TestContainerNodesHaveNoSections(t *testing.T) {
	c := containerNode("seq", "sequence", ClassSequentialAgent)
	tr := NewSectionTracker()

	for _, section := range []Section{SectionBuiltin, SectionMCP, SectionAgent, SectionOpenAPI, SectionPython} {
		assert.False(t, tr.Visible(c, section))
	}

	// Expansion still works as a pure UI override.
	tr.Expand("seq", SectionAgent)
	assert.True(t, tr.Visible(c, SectionAgent))
}
