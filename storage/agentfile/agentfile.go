//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

// Package agentfile persists agent definitions as YAML files, one file per
// agent, keyed by filename. The composer treats these files as the external
// source of truth it resynchronizes against.
package agentfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"trpc.group/trpc-go/trpc-agent-composer/composer"
	"trpc.group/trpc-go/trpc-agent-composer/mcpcheck"
)

const (
	fileSuffix            = ".yaml"
	defaultTempFileSuffix = ".tmp"
	defaultDirPermission  = 0o755
	defaultFilePermission = 0o644
)

// Store reads and writes agent definition files under a single directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// definition is the on-disk YAML shape of one agent file.
type definition struct {
	Name        string                    `yaml:"name"`
	AgentClass  composer.AgentClass       `yaml:"agent_class"`
	Description string                    `yaml:"description,omitempty"`
	IsRoot      bool                      `yaml:"is_root,omitempty"`
	Model       string                    `yaml:"model,omitempty"`
	Instruction string                    `yaml:"instruction,omitempty"`
	Generation  *generation               `yaml:"generation_config,omitempty"`
	Tools       []string                  `yaml:"tools,omitempty"`
	MCPServers  []mcpServer               `yaml:"mcp_servers,omitempty"`
	AgentTools  []string                  `yaml:"agent_tools,omitempty"`
	OpenAPI     []toolDeclaration         `yaml:"openapi_tools,omitempty"`
	PythonTools []string                  `yaml:"python_tools,omitempty"`
	ToolConfigs map[string]map[string]any `yaml:"tool_configs,omitempty"`
	Callbacks   []string                  `yaml:"callbacks,omitempty"`
	SubAgents   []string                  `yaml:"sub_agents,omitempty"`
}

type generation struct {
	Temperature     *float64 `yaml:"temperature,omitempty"`
	TopP            *float64 `yaml:"top_p,omitempty"`
	TopK            *int     `yaml:"top_k,omitempty"`
	MaxOutputTokens *int     `yaml:"max_output_tokens,omitempty"`
}

type mcpServer struct {
	ID      string            `yaml:"id,omitempty"`
	Name    string            `yaml:"name"`
	Type    string            `yaml:"type"`
	Command string            `yaml:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	URL     string            `yaml:"url,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

type toolDeclaration struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// LoadDir reads every agent file in the store directory and returns the
// corresponding nodes. Container child references are resolved against the
// other files of the same directory; a reference to a missing file keeps the
// filename and leaves the rest of the child projection empty.
func (s *Store) LoadDir() ([]composer.Node, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read agents dir %s: %w", s.dir, err)
	}
	defs := make(map[string]*definition)
	var filenames []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		filename := strings.TrimSuffix(e.Name(), fileSuffix)
		def, err := s.loadFile(e.Name())
		if err != nil {
			return nil, err
		}
		defs[filename] = def
		filenames = append(filenames, filename)
	}
	sort.Strings(filenames)

	nodes := make([]composer.Node, 0, len(defs))
	for _, filename := range filenames {
		node, err := toNode(filename, defs[filename], defs)
		if err != nil {
			return nil, fmt.Errorf("agent file %s%s: %w", filename, fileSuffix, err)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// Save writes the agent definition to <filename>.yaml. The filename is taken
// from the data's Filename field, falling back to the agent name.
func (s *Store) Save(data composer.NodeData) error {
	if data == nil {
		return fmt.Errorf("node data is nil")
	}
	common := data.Common()
	filename := common.Filename
	if filename == "" {
		filename = common.Name
	}
	if filename == "" {
		return fmt.Errorf("agent has neither filename nor name")
	}
	def, err := toDefinition(data)
	if err != nil {
		return fmt.Errorf("encode agent %s: %w", filename, err)
	}
	raw, err := yaml.Marshal(def)
	if err != nil {
		return fmt.Errorf("marshal agent %s: %w", filename, err)
	}
	if err := os.MkdirAll(s.dir, defaultDirPermission); err != nil {
		return fmt.Errorf("mkdir all %s: %w", s.dir, err)
	}
	path := filepath.Join(s.dir, filename+fileSuffix)
	tmp := path + defaultTempFileSuffix
	if err := os.WriteFile(tmp, raw, defaultFilePermission); err != nil {
		return fmt.Errorf("write file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename file %s to %s: %w", tmp, path, err)
	}
	return nil
}

// BuildEdges derives canvas edges from container child references: one edge
// from each container to every child whose filename matches a loaded node.
func BuildEdges(nodes []composer.Node) []composer.Edge {
	byFilename := make(map[string]string, len(nodes))
	for _, n := range nodes {
		if n.Data == nil {
			continue
		}
		if filename := n.Data.Common().Filename; filename != "" {
			byFilename[filename] = n.ID
		}
	}
	var edges []composer.Edge
	for _, n := range nodes {
		container, ok := n.Data.(*composer.ContainerData)
		if !ok {
			continue
		}
		for _, child := range container.ChildAgents {
			target, ok := byFilename[child.Filename]
			if !ok {
				continue
			}
			edges = append(edges, composer.Edge{Source: n.ID, Target: target})
		}
	}
	return edges
}

func (s *Store) loadFile(name string) (*definition, error) {
	path := filepath.Join(s.dir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	var def definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("unmarshal file %s: %w", path, err)
	}
	return &def, nil
}

func toNode(filename string, def *definition, all map[string]*definition) (composer.Node, error) {
	common := composer.AgentCommon{
		Name:        def.Name,
		Class:       def.AgentClass,
		Description: def.Description,
		IsRoot:      def.IsRoot,
		Filename:    filename,
	}
	switch def.AgentClass {
	case composer.ClassLLMAgent:
		data := &composer.LLMAgentData{
			AgentCommon: common,
			Model:       def.Model,
			Instruction: def.Instruction,
			Tools:       def.Tools,
			AgentTools:  def.AgentTools,
			PythonTools: def.PythonTools,
			Callbacks:   def.Callbacks,
		}
		if def.Generation != nil {
			data.Generation = composer.GenerationConfig{
				Temperature:     def.Generation.Temperature,
				TopP:            def.Generation.TopP,
				TopK:            def.Generation.TopK,
				MaxOutputTokens: def.Generation.MaxOutputTokens,
			}
		}
		for _, srv := range def.MCPServers {
			data.MCPServers = append(data.MCPServers, mcpcheck.ServerConfig{
				ID:      srv.ID,
				Name:    srv.Name,
				Type:    srv.Type,
				Command: srv.Command,
				Args:    srv.Args,
				Env:     srv.Env,
				URL:     srv.URL,
				Headers: srv.Headers,
			})
		}
		for _, tool := range def.OpenAPI {
			data.OpenAPITools = append(data.OpenAPITools, composer.ToolDeclaration{
				Name:        tool.Name,
				Description: tool.Description,
			})
		}
		if len(def.ToolConfigs) > 0 {
			data.ToolConfigs = make(map[string]composer.ToolConfig, len(def.ToolConfigs))
			for id, raw := range def.ToolConfigs {
				cfg, err := composer.DecodeToolConfig(raw)
				if err != nil {
					return composer.Node{}, fmt.Errorf("tool config %s: %w", id, err)
				}
				data.ToolConfigs[id] = cfg
			}
		}
		return composer.Node{ID: filename, Type: composer.NodeTypeAgent, Data: data}, nil
	case composer.ClassSequentialAgent, composer.ClassParallelAgent, composer.ClassLoopAgent:
		data := &composer.ContainerData{AgentCommon: common}
		for _, childFile := range def.SubAgents {
			ref := composer.ChildAgentRef{Filename: childFile}
			if child, ok := all[childFile]; ok {
				ref.Name = child.Name
				ref.Class = child.AgentClass
				ref.Description = child.Description
			}
			data.ChildAgents = append(data.ChildAgents, ref)
		}
		return composer.Node{ID: filename, Type: composer.NodeTypeContainer, Data: data}, nil
	default:
		return composer.Node{}, fmt.Errorf("unknown agent class %q", def.AgentClass)
	}
}

func toDefinition(data composer.NodeData) (*definition, error) {
	common := data.Common()
	def := &definition{
		Name:        common.Name,
		AgentClass:  common.Class,
		Description: common.Description,
		IsRoot:      common.IsRoot,
	}
	switch d := data.(type) {
	case *composer.LLMAgentData:
		def.Model = d.Model
		def.Instruction = d.Instruction
		def.Tools = d.Tools
		def.AgentTools = d.AgentTools
		def.PythonTools = d.PythonTools
		def.Callbacks = d.Callbacks
		if d.Generation != (composer.GenerationConfig{}) {
			def.Generation = &generation{
				Temperature:     d.Generation.Temperature,
				TopP:            d.Generation.TopP,
				TopK:            d.Generation.TopK,
				MaxOutputTokens: d.Generation.MaxOutputTokens,
			}
		}
		for _, srv := range d.MCPServers {
			def.MCPServers = append(def.MCPServers, mcpServer{
				ID:      srv.ID,
				Name:    srv.Name,
				Type:    srv.Type,
				Command: srv.Command,
				Args:    srv.Args,
				Env:     srv.Env,
				URL:     srv.URL,
				Headers: srv.Headers,
			})
		}
		for _, tool := range d.OpenAPITools {
			def.OpenAPI = append(def.OpenAPI, toolDeclaration{
				Name:        tool.Name,
				Description: tool.Description,
			})
		}
		if len(d.ToolConfigs) > 0 {
			def.ToolConfigs = make(map[string]map[string]any, len(d.ToolConfigs))
			for id, cfg := range d.ToolConfigs {
				raw, err := encodeToolConfig(cfg)
				if err != nil {
					return nil, fmt.Errorf("tool config %s: %w", id, err)
				}
				def.ToolConfigs[id] = raw
			}
		}
	case *composer.ContainerData:
		for _, child := range d.ChildAgents {
			def.SubAgents = append(def.SubAgents, child.Filename)
		}
	default:
		return nil, fmt.Errorf("unknown node data type %T", data)
	}
	return def, nil
}

// encodeToolConfig flattens a ToolConfig into the loose map shape the YAML
// file stores, using the same keys DecodeToolConfig accepts.
func encodeToolConfig(cfg composer.ToolConfig) (map[string]any, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal tool config: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal tool config: %w", err)
	}
	return out, nil
}
