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
	"errors"
	"fmt"
	"sync"
)

// ErrNoSelection is returned by mutations that require a selected node.
var ErrNoSelection = errors.New("no node selected")

// Store is the single source of truth for the rendered node/edge slices and
// the current selection. All writers go through the store or the Pipeline;
// no other component mutates the slices directly.
type Store struct {
	mu       sync.RWMutex
	nodes    []Node
	edges    []Edge
	selected string // node id, "" when nothing is selected

	onChange func(nodes []Node, edges []Edge)
	onSelect func(node *Node)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithOnChange sets the collaborator notified with the fresh (nodes, edges)
// pair after every structural mutation, so the host can persist or diff it.
func WithOnChange(fn func(nodes []Node, edges []Edge)) StoreOption {
	return func(s *Store) { s.onChange = fn }
}

// WithOnSelect sets the collaborator notified when the selection changes.
// A nil node means the selection was cleared.
func WithOnSelect(fn func(node *Node)) StoreOption {
	return func(s *Store) { s.onSelect = fn }
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Nodes returns a deep copy of the current node list.
func (s *Store) Nodes() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneNodes(s.nodes)
}

// Edges returns a copy of the current edge list.
func (s *Store) Edges() []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Edge, len(s.edges))
	copy(out, s.edges)
	return out
}

// Selected returns a deep copy of the selected node, if any.
func (s *Store) Selected() (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(s.selected); i >= 0 {
		return s.nodes[i].Clone(), true
	}
	return Node{}, false
}

// SetNodes replaces the whole node list.
func (s *Store) SetNodes(nodes []Node) {
	s.mu.Lock()
	s.nodes = cloneNodes(nodes)
	notify := s.changeNotification()
	s.mu.Unlock()
	notify()
}

// SetEdges replaces the whole edge list.
func (s *Store) SetEdges(edges []Edge) {
	s.mu.Lock()
	s.edges = append([]Edge(nil), edges...)
	notify := s.changeNotification()
	s.mu.Unlock()
	notify()
}

// AddNode appends a node. The node type is derived from its data payload.
func (s *Store) AddNode(id string, data NodeData) (Node, error) {
	if data == nil {
		return Node{}, errors.New("node data cannot be nil")
	}
	node := Node{ID: id, Type: data.nodeType(), Data: data.Clone()}

	s.mu.Lock()
	if s.indexOf(id) >= 0 {
		s.mu.Unlock()
		return Node{}, fmt.Errorf("node with id %s already exists", id)
	}
	s.nodes = append(s.nodes, node)
	notify := s.changeNotification()
	s.mu.Unlock()
	notify()
	return node.Clone(), nil
}

// Connect adds an edge between two existing nodes. Duplicate edges between
// the same ordered pair are allowed.
func (s *Store) Connect(source, target string) error {
	s.mu.Lock()
	if s.indexOf(source) < 0 || s.indexOf(target) < 0 {
		s.mu.Unlock()
		return fmt.Errorf("cannot connect %s -> %s: unknown node", source, target)
	}
	s.edges = append(s.edges, Edge{Source: source, Target: target})
	notify := s.changeNotification()
	s.mu.Unlock()
	notify()
	return nil
}

// RemoveNode deletes a node and, in the same step, every edge referencing it.
// Removing the selected node clears the selection.
func (s *Store) RemoveNode(id string) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
	kept := s.edges[:0]
	for _, e := range s.edges {
		if e.Source != id && e.Target != id {
			kept = append(kept, e)
		}
	}
	s.edges = kept

	deselected := s.selected == id
	if deselected {
		s.selected = ""
	}
	notify := s.changeNotification()
	onSelect := s.onSelect
	s.mu.Unlock()

	notify()
	if deselected && onSelect != nil {
		onSelect(nil)
	}
}

// Select sets the selection to the given node id. Selecting an unknown id
// clears the selection instead of failing.
func (s *Store) Select(id string) {
	s.mu.Lock()
	i := s.indexOf(id)
	var selected *Node
	if i >= 0 {
		s.selected = id
		node := s.nodes[i].Clone()
		selected = &node
	} else {
		s.selected = ""
	}
	onSelect := s.onSelect
	s.mu.Unlock()

	if onSelect != nil {
		onSelect(selected)
	}
}

// mutateSelected applies fn to a fresh copy of the selected node's data and
// swaps it in, all under one lock, so rapid sequential updates never operate
// on a stale snapshot. The change notification fires after the swap.
func (s *Store) mutateSelected(fn func(NodeData) error) (Node, error) {
	s.mu.Lock()
	i := s.indexOf(s.selected)
	if i < 0 {
		s.mu.Unlock()
		return Node{}, ErrNoSelection
	}
	data := s.nodes[i].Data.Clone()
	if err := fn(data); err != nil {
		s.mu.Unlock()
		return Node{}, err
	}
	s.nodes[i].Data = data
	updated := s.nodes[i].Clone()
	notify := s.changeNotification()
	s.mu.Unlock()

	notify()
	return updated, nil
}

// replaceForResync swaps in a freshly synchronized node list and rebinds the
// selection. Unlike structural mutations it does not fire the change
// collaborator: the data just came from the persistence layer. Returns true
// when a previously selected node disappeared.
func (s *Store) replaceForResync(nodes []Node) bool {
	s.mu.Lock()
	s.nodes = nodes
	onSelect := s.onSelect
	var selected *Node
	lost := false
	if s.selected != "" {
		if i := s.indexOf(s.selected); i >= 0 {
			node := s.nodes[i].Clone()
			selected = &node
		} else {
			s.selected = ""
			lost = true
		}
	}
	s.mu.Unlock()

	if onSelect != nil && (selected != nil || lost) {
		onSelect(selected)
	}
	return lost
}

// changeNotification captures the onChange call with fresh snapshots while the
// lock is held; the caller invokes it after unlocking so collaborators may
// call back into the store.
func (s *Store) changeNotification() func() {
	if s.onChange == nil {
		return func() {}
	}
	nodes := cloneNodes(s.nodes)
	edges := append([]Edge(nil), s.edges...)
	fn := s.onChange
	return func() { fn(nodes, edges) }
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.nodes {
		if s.nodes[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}
