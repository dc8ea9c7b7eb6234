//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

package composer

// Synchronizer reconciles externally supplied node definitions with the
// in-memory canvas state. Resynchronization decorates nodes with validation
// flags without mutating the caller's objects, and keeps the selection alive
// when the selected node still exists.
type Synchronizer struct {
	store *Store
}

// NewSynchronizer creates a synchronizer bound to the given store.
func NewSynchronizer(store *Store) *Synchronizer {
	return &Synchronizer{store: store}
}

// Resync installs the freshly supplied node definitions into the store.
//
// For each external node the validation flag is recomputed: a node has
// validation errors when its filename appears in results with valid == false.
// Duplicate ids are tolerated, last one wins. If the selected node id survives
// the new list, the selection is rebound to the fresh object; otherwise the
// selection is cleared and the selection collaborator fires with nil exactly
// once. Resyncing twice with the same inputs yields deep-equal state.
func (s *Synchronizer) Resync(external []Node, results map[string]ValidationResult) []Node {
	fresh := make([]Node, 0, len(external))
	index := make(map[string]int, len(external))
	for _, n := range external {
		node := n.Clone()
		if node.Data != nil {
			common := node.Data.Common()
			res, known := results[common.Filename]
			common.HasValidationErrors = common.Filename != "" && known && !res.Valid
		}
		if at, dup := index[node.ID]; dup {
			fresh[at] = node
			continue
		}
		index[node.ID] = len(fresh)
		fresh = append(fresh, node)
	}
	s.store.replaceForResync(fresh)
	return cloneNodes(fresh)
}
