//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides an in-memory storage implementation for evaluation sets.
package inmemory

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"trpc.group/trpc-go/trpc-agent-composer/evaluation/evalset"
)

// manager implements evalset.Manager with in-memory storage. Every API
// returns deep-cloned objects to avoid accidental mutation by callers.
type manager struct {
	mu   sync.RWMutex
	sets map[string]map[string]*evalset.EvalSet
}

// New creates a new in-memory evaluation set manager.
func New() evalset.Manager {
	return &manager{sets: make(map[string]map[string]*evalset.EvalSet)}
}

func (m *manager) Get(ctx context.Context, agentName, evalSetID string) (*evalset.EvalSet, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	es, err := m.locked(agentName, evalSetID)
	if err != nil {
		return nil, err
	}
	cloned, err := evalset.CloneSet(es)
	if err != nil {
		return nil, fmt.Errorf("clone eval set %s: %w", evalSetID, err)
	}
	return cloned, nil
}

func (m *manager) Create(ctx context.Context, agentName, evalSetID string) (*evalset.EvalSet, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sets[agentName]; !ok {
		m.sets[agentName] = make(map[string]*evalset.EvalSet)
	}
	es, ok := m.sets[agentName][evalSetID]
	if !ok {
		es = &evalset.EvalSet{
			EvalSetID:         evalSetID,
			EvalCases:         []evalset.EvalCase{},
			CreationTimestamp: time.Now().UTC(),
		}
		m.sets[agentName][evalSetID] = es
	}
	cloned, err := evalset.CloneSet(es)
	if err != nil {
		return nil, fmt.Errorf("clone eval set %s: %w", evalSetID, err)
	}
	return cloned, nil
}

func (m *manager) Update(ctx context.Context, agentName string, set *evalset.EvalSet) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.locked(agentName, set.EvalSetID); err != nil {
		return err
	}
	cloned, err := evalset.CloneSet(set)
	if err != nil {
		return fmt.Errorf("clone eval set %s: %w", set.EvalSetID, err)
	}
	m.sets[agentName][set.EvalSetID] = cloned
	return nil
}

func (m *manager) Delete(ctx context.Context, agentName, evalSetID string) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.locked(agentName, evalSetID); err != nil {
		return err
	}
	delete(m.sets[agentName], evalSetID)
	return nil
}

func (m *manager) List(ctx context.Context, agentName string) ([]string, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sets[agentName]))
	for id := range m.sets[agentName] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *manager) AddCase(ctx context.Context, agentName, evalSetID string, evalCase *evalset.EvalCase) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	es, err := m.locked(agentName, evalSetID)
	if err != nil {
		return err
	}
	cloned, err := evalset.CloneCase(evalCase)
	if err != nil {
		return fmt.Errorf("clone eval case %s: %w", evalCase.EvalID, err)
	}
	es.EvalCases = append(es.EvalCases, *cloned)
	return nil
}

func (m *manager) DeleteCase(ctx context.Context, agentName, evalSetID, evalCaseID string) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	es, err := m.locked(agentName, evalSetID)
	if err != nil {
		return err
	}
	for i := range es.EvalCases {
		if es.EvalCases[i].EvalID == evalCaseID {
			es.EvalCases = append(es.EvalCases[:i], es.EvalCases[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: eval case %s", os.ErrNotExist, evalCaseID)
}

func (m *manager) locked(agentName, evalSetID string) (*evalset.EvalSet, error) {
	byAgent, ok := m.sets[agentName]
	if !ok {
		return nil, fmt.Errorf("%w: eval set %s", os.ErrNotExist, evalSetID)
	}
	es, ok := byAgent[evalSetID]
	if !ok {
		return nil, fmt.Errorf("%w: eval set %s", os.ErrNotExist, evalSetID)
	}
	return es, nil
}
