//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides an in-memory storage implementation for metric criteria.
package inmemory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/mohae/deepcopy"

	"trpc.group/trpc-go/trpc-agent-composer/evaluation/metric"
)

// manager implements metric.Manager with in-memory storage keyed by agent
// name and eval set id. Reads and writes deep-copy the criteria.
type manager struct {
	mu       sync.RWMutex
	criteria map[string]map[string]metric.Criteria
}

// New creates a new in-memory metric criteria manager.
func New() metric.Manager {
	return &manager{criteria: make(map[string]map[string]metric.Criteria)}
}

func (m *manager) Get(ctx context.Context, agentName, evalSetID string) (metric.Criteria, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	byAgent, ok := m.criteria[agentName]
	if !ok {
		return nil, fmt.Errorf("%w: metric criteria for eval set %s", os.ErrNotExist, evalSetID)
	}
	c, ok := byAgent[evalSetID]
	if !ok {
		return nil, fmt.Errorf("%w: metric criteria for eval set %s", os.ErrNotExist, evalSetID)
	}
	return deepcopy.Copy(c).(metric.Criteria), nil
}

func (m *manager) Save(ctx context.Context, agentName, evalSetID string, criteria metric.Criteria) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.criteria[agentName]; !ok {
		m.criteria[agentName] = make(map[string]metric.Criteria)
	}
	m.criteria[agentName][evalSetID] = deepcopy.Copy(criteria).(metric.Criteria)
	return nil
}

func (m *manager) Delete(ctx context.Context, agentName, evalSetID string) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	byAgent, ok := m.criteria[agentName]
	if !ok {
		return fmt.Errorf("%w: metric criteria for eval set %s", os.ErrNotExist, evalSetID)
	}
	if _, ok := byAgent[evalSetID]; !ok {
		return fmt.Errorf("%w: metric criteria for eval set %s", os.ErrNotExist, evalSetID)
	}
	delete(byAgent, evalSetID)
	return nil
}
