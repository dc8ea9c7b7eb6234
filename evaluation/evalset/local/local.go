//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

// Package local provides a local file storage manager implementation for evaluation sets.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"trpc.group/trpc-go/trpc-agent-composer/evaluation/evalset"
)

const (
	evalSetFileSuffix     = ".evalset.json"
	defaultTempFileSuffix = ".tmp"
	defaultDirPermission  = 0o755
	defaultFilePermission = 0o644
)

// manager implements evalset.Manager backed by the local filesystem. Sets are
// stored as <baseDir>/<agentName>/<evalSetID>.evalset.json.
type manager struct {
	mu      sync.RWMutex
	baseDir string
}

// New creates a local file evaluation set manager rooted at baseDir.
func New(baseDir string) evalset.Manager {
	return &manager{baseDir: baseDir}
}

// Get gets an EvalSet identified by evalSetID.
func (m *manager) Get(_ context.Context, agentName, evalSetID string) (*evalset.EvalSet, error) {
	if err := checkKeys(agentName, evalSetID); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	es, err := m.load(agentName, evalSetID)
	if err != nil {
		return nil, fmt.Errorf("load eval set %s.%s: %w", agentName, evalSetID, err)
	}
	return es, nil
}

// Create creates an empty EvalSet, or returns the existing one.
func (m *manager) Create(_ context.Context, agentName, evalSetID string) (*evalset.EvalSet, error) {
	if err := checkKeys(agentName, evalSetID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if es, err := m.load(agentName, evalSetID); err == nil {
		return es, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load eval set %s.%s: %w", agentName, evalSetID, err)
	}
	es := &evalset.EvalSet{
		EvalSetID:         evalSetID,
		Name:              evalSetID,
		EvalCases:         []evalset.EvalCase{},
		CreationTimestamp: time.Now().UTC(),
	}
	if err := m.store(agentName, es); err != nil {
		return nil, fmt.Errorf("store eval set %s.%s: %w", agentName, evalSetID, err)
	}
	return es, nil
}

// Update replaces a stored EvalSet wholesale.
func (m *manager) Update(_ context.Context, agentName string, set *evalset.EvalSet) error {
	if set == nil {
		return errors.New("eval set is nil")
	}
	if err := checkKeys(agentName, set.EvalSetID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.load(agentName, set.EvalSetID); err != nil {
		return fmt.Errorf("load eval set %s.%s: %w", agentName, set.EvalSetID, err)
	}
	return m.store(agentName, set)
}

// Delete removes a stored EvalSet.
func (m *manager) Delete(_ context.Context, agentName, evalSetID string) error {
	if err := checkKeys(agentName, evalSetID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := os.Remove(m.evalSetPath(agentName, evalSetID)); err != nil {
		return fmt.Errorf("delete eval set %s.%s: %w", agentName, evalSetID, err)
	}
	return nil
}

// List returns the ids of all sets stored for the agent.
func (m *manager) List(_ context.Context, agentName string) ([]string, error) {
	if agentName == "" {
		return nil, errors.New("agent name is empty")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries, err := os.ReadDir(filepath.Join(m.baseDir, agentName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list eval sets for %s: %w", agentName, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), evalSetFileSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), evalSetFileSuffix))
	}
	return ids, nil
}

// AddCase appends an EvalCase to an existing EvalSet.
func (m *manager) AddCase(_ context.Context, agentName, evalSetID string, evalCase *evalset.EvalCase) error {
	if evalCase == nil {
		return errors.New("eval case is nil")
	}
	if err := checkKeys(agentName, evalSetID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	es, err := m.load(agentName, evalSetID)
	if err != nil {
		return fmt.Errorf("load eval set %s.%s: %w", agentName, evalSetID, err)
	}
	es.EvalCases = append(es.EvalCases, *evalCase)
	return m.store(agentName, es)
}

// DeleteCase removes an EvalCase identified by evalCaseID.
func (m *manager) DeleteCase(_ context.Context, agentName, evalSetID, evalCaseID string) error {
	if err := checkKeys(agentName, evalSetID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	es, err := m.load(agentName, evalSetID)
	if err != nil {
		return fmt.Errorf("load eval set %s.%s: %w", agentName, evalSetID, err)
	}
	for i := range es.EvalCases {
		if es.EvalCases[i].EvalID == evalCaseID {
			es.EvalCases = append(es.EvalCases[:i], es.EvalCases[i+1:]...)
			return m.store(agentName, es)
		}
	}
	return fmt.Errorf("%w: eval case %s", os.ErrNotExist, evalCaseID)
}

func (m *manager) evalSetPath(agentName, evalSetID string) string {
	return filepath.Join(m.baseDir, agentName, evalSetID+evalSetFileSuffix)
}

func (m *manager) load(agentName, evalSetID string) (*evalset.EvalSet, error) {
	path := m.evalSetPath(agentName, evalSetID)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	var es evalset.EvalSet
	if err := json.Unmarshal(data, &es); err != nil {
		return nil, fmt.Errorf("unmarshal file %s: %w", path, err)
	}
	if es.EvalCases == nil {
		es.EvalCases = []evalset.EvalCase{}
	}
	return &es, nil
}

func (m *manager) store(agentName string, es *evalset.EvalSet) error {
	path := m.evalSetPath(agentName, es.EvalSetID)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, defaultDirPermission); err != nil {
		return fmt.Errorf("mkdir all %s: %w", dir, err)
	}
	tmp := path + defaultTempFileSuffix
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, defaultFilePermission)
	if err != nil {
		return fmt.Errorf("open file %s: %w", tmp, err)
	}
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(es); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode file %s: %w", tmp, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename file %s to %s: %w", tmp, path, err)
	}
	return nil
}

func checkKeys(agentName, evalSetID string) error {
	if agentName == "" {
		return errors.New("agent name is empty")
	}
	if evalSetID == "" {
		return errors.New("eval set id is empty")
	}
	return nil
}
