//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

// Package redis provides a Redis-backed storage manager implementation for
// evaluation sets, for deployments where the composer backend runs with more
// than one replica.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	backend "github.com/redis/go-redis/v9"

	"trpc.group/trpc-go/trpc-agent-composer/evaluation/evalset"
)

// manager implements evalset.Manager on top of a Redis client. Each set is a
// JSON blob under evalset:<agent>:<id>, with a per-agent index set.
type manager struct {
	client *backend.Client
}

// New creates a Redis evaluation set manager connecting to addr.
func New(addr string) evalset.Manager {
	return NewFromClient(backend.NewClient(&backend.Options{Addr: addr}))
}

// NewFromClient creates a Redis evaluation set manager reusing an existing client.
func NewFromClient(client *backend.Client) evalset.Manager {
	return &manager{client: client}
}

func setKey(agentName, evalSetID string) string {
	return fmt.Sprintf("evalset:%s:%s", agentName, evalSetID)
}

func indexKey(agentName string) string {
	return fmt.Sprintf("evalsets:%s", agentName)
}

func (m *manager) Get(ctx context.Context, agentName, evalSetID string) (*evalset.EvalSet, error) {
	data, err := m.client.Get(ctx, setKey(agentName, evalSetID)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, fmt.Errorf("%w: eval set %s", os.ErrNotExist, evalSetID)
	}
	if err != nil {
		return nil, fmt.Errorf("get eval set %s.%s: %w", agentName, evalSetID, err)
	}
	var es evalset.EvalSet
	if err := json.Unmarshal(data, &es); err != nil {
		return nil, fmt.Errorf("unmarshal eval set %s.%s: %w", agentName, evalSetID, err)
	}
	if es.EvalCases == nil {
		es.EvalCases = []evalset.EvalCase{}
	}
	return &es, nil
}

func (m *manager) Create(ctx context.Context, agentName, evalSetID string) (*evalset.EvalSet, error) {
	if es, err := m.Get(ctx, agentName, evalSetID); err == nil {
		return es, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	es := &evalset.EvalSet{
		EvalSetID:         evalSetID,
		Name:              evalSetID,
		EvalCases:         []evalset.EvalCase{},
		CreationTimestamp: time.Now().UTC(),
	}
	if err := m.put(ctx, agentName, es); err != nil {
		return nil, err
	}
	return es, nil
}

func (m *manager) Update(ctx context.Context, agentName string, set *evalset.EvalSet) error {
	if set == nil {
		return errors.New("eval set is nil")
	}
	if _, err := m.Get(ctx, agentName, set.EvalSetID); err != nil {
		return err
	}
	return m.put(ctx, agentName, set)
}

func (m *manager) Delete(ctx context.Context, agentName, evalSetID string) error {
	removed, err := m.client.Del(ctx, setKey(agentName, evalSetID)).Result()
	if err != nil {
		return fmt.Errorf("delete eval set %s.%s: %w", agentName, evalSetID, err)
	}
	if removed == 0 {
		return fmt.Errorf("%w: eval set %s", os.ErrNotExist, evalSetID)
	}
	if err := m.client.SRem(ctx, indexKey(agentName), evalSetID).Err(); err != nil {
		return fmt.Errorf("unindex eval set %s.%s: %w", agentName, evalSetID, err)
	}
	return nil
}

func (m *manager) List(ctx context.Context, agentName string) ([]string, error) {
	ids, err := m.client.SMembers(ctx, indexKey(agentName)).Result()
	if err != nil {
		return nil, fmt.Errorf("list eval sets for %s: %w", agentName, err)
	}
	return ids, nil
}

func (m *manager) AddCase(ctx context.Context, agentName, evalSetID string, evalCase *evalset.EvalCase) error {
	if evalCase == nil {
		return errors.New("eval case is nil")
	}
	es, err := m.Get(ctx, agentName, evalSetID)
	if err != nil {
		return err
	}
	es.EvalCases = append(es.EvalCases, *evalCase)
	return m.put(ctx, agentName, es)
}

func (m *manager) DeleteCase(ctx context.Context, agentName, evalSetID, evalCaseID string) error {
	es, err := m.Get(ctx, agentName, evalSetID)
	if err != nil {
		return err
	}
	for i := range es.EvalCases {
		if es.EvalCases[i].EvalID == evalCaseID {
			es.EvalCases = append(es.EvalCases[:i], es.EvalCases[i+1:]...)
			return m.put(ctx, agentName, es)
		}
	}
	return fmt.Errorf("%w: eval case %s", os.ErrNotExist, evalCaseID)
}

func (m *manager) put(ctx context.Context, agentName string, es *evalset.EvalSet) error {
	data, err := json.Marshal(es)
	if err != nil {
		return fmt.Errorf("marshal eval set %s.%s: %w", agentName, es.EvalSetID, err)
	}
	if err := m.client.Set(ctx, setKey(agentName, es.EvalSetID), data, 0).Err(); err != nil {
		return fmt.Errorf("store eval set %s.%s: %w", agentName, es.EvalSetID, err)
	}
	if err := m.client.SAdd(ctx, indexKey(agentName), es.EvalSetID).Err(); err != nil {
		return fmt.Errorf("index eval set %s.%s: %w", agentName, es.EvalSetID, err)
	}
	return nil
}
