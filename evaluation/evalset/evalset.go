//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

// Package evalset provides evaluation sets for agent evaluation runs.
package evalset

import (
	"context"
	"time"
)

// EvalSet is a collection of evaluation cases plus the runs recorded against
// them. Field names follow the UI wire contract.
type EvalSet struct {
	// EvalSetID uniquely identifies this evaluation set.
	EvalSetID string `json:"eval_set_id"`
	// Name of the evaluation set.
	Name string `json:"name,omitempty"`
	// Description of the evaluation set.
	Description string `json:"description,omitempty"`
	// EvalCases contains all the evaluation cases.
	EvalCases []EvalCase `json:"eval_cases"`
	// Runs records past evaluation runs, newest last.
	Runs []Run `json:"runs,omitempty"`
	// BaselineRunID marks the run other runs are compared against.
	BaselineRunID string `json:"baseline_run_id,omitempty"`
	// CreationTimestamp when this eval set was created.
	CreationTimestamp time.Time `json:"creation_timestamp"`
}

// Manager defines the interface for managing evaluation sets, scoped by agent
// name. Implementations return deep copies so callers cannot mutate stored
// state in place.
type Manager interface {
	// Get returns an EvalSet identified by evalSetID.
	Get(ctx context.Context, agentName, evalSetID string) (*EvalSet, error)
	// Create creates and returns an empty EvalSet given the evalSetID.
	Create(ctx context.Context, agentName, evalSetID string) (*EvalSet, error)
	// Update replaces a stored EvalSet wholesale.
	Update(ctx context.Context, agentName string, set *EvalSet) error
	// Delete removes an EvalSet.
	Delete(ctx context.Context, agentName, evalSetID string) error
	// List returns the ids of all sets stored for the agent.
	List(ctx context.Context, agentName string) ([]string, error)
	// AddCase appends an EvalCase to an existing EvalSet.
	AddCase(ctx context.Context, agentName, evalSetID string, evalCase *EvalCase) error
	// DeleteCase removes an EvalCase identified by evalCaseID.
	DeleteCase(ctx context.Context, agentName, evalSetID, evalCaseID string) error
}
