//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

// Package runner executes evaluation runs: it evaluates every case of an
// eval set against the configured metrics and appends the outcome to the
// set's run history.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/trpc-agent-composer/evaluation/evalset"
	"trpc.group/trpc-go/trpc-agent-composer/evaluation/metric"
	"trpc.group/trpc-go/trpc-agent-composer/log"
)

const defaultConcurrency = 4

// Evaluator scores a single eval case against the enabled metric criteria.
type Evaluator interface {
	EvaluateCase(ctx context.Context, agentName string, evalCase *evalset.EvalCase,
		criteria metric.Criteria) (*evalset.CaseResult, error)
}

// Runner orchestrates evaluation runs over stored eval sets.
type Runner struct {
	sets        evalset.Manager
	metrics     metric.Manager
	evaluator   Evaluator
	concurrency int
}

// Option configures a Runner.
type Option func(*Runner)

// WithEvaluator sets the case evaluator.
func WithEvaluator(e Evaluator) Option {
	return func(r *Runner) { r.evaluator = e }
}

// WithConcurrency sets how many cases are evaluated in parallel.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// New creates a Runner on top of the given eval set and metric managers.
func New(sets evalset.Manager, metrics metric.Manager, opts ...Option) *Runner {
	r := &Runner{
		sets:        sets,
		metrics:     metrics,
		evaluator:   notEvaluated{},
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunAll evaluates every case in the eval set, appends the resulting Run to
// the set's history and returns it. Individual case failures are recorded in
// the run rather than aborting it.
func (r *Runner) RunAll(ctx context.Context, agentName, evalSetID string) (*evalset.Run, error) {
	es, err := r.sets.Get(ctx, agentName, evalSetID)
	if err != nil {
		return nil, fmt.Errorf("get eval set %s: %w", evalSetID, err)
	}
	criteria, err := r.metrics.Get(ctx, agentName, evalSetID)
	if errors.Is(err, os.ErrNotExist) {
		criteria = metric.DefaultCriteria()
	} else if err != nil {
		return nil, fmt.Errorf("get metric criteria for %s: %w", evalSetID, err)
	}

	results, err := r.evaluateCases(ctx, agentName, es.EvalCases, criteria)
	if err != nil {
		return nil, err
	}
	run := &evalset.Run{
		RunID:       uuid.New().String(),
		Timestamp:   time.Now().UTC(),
		CaseResults: results,
	}
	es.Runs = append(es.Runs, *run)
	if err := r.sets.Update(ctx, agentName, es); err != nil {
		return nil, fmt.Errorf("store run for eval set %s: %w", evalSetID, err)
	}
	log.Infof("evaluation run %s finished: agent=%s set=%s cases=%d",
		run.RunID, agentName, evalSetID, len(results))
	return run, nil
}

func (r *Runner) evaluateCases(ctx context.Context, agentName string,
	cases []evalset.EvalCase, criteria metric.Criteria) ([]evalset.CaseResult, error) {
	pool, err := ants.NewPool(r.concurrency)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]evalset.CaseResult, len(cases))
	var wg sync.WaitGroup
	for i := range cases {
		i := i
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			results[i] = r.evaluateCase(ctx, agentName, &cases[i], criteria)
		}); err != nil {
			wg.Done()
			results[i] = evalset.CaseResult{
				EvalCaseID:   cases[i].EvalID,
				Status:       evalset.CaseStatusError,
				ErrorMessage: fmt.Sprintf("submit evaluation: %v", err),
			}
		}
	}
	wg.Wait()
	return results, nil
}

func (r *Runner) evaluateCase(ctx context.Context, agentName string,
	evalCase *evalset.EvalCase, criteria metric.Criteria) evalset.CaseResult {
	result, err := r.evaluator.EvaluateCase(ctx, agentName, evalCase, criteria)
	if err != nil {
		log.Warnf("evaluation of case %s failed: %v", evalCase.EvalID, err)
		return evalset.CaseResult{
			EvalCaseID:   evalCase.EvalID,
			Status:       evalset.CaseStatusError,
			ErrorMessage: err.Error(),
		}
	}
	out := *result
	if out.EvalCaseID == "" {
		out.EvalCaseID = evalCase.EvalID
	}
	return out
}

// notEvaluated is the fallback evaluator used when no real evaluation engine
// is wired in. It marks every case as not evaluated so runs still record the
// case inventory.
type notEvaluated struct{}

func (notEvaluated) EvaluateCase(_ context.Context, _ string, evalCase *evalset.EvalCase,
	_ metric.Criteria) (*evalset.CaseResult, error) {
	return &evalset.CaseResult{
		EvalCaseID: evalCase.EvalID,
		Status:     evalset.CaseStatusNotEvaluated,
	}, nil
}
