//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

package evalset

import "time"

// CaseStatus classifies the outcome of evaluating a single case.
type CaseStatus string

const (
	// CaseStatusPassed means every metric met its threshold.
	CaseStatusPassed CaseStatus = "passed"
	// CaseStatusFailed means at least one metric fell below its threshold.
	CaseStatusFailed CaseStatus = "failed"
	// CaseStatusNotEvaluated means no evaluator scored the case.
	CaseStatusNotEvaluated CaseStatus = "not_evaluated"
	// CaseStatusError means the case could not be evaluated.
	CaseStatusError CaseStatus = "error"
)

// CaseResult is the per-case outcome of one run.
type CaseResult struct {
	EvalCaseID   string             `json:"eval_case_id"`
	Status       CaseStatus         `json:"status"`
	MetricScores map[string]float64 `json:"metric_scores,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
}

// Run records one evaluation run over all cases of a set.
type Run struct {
	RunID       string       `json:"run_id"`
	Timestamp   time.Time    `json:"timestamp"`
	CaseResults []CaseResult `json:"case_results"`
}
