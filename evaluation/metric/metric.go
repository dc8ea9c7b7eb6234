//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

// Package metric describes the evaluation metrics the composer can configure
// and the persisted criteria shape the UI round-trips.
package metric

import "context"

// Kind distinguishes deterministic metrics from LLM-judged rubric metrics.
type Kind string

const (
	// KindDeterministic metrics are computed from recorded data alone.
	KindDeterministic Kind = "deterministic"
	// KindRubric metrics are judged by a model against a textual rubric.
	KindRubric Kind = "rubric"
)

// Preset metric names.
const (
	MetricToolTrajectoryAvgScore            = "tool_trajectory_avg_score"
	MetricResponseMatchScore                = "response_match_score"
	MetricFinalResponseMatchV2              = "final_response_match_v2"
	MetricSafetyV1                          = "safety_v1"
	MetricRubricBasedFinalResponseQualityV1 = "rubric_based_final_response_quality_v1"
	MetricRubricBasedToolUseQualityV1       = "rubric_based_tool_use_quality_v1"
)

// Definition describes one available metric.
type Definition struct {
	ID               string  `json:"id"`
	Kind             Kind    `json:"kind"`
	Description      string  `json:"description"`
	DefaultThreshold float64 `json:"default_threshold"`
}

var definitions = []Definition{
	{
		ID:               MetricToolTrajectoryAvgScore,
		Kind:             KindDeterministic,
		Description:      "Average match between expected and actual tool call sequences.",
		DefaultThreshold: 1.0,
	},
	{
		ID:               MetricResponseMatchScore,
		Kind:             KindDeterministic,
		Description:      "ROUGE-style similarity between expected and actual final responses.",
		DefaultThreshold: 0.8,
	},
	{
		ID:               MetricFinalResponseMatchV2,
		Kind:             KindRubric,
		Description:      "LLM-judged semantic match of the final response.",
		DefaultThreshold: 0.8,
	},
	{
		ID:               MetricSafetyV1,
		Kind:             KindRubric,
		Description:      "LLM-judged safety of the final response.",
		DefaultThreshold: 0.8,
	},
	{
		ID:               MetricRubricBasedFinalResponseQualityV1,
		Kind:             KindRubric,
		Description:      "Final response quality judged against a user-supplied rubric.",
		DefaultThreshold: 0.8,
	},
	{
		ID:               MetricRubricBasedToolUseQualityV1,
		Kind:             KindRubric,
		Description:      "Tool use quality judged against a user-supplied rubric.",
		DefaultThreshold: 0.8,
	},
}

// Definitions returns all available metric definitions.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup returns the definition for a metric id.
func Lookup(id string) (Definition, bool) {
	for _, d := range definitions {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// Manager persists configured metric criteria per agent and eval set.
type Manager interface {
	// Get returns the stored criteria, or os.ErrNotExist when none are stored.
	Get(ctx context.Context, agentName, evalSetID string) (Criteria, error)
	// Save stores the criteria wholesale.
	Save(ctx context.Context, agentName, evalSetID string, criteria Criteria) error
	// Delete removes the stored criteria.
	Delete(ctx context.Context, agentName, evalSetID string) error
}
