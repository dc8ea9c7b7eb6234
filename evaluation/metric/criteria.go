//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

package metric

import (
	"encoding/json"
	"fmt"
)

// Criterion configures one enabled metric: the pass threshold plus, for
// rubric metrics, the rubric text.
type Criterion struct {
	Threshold float64 `json:"threshold"`
	Rubric    string  `json:"rubric,omitempty"`
}

// Criteria is the set of enabled metrics keyed by metric id. Presence in the
// map is what "enabled" means.
//
// The persisted JSON shape is a map where deterministic entries serialize as
// a bare threshold number and rubric entries as {"threshold": ..., "rubric": ...}.
type Criteria map[string]Criterion

// Config is the wire envelope of the metrics configuration endpoint.
type Config struct {
	Criteria Criteria `json:"criteria"`
}

// DefaultCriteria returns the criteria applied when nothing is stored yet:
// the two deterministic metrics at their default thresholds.
func DefaultCriteria() Criteria {
	return Criteria{
		MetricToolTrajectoryAvgScore: {Threshold: 1.0},
		MetricResponseMatchScore:     {Threshold: 0.8},
	}
}

// Enable adds or reconfigures a metric.
func (c Criteria) Enable(id string, criterion Criterion) {
	c[id] = criterion
}

// Disable removes a metric from the enabled set. Disabling the last enabled
// metric is rejected silently: at least one metric always stays enabled. The
// return reports whether the metric was actually removed.
func (c Criteria) Disable(id string) bool {
	if _, ok := c[id]; !ok {
		return false
	}
	if len(c) <= 1 {
		return false
	}
	delete(c, id)
	return true
}

// MarshalJSON writes each entry as a bare number when nothing beyond the
// threshold is configured on a deterministic metric, and as an object
// otherwise.
func (c Criteria) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c))
	for id, criterion := range c {
		if criterion.Rubric == "" && !isRubricMetric(id) {
			out[id] = criterion.Threshold
			continue
		}
		out[id] = criterion
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts both the bare-number and the object form per entry.
func (c *Criteria) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal criteria: %w", err)
	}
	out := make(Criteria, len(raw))
	for id, entry := range raw {
		var threshold float64
		if err := json.Unmarshal(entry, &threshold); err == nil {
			out[id] = Criterion{Threshold: threshold}
			continue
		}
		var criterion Criterion
		if err := json.Unmarshal(entry, &criterion); err != nil {
			return fmt.Errorf("unmarshal criterion %s: %w", id, err)
		}
		out[id] = criterion
	}
	*c = out
	return nil
}

func isRubricMetric(id string) bool {
	def, ok := Lookup(id)
	return ok && def.Kind == KindRubric
}
