//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

package evalset

import (
	"encoding/json"
	"errors"
)

// CloneSet returns a deep copy of an eval set via a JSON round trip. Managers
// clone on every read and write so stored state is never mutated through a
// caller's reference.
func CloneSet(es *EvalSet) (*EvalSet, error) {
	if es == nil {
		return nil, errors.New("eval set is nil")
	}
	data, err := json.Marshal(es)
	if err != nil {
		return nil, err
	}
	var out EvalSet
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CloneCase returns a deep copy of an eval case.
func CloneCase(c *EvalCase) (*EvalCase, error) {
	if c == nil {
		return nil, errors.New("eval case is nil")
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var out EvalCase
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
