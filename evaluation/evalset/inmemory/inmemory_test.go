//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

package inmemory

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agent-composer/evaluation/evalset"
)

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	m := New()

	_, err := m.Get(ctx, "agent", "set1")
	require.ErrorIs(t, err, os.ErrNotExist)

	es, err := m.Create(ctx, "agent", "set1")
	require.NoError(t, err)
	assert.Equal(t, "set1", es.EvalSetID)
	assert.Empty(t, es.EvalCases)

	got, err := m.Get(ctx, "agent", "set1")
	require.NoError(t, err)
	assert.Equal(t, es.EvalSetID, got.EvalSetID)
}

func TestCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := New()

	first, err := m.Create(ctx, "agent", "set1")
	require.NoError(t, err)
	require.NoError(t, m.AddCase(ctx, "agent", "set1", evalset.NewCase()))

	again, err := m.Create(ctx, "agent", "set1")
	require.NoError(t, err)
	assert.Equal(t, first.CreationTimestamp, again.CreationTimestamp)
	assert.Len(t, again.EvalCases, 1)
}

func TestGetReturnsClone(t *testing.T) {
	ctx := context.Background()
	m := New()
	_, err := m.Create(ctx, "agent", "set1")
	require.NoError(t, err)
	require.NoError(t, m.AddCase(ctx, "agent", "set1", evalset.NewCase()))

	got, err := m.Get(ctx, "agent", "set1")
	require.NoError(t, err)
	got.EvalCases[0].EvalID = "mutated"

	again, err := m.Get(ctx, "agent", "set1")
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again.EvalCases[0].EvalID)
}

func TestUpdateReplacesSet(t *testing.T) {
	ctx := context.Background()
	m := New()
	es, err := m.Create(ctx, "agent", "set1")
	require.NoError(t, err)

	es.Name = "renamed"
	es.BaselineRunID = "run-1"
	require.NoError(t, m.Update(ctx, "agent", es))

	got, err := m.Get(ctx, "agent", "set1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, "run-1", got.BaselineRunID)
}

func TestUpdateUnknownSet(t *testing.T) {
	m := New()
	err := m.Update(context.Background(), "agent", &evalset.EvalSet{EvalSetID: "missing"})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDeleteAndList(t *testing.T) {
	ctx := context.Background()
	m := New()
	_, err := m.Create(ctx, "agent", "set1")
	require.NoError(t, err)
	_, err = m.Create(ctx, "agent", "set2")
	require.NoError(t, err)

	ids, err := m.List(ctx, "agent")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"set1", "set2"}, ids)

	require.NoError(t, m.Delete(ctx, "agent", "set1"))
	ids, err = m.List(ctx, "agent")
	require.NoError(t, err)
	assert.Equal(t, []string{"set2"}, ids)

	require.ErrorIs(t, m.Delete(ctx, "agent", "set1"), os.ErrNotExist)
}

func TestDeleteCase(t *testing.T) {
	ctx := context.Background()
	m := New()
	_, err := m.Create(ctx, "agent", "set1")
	require.NoError(t, err)

	c := evalset.NewCase()
	require.NoError(t, m.AddCase(ctx, "agent", "set1", c))
	require.NoError(t, m.DeleteCase(ctx, "agent", "set1", c.EvalID))

	got, err := m.Get(ctx, "agent", "set1")
	require.NoError(t, err)
	assert.Empty(t, got.EvalCases)

	require.ErrorIs(t, m.DeleteCase(ctx, "agent", "set1", c.EvalID), os.ErrNotExist)
}
