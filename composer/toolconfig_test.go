//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

package composer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeToolConfig(t *testing.T) {
	cfg, err := DecodeToolConfig(map[string]any{
		"require_confirmation": true,
		"confirmation_prompt":  "are you sure?",
		"rag_corpus":           "corpus-1",
		"rag_similarity_top_k": 5,
	})
	require.NoError(t, err)

	require.NotNil(t, cfg.RequireConfirmation)
	assert.True(t, *cfg.RequireConfirmation)
	assert.Equal(t, "are you sure?", cfg.ConfirmationPrompt)
	assert.Equal(t, "corpus-1", cfg.RagCorpus)
	require.NotNil(t, cfg.RagSimilarityTopK)
	assert.Equal(t, 5, *cfg.RagSimilarityTopK)
	assert.Nil(t, cfg.RagVectorThreshold)
}

func TestDecodeToolConfigRejectsUnknownKeys(t *testing.T) {
	_, err := DecodeToolConfig(map[string]any{"datasore_id": "typo"})
	require.Error(t, err)
}

func TestDecodeToolConfigEmpty(t *testing.T) {
	cfg, err := DecodeToolConfig(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, ToolConfig{}, cfg)
}
