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
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ToolConfig is the union of per-tool optional attributes. Which fields apply
// depends on the tool id; the constraints are convention-based and no static
// tag discriminates them.
type ToolConfig struct {
	RequireConfirmation *bool  `json:"require_confirmation,omitempty" mapstructure:"require_confirmation"`
	ConfirmationPrompt  string `json:"confirmation_prompt,omitempty" mapstructure:"confirmation_prompt"`

	DatastoreID string `json:"datastore_id,omitempty" mapstructure:"datastore_id"`

	RagCorpus          string   `json:"rag_corpus,omitempty" mapstructure:"rag_corpus"`
	RagSimilarityTopK  *int     `json:"rag_similarity_top_k,omitempty" mapstructure:"rag_similarity_top_k"`
	RagVectorThreshold *float64 `json:"rag_vector_distance_threshold,omitempty" mapstructure:"rag_vector_distance_threshold"`

	InputDirectory string `json:"input_directory,omitempty" mapstructure:"input_directory"`
	FunctionPath   string `json:"function_path,omitempty" mapstructure:"function_path"`
}

func (c ToolConfig) clone() ToolConfig {
	out := c
	if c.RequireConfirmation != nil {
		v := *c.RequireConfirmation
		out.RequireConfirmation = &v
	}
	if c.RagSimilarityTopK != nil {
		v := *c.RagSimilarityTopK
		out.RagSimilarityTopK = &v
	}
	if c.RagVectorThreshold != nil {
		v := *c.RagVectorThreshold
		out.RagVectorThreshold = &v
	}
	return out
}

// DecodeToolConfig converts a loosely typed payload, as received from the
// editing surface, into a ToolConfig. Unknown keys are rejected so typos in
// tool configuration do not silently vanish.
func DecodeToolConfig(raw map[string]any) (ToolConfig, error) {
	var cfg ToolConfig
	// Weak typing so JSON-decoded numbers (always float64) fit the int fields.
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return ToolConfig{}, fmt.Errorf("build tool config decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return ToolConfig{}, fmt.Errorf("decode tool config: %w", err)
	}
	return cfg, nil
}
