//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"trpc.group/trpc-go/trpc-agent-composer/evaluation/evalset"
	"trpc.group/trpc-go/trpc-agent-composer/evaluation/metric"
	"trpc.group/trpc-go/trpc-agent-composer/log"
)

// evalSetResponse is the envelope every evaluation endpoint returns.
type evalSetResponse struct {
	EvalSet *evalset.EvalSet `json:"evalset"`
}

// evalSetPatch is the PATCH body: every field is optional and only present
// fields are applied.
type evalSetPatch struct {
	EvalCases     *[]evalset.EvalCase `json:"eval_cases,omitempty"`
	Runs          *[]evalset.Run      `json:"runs,omitempty"`
	BaselineRunID *string             `json:"baseline_run_id,omitempty"`
	Name          *string             `json:"name,omitempty"`
	Description   *string             `json:"description,omitempty"`
}

// handleGetEvaluation returns the eval set, creating an empty one on first
// access so the evaluation tab always has something to show.
func (s *Server) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	es, err := s.evalSetManager.Create(r.Context(), vars["agent"], vars["evalId"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, evalSetResponse{EvalSet: es})
}

func (s *Server) handlePatchEvaluation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	agent, evalID := vars["agent"], vars["evalId"]

	var patch evalSetPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, fmt.Sprintf("decode patch: %v", err), http.StatusBadRequest)
		return
	}
	es, err := s.evalSetManager.Get(r.Context(), agent, evalID)
	if errors.Is(err, os.ErrNotExist) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if patch.EvalCases != nil {
		es.EvalCases = *patch.EvalCases
	}
	if patch.Runs != nil {
		es.Runs = *patch.Runs
	}
	if patch.BaselineRunID != nil {
		es.BaselineRunID = *patch.BaselineRunID
	}
	if patch.Name != nil {
		es.Name = *patch.Name
	}
	if patch.Description != nil {
		es.Description = *patch.Description
	}
	if err := s.evalSetManager.Update(r.Context(), agent, es); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, evalSetResponse{EvalSet: es})
}

func (s *Server) handleRunEvaluation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	agent, evalID := vars["agent"], vars["evalId"]

	run, err := s.evalRunner.RunAll(r.Context(), agent, evalID)
	if errors.Is(err, os.ErrNotExist) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.evalRunCounter.Inc()
	log.Infof("evaluation run %s requested for agent %s set %s", run.RunID, agent, evalID)

	es, err := s.evalSetManager.Get(r.Context(), agent, evalID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, evalSetResponse{EvalSet: es})
}

// handleExportEvaluation streams the eval set as a downloadable JSON file.
func (s *Server) handleExportEvaluation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	agent, evalID := vars["agent"], vars["evalId"]

	es, err := s.evalSetManager.Get(r.Context(), agent, evalID)
	if errors.Is(err, os.ErrNotExist) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	data, err := json.MarshalIndent(es, "", "  ")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", evalID+".evalset.json"))
	_, _ = w.Write(data)
}

// metricConfigResponse is the envelope of the metric config endpoints.
type metricConfigResponse struct {
	Criteria metric.Criteria `json:"criteria"`
}

func (s *Server) handleGetMetricConfig(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	criteria, err := s.metricManager.Get(r.Context(), vars["agent"], vars["evalId"])
	if errors.Is(err, os.ErrNotExist) {
		criteria = metric.DefaultCriteria()
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, metricConfigResponse{Criteria: criteria})
}

func (s *Server) handleSetMetricConfig(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var cfg metric.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, fmt.Sprintf("decode criteria: %v", err), http.StatusBadRequest)
		return
	}
	if len(cfg.Criteria) == 0 {
		http.Error(w, "at least one metric must be enabled", http.StatusBadRequest)
		return
	}
	for id := range cfg.Criteria {
		if _, ok := metric.Lookup(id); !ok {
			http.Error(w, fmt.Sprintf("unknown metric %q", id), http.StatusBadRequest)
			return
		}
	}
	if err := s.metricManager.Save(r.Context(), vars["agent"], vars["evalId"], cfg.Criteria); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, metricConfigResponse{Criteria: cfg.Criteria})
}

// handleResetMetricConfig drops the stored criteria; subsequent reads fall
// back to the defaults.
func (s *Server) handleResetMetricConfig(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	err := s.metricManager.Delete(r.Context(), vars["agent"], vars["evalId"])
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, metricConfigResponse{Criteria: metric.DefaultCriteria()})
}

func (s *Server) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string][]metric.Definition{"metrics": metric.Definitions()})
}
