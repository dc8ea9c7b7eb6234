//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

package mcpcheck

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProber struct {
	mu      sync.Mutex
	results map[string]ProbeResult
	errs    map[string]error
	probes  []ServerConfig
	block   chan struct{} // when set, Probe waits until the channel closes
}

func (p *stubProber) Probe(ctx context.Context, cfg ServerConfig) (ProbeResult, error) {
	p.mu.Lock()
	p.probes = append(p.probes, cfg)
	block := p.block
	p.mu.Unlock()
	if block != nil {
		<-block
	}
	if err := p.errs[cfg.ID]; err != nil {
		return ProbeResult{}, err
	}
	return p.results[cfg.ID], nil
}

func stdioConfig(id string) ServerConfig {
	return ServerConfig{
		ID:      id,
		Name:    "filesystem",
		Type:    TransportStdio,
		Command: "npx",
		Args:    []string{"-y", "@modelcontextprotocol/server-filesystem"},
	}
}

func TestValidateSuccess(t *testing.T) {
	prober := &stubProber{results: map[string]ProbeResult{
		"fs": {Status: "connected", Tools: []ToolDeclaration{
			{Name: "read_file", Description: "Read a file from disk"},
		}},
	}}
	v := NewValidator(NewRegistry(), WithProber(prober))

	state := v.Validate(context.Background(), stdioConfig("fs"))

	assert.Equal(t, StatusConnected, state.Status)
	require.Len(t, state.Tools, 1)
	assert.Equal(t, "read_file", state.Tools[0].Name)
	assert.True(t, state.Tools[0].Enabled)
	assert.Empty(t, state.ErrorMessage)
}

func TestValidateUnexpectedStatusMapsToError(t *testing.T) {
	prober := &stubProber{results: map[string]ProbeResult{
		"fs": {Status: "degraded"},
	}}
	v := NewValidator(NewRegistry(), WithProber(prober))

	state := v.Validate(context.Background(), stdioConfig("fs"))

	assert.Equal(t, StatusError, state.Status)
	assert.Contains(t, state.ErrorMessage, "degraded")
}

func TestValidateFailureKeepsStaleTools(t *testing.T) {
	prober := &stubProber{
		results: map[string]ProbeResult{
			"fs": {Status: "connected", Tools: []ToolDeclaration{{Name: "read_file"}}},
		},
		errs: map[string]error{},
	}
	v := NewValidator(NewRegistry(), WithProber(prober))

	first := v.Validate(context.Background(), stdioConfig("fs"))
	require.Equal(t, StatusConnected, first.Status)

	prober.errs["fs"] = errors.New("connection refused")
	second := v.Validate(context.Background(), stdioConfig("fs"))

	assert.Equal(t, StatusError, second.Status)
	assert.Contains(t, second.ErrorMessage, "connection refused")
	// The previously discovered tool list stays displayed as stale data.
	require.Len(t, second.Tools, 1)
	assert.Equal(t, "read_file", second.Tools[0].Name)

	// And the server is never left stuck in connecting.
	assert.Equal(t, StatusError, v.Registry().State("fs").Status)
}

func TestValidateFailureOtherServersUnaffected(t *testing.T) {
	prober := &stubProber{
		results: map[string]ProbeResult{
			"good": {Status: "connected", Tools: []ToolDeclaration{{Name: "ping"}}},
		},
		errs: map[string]error{"bad": errors.New("boom")},
	}
	v := NewValidator(NewRegistry(), WithProber(prober))

	v.Validate(context.Background(), stdioConfig("good"))
	v.Validate(context.Background(), stdioConfig("bad"))

	assert.Equal(t, StatusConnected, v.Registry().State("good").Status)
	assert.Equal(t, StatusError, v.Registry().State("bad").Status)
}

func TestToggleFlipsSingleTool(t *testing.T) {
	prober := &stubProber{results: map[string]ProbeResult{
		"fs": {Status: "connected", Tools: []ToolDeclaration{
			{Name: "read_file"},
			{Name: "write_file"},
		}},
	}}
	v := NewValidator(NewRegistry(), WithProber(prober))
	v.Validate(context.Background(), stdioConfig("fs"))

	require.True(t, v.Registry().Toggle("fs", "read_file"))

	state := v.Registry().State("fs")
	assert.False(t, state.Tools[0].Enabled)
	assert.True(t, state.Tools[1].Enabled)

	// Toggling does not re-probe.
	assert.Len(t, prober.probes, 1)

	assert.False(t, v.Registry().Toggle("fs", "missing"))
	assert.False(t, v.Registry().Toggle("ghost", "read_file"))
}

func TestRefreshUsesDeclaredConfig(t *testing.T) {
	prober := &stubProber{results: map[string]ProbeResult{
		"fs": {Status: "connected"},
	}}
	v := NewValidator(NewRegistry(), WithProber(prober))

	declared := stdioConfig("fs")
	v.Validate(context.Background(), declared)

	_, err := v.Refresh(context.Background(), "fs")
	require.NoError(t, err)

	require.Len(t, prober.probes, 2)
	assert.Equal(t, declared.Command, prober.probes[1].Command)
	assert.Equal(t, declared.Args, prober.probes[1].Args)

	_, err = v.Refresh(context.Background(), "undeclared")
	require.Error(t, err)
}

// sequencedProber blocks its first probe until released and answers later
// probes immediately, to simulate a slow response overtaken by a newer one.
type sequencedProber struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	started chan struct{}
}

func (p *sequencedProber) Probe(ctx context.Context, cfg ServerConfig) (ProbeResult, error) {
	p.mu.Lock()
	p.calls++
	first := p.calls == 1
	p.mu.Unlock()
	if first {
		close(p.started)
		<-p.release
		return ProbeResult{Status: "connected", Tools: []ToolDeclaration{{Name: "slow"}}}, nil
	}
	return ProbeResult{Status: "connected", Tools: []ToolDeclaration{{Name: "fresh"}}}, nil
}

func TestStaleProbeResultDiscarded(t *testing.T) {
	prober := &sequencedProber{
		release: make(chan struct{}),
		started: make(chan struct{}),
	}
	v := NewValidator(NewRegistry(), WithProber(prober))

	done := make(chan RuntimeState, 1)
	go func() {
		done <- v.Validate(context.Background(), stdioConfig("fs"))
	}()

	// Wait for the slow probe to be issued, then race a newer one past it.
	<-prober.started
	fresh := v.Validate(context.Background(), stdioConfig("fs"))
	require.Equal(t, "fresh", fresh.Tools[0].Name)

	close(prober.release)
	stale := <-done

	// The slow probe reports whatever is current instead of overwriting it.
	require.Len(t, stale.Tools, 1)
	assert.Equal(t, "fresh", stale.Tools[0].Name)
	assert.Equal(t, "fresh", v.Registry().State("fs").Tools[0].Name)
}

func TestRegistryStateUnknownServer(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, StatusDisconnected, reg.State("nope").Status)
}

func TestRegistryForget(t *testing.T) {
	reg := NewRegistry()
	reg.Declare(stdioConfig("fs"))
	_, ok := reg.Config("fs")
	require.True(t, ok)

	reg.Forget("fs")
	_, ok = reg.Config("fs")
	assert.False(t, ok)
	assert.Equal(t, StatusDisconnected, reg.State("fs").Status)
}
