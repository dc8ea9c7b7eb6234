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
	"fmt"
	"net/http"
	"sync"
	"time"

	mcp "trpc.group/trpc-go/trpc-mcp-go"

	"trpc.group/trpc-go/trpc-agent-composer/log"
)

const defaultProbeTimeout = 30 * time.Second

// ProbeResult is what a probe reports about a live server. Status "connected"
// is the only value treated as success; anything else maps to an error state.
type ProbeResult struct {
	Status string
	Tools  []ToolDeclaration
}

// ToolDeclaration is a capability reported by a probed server.
type ToolDeclaration struct {
	Name        string
	Description string
}

// Prober issues a single validation request against a declared server.
type Prober interface {
	Probe(ctx context.Context, cfg ServerConfig) (ProbeResult, error)
}

// Validator probes declared servers and resolves their runtime state.
//
// Each probe is stamped with a per-server generation counter so that a slow
// probe completing after a newer one was issued cannot overwrite the fresher
// observation.
type Validator struct {
	reg     *Registry
	prober  Prober
	timeout time.Duration

	mu  sync.Mutex
	gen map[string]uint64
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithProber overrides the prober used to reach servers. Mainly used in tests.
func WithProber(p Prober) ValidatorOption {
	return func(v *Validator) {
		if p != nil {
			v.prober = p
		}
	}
}

// WithProbeTimeout bounds how long a single probe may take.
func WithProbeTimeout(d time.Duration) ValidatorOption {
	return func(v *Validator) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// NewValidator creates a validator over the given registry. By default probes
// are issued with a real MCP client.
func NewValidator(reg *Registry, opts ...ValidatorOption) *Validator {
	v := &Validator{
		reg:     reg,
		prober:  &clientProber{},
		timeout: defaultProbeTimeout,
		gen:     make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Registry returns the registry the validator resolves state into.
func (v *Validator) Registry() *Registry { return v.reg }

// Validate declares cfg in the registry, probes the server and resolves its
// runtime state. The returned state is the final observation: connected with
// the discovered tool list (all enabled), or error with a message. A failed
// probe keeps the previously discovered tools as stale-but-displayed.
func (v *Validator) Validate(ctx context.Context, cfg ServerConfig) RuntimeState {
	v.reg.Declare(cfg)
	generation := v.nextGeneration(cfg.ID)

	prev := v.reg.State(cfg.ID)
	v.reg.setState(cfg.ID, RuntimeState{Status: StatusConnecting, Tools: prev.Tools})

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	next := v.probe(ctx, cfg, prev)
	if !v.isCurrent(cfg.ID, generation) {
		// A newer probe was issued while this one was in flight.
		log.Debugf("discarding stale probe result for mcp server %s", cfg.ID)
		return v.reg.State(cfg.ID)
	}
	v.reg.setState(cfg.ID, next)
	return next.clone()
}

// Refresh re-probes a server using its declared config from the registry, not
// any runtime copy the caller may hold.
func (v *Validator) Refresh(ctx context.Context, serverID string) (RuntimeState, error) {
	cfg, ok := v.reg.Config(serverID)
	if !ok {
		return RuntimeState{}, fmt.Errorf("mcp server %s is not declared", serverID)
	}
	return v.Validate(ctx, cfg), nil
}

func (v *Validator) probe(ctx context.Context, cfg ServerConfig, prev RuntimeState) RuntimeState {
	result, err := v.prober.Probe(ctx, cfg)
	if err != nil {
		log.Warnf("mcp probe failed for server %s: %v", cfg.ID, err)
		return RuntimeState{
			Status:       StatusError,
			Tools:        prev.Tools,
			ErrorMessage: err.Error(),
		}
	}
	if result.Status != "connected" {
		return RuntimeState{
			Status:       StatusError,
			Tools:        prev.Tools,
			ErrorMessage: fmt.Sprintf("unexpected server status %q", result.Status),
		}
	}
	tools := make([]ToolState, 0, len(result.Tools))
	for _, t := range result.Tools {
		tools = append(tools, ToolState{
			Name:        t.Name,
			Description: t.Description,
			Enabled:     true,
		})
	}
	return RuntimeState{Status: StatusConnected, Tools: tools}
}

func (v *Validator) nextGeneration(serverID string) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen[serverID]++
	return v.gen[serverID]
}

func (v *Validator) isCurrent(serverID string, generation uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.gen[serverID] == generation
}

// connector is the slice of the MCP client used by probing.
type connector interface {
	Initialize(ctx context.Context, req *mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context, req *mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	Close() error
}

var clientInfo = mcp.Implementation{
	Name:    "trpc-agent-composer",
	Version: "1.0.0",
}

// clientProber probes servers with a real MCP client session: connect,
// initialize, list tools, close.
type clientProber struct{}

func (p *clientProber) Probe(ctx context.Context, cfg ServerConfig) (ProbeResult, error) {
	client, err := p.dial(cfg)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("create mcp client: %w", err)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			log.Debugf("close mcp client for server %s: %v", cfg.ID, closeErr)
		}
	}()

	if _, err := client.Initialize(ctx, &mcp.InitializeRequest{}); err != nil {
		return ProbeResult{}, fmt.Errorf("initialize mcp session: %w", err)
	}
	listed, err := client.ListTools(ctx, &mcp.ListToolsRequest{})
	if err != nil {
		return ProbeResult{}, fmt.Errorf("list mcp tools: %w", err)
	}
	result := ProbeResult{Status: "connected"}
	for _, t := range listed.Tools {
		result.Tools = append(result.Tools, ToolDeclaration{
			Name:        t.Name,
			Description: t.Description,
		})
	}
	return result, nil
}

func (p *clientProber) dial(cfg ServerConfig) (connector, error) {
	switch cfg.Type {
	case TransportStdio:
		config := mcp.StdioTransportConfig{
			ServerParams: mcp.StdioServerParameters{
				Command: cfg.Command,
				Args:    cfg.Args,
			},
		}
		return mcp.NewStdioClient(config, clientInfo)
	case TransportSSE:
		var options []mcp.ClientOption
		if len(cfg.Headers) > 0 {
			headers := http.Header{}
			for k, val := range cfg.Headers {
				headers.Set(k, val)
			}
			options = append(options, mcp.WithHTTPHeaders(headers))
		}
		return mcp.NewClient(cfg.URL, clientInfo, options...)
	default:
		return nil, fmt.Errorf("unsupported transport: %s", cfg.Type)
	}
}
