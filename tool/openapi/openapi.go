//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

// Package openapi imports OpenAPI documents as tool declarations for a node's
// openapi tool collection.
package openapi

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	openapi "github.com/getkin/kin-openapi/openapi3"

	"trpc.group/trpc-go/trpc-agent-composer/composer"
)

var pathItemMethods = [...]string{
	http.MethodConnect,
	http.MethodDelete,
	http.MethodGet,
	http.MethodHead,
	http.MethodOptions,
	http.MethodPatch,
	http.MethodPost,
	http.MethodPut,
	http.MethodTrace,
}

// ImportData parses an OpenAPI document (JSON or YAML) and returns one tool
// declaration per operation, sorted by name. Invalid documents return an
// error.
func ImportData(ctx context.Context, data []byte) ([]composer.ToolDeclaration, error) {
	loader := openapi.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return declarations(doc), nil
}

// ImportFile parses the OpenAPI document at path.
func ImportFile(ctx context.Context, path string) ([]composer.ToolDeclaration, error) {
	loader := openapi.Loader{Context: ctx}
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load openapi document %s: %w", path, err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi document %s: %w", path, err)
	}
	return declarations(doc), nil
}

func declarations(doc *openapi.T) []composer.ToolDeclaration {
	var tools []composer.ToolDeclaration
	if doc.Paths == nil {
		return tools
	}
	for path, pathItem := range doc.Paths.Map() {
		if pathItem == nil {
			continue
		}
		for method, op := range methodOperations(pathItem) {
			if op == nil {
				continue
			}
			tools = append(tools, composer.ToolDeclaration{
				Name:        operationName(op, path, method),
				Description: operationDesc(op),
			})
		}
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

func methodOperations(p *openapi.PathItem) map[string]*openapi.Operation {
	ops := [...]*openapi.Operation{
		p.Connect,
		p.Delete,
		p.Get,
		p.Head,
		p.Options,
		p.Patch,
		p.Post,
		p.Put,
		p.Trace,
	}
	out := make(map[string]*openapi.Operation, len(ops))
	for i, method := range pathItemMethods {
		if ops[i] != nil {
			out[method] = ops[i]
		}
	}
	return out
}

func operationName(op *openapi.Operation, path, method string) string {
	if op.OperationID != "" {
		return op.OperationID
	}
	return strings.ToLower(method) + "_" + path
}

func operationDesc(op *openapi.Operation) string {
	if op.Description != "" {
		return op.Description
	}
	return op.Summary
}
