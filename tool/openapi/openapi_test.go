//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

package openapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agent-composer/composer"
)

const petstoreSpec = `{
  "openapi": "3.0.0",
  "info": {"title": "Petstore", "version": "1.0.0"},
  "paths": {
    "/pets": {
      "get": {
        "operationId": "listPets",
        "description": "List all pets",
        "responses": {"200": {"description": "ok"}}
      },
      "post": {
        "summary": "Create a pet",
        "responses": {"201": {"description": "created"}}
      }
    },
    "/pets/{petId}": {
      "get": {
        "operationId": "getPet",
        "summary": "Get one pet",
        "parameters": [{
          "name": "petId", "in": "path", "required": true,
          "schema": {"type": "string"}
        }],
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`

func TestImportData(t *testing.T) {
	tools, err := ImportData(context.Background(), []byte(petstoreSpec))
	require.NoError(t, err)
	assert.Equal(t, []composer.ToolDeclaration{
		{Name: "getPet", Description: "Get one pet"},
		{Name: "listPets", Description: "List all pets"},
		{Name: "post_/pets", Description: "Create a pet"},
	}, tools)
}

func TestImportDataYAML(t *testing.T) {
	spec := `
openapi: 3.0.0
info:
  title: Minimal
  version: 1.0.0
paths:
  /health:
    get:
      operationId: getHealth
      responses:
        "200":
          description: ok
`
	tools, err := ImportData(context.Background(), []byte(spec))
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "getHealth", tools[0].Name)
	assert.Empty(t, tools[0].Description)
}

func TestImportDataInvalidDocument(t *testing.T) {
	_, err := ImportData(context.Background(), []byte(`{"openapi": "3.0.0"}`))
	require.Error(t, err)
}

func TestImportDataMalformed(t *testing.T) {
	_, err := ImportData(context.Background(), []byte(`{{{`))
	require.Error(t, err)
}

func TestImportDataNoPaths(t *testing.T) {
	spec := `{
  "openapi": "3.0.0",
  "info": {"title": "Empty", "version": "1.0.0"},
  "paths": {}
}`
	tools, err := ImportData(context.Background(), []byte(spec))
	require.NoError(t, err)
	assert.Empty(t, tools)
}
