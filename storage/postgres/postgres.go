//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

// Package postgres persists composer graph layouts in PostgreSQL via pgx,
// for server deployments where local agent files are not enough.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trpc.group/trpc-go/trpc-agent-composer/composer"
)

// Store persists nodes and edges per graph id.
type Store struct {
	db *pgxpool.Pool
}

// New creates a Store backed by the given pgx connection pool.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Connect opens a connection pool from a DSN and returns a Store on it.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(pool), nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.db.Close()
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS composer_nodes (
    id         TEXT NOT NULL,
    graph_id   TEXT NOT NULL,
    node_type  TEXT NOT NULL,
    data       JSONB,
    position   INT NOT NULL DEFAULT 0,
    PRIMARY KEY (graph_id, id)
);

CREATE TABLE IF NOT EXISTS composer_edges (
    graph_id   TEXT NOT NULL,
    source     TEXT NOT NULL,
    target     TEXT NOT NULL,
    position   INT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_composer_edges_graph ON composer_edges(graph_id);
`

// EnsureSchema creates the layout tables if they don't exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create composer schema: %w", err)
	}
	return nil
}

// SaveGraph replaces the stored layout of a graph wholesale, in one
// transaction. Insertion order is preserved on load.
func (s *Store) SaveGraph(ctx context.Context, graphID string, nodes []composer.Node, edges []composer.Edge) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin save graph %s: %w", graphID, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM composer_nodes WHERE graph_id = $1`, graphID); err != nil {
		return fmt.Errorf("clear nodes of graph %s: %w", graphID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM composer_edges WHERE graph_id = $1`, graphID); err != nil {
		return fmt.Errorf("clear edges of graph %s: %w", graphID, err)
	}
	for i, n := range nodes {
		var data []byte
		if n.Data != nil {
			data, err = json.Marshal(n.Data)
			if err != nil {
				return fmt.Errorf("marshal node %s: %w", n.ID, err)
			}
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO composer_nodes (id, graph_id, node_type, data, position) VALUES ($1, $2, $3, $4, $5)`,
			n.ID, graphID, string(n.Type), data, i,
		); err != nil {
			return fmt.Errorf("insert node %s: %w", n.ID, err)
		}
	}
	for i, e := range edges {
		if _, err := tx.Exec(ctx,
			`INSERT INTO composer_edges (graph_id, source, target, position) VALUES ($1, $2, $3, $4)`,
			graphID, e.Source, e.Target, i,
		); err != nil {
			return fmt.Errorf("insert edge %s->%s: %w", e.Source, e.Target, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save graph %s: %w", graphID, err)
	}
	return nil
}

// LoadGraph returns the stored layout of a graph. A graph with no stored
// nodes loads as empty slices.
func (s *Store) LoadGraph(ctx context.Context, graphID string) ([]composer.Node, []composer.Edge, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, node_type, data FROM composer_nodes WHERE graph_id = $1 ORDER BY position`, graphID)
	if err != nil {
		return nil, nil, fmt.Errorf("load nodes of graph %s: %w", graphID, err)
	}
	defer rows.Close()

	nodes := []composer.Node{}
	for rows.Next() {
		var (
			id, nodeType string
			data         []byte
		)
		if err := rows.Scan(&id, &nodeType, &data); err != nil {
			return nil, nil, fmt.Errorf("scan node of graph %s: %w", graphID, err)
		}
		envelope := map[string]json.RawMessage{
			"id":   mustJSON(id),
			"type": mustJSON(nodeType),
		}
		if len(data) > 0 {
			envelope["data"] = data
		}
		raw, err := json.Marshal(envelope)
		if err != nil {
			return nil, nil, fmt.Errorf("assemble node %s: %w", id, err)
		}
		var node composer.Node
		if err := node.UnmarshalJSON(raw); err != nil {
			return nil, nil, fmt.Errorf("decode node %s: %w", id, err)
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate nodes of graph %s: %w", graphID, err)
	}

	edgeRows, err := s.db.Query(ctx,
		`SELECT source, target FROM composer_edges WHERE graph_id = $1 ORDER BY position`, graphID)
	if err != nil {
		return nil, nil, fmt.Errorf("load edges of graph %s: %w", graphID, err)
	}
	defer edgeRows.Close()

	edges := []composer.Edge{}
	for edgeRows.Next() {
		var e composer.Edge
		if err := edgeRows.Scan(&e.Source, &e.Target); err != nil {
			return nil, nil, fmt.Errorf("scan edge of graph %s: %w", graphID, err)
		}
		edges = append(edges, e)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate edges of graph %s: %w", graphID, err)
	}
	return nodes, edges, nil
}

// DeleteGraph removes the stored layout of a graph.
func (s *Store) DeleteGraph(ctx context.Context, graphID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM composer_nodes WHERE graph_id = $1`, graphID); err != nil {
		return fmt.Errorf("delete nodes of graph %s: %w", graphID, err)
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM composer_edges WHERE graph_id = $1`, graphID); err != nil {
		return fmt.Errorf("delete edges of graph %s: %w", graphID, err)
	}
	return nil
}

func mustJSON(s string) json.RawMessage {
	raw, _ := json.Marshal(s)
	return raw
}
