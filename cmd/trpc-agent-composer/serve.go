//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trpc-agent-composer/composer"
	"trpc.group/trpc-go/trpc-agent-composer/evaluation/evalset"
	evalsetinmemory "trpc.group/trpc-go/trpc-agent-composer/evaluation/evalset/inmemory"
	evalsetlocal "trpc.group/trpc-go/trpc-agent-composer/evaluation/evalset/local"
	evalsetredis "trpc.group/trpc-go/trpc-agent-composer/evaluation/evalset/redis"
	"trpc.group/trpc-go/trpc-agent-composer/log"
	"trpc.group/trpc-go/trpc-agent-composer/server"
	"trpc.group/trpc-go/trpc-agent-composer/storage/agentfile"
	"trpc.group/trpc-go/trpc-agent-composer/storage/postgres"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the composer HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		agentsDir, _ := cmd.Flags().GetString("agents-dir")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		redisAddr, _ := cmd.Flags().GetString("redis-addr")
		postgresDSN, _ := cmd.Flags().GetString("postgres-dsn")

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		var sets evalset.Manager
		switch {
		case redisAddr != "":
			sets = evalsetredis.New(redisAddr)
			log.Infof("using redis eval set storage at %s", redisAddr)
		case dataDir != "":
			sets = evalsetlocal.New(dataDir)
			log.Infof("using local eval set storage under %s", dataDir)
		default:
			sets = evalsetinmemory.New()
		}

		if agentsDir != "" {
			if err := loadAgents(ctx, agentsDir, postgresDSN); err != nil {
				return err
			}
		}

		srv := &http.Server{Addr: addr, Handler: server.New(server.WithEvalSetManager(sets)).Handler()}

		serverErrors := make(chan error, 1)
		go func() {
			log.Infof("composer server listening on %s", addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case sig := <-shutdown:
			log.Infof("received %v, shutting down", sig)
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				srv.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}
		}
		return nil
	},
}

// loadAgents reads the agent definition directory and, when a DSN is given,
// mirrors the resulting graph layout into PostgreSQL.
func loadAgents(ctx context.Context, agentsDir, postgresDSN string) error {
	files := agentfile.New(agentsDir)
	nodes, err := files.LoadDir()
	if err != nil {
		return fmt.Errorf("load agents from %s: %w", agentsDir, err)
	}
	edges := agentfile.BuildEdges(nodes)
	log.Infof("loaded %d agents (%d edges) from %s", len(nodes), len(edges), agentsDir)
	if roots := composer.Roots(nodes); len(roots) > 1 {
		log.Warnf("%d agents are flagged as root; expected at most one", len(roots))
	}

	if postgresDSN == "" {
		return nil
	}
	store, err := postgres.Connect(ctx, postgresDSN)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := store.SaveGraph(ctx, "default", nodes, edges); err != nil {
		return err
	}
	log.Infof("mirrored graph layout to postgres")
	return nil
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().String("agents-dir", "", "Directory with YAML agent definitions")
	serveCmd.Flags().String("data-dir", "", "Directory for local eval set storage")
	serveCmd.Flags().String("redis-addr", "", "Redis address for eval set storage")
	serveCmd.Flags().String("postgres-dsn", "", "PostgreSQL DSN for graph layout storage")
	rootCmd.AddCommand(serveCmd)
}
