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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trpc-agent-composer/log"
)

var rootCmd = &cobra.Command{
	Use:   "trpc-agent-composer",
	Short: "Backend service for the visual agent graph composer",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		log.SetLevel(level)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error or fatal")
}
