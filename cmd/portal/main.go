// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command portal runs the community portal API server and its maintenance
// commands.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/olegiv/community-portal/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "portal",
	Short: "Community portal API server",
	Long: `portal serves the community portal REST API, realtime gateway,
health and metrics endpoints.

Configuration is read from PORTAL_* environment variables; a .env file in
the working directory is loaded first when present.`,
	Version:       version.Get().Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	// Running without a subcommand starts the server.
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.SetVersionTemplate(version.Get().String() + "\n")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	// Load .env files if present (development)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
	},
}
