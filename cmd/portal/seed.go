// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/olegiv/community-portal/internal/auth"
	"github.com/olegiv/community-portal/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert users, categories, tags and events from a YAML fixture file",
	Long: `Seed inserts fixtures that do not exist yet; running it twice is safe.

Without --file a single admin account (admin@example.com) is created.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		var fx *store.Fixtures
		if file != "" {
			var err error
			if fx, err = store.LoadFixtures(file); err != nil {
				return err
			}
		}

		_, db, logger, cleanup, err := bootstrap()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := store.Seed(cmd.Context(), db, fx, auth.HashPassword); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
		logger.Info("seed complete", "file", file)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringP("file", "f", "", "YAML fixture file")
}
