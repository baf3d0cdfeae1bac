// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, logger, cleanup, err := bootstrap()
		if err != nil {
			return err
		}
		defer cleanup()
		logger.Info("migrations applied")
		return nil
	},
}
