// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/olegiv/community-portal/internal/config"
	"github.com/olegiv/community-portal/internal/logging"
	"github.com/olegiv/community-portal/internal/store"
)

// bootstrap loads configuration, sets up logging and opens a migrated
// database. The returned cleanup closes the database.
func bootstrap() (*config.Config, *sql.DB, *slog.Logger, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(consoleHandler(cfg))
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath, "driver", cfg.DBDriver)
	dbCfg := store.DefaultDBConfig()
	dbCfg.Driver = cfg.DBDriver
	db, err := store.NewDBWithConfig(cfg.DBPath, dbCfg)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("initializing database: %w", err)
	}
	cleanup := func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		cleanup()
		return nil, nil, nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log table
	logger = slog.New(logging.NewEventLogHandler(consoleHandler(cfg), db))
	slog.SetDefault(logger)

	return cfg, db, logger, cleanup, nil
}

// consoleHandler writes text logs in development and JSON otherwise.
func consoleHandler(cfg *config.Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsDevelopment() {
		return slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.NewJSONHandler(os.Stdout, opts)
}
