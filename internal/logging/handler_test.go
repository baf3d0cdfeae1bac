// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/community-portal/internal/model"
	"github.com/olegiv/community-portal/internal/store"
	"github.com/olegiv/community-portal/internal/testutil"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func entries(t *testing.T, q *store.Queries) []store.EventLog {
	t.Helper()
	list, err := q.ListEventLogs(context.Background(), "", 50)
	require.NoError(t, err)
	return list
}

func TestEventLogHandler_MirrorsWarnAndAbove(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	q := store.New(db)

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Info("routine startup")
	logger.Debug("noise")
	assert.Empty(t, entries(t, q))

	logger.Error("database connection failed", "host", "localhost", "port", 5432)
	logger.Warn("failed login attempt", "email", "a@example.com")

	list := entries(t, q)
	require.Len(t, list, 2)

	byMsg := map[string]store.EventLog{}
	for _, e := range list {
		byMsg[e.Message] = e
	}
	dbErr := byMsg["database connection failed"]
	assert.Equal(t, model.LogLevelError, dbErr.Level)
	assert.Equal(t, model.LogCategorySystem, dbErr.Category)
	var meta map[string]string
	require.NoError(t, json.Unmarshal([]byte(dbErr.Metadata), &meta))
	assert.Equal(t, "localhost", meta["host"])
	assert.Equal(t, "5432", meta["port"])

	login := byMsg["failed login attempt"]
	assert.Equal(t, model.LogLevelWarning, login.Level)
	assert.Equal(t, model.LogCategoryAuth, login.Category)
}

func TestEventLogHandler_ExplicitCategoryAndUser(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	q := store.New(db)
	user := testutil.CreateUser(t, db, "u@example.com", model.RoleUser)

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Warn("something odd", "category", model.LogCategoryFile, "user_id", user.ID)

	list := entries(t, q)
	require.Len(t, list, 1)
	assert.Equal(t, model.LogCategoryFile, list[0].Category)
	assert.True(t, list[0].UserID.Valid)
	assert.Equal(t, user.ID, list[0].UserID.Int64)
}

func TestEventLogHandler_WithAttrsAndGroup(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	q := store.New(db)

	logger := slog.New(NewEventLogHandler(discardHandler{}, db)).
		With("request_id", "abc").
		WithGroup("job")
	logger.Error("prune failed", "name", "prune_event_log")

	list := entries(t, q)
	require.Len(t, list, 1)
	var meta map[string]string
	require.NoError(t, json.Unmarshal([]byte(list[0].Metadata), &meta))
	assert.Equal(t, "abc", meta["request_id"])
	assert.Equal(t, "prune_event_log", meta["job.name"])
}

func TestEventLogHandler_CustomLevel(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	q := store.New(db)

	logger := slog.New(NewEventLogHandlerWithLevel(discardHandler{}, db, slog.LevelError))
	logger.Warn("cache miss storm")
	assert.Empty(t, entries(t, q))
	logger.Error("cache backend down")
	list := entries(t, q)
	require.Len(t, list, 1)
	assert.Equal(t, model.LogCategoryCache, list[0].Category)
}

func TestInferCategory(t *testing.T) {
	tests := map[string]string{
		"invalid token":            model.LogCategoryAuth,
		"comment rejected":         model.LogCategoryComment,
		"post update failed":       model.LogCategoryPost,
		"registration failed":      model.LogCategoryEvent,
		"upload too large":         model.LogCategoryFile,
		"notification push failed": model.LogCategoryNotification,
		"user lookup failed":       model.LogCategoryUser,
		"disk full":                model.LogCategorySystem,
	}
	for msg, want := range tests {
		assert.Equal(t, want, inferCategory(msg), msg)
	}
}
