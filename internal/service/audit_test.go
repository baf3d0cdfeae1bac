// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/community-portal/internal/model"
	"github.com/olegiv/community-portal/internal/testutil"
)

func TestAuditService_LogAndRecent(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := NewAuditService(db, testutil.TestLoggerSilent())
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "audited@example.com", model.RoleUser)
	userID := user.ID
	require.NoError(t, svc.LogAuthEvent(ctx, model.LogLevelInfo, "User logged in", &userID, "192.168.1.100", map[string]any{"email": "a@b.c"}))
	require.NoError(t, svc.LogPostEvent(ctx, model.LogLevelInfo, "Post deleted", nil, nil))

	auth, err := svc.Recent(ctx, model.LogCategoryAuth, 10)
	require.NoError(t, err)
	require.Len(t, auth, 1)
	assert.Equal(t, "User logged in", auth[0].Message)
	assert.Equal(t, "192.168.1.100", auth[0].IpAddress)
	assert.Equal(t, user.ID, auth[0].UserID.Int64)
	assert.JSONEq(t, `{"email":"a@b.c"}`, auth[0].Metadata)

	all, err := svc.Recent(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAuditService_DeleteOldEvents(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := NewAuditService(db, testutil.TestLoggerSilent())
	ctx := context.Background()

	require.NoError(t, svc.LogEvent(ctx, model.LogLevelWarning, model.LogCategorySystem, "fresh", nil, "", nil))
	_, err := db.Exec(`INSERT INTO event_log (level, category, message, user_id, ip_address, metadata, created_at)
		VALUES ('info', 'system', 'stale', NULL, '', '{}', ?)`, time.Now().UTC().Add(-100*24*time.Hour))
	require.NoError(t, err)

	n, err := svc.DeleteOldEvents(ctx, 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := svc.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "fresh", left[0].Message)
}
