// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/model"
	"github.com/olegiv/community-portal/internal/query"
	"github.com/olegiv/community-portal/internal/realtime"
	"github.com/olegiv/community-portal/internal/testutil"
)

func TestNotificationService_Lifecycle(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	pub := newRecordingPublisher()
	svc := NewNotificationService(db, pub, testutil.TestLoggerSilent())
	alice := testutil.CreateUser(t, db, "alice@example.com", model.RoleUser)
	bob := testutil.CreateUser(t, db, "bob@example.com", model.RoleUser)

	n1, err := svc.Create(ctx, NotificationInput{
		UserID:   alice.ID,
		Type:     model.NotificationSystem,
		Title:    "Welcome",
		Metadata: map[string]any{"source": "test"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.NotificationUnread, n1.Status)
	assert.Equal(t, "test", n1.Metadata["source"])
	assert.Equal(t, []string{realtime.TypeNotification}, pub.toUser[alice.ID])

	_, err = svc.Create(ctx, NotificationInput{UserID: alice.ID, Type: model.NotificationLike, Title: "Liked"})
	require.NoError(t, err)

	count, err := svc.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Bob cannot touch Alice's notifications.
	_, err = svc.MarkRead(ctx, bob.ID, n1.ID)
	require.ErrorIs(t, err, apperr.ErrNotificationNotFound)

	read, err := svc.MarkRead(ctx, alice.ID, n1.ID)
	require.NoError(t, err)
	assert.Equal(t, model.NotificationRead, read.Status)
	assert.NotNil(t, read.ReadAt)

	page, err := svc.List(ctx, alice.ID, model.NotificationUnread, query.Pagination{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	n, err := svc.MarkAllRead(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, svc.Delete(ctx, alice.ID, n1.ID))
	require.ErrorIs(t, svc.Delete(ctx, alice.ID, n1.ID), apperr.ErrNotificationNotFound)
}

func TestNotificationService_Validation(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := NewNotificationService(db, nil, testutil.TestLoggerSilent())
	_, err := svc.Create(context.Background(), NotificationInput{UserID: 1, Type: "bogus"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	_, err = svc.List(context.Background(), 1, "bogus", query.Pagination{Page: 1, Limit: 10})
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}
