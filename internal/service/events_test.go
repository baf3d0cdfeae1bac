// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/model"
	"github.com/olegiv/community-portal/internal/query"
	"github.com/olegiv/community-portal/internal/testutil"
)

func validEventInput(title string, start time.Time) EventInput {
	return EventInput{
		Title:        title,
		Location:     "Community hall",
		StartDate:    start,
		EndDate:      start.Add(2 * time.Hour),
		MaxAttendees: 3,
	}
}

func TestEventService_CreateValidation(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := NewEventService(db, nil, nil, testutil.TestLoggerSilent())
	org := model.NewUser(testutil.CreateUser(t, db, "org@example.com", model.RoleUser))

	start := time.Now().Add(24 * time.Hour)
	in := validEventInput("  ", start)
	in.EndDate = start.Add(-time.Hour)
	in.MaxAttendees = 0

	_, err := svc.Create(context.Background(), org, in)
	require.Error(t, err)

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindBadRequest, ae.Kind)
	assert.Contains(t, ae.Details, "title")
	assert.Contains(t, ae.Details, "endDate")
	assert.Contains(t, ae.Details, "maxAttendees")
}

func TestEventService_CRUD(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	audit := NewAuditService(db, testutil.TestLoggerSilent())
	notes := NewNotificationService(db, nil, testutil.TestLoggerSilent())
	svc := NewEventService(db, notes, audit, testutil.TestLoggerSilent())
	regs := NewRegistrationService(db, nil, nil, testutil.TestLoggerSilent())

	org := model.NewUser(testutil.CreateUser(t, db, "org@example.com", model.RoleUser))
	other := model.NewUser(testutil.CreateUser(t, db, "other@example.com", model.RoleUser))
	admin := model.NewUser(testutil.CreateUser(t, db, "admin@example.com", model.RoleAdmin))

	created, err := svc.Create(ctx, org, validEventInput("Meetup", time.Now().Add(48*time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, int64(3), created.AvailableSpots)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Organizer)
	assert.Equal(t, org.ID, got.Organizer.ID)

	title := "Hijacked"
	_, err = svc.Update(ctx, other, created.ID, EventPatch{Title: &title})
	require.ErrorIs(t, err, apperr.ErrNotOwner)

	_, err = regs.Register(ctx, created.ID, other.ID)
	require.NoError(t, err)
	_, err = regs.Register(ctx, created.ID, admin.ID)
	require.NoError(t, err)

	one := int64(1)
	_, err = svc.Update(ctx, org, created.ID, EventPatch{MaxAttendees: &one})
	require.ErrorIs(t, err, ErrCapacityBelowRegistered)

	newTitle := "Monthly meetup"
	two := int64(2)
	updated, err := svc.Update(ctx, admin, created.ID, EventPatch{Title: &newTitle, MaxAttendees: &two})
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)
	assert.Equal(t, int64(0), updated.AvailableSpots)

	// Registrants hear about the change.
	unread, err := notes.UnreadCount(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	require.ErrorIs(t, svc.Delete(ctx, other, created.ID), apperr.ErrNotOwner)
	require.NoError(t, svc.Delete(ctx, org, created.ID))
	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, apperr.ErrEventNotFound)

	// Registrations cascade with the event.
	mine, err := regs.ListForUser(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	// One notice for the update, one for the cancellation.
	unread, err = notes.UnreadCount(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	entries, err := audit.Recent(ctx, model.LogCategoryEvent, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestEventService_DeleteNotifiesRegistrants(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	notes := NewNotificationService(db, nil, testutil.TestLoggerSilent())
	svc := NewEventService(db, notes, nil, testutil.TestLoggerSilent())
	regs := NewRegistrationService(db, nil, nil, testutil.TestLoggerSilent())

	org := model.NewUser(testutil.CreateUser(t, db, "org@example.com", model.RoleUser))
	alice := model.NewUser(testutil.CreateUser(t, db, "alice@example.com", model.RoleUser))
	bob := model.NewUser(testutil.CreateUser(t, db, "bob@example.com", model.RoleUser))

	ev, err := svc.Create(ctx, org, validEventInput("Picnic", time.Now().Add(48*time.Hour)))
	require.NoError(t, err)
	for _, u := range []model.User{alice, bob} {
		_, err = regs.Register(ctx, ev.ID, u.ID)
		require.NoError(t, err)
	}

	require.NoError(t, svc.Delete(ctx, org, ev.ID))

	for _, u := range []model.User{alice, bob} {
		page, err := notes.List(ctx, u.ID, "", query.Pagination{Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Len(t, page.Items, 1, "user %d", u.ID)
		n := page.Items[0]
		assert.Equal(t, model.NotificationEventUpdate, n.Type)
		assert.Equal(t, "Event cancelled", n.Title)
		assert.Contains(t, n.Message, "Picnic")
		assert.Equal(t, true, n.Metadata["cancelled"])
	}

	unread, err := notes.UnreadCount(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}

func TestEventService_List(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	svc := NewEventService(db, nil, nil, testutil.TestLoggerSilent())
	org := model.NewUser(testutil.CreateUser(t, db, "org@example.com", model.RoleUser))
	other := model.NewUser(testutil.CreateUser(t, db, "other@example.com", model.RoleUser))

	_, err := svc.Create(ctx, org, validEventInput("Past workshop", time.Now().Add(-48*time.Hour)))
	require.NoError(t, err)
	_, err = svc.Create(ctx, org, validEventInput("Go workshop", time.Now().Add(24*time.Hour)))
	require.NoError(t, err)
	_, err = svc.Create(ctx, other, validEventInput("Board games", time.Now().Add(72*time.Hour)))
	require.NoError(t, err)

	q, err := query.ParseEvents(url.Values{"upcoming": {"true"}, "sortBy": {"startDate"}, "sortOrder": {"ASC"}})
	require.NoError(t, err)
	page, err := svc.List(ctx, q)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Go workshop", page.Items[0].Title)
	assert.NotNil(t, page.Items[0].Organizer)

	q, err = query.ParseEvents(url.Values{"search": {"workshop"}, "limit": {"1"}})
	require.NoError(t, err)
	page, err = svc.List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, 1)
}

func TestEventService_ListStorageFailure(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	svc := NewEventService(db, nil, nil, testutil.TestLoggerSilent())
	cleanup() // closed database

	q, err := query.ParseEvents(url.Values{})
	require.NoError(t, err)
	_, err = svc.List(context.Background(), q)
	require.ErrorIs(t, err, apperr.ErrFetchEvents)

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Failed to fetch events", ae.Message)
}
