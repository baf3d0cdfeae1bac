// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the portal.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/olegiv/community-portal/internal/store"
)

// TestJWTSecret is a signing key long enough for config validation.
const TestJWTSecret = "test-jwt-secret-with-32-bytes-ok!"

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a completely silent test logger (error level only).
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestDB creates a temporary test database with migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "portal-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() { _ = db.Close() }
}

// CreateUser inserts a user with a placeholder password hash.
func CreateUser(t *testing.T, db *sql.DB, email, role string) store.User {
	t.Helper()
	now := time.Now().UTC()
	user, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		PasswordHash: "not-a-real-hash",
		Name:         email,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return user
}

// CreateEvent inserts an event starting tomorrow with the given capacity.
func CreateEvent(t *testing.T, db *sql.DB, organizerID, maxAttendees int64) store.Event {
	t.Helper()
	now := time.Now().UTC()
	event, err := store.New(db).CreateEvent(context.Background(), store.CreateEventParams{
		OrganizerID:  organizerID,
		Title:        "Test event",
		Location:     "Main hall",
		StartDate:    now.Add(24 * time.Hour),
		EndDate:      now.Add(26 * time.Hour),
		MaxAttendees: maxAttendees,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	return event
}

// CreatePost inserts a post with the given status and visibility.
func CreatePost(t *testing.T, db *sql.DB, authorID int64, title, status, visibility string) store.Post {
	t.Helper()
	now := time.Now().UTC()
	post, err := store.New(db).CreatePost(context.Background(), store.CreatePostParams{
		AuthorID:   authorID,
		Title:      title,
		Slug:       "post",
		Content:    "content",
		Status:     status,
		Visibility: visibility,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	return post
}
