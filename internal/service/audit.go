// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the portal's business logic on top of the store:
// event registration, posts, comments, likes, taxonomy, notifications, files,
// users and the audit trail.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/community-portal/internal/model"
	"github.com/olegiv/community-portal/internal/store"
)

// AuditService writes audit entries into the event log.
type AuditService struct {
	queries *store.Queries
	logger  *slog.Logger
}

// NewAuditService creates a new AuditService.
func NewAuditService(db *sql.DB, logger *slog.Logger) *AuditService {
	return &AuditService{
		queries: store.New(db),
		logger:  logger,
	}
}

// LogEvent creates a new event log entry.
func (s *AuditService) LogEvent(ctx context.Context, level, category, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	var nullUserID sql.NullInt64
	if userID != nil {
		nullUserID = sql.NullInt64{Int64: *userID, Valid: true}
	}

	metadataJSON := "{}"
	if metadata != nil {
		jsonBytes, err := json.Marshal(metadata)
		if err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	err := s.queries.CreateEventLog(ctx, store.CreateEventLogParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    nullUserID,
		IpAddress: ipAddress,
		Metadata:  metadataJSON,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to write audit entry", "category", category, "error", err)
		return fmt.Errorf("writing audit entry: %w", err)
	}
	return nil
}

// LogAuthEvent logs an authentication-related event.
func (s *AuditService) LogAuthEvent(ctx context.Context, level, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.LogCategoryAuth, message, userID, ipAddress, metadata)
}

// LogUserEvent logs a user-related event.
func (s *AuditService) LogUserEvent(ctx context.Context, level, message string, userID *int64, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.LogCategoryUser, message, userID, "", metadata)
}

// LogEventEvent logs an event-management entry (create, update, delete).
func (s *AuditService) LogEventEvent(ctx context.Context, level, message string, userID *int64, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.LogCategoryEvent, message, userID, "", metadata)
}

// LogPostEvent logs a post-related event.
func (s *AuditService) LogPostEvent(ctx context.Context, level, message string, userID *int64, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.LogCategoryPost, message, userID, "", metadata)
}

// LogTaxonomyEvent logs a category or tag change.
func (s *AuditService) LogTaxonomyEvent(ctx context.Context, level, message string, userID *int64, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.LogCategoryTaxonomy, message, userID, "", metadata)
}

// Recent returns the latest entries, optionally filtered by category.
func (s *AuditService) Recent(ctx context.Context, category string, limit int64) ([]store.EventLog, error) {
	entries, err := s.queries.ListEventLogs(ctx, category, limit)
	if err != nil {
		return nil, fmt.Errorf("listing event log: %w", err)
	}
	return entries, nil
}

// DeleteOldEvents removes entries older than the specified duration.
func (s *AuditService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	n, err := s.queries.DeleteEventLogsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning event log: %w", err)
	}
	return n, nil
}

// auditUser is a nil-safe helper for the optional user pointer.
func auditUser(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
