// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/metrics"
	"github.com/olegiv/community-portal/internal/model"
	"github.com/olegiv/community-portal/internal/query"
	"github.com/olegiv/community-portal/internal/realtime"
	"github.com/olegiv/community-portal/internal/store"
)

// NotificationInput describes a notification to create.
type NotificationInput struct {
	UserID   int64
	Type     string
	Title    string
	Message  string
	Metadata map[string]any
}

// NotificationService stores notifications and pushes them to connected clients.
type NotificationService struct {
	queries   *store.Queries
	publisher Publisher
	logger    *slog.Logger
}

// NewNotificationService creates a NotificationService. publisher may be nil.
func NewNotificationService(db *sql.DB, publisher Publisher, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		queries:   store.New(db),
		publisher: publisherOrNop(publisher),
		logger:    logger,
	}
}

// Create stores a notification and pushes it to the recipient.
func (s *NotificationService) Create(ctx context.Context, in NotificationInput) (model.Notification, error) {
	bad := map[string]string{}
	if in.UserID <= 0 {
		bad["userId"] = "is required"
	}
	if !model.ValidNotificationType(in.Type) {
		bad["type"] = "must be one of comment, reply, like, event_registration, event_update, system"
	}
	if in.Title == "" {
		bad["title"] = "is required"
	}
	if len(bad) > 0 {
		return model.Notification{}, apperr.Validation(bad)
	}

	meta := "{}"
	if in.Metadata != nil {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return model.Notification{}, apperr.Validation(map[string]string{"metadata": "must be a JSON object"})
		}
		meta = string(raw)
	}

	row, err := s.queries.CreateNotification(ctx, store.CreateNotificationParams{
		UserID:    in.UserID,
		Type:      in.Type,
		Title:     in.Title,
		Message:   in.Message,
		Metadata:  meta,
		CreatedAt: now(),
	})
	if err != nil {
		return model.Notification{}, fmt.Errorf("creating notification: %w", err)
	}

	n := model.NewNotification(row)
	metrics.NotificationsCreated.WithLabelValues(n.Type).Inc()
	s.publisher.PublishToUser(n.UserID, realtime.TypeNotification, n)
	return n, nil
}

// Notify is Create for side effects: failures are logged, never returned.
func (s *NotificationService) Notify(ctx context.Context, in NotificationInput) {
	if s == nil {
		return
	}
	if _, err := s.Create(ctx, in); err != nil {
		s.logger.Warn("failed to create notification",
			"user_id", in.UserID, "type", in.Type, "error", err)
	}
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID int64, status string, p query.Pagination) (model.Page[model.Notification], error) {
	if status != "" && !model.ValidNotificationStatus(status) {
		return model.Page[model.Notification]{}, apperr.Validation(map[string]string{"status": "must be unread, read or archived"})
	}

	rows, err := s.queries.ListNotifications(ctx, store.ListNotificationsParams{
		UserID: userID,
		Status: status,
		Limit:  int64(p.Limit),
		Offset: p.Offset(),
	})
	if err != nil {
		return model.Page[model.Notification]{}, fmt.Errorf("listing notifications: %w", err)
	}
	total, err := s.queries.CountNotifications(ctx, userID, status)
	if err != nil {
		return model.Page[model.Notification]{}, fmt.Errorf("counting notifications: %w", err)
	}

	items := make([]model.Notification, len(rows))
	for i, r := range rows {
		items[i] = model.NewNotification(r)
	}
	return model.NewPage(items, total, p.Page, p.Limit), nil
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	n, err := s.queries.CountNotifications(ctx, userID, model.NotificationUnread)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return n, nil
}

// owned loads a notification and checks it belongs to userID. Someone else's
// notification is reported as missing.
func (s *NotificationService) owned(ctx context.Context, userID, id int64) (store.Notification, error) {
	n, err := s.queries.GetNotificationByID(ctx, id)
	if err != nil {
		return store.Notification{}, notFound(err, apperr.ErrNotificationNotFound)
	}
	if n.UserID != userID {
		return store.Notification{}, apperr.ErrNotificationNotFound
	}
	return n, nil
}

// MarkRead marks one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id int64) (model.Notification, error) {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return model.Notification{}, err
	}
	row, err := s.queries.MarkNotificationRead(ctx, now(), id)
	if err != nil {
		return model.Notification{}, notFound(err, apperr.ErrNotificationNotFound)
	}
	return model.NewNotification(row), nil
}

// MarkAllRead marks every unread notification of the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.queries.MarkAllNotificationsRead(ctx, now(), userID)
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}
	return n, nil
}

// Delete removes one notification.
func (s *NotificationService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if _, err := s.queries.DeleteNotification(ctx, id); err != nil {
		return fmt.Errorf("deleting notification: %w", err)
	}
	return nil
}

// PruneRead removes read notifications older than maxAge.
func (s *NotificationService) PruneRead(ctx context.Context, maxAge time.Duration) (int64, error) {
	n, err := s.queries.DeleteReadNotificationsBefore(ctx, now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("pruning notifications: %w", err)
	}
	return n, nil
}
