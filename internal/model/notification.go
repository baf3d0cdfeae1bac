// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"time"

	"github.com/olegiv/community-portal/internal/store"
)

// Notification types.
const (
	NotificationComment           = "comment"
	NotificationReply             = "reply"
	NotificationLike              = "like"
	NotificationEventRegistration = "event_registration"
	NotificationEventUpdate       = "event_update"
	NotificationSystem            = "system"
)

// Notification statuses.
const (
	NotificationUnread   = "unread"
	NotificationRead     = "read"
	NotificationArchived = "archived"
)

func ValidNotificationType(t string) bool {
	switch t {
	case NotificationComment, NotificationReply, NotificationLike,
		NotificationEventRegistration, NotificationEventUpdate, NotificationSystem:
		return true
	}
	return false
}

func ValidNotificationStatus(s string) bool {
	return s == NotificationUnread || s == NotificationRead || s == NotificationArchived
}

// Notification is addressed to a single user.
type Notification struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"userId"`
	Type      string         `json:"type"`
	Status    string         `json:"status"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"createdAt"`
	ReadAt    *time.Time     `json:"readAt,omitempty"`
}

// NewNotification converts a storage row. Unparseable metadata becomes an
// empty map.
func NewNotification(n store.Notification) Notification {
	out := Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Status:    n.Status,
		Title:     n.Title,
		Message:   n.Message,
		Metadata:  map[string]any{},
		CreatedAt: n.CreatedAt,
	}
	if n.Metadata != "" {
		_ = json.Unmarshal([]byte(n.Metadata), &out.Metadata)
	}
	if n.ReadAt.Valid {
		t := n.ReadAt.Time
		out.ReadAt = &t
	}
	return out
}
