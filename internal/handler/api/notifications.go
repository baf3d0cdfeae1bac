// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/community-portal/internal/query"
)

// ListNotifications handles GET /api/notifications.
// Query: status (unread|read|archived), page, limit.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	p, err := query.ParsePagination(r.URL.Query())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	page, err := h.svc.Notifications.List(r.Context(), u.ID, r.URL.Query().Get("status"), p)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WritePage(w, page)
}

// UnreadCount handles GET /api/notifications/unread-count.
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	n, err := h.svc.Notifications.UnreadCount(r.Context(), u.ID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, map[string]int64{"count": n}, nil)
}

// MarkNotificationRead handles PATCH /api/notifications/{id}/read.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	n, err := h.svc.Notifications.MarkRead(r.Context(), u.ID, id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, n, nil)
}

// MarkAllNotificationsRead handles PATCH /api/notifications/read-all.
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	n, err := h.svc.Notifications.MarkAllRead(r.Context(), u.ID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, map[string]int64{"updated": n}, nil)
}

// DeleteNotification handles DELETE /api/notifications/{id}.
func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Notifications.Delete(r.Context(), u.ID, id); err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
