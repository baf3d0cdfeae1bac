// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"

	"github.com/olegiv/community-portal/internal/query"
	"github.com/olegiv/community-portal/internal/service"
)

// SetRoleRequest is the body of PATCH /api/users/{id}/role.
type SetRoleRequest struct {
	Role string `json:"role"`
}

// ListUsers handles GET /api/users (admins). Query: search, page, limit.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	p, err := query.ParsePagination(r.URL.Query())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	page, err := h.svc.Users.List(r.Context(), u, strings.TrimSpace(r.URL.Query().Get("search")), p)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WritePage(w, page)
}

// GetUser handles GET /api/users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	user, err := h.svc.Users.Get(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, user, nil)
}

// UpdateUser handles PATCH /api/users/{id}.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var patch service.ProfilePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	user, err := h.svc.Users.UpdateProfile(r.Context(), u, id, patch)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, user, nil)
}

// SetUserRole handles PATCH /api/users/{id}/role (admins).
func (h *Handler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var in SetRoleRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	user, err := h.svc.Users.SetRole(r.Context(), u, id, in.Role)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, user, nil)
}

// DeleteUser handles DELETE /api/users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Users.Delete(r.Context(), u, id); err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
