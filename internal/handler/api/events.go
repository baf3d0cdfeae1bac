// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/community-portal/internal/query"
	"github.com/olegiv/community-portal/internal/service"
)

// ListEvents handles GET /api/events.
// Query: search, organizerId, upcoming, page, limit, sortBy, sortOrder.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q, err := query.ParseEvents(r.URL.Query())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	page, err := h.svc.Events.List(r.Context(), q)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WritePage(w, page)
}

// GetEvent handles GET /api/events/{id}.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	e, err := h.svc.Events.Get(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, e, nil)
}

// CreateEvent handles POST /api/events.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	var in service.EventInput
	if !decodeJSON(w, r, &in) {
		return
	}
	e, err := h.svc.Events.Create(r.Context(), u, in)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteCreated(w, e)
}

// UpdateEvent handles PATCH /api/events/{id}.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var patch service.EventPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	e, err := h.svc.Events.Update(r.Context(), u, id, patch)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, e, nil)
}

// DeleteEvent handles DELETE /api/events/{id}.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Events.Delete(r.Context(), u, id); err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegisterForEvent handles POST /api/events/{id}/register.
func (h *Handler) RegisterForEvent(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	reg, err := h.svc.Registrations.Register(r.Context(), id, u.ID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteCreated(w, reg)
}

// UnregisterFromEvent handles DELETE /api/events/{id}/register.
func (h *Handler) UnregisterFromEvent(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Registrations.Unregister(r.Context(), id, u.ID); err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEventRegistrations handles GET /api/events/{id}/registrations.
func (h *Handler) ListEventRegistrations(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	regs, err := h.svc.Registrations.ListForEvent(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, regs, nil)
}

// ListMyRegistrations handles GET /api/events/user/registrations.
func (h *Handler) ListMyRegistrations(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	regs, err := h.svc.Registrations.ListForUser(r.Context(), u.ID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, regs, nil)
}

// RegistrationStatus handles GET /api/events/{id}/registration-status.
func (h *Handler) RegistrationStatus(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	st, err := h.svc.Registrations.Status(r.Context(), id, u.ID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, st, nil)
}
