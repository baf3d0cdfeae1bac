// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/community-portal/internal/service"
)

// ListCategories handles GET /api/categories. With ?tree=true the categories
// are nested under their parents.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	list := h.svc.Taxonomy.Categories
	if r.URL.Query().Get("tree") == "true" {
		list = h.svc.Taxonomy.CategoryTree
	}
	cats, err := list(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, cats, nil)
}

// GetCategory handles GET /api/categories/{id}.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.svc.Taxonomy.Category(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, c, nil)
}

// CreateCategory handles POST /api/categories (moderators).
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	var in service.CategoryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.svc.Taxonomy.CreateCategory(r.Context(), u, in)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteCreated(w, c)
}

// UpdateCategory handles PATCH /api/categories/{id} (moderators).
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var patch service.CategoryPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	c, err := h.svc.Taxonomy.UpdateCategory(r.Context(), u, id, patch)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, c, nil)
}

// DeleteCategory handles DELETE /api/categories/{id} (moderators).
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Taxonomy.DeleteCategory(r.Context(), u, id); err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTags handles GET /api/tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.Taxonomy.Tags(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, tags, nil)
}

// GetTag handles GET /api/tags/{id}.
func (h *Handler) GetTag(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.svc.Taxonomy.Tag(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, t, nil)
}

// CreateTag handles POST /api/tags (moderators).
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	var in service.TagInput
	if !decodeJSON(w, r, &in) {
		return
	}
	t, err := h.svc.Taxonomy.CreateTag(r.Context(), u, in)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteCreated(w, t)
}

// UpdateTag handles PATCH /api/tags/{id} (moderators).
func (h *Handler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var patch service.TagPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	t, err := h.svc.Taxonomy.UpdateTag(r.Context(), u, id, patch)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, t, nil)
}

// DeleteTag handles DELETE /api/tags/{id} (moderators).
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Taxonomy.DeleteTag(r.Context(), u, id); err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
