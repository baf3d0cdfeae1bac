// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
)

// UpdateCommentRequest is the body of PATCH /api/comments/{id}.
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// CommentStatusRequest is the body of PATCH /api/comments/{id}/status.
type CommentStatusRequest struct {
	Status string `json:"status"`
}

// UpdateComment handles PATCH /api/comments/{id}.
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var in UpdateCommentRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.svc.Comments.Update(r.Context(), u, id, in.Content)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, c, nil)
}

// DeleteComment handles DELETE /api/comments/{id}.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Comments.Delete(r.Context(), u, id); err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetCommentStatus handles PATCH /api/comments/{id}/status (moderators).
func (h *Handler) SetCommentStatus(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var in CommentStatusRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.svc.Comments.SetStatus(r.Context(), u, id, in.Status)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, c, nil)
}
