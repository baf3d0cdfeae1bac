// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/community-portal/internal/middleware"
	"github.com/olegiv/community-portal/internal/model"
	"github.com/olegiv/community-portal/internal/query"
	"github.com/olegiv/community-portal/internal/service"
)

// ListPosts handles GET /api/posts.
// Query: search, status, visibility, authorId, categoryId, tagId, page, limit,
// sortBy, sortOrder, include.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q, err := query.ParsePosts(r.URL.Query())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	page, err := h.svc.Posts.List(r.Context(), middleware.GetUser(r), q)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WritePage(w, page)
}

// GetPost handles GET /api/posts/{id}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	post, err := h.svc.Posts.Get(r.Context(), middleware.GetUser(r), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, post, nil)
}

// CreatePost handles POST /api/posts.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	var in service.PostInput
	if !decodeJSON(w, r, &in) {
		return
	}
	post, err := h.svc.Posts.Create(r.Context(), u, in)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteCreated(w, post)
}

// UpdatePost handles PATCH /api/posts/{id}.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var patch service.PostPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	post, err := h.svc.Posts.Update(r.Context(), u, id, patch)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, post, nil)
}

// DeletePost handles DELETE /api/posts/{id}.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Posts.Delete(r.Context(), u, id); err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPostComments handles GET /api/posts/{id}/comments.
func (h *Handler) ListPostComments(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	tree, err := h.svc.Comments.ListForPost(r.Context(), middleware.GetUser(r), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, tree, nil)
}

// CreatePostComment handles POST /api/posts/{id}/comments.
func (h *Handler) CreatePostComment(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var in service.CommentInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.svc.Comments.Create(r.Context(), u, id, in)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteCreated(w, c)
}

// LikePost handles POST /api/posts/{id}/like.
func (h *Handler) LikePost(w http.ResponseWriter, r *http.Request) {
	h.like(w, r, model.PostTarget)
}

// UnlikePost handles DELETE /api/posts/{id}/like.
func (h *Handler) UnlikePost(w http.ResponseWriter, r *http.Request) {
	h.unlike(w, r, model.PostTarget)
}

// LikeComment handles POST /api/comments/{id}/like.
func (h *Handler) LikeComment(w http.ResponseWriter, r *http.Request) {
	h.like(w, r, model.CommentTarget)
}

// UnlikeComment handles DELETE /api/comments/{id}/like.
func (h *Handler) UnlikeComment(w http.ResponseWriter, r *http.Request) {
	h.unlike(w, r, model.CommentTarget)
}

func (h *Handler) like(w http.ResponseWriter, r *http.Request, target func(int64) model.LikeTarget) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	sum, err := h.svc.Likes.Like(r.Context(), u, target(id))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteCreated(w, sum)
}

func (h *Handler) unlike(w http.ResponseWriter, r *http.Request, target func(int64) model.LikeTarget) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	sum, err := h.svc.Likes.Unlike(r.Context(), u, target(id))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, sum, nil)
}
