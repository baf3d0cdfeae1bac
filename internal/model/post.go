// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"

	"github.com/olegiv/community-portal/internal/store"
)

// Post statuses.
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
	PostStatusArchived  = "archived"
	PostStatusDeleted   = "deleted"
)

// Post visibilities.
const (
	VisibilityPublic   = "public"
	VisibilityPrivate  = "private"
	VisibilityUnlisted = "unlisted"
)

// PostStatuses lists every status; LivePostStatuses excludes deleted.
var (
	PostStatuses     = []string{PostStatusDraft, PostStatusPublished, PostStatusArchived, PostStatusDeleted}
	LivePostStatuses = []string{PostStatusDraft, PostStatusPublished, PostStatusArchived}
	Visibilities     = []string{VisibilityPublic, VisibilityPrivate, VisibilityUnlisted}
)

func ValidPostStatus(s string) bool { return contains(PostStatuses, s) }
func ValidVisibility(v string) bool { return contains(Visibilities, v) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Post is the client view of a post. Relations are populated only when the
// caller asked for them.
type Post struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Content      string     `json:"content"`
	ContentHTML  string     `json:"contentHtml"`
	Excerpt      string     `json:"excerpt"`
	Status       string     `json:"status"`
	Visibility   string     `json:"visibility"`
	ViewCount    int64      `json:"viewCount"`
	LikeCount    int64      `json:"likeCount"`
	CommentCount int64      `json:"commentCount"`
	AuthorID     int64      `json:"authorId"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	Author     *User      `json:"author,omitempty"`
	Categories []Category `json:"categories,omitempty"`
	Tags       []Tag      `json:"tags,omitempty"`
	Comments   []Comment  `json:"comments,omitempty"`
	Likes      []Like     `json:"likes,omitempty"`
}

// NewPost converts a storage row.
func NewPost(p store.Post) Post {
	out := Post{
		ID:           p.ID,
		Title:        p.Title,
		Slug:         p.Slug,
		Content:      p.Content,
		ContentHTML:  p.ContentHtml,
		Excerpt:      p.Excerpt,
		Status:       p.Status,
		Visibility:   p.Visibility,
		ViewCount:    p.ViewCount,
		LikeCount:    p.LikeCount,
		CommentCount: p.CommentCount,
		AuthorID:     p.AuthorID,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.PublishedAt.Valid {
		t := p.PublishedAt.Time
		out.PublishedAt = &t
	}
	return out
}

// Page is one page of a listing.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// NewPage computes TotalPages as ceil(total/limit).
func NewPage[T any](items []T, total int64, page, limit int) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}
