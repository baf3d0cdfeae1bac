// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"

	"github.com/olegiv/community-portal/internal/store"
)

// Comment statuses.
const (
	CommentStatusActive  = "active"
	CommentStatusDeleted = "deleted"
	CommentStatusFlagged = "flagged"
)

// Comment is the client view of a comment. Replies is filled when the
// comment is part of a thread built by BuildCommentTree.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"postId"`
	UserID    int64     `json:"userId"`
	ParentID  *int64    `json:"parentId,omitempty"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	LikeCount int64     `json:"likeCount"`
	Author    *User     `json:"author,omitempty"`
	Replies   []Comment `json:"replies,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewComment converts a storage row.
func NewComment(c store.Comment) Comment {
	out := Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		UserID:    c.UserID,
		Content:   c.Content,
		Status:    c.Status,
		LikeCount: c.LikeCount,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.ParentID.Valid {
		id := c.ParentID.Int64
		out.ParentID = &id
	}
	return out
}

// BuildCommentTree arranges a flat, creation-ordered list into threads.
// Comments whose parent is not in the list become roots.
func BuildCommentTree(flat []Comment) []Comment {
	children := make(map[int64][]int, len(flat))
	index := make(map[int64]int, len(flat))
	for n, c := range flat {
		index[c.ID] = n
	}

	var roots []int
	for n, c := range flat {
		if c.ParentID != nil {
			if _, ok := index[*c.ParentID]; ok && *c.ParentID != c.ID {
				children[*c.ParentID] = append(children[*c.ParentID], n)
				continue
			}
		}
		roots = append(roots, n)
	}

	var build func(n int, depth int) Comment
	build = func(n int, depth int) Comment {
		c := flat[n]
		c.Replies = nil
		// parent_id only ever points at an older row, so depth is bounded by len(flat).
		if depth < len(flat) {
			for _, child := range children[c.ID] {
				c.Replies = append(c.Replies, build(child, depth+1))
			}
		}
		return c
	}

	out := make([]Comment, 0, len(roots))
	for _, n := range roots {
		out = append(out, build(n, 0))
	}
	return out
}
