// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/olegiv/community-portal/internal/store"
)

// LikeKind names what a like points at.
type LikeKind string

const (
	LikePost    LikeKind = "post"
	LikeComment LikeKind = "comment"
)

// LikeTarget is exactly one of a post or a comment.
type LikeTarget struct {
	Kind LikeKind `json:"kind"`
	ID   int64    `json:"id"`
}

func PostTarget(id int64) LikeTarget    { return LikeTarget{Kind: LikePost, ID: id} }
func CommentTarget(id int64) LikeTarget { return LikeTarget{Kind: LikeComment, ID: id} }

func (t LikeTarget) String() string { return fmt.Sprintf("%s:%d", t.Kind, t.ID) }

// Validate rejects unknown kinds and non-positive ids.
func (t LikeTarget) Validate() error {
	if t.Kind != LikePost && t.Kind != LikeComment {
		return fmt.Errorf("unknown like target kind %q", t.Kind)
	}
	if t.ID <= 0 {
		return errors.New("like target id must be positive")
	}
	return nil
}

// Columns returns the (post_id, comment_id) pair used by storage.
func (t LikeTarget) Columns() (postID, commentID sql.NullInt64) {
	switch t.Kind {
	case LikePost:
		postID = sql.NullInt64{Int64: t.ID, Valid: true}
	case LikeComment:
		commentID = sql.NullInt64{Int64: t.ID, Valid: true}
	}
	return postID, commentID
}

// TargetFromColumns is the inverse of Columns. Rows with both or neither
// column set are rejected.
func TargetFromColumns(postID, commentID sql.NullInt64) (LikeTarget, error) {
	switch {
	case postID.Valid && !commentID.Valid:
		return PostTarget(postID.Int64), nil
	case commentID.Valid && !postID.Valid:
		return CommentTarget(commentID.Int64), nil
	default:
		return LikeTarget{}, errors.New("like row must reference exactly one target")
	}
}

// Like is the client view of a like.
type Like struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Target    LikeTarget `json:"target"`
	CreatedAt time.Time  `json:"createdAt"`
}

// NewLike converts a storage row.
func NewLike(l store.Like) (Like, error) {
	target, err := TargetFromColumns(l.PostID, l.CommentID)
	if err != nil {
		return Like{}, fmt.Errorf("like %d: %w", l.ID, err)
	}
	return Like{ID: l.ID, UserID: l.UserID, Target: target, CreatedAt: l.CreatedAt}, nil
}

// LikeSummary is returned by like/unlike and count endpoints.
type LikeSummary struct {
	Target LikeTarget `json:"target"`
	Count  int64      `json:"count"`
	Liked  bool       `json:"liked"`
}
