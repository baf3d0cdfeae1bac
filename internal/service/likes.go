// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/model"
	"github.com/olegiv/community-portal/internal/store"
)

// LikeService records likes on posts and comments and keeps their
// like_count columns in step.
type LikeService struct {
	db            *sql.DB
	queries       *store.Queries
	notifications *NotificationService
	logger        *slog.Logger
}

// NewLikeService creates a LikeService. notifications may be nil.
func NewLikeService(db *sql.DB, notifications *NotificationService, logger *slog.Logger) *LikeService {
	return &LikeService{
		db:            db,
		queries:       store.New(db),
		notifications: notifications,
		logger:        logger,
	}
}

// likeTarget is the resolved owner and counter of a like target.
type likeTarget struct {
	ownerID int64
	count   int64
	title   string
}

// resolveLikeTarget loads a target viewer may see. Deleted, private or
// flagged targets outside viewer's reach are reported as missing, as is a
// comment whose post viewer may not see.
func resolveLikeTarget(ctx context.Context, q *store.Queries, viewer *model.User, t model.LikeTarget) (likeTarget, error) {
	switch t.Kind {
	case model.LikePost:
		p, err := q.GetPostByID(ctx, t.ID)
		if err != nil {
			return likeTarget{}, notFound(err, apperr.ErrPostNotFound)
		}
		if !canView(viewer, p) {
			return likeTarget{}, apperr.ErrPostNotFound
		}
		return likeTarget{ownerID: p.AuthorID, count: p.LikeCount, title: p.Title}, nil
	default:
		c, err := q.GetCommentByID(ctx, t.ID)
		if err != nil {
			return likeTarget{}, notFound(err, apperr.ErrCommentNotFound)
		}
		if c.Status == model.CommentStatusDeleted || !canSeeComment(viewer, c) {
			return likeTarget{}, apperr.ErrCommentNotFound
		}
		p, err := q.GetPostByID(ctx, c.PostID)
		if err != nil {
			return likeTarget{}, notFound(err, apperr.ErrCommentNotFound)
		}
		if !canView(viewer, p) {
			return likeTarget{}, apperr.ErrCommentNotFound
		}
		return likeTarget{ownerID: c.UserID, count: c.LikeCount, title: "your comment"}, nil
	}
}

func adjustLikeCount(ctx context.Context, q *store.Queries, t model.LikeTarget, delta int64) error {
	var err error
	if t.Kind == model.LikePost {
		err = q.AdjustPostLikeCount(ctx, delta, t.ID)
	} else {
		err = q.AdjustCommentLikeCount(ctx, delta, t.ID)
	}
	if err != nil {
		return fmt.Errorf("adjusting like count: %w", err)
	}
	return nil
}

func badTarget(err error) error {
	return apperr.Validation(map[string]string{"target": err.Error()})
}

// Like records that userID likes target. Liking twice is a Conflict.
func (s *LikeService) Like(ctx context.Context, actor model.User, target model.LikeTarget) (model.LikeSummary, error) {
	if err := target.Validate(); err != nil {
		return model.LikeSummary{}, badTarget(err)
	}

	var resolved likeTarget
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		resolved, err = resolveLikeTarget(ctx, q, &actor, target)
		if err != nil {
			return err
		}
		postID, commentID := target.Columns()
		if _, err := q.CreateLike(ctx, store.CreateLikeParams{
			UserID:    actor.ID,
			PostID:    postID,
			CommentID: commentID,
			CreatedAt: now(),
		}); err != nil {
			if store.IsUniqueViolation(err) {
				return apperr.ErrAlreadyLiked
			}
			return fmt.Errorf("creating like: %w", err)
		}
		return adjustLikeCount(ctx, q, target, 1)
	})
	if err != nil {
		return model.LikeSummary{}, err
	}

	if resolved.ownerID != actor.ID {
		s.notifications.Notify(ctx, NotificationInput{
			UserID:   resolved.ownerID,
			Type:     model.NotificationLike,
			Title:    "New like",
			Message:  fmt.Sprintf("%s liked %s", actor.Name, likeSubject(target, resolved)),
			Metadata: map[string]any{"kind": string(target.Kind), "id": target.ID},
		})
	}
	return model.LikeSummary{Target: target, Count: resolved.count + 1, Liked: true}, nil
}

func likeSubject(t model.LikeTarget, r likeTarget) string {
	if t.Kind == model.LikePost {
		return fmt.Sprintf("%q", r.title)
	}
	return r.title
}

// Unlike removes actor's like from target.
func (s *LikeService) Unlike(ctx context.Context, actor model.User, target model.LikeTarget) (model.LikeSummary, error) {
	if err := target.Validate(); err != nil {
		return model.LikeSummary{}, badTarget(err)
	}

	var resolved likeTarget
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		resolved, err = resolveLikeTarget(ctx, q, &actor, target)
		if err != nil {
			return err
		}
		var n int64
		if target.Kind == model.LikePost {
			n, err = q.DeletePostLike(ctx, actor.ID, target.ID)
		} else {
			n, err = q.DeleteCommentLike(ctx, actor.ID, target.ID)
		}
		if err != nil {
			return fmt.Errorf("deleting like: %w", err)
		}
		if n == 0 {
			return apperr.ErrLikeNotFound
		}
		return adjustLikeCount(ctx, q, target, -1)
	})
	if err != nil {
		return model.LikeSummary{}, err
	}
	return model.LikeSummary{Target: target, Count: resolved.count - 1, Liked: false}, nil
}

// Count returns the number of likes on a target viewer may see. viewer may
// be nil.
func (s *LikeService) Count(ctx context.Context, viewer *model.User, target model.LikeTarget) (int64, error) {
	if err := target.Validate(); err != nil {
		return 0, badTarget(err)
	}
	r, err := resolveLikeTarget(ctx, s.queries, viewer, target)
	if err != nil {
		return 0, err
	}
	return r.count, nil
}

// HasLiked reports whether userID likes target.
func (s *LikeService) HasLiked(ctx context.Context, userID int64, target model.LikeTarget) (bool, error) {
	if err := target.Validate(); err != nil {
		return false, badTarget(err)
	}
	var (
		liked bool
		err   error
	)
	if target.Kind == model.LikePost {
		liked, err = s.queries.HasLikedPost(ctx, userID, target.ID)
	} else {
		liked, err = s.queries.HasLikedComment(ctx, userID, target.ID)
	}
	if err != nil {
		return false, fmt.Errorf("checking like: %w", err)
	}
	return liked, nil
}

// Summary returns the count and whether viewer likes target. viewer may be
// nil.
func (s *LikeService) Summary(ctx context.Context, viewer *model.User, target model.LikeTarget) (model.LikeSummary, error) {
	count, err := s.Count(ctx, viewer, target)
	if err != nil {
		return model.LikeSummary{}, err
	}
	out := model.LikeSummary{Target: target, Count: count}
	if viewer != nil {
		if out.Liked, err = s.HasLiked(ctx, viewer.ID, target); err != nil {
			return model.LikeSummary{}, err
		}
	}
	return out, nil
}
