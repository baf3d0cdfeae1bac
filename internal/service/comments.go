// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/content"
	"github.com/olegiv/community-portal/internal/model"
	"github.com/olegiv/community-portal/internal/store"
)

// Comment errors.
var (
	ErrParentMismatch  = apperr.BadRequest("Parent comment belongs to a different post")
	ErrInvalidModState = apperr.BadRequest("Status must be active or flagged")
)

const maxCommentLength = 5000

// CommentInput is the body of a comment create request.
type CommentInput struct {
	Content  string `json:"content"`
	ParentID *int64 `json:"parentId"`
}

func validateCommentContent(text string) error {
	switch {
	case text == "":
		return apperr.Validation(map[string]string{"content": "is required"})
	case len(text) > maxCommentLength:
		return apperr.Validation(map[string]string{"content": "must be at most 5000 characters"})
	}
	return nil
}

// CommentService manages threaded comments on posts. Every status change
// adjusts the post's comment_count in the same transaction.
type CommentService struct {
	db            *sql.DB
	queries       *store.Queries
	notifications *NotificationService
	logger        *slog.Logger
}

// NewCommentService creates a CommentService. notifications may be nil.
func NewCommentService(db *sql.DB, notifications *NotificationService, logger *slog.Logger) *CommentService {
	return &CommentService{
		db:            db,
		queries:       store.New(db),
		notifications: notifications,
		logger:        logger,
	}
}

// canSeeComment hides flagged comments from everyone but their author and
// moderators.
func canSeeComment(viewer *model.User, c store.Comment) bool {
	if c.Status != model.CommentStatusFlagged {
		return true
	}
	return viewer != nil && canModerate(*viewer, c.UserID)
}

// ListForPost returns the live comments of a post as a tree with authors.
// Flagged comments are only shown to their author and moderators.
func (s *CommentService) ListForPost(ctx context.Context, viewer *model.User, postID int64) ([]model.Comment, error) {
	post, err := s.queries.GetPostByID(ctx, postID)
	if err != nil {
		return nil, notFound(err, apperr.ErrPostNotFound)
	}
	if !canView(viewer, post) {
		return nil, apperr.ErrPostNotFound
	}

	all, err := s.queries.ListCommentsForPost(ctx, postID, false)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	rows := all[:0]
	for _, r := range all {
		if canSeeComment(viewer, r) {
			rows = append(rows, r)
		}
	}
	userIDs := make([]int64, 0, len(rows))
	for _, r := range rows {
		userIDs = append(userIDs, r.UserID)
	}
	users, err := s.queries.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("loading comment authors: %w", err)
	}
	byID := make(map[int64]store.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	flat := make([]model.Comment, len(rows))
	for i, r := range rows {
		flat[i] = model.NewComment(r)
		if u, ok := byID[r.UserID]; ok {
			flat[i].Author = model.NewUserPtr(u)
		}
	}
	return model.BuildCommentTree(flat), nil
}

// Create adds a comment by actor to a post that is not deleted. A parent,
// when given, must be a comment on the same post.
func (s *CommentService) Create(ctx context.Context, actor model.User, postID int64, in CommentInput) (model.Comment, error) {
	text := content.SanitizeComment(strings.TrimSpace(in.Content))
	if err := validateCommentContent(text); err != nil {
		return model.Comment{}, err
	}

	var (
		created store.Comment
		post    store.Post
		parent  *store.Comment
	)
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		post, err = q.GetPostByID(ctx, postID)
		if err != nil {
			return notFound(err, apperr.ErrPostNotFound)
		}
		if post.Status == model.PostStatusDeleted || !canView(&actor, post) {
			return apperr.ErrPostNotFound
		}

		var parentID sql.NullInt64
		if in.ParentID != nil {
			p, err := q.GetCommentByID(ctx, *in.ParentID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return apperr.ErrCommentNotFound
				}
				return fmt.Errorf("loading parent comment: %w", err)
			}
			if p.PostID != postID {
				return ErrParentMismatch
			}
			parent = &p
			parentID = nullInt64(p.ID)
		}

		ts := now()
		created, err = q.CreateComment(ctx, store.CreateCommentParams{
			PostID:    postID,
			UserID:    actor.ID,
			ParentID:  parentID,
			Content:   text,
			CreatedAt: ts,
			UpdatedAt: ts,
		})
		if err != nil {
			return fmt.Errorf("creating comment: %w", err)
		}
		if err := q.AdjustPostCommentCount(ctx, 1, postID); err != nil {
			return fmt.Errorf("adjusting comment count: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Comment{}, err
	}

	s.notifyNewComment(ctx, actor, post, parent, created)
	out := model.NewComment(created)
	out.Author = &actor
	return out, nil
}

// notifyNewComment tells the parent's author about a reply and the post's
// author about a comment. Nobody is notified about their own activity, and
// a post author who is also the parent author gets only the reply notice.
func (s *CommentService) notifyNewComment(ctx context.Context, actor model.User, post store.Post, parent *store.Comment, c store.Comment) {
	meta := map[string]any{"postId": post.ID, "commentId": c.ID}
	notified := map[int64]bool{actor.ID: true}

	if parent != nil && !notified[parent.UserID] {
		notified[parent.UserID] = true
		s.notifications.Notify(ctx, NotificationInput{
			UserID:   parent.UserID,
			Type:     model.NotificationReply,
			Title:    "New reply",
			Message:  fmt.Sprintf("%s replied to your comment", actor.Name),
			Metadata: meta,
		})
	}
	if !notified[post.AuthorID] {
		s.notifications.Notify(ctx, NotificationInput{
			UserID:   post.AuthorID,
			Type:     model.NotificationComment,
			Title:    "New comment",
			Message:  fmt.Sprintf("%s commented on %q", actor.Name, post.Title),
			Metadata: meta,
		})
	}
}

// Update replaces the text of actor's own comment.
func (s *CommentService) Update(ctx context.Context, actor model.User, id int64, text string) (model.Comment, error) {
	text = content.SanitizeComment(strings.TrimSpace(text))
	if err := validateCommentContent(text); err != nil {
		return model.Comment{}, err
	}

	cur, err := s.queries.GetCommentByID(ctx, id)
	if err != nil {
		return model.Comment{}, notFound(err, apperr.ErrCommentNotFound)
	}
	if cur.Status == model.CommentStatusDeleted {
		return model.Comment{}, apperr.ErrCommentNotFound
	}
	if cur.UserID != actor.ID {
		return model.Comment{}, apperr.ErrNotOwner
	}
	row, err := s.queries.UpdateCommentContent(ctx, text, now(), id)
	if err != nil {
		return model.Comment{}, fmt.Errorf("updating comment: %w", err)
	}
	return model.NewComment(row), nil
}

// Delete soft-deletes a comment. The owner or a moderator may delete.
func (s *CommentService) Delete(ctx context.Context, actor model.User, id int64) error {
	return store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		cur, err := q.GetCommentByID(ctx, id)
		if err != nil {
			return notFound(err, apperr.ErrCommentNotFound)
		}
		if cur.Status == model.CommentStatusDeleted {
			return apperr.ErrCommentNotFound
		}
		if !canModerate(actor, cur.UserID) {
			return apperr.ErrNotOwner
		}
		if _, err := q.SetCommentStatus(ctx, model.CommentStatusDeleted, now(), id); err != nil {
			return fmt.Errorf("deleting comment: %w", err)
		}
		if err := q.AdjustPostCommentCount(ctx, -1, cur.PostID); err != nil {
			return fmt.Errorf("adjusting comment count: %w", err)
		}
		return nil
	})
}

// SetStatus lets a moderator flag, unflag or restore a comment. Restoring a
// deleted comment counts it again.
func (s *CommentService) SetStatus(ctx context.Context, actor model.User, id int64, status string) (model.Comment, error) {
	if !actor.IsModerator() {
		return model.Comment{}, ErrModeratorRequired
	}
	if status != model.CommentStatusActive && status != model.CommentStatusFlagged {
		return model.Comment{}, ErrInvalidModState
	}

	var updated store.Comment
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		cur, err := q.GetCommentByID(ctx, id)
		if err != nil {
			return notFound(err, apperr.ErrCommentNotFound)
		}
		updated, err = q.SetCommentStatus(ctx, status, now(), id)
		if err != nil {
			return fmt.Errorf("setting comment status: %w", err)
		}
		if cur.Status == model.CommentStatusDeleted {
			if err := q.AdjustPostCommentCount(ctx, 1, cur.PostID); err != nil {
				return fmt.Errorf("adjusting comment count: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return model.Comment{}, err
	}
	s.logger.Info("comment status changed", "comment_id", id, "status", status, "user_id", actor.ID)
	return model.NewComment(updated), nil
}
