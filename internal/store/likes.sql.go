// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const likeColumns = `id, user_id, post_id, comment_id, created_at`

func scanLike(row rowScanner) (Like, error) {
	var i Like
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.PostID,
		&i.CommentID,
		&i.CreatedAt,
	)
	return i, err
}

const createLike = `-- name: CreateLike :one
INSERT INTO likes (user_id, post_id, comment_id, created_at)
VALUES (?, ?, ?, ?)
RETURNING ` + likeColumns

type CreateLikeParams struct {
	UserID    int64
	PostID    sql.NullInt64
	CommentID sql.NullInt64
	CreatedAt time.Time
}

func (q *Queries) CreateLike(ctx context.Context, arg CreateLikeParams) (Like, error) {
	row := q.db.QueryRowContext(ctx, createLike, arg.UserID, arg.PostID, arg.CommentID, arg.CreatedAt)
	return scanLike(row)
}

const deletePostLike = `-- name: DeletePostLike :execrows
DELETE FROM likes WHERE user_id = ? AND post_id = ?`

func (q *Queries) DeletePostLike(ctx context.Context, userID, postID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deletePostLike, userID, postID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteCommentLike = `-- name: DeleteCommentLike :execrows
DELETE FROM likes WHERE user_id = ? AND comment_id = ?`

func (q *Queries) DeleteCommentLike(ctx context.Context, userID, commentID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCommentLike, userID, commentID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const hasLikedPost = `-- name: HasLikedPost :one
SELECT COUNT(*) FROM likes WHERE user_id = ? AND post_id = ?`

func (q *Queries) HasLikedPost(ctx context.Context, userID, postID int64) (bool, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, hasLikedPost, userID, postID).Scan(&count)
	return count > 0, err
}

const hasLikedComment = `-- name: HasLikedComment :one
SELECT COUNT(*) FROM likes WHERE user_id = ? AND comment_id = ?`

func (q *Queries) HasLikedComment(ctx context.Context, userID, commentID int64) (bool, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, hasLikedComment, userID, commentID).Scan(&count)
	return count > 0, err
}

const countPostLikes = `-- name: CountPostLikes :one
SELECT COUNT(*) FROM likes WHERE post_id = ?`

func (q *Queries) CountPostLikes(ctx context.Context, postID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPostLikes, postID).Scan(&count)
	return count, err
}

const countCommentLikes = `-- name: CountCommentLikes :one
SELECT COUNT(*) FROM likes WHERE comment_id = ?`

func (q *Queries) CountCommentLikes(ctx context.Context, commentID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countCommentLikes, commentID).Scan(&count)
	return count, err
}

// ListLikesForPosts batches the likes of several posts.
func (q *Queries) ListLikesForPosts(ctx context.Context, postIDs []int64) ([]Like, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	in, args := inClause(postIDs)
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+likeColumns+` FROM likes WHERE post_id IN `+in+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Like
	for rows.Next() {
		i, err := scanLike(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
