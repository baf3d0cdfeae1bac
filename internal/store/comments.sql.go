// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const commentColumns = `id, post_id, user_id, parent_id, content, status, like_count, created_at, updated_at`

func scanComment(row rowScanner) (Comment, error) {
	var i Comment
	err := row.Scan(
		&i.ID,
		&i.PostID,
		&i.UserID,
		&i.ParentID,
		&i.Content,
		&i.Status,
		&i.LikeCount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanComments(rows *sql.Rows) ([]Comment, error) {
	defer rows.Close()

	var items []Comment
	for rows.Next() {
		i, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createComment = `-- name: CreateComment :one
INSERT INTO comments (post_id, user_id, parent_id, content, status, created_at, updated_at)
VALUES (?, ?, ?, ?, 'active', ?, ?)
RETURNING ` + commentColumns

type CreateCommentParams struct {
	PostID    int64
	UserID    int64
	ParentID  sql.NullInt64
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (Comment, error) {
	row := q.db.QueryRowContext(ctx, createComment,
		arg.PostID,
		arg.UserID,
		arg.ParentID,
		arg.Content,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanComment(row)
}

const getCommentByID = `-- name: GetCommentByID :one
SELECT ` + commentColumns + ` FROM comments WHERE id = ?`

func (q *Queries) GetCommentByID(ctx context.Context, id int64) (Comment, error) {
	return scanComment(q.db.QueryRowContext(ctx, getCommentByID, id))
}

const listCommentsForPost = `-- name: ListCommentsForPost :many
SELECT ` + commentColumns + ` FROM comments
WHERE post_id = ? AND (? = 1 OR status <> 'deleted')
ORDER BY created_at, id`

// ListCommentsForPost returns the flat comment list of a post in creation order.
func (q *Queries) ListCommentsForPost(ctx context.Context, postID int64, includeDeleted bool) ([]Comment, error) {
	rows, err := q.db.QueryContext(ctx, listCommentsForPost, postID, includeDeleted)
	if err != nil {
		return nil, err
	}
	return scanComments(rows)
}

// ListCommentsForPosts batches the non-deleted comments of several posts.
func (q *Queries) ListCommentsForPosts(ctx context.Context, postIDs []int64) ([]Comment, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	in, args := inClause(postIDs)
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM comments
		WHERE post_id IN `+in+` AND status <> 'deleted' ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, err
	}
	return scanComments(rows)
}

const updateCommentContent = `-- name: UpdateCommentContent :one
UPDATE comments SET content = ?, updated_at = ? WHERE id = ?
RETURNING ` + commentColumns

func (q *Queries) UpdateCommentContent(ctx context.Context, content string, updatedAt time.Time, id int64) (Comment, error) {
	return scanComment(q.db.QueryRowContext(ctx, updateCommentContent, content, updatedAt, id))
}

const setCommentStatus = `-- name: SetCommentStatus :one
UPDATE comments SET status = ?, updated_at = ? WHERE id = ?
RETURNING ` + commentColumns

func (q *Queries) SetCommentStatus(ctx context.Context, status string, updatedAt time.Time, id int64) (Comment, error) {
	return scanComment(q.db.QueryRowContext(ctx, setCommentStatus, status, updatedAt, id))
}

const adjustCommentLikeCount = `-- name: AdjustCommentLikeCount :exec
UPDATE comments SET like_count = like_count + ? WHERE id = ?`

func (q *Queries) AdjustCommentLikeCount(ctx context.Context, delta, id int64) error {
	_, err := q.db.ExecContext(ctx, adjustCommentLikeCount, delta, id)
	return err
}

const countLiveCommentsForPost = `-- name: CountLiveCommentsForPost :one
SELECT COUNT(*) FROM comments WHERE post_id = ? AND status <> 'deleted'`

// CountLiveCommentsForPost is used by consistency checks, never to maintain comment_count.
func (q *Queries) CountLiveCommentsForPost(ctx context.Context, postID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countLiveCommentsForPost, postID).Scan(&count)
	return count, err
}
