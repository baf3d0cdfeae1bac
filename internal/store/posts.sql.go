// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const postColumns = `id, author_id, title, slug, content, content_html, excerpt, status, visibility, view_count, like_count, comment_count, published_at, created_at, updated_at`

func scanPost(row rowScanner) (Post, error) {
	var i Post
	err := row.Scan(
		&i.ID,
		&i.AuthorID,
		&i.Title,
		&i.Slug,
		&i.Content,
		&i.ContentHtml,
		&i.Excerpt,
		&i.Status,
		&i.Visibility,
		&i.ViewCount,
		&i.LikeCount,
		&i.CommentCount,
		&i.PublishedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createPost = `-- name: CreatePost :one
INSERT INTO posts (author_id, title, slug, content, content_html, excerpt, status, visibility, published_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + postColumns

type CreatePostParams struct {
	AuthorID    int64
	Title       string
	Slug        string
	Content     string
	ContentHtml string
	Excerpt     string
	Status      string
	Visibility  string
	PublishedAt sql.NullTime
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, createPost,
		arg.AuthorID,
		arg.Title,
		arg.Slug,
		arg.Content,
		arg.ContentHtml,
		arg.Excerpt,
		arg.Status,
		arg.Visibility,
		arg.PublishedAt,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanPost(row)
}

const getPostByID = `-- name: GetPostByID :one
SELECT ` + postColumns + ` FROM posts WHERE id = ?`

func (q *Queries) GetPostByID(ctx context.Context, id int64) (Post, error) {
	return scanPost(q.db.QueryRowContext(ctx, getPostByID, id))
}

const updatePost = `-- name: UpdatePost :one
UPDATE posts
SET title = ?, slug = ?, content = ?, content_html = ?, excerpt = ?, status = ?, visibility = ?, published_at = ?, updated_at = ?
WHERE id = ?
RETURNING ` + postColumns

type UpdatePostParams struct {
	Title       string
	Slug        string
	Content     string
	ContentHtml string
	Excerpt     string
	Status      string
	Visibility  string
	PublishedAt sql.NullTime
	UpdatedAt   time.Time
	ID          int64
}

func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, updatePost,
		arg.Title,
		arg.Slug,
		arg.Content,
		arg.ContentHtml,
		arg.Excerpt,
		arg.Status,
		arg.Visibility,
		arg.PublishedAt,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanPost(row)
}

const setPostStatus = `-- name: SetPostStatus :execrows
UPDATE posts SET status = ?, updated_at = ? WHERE id = ?`

func (q *Queries) SetPostStatus(ctx context.Context, status string, updatedAt time.Time, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, setPostStatus, status, updatedAt, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const incrementPostViewCount = `-- name: IncrementPostViewCount :exec
UPDATE posts SET view_count = view_count + 1 WHERE id = ?`

func (q *Queries) IncrementPostViewCount(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, incrementPostViewCount, id)
	return err
}

const adjustPostLikeCount = `-- name: AdjustPostLikeCount :exec
UPDATE posts SET like_count = like_count + ? WHERE id = ?`

func (q *Queries) AdjustPostLikeCount(ctx context.Context, delta, id int64) error {
	_, err := q.db.ExecContext(ctx, adjustPostLikeCount, delta, id)
	return err
}

const adjustPostCommentCount = `-- name: AdjustPostCommentCount :exec
UPDATE posts SET comment_count = comment_count + ? WHERE id = ?`

func (q *Queries) AdjustPostCommentCount(ctx context.Context, delta, id int64) error {
	_, err := q.db.ExecContext(ctx, adjustPostCommentCount, delta, id)
	return err
}

// PostFilter narrows ListPosts/CountPosts. Zero values mean "no constraint".
type PostFilter struct {
	Search     string
	Statuses   []string
	Visibility []string
	AuthorID   int64
	CategoryID int64
	TagID      int64
	// ViewerID, when ViewerSeesAll is false, limits non-public posts to their author.
	ViewerID      int64
	ViewerSeesAll bool
}

// PostOrder is a whitelisted column plus direction.
type PostOrder struct {
	Column string
	Desc   bool
}

var postSortColumns = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"published_at":  true,
	"title":         true,
	"view_count":    true,
	"like_count":    true,
	"comment_count": true,
}

func (f PostFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)

	if f.Search != "" {
		conds = append(conds, "p.title LIKE '%' || ? || '%' ESCAPE '\\'")
		args = append(args, EscapeLike(f.Search))
	}
	if len(f.Statuses) > 0 {
		conds = append(conds, "p.status IN ("+placeholders(len(f.Statuses))+")")
		for _, s := range f.Statuses {
			args = append(args, s)
		}
	}
	if len(f.Visibility) > 0 {
		conds = append(conds, "p.visibility IN ("+placeholders(len(f.Visibility))+")")
		for _, v := range f.Visibility {
			args = append(args, v)
		}
	}
	if f.AuthorID > 0 {
		conds = append(conds, "p.author_id = ?")
		args = append(args, f.AuthorID)
	}
	if f.CategoryID > 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM post_categories pc WHERE pc.post_id = p.id AND pc.category_id = ?)")
		args = append(args, f.CategoryID)
	}
	if f.TagID > 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM post_tags pt WHERE pt.post_id = p.id AND pt.tag_id = ?)")
		args = append(args, f.TagID)
	}
	if !f.ViewerSeesAll {
		conds = append(conds, "(p.visibility = 'public' OR p.author_id = ?)")
		args = append(args, f.ViewerID)
		conds = append(conds, "(p.status <> 'deleted' OR p.author_id = ?)")
		args = append(args, f.ViewerID)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards so s matches literally under ESCAPE '\'.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ListPosts returns one page of posts matching filter.
func (q *Queries) ListPosts(ctx context.Context, filter PostFilter, order PostOrder, limit, offset int64) ([]Post, error) {
	if !postSortColumns[order.Column] {
		return nil, fmt.Errorf("unsupported sort column %q", order.Column)
	}
	dir := "ASC"
	if order.Desc {
		dir = "DESC"
	}

	where, args := filter.where()
	query := `SELECT ` + prefixColumns("p", postColumns) + ` FROM posts p` + where +
		` ORDER BY p.` + order.Column + ` ` + dir + `, p.id ` + dir + ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Post
	for rows.Next() {
		i, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// CountPosts counts posts matching filter.
func (q *Queries) CountPosts(ctx context.Context, filter PostFilter) (int64, error) {
	where, args := filter.where()
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts p`+where, args...).Scan(&count)
	return count, err
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for n, c := range parts {
		parts[n] = alias + "." + c
	}
	return strings.Join(parts, ", ")
}

const addPostCategory = `-- name: AddPostCategory :exec
INSERT INTO post_categories (post_id, category_id) VALUES (?, ?)`

func (q *Queries) AddPostCategory(ctx context.Context, postID, categoryID int64) error {
	_, err := q.db.ExecContext(ctx, addPostCategory, postID, categoryID)
	return err
}

const removePostCategory = `-- name: RemovePostCategory :exec
DELETE FROM post_categories WHERE post_id = ? AND category_id = ?`

func (q *Queries) RemovePostCategory(ctx context.Context, postID, categoryID int64) error {
	_, err := q.db.ExecContext(ctx, removePostCategory, postID, categoryID)
	return err
}

const listCategoryIDsForPost = `-- name: ListCategoryIDsForPost :many
SELECT category_id FROM post_categories WHERE post_id = ? ORDER BY category_id`

func (q *Queries) ListCategoryIDsForPost(ctx context.Context, postID int64) ([]int64, error) {
	return q.listIDs(ctx, listCategoryIDsForPost, postID)
}

const addPostTag = `-- name: AddPostTag :exec
INSERT INTO post_tags (post_id, tag_id) VALUES (?, ?)`

func (q *Queries) AddPostTag(ctx context.Context, postID, tagID int64) error {
	_, err := q.db.ExecContext(ctx, addPostTag, postID, tagID)
	return err
}

const removePostTag = `-- name: RemovePostTag :exec
DELETE FROM post_tags WHERE post_id = ? AND tag_id = ?`

func (q *Queries) RemovePostTag(ctx context.Context, postID, tagID int64) error {
	_, err := q.db.ExecContext(ctx, removePostTag, postID, tagID)
	return err
}

const listTagIDsForPost = `-- name: ListTagIDsForPost :many
SELECT tag_id FROM post_tags WHERE post_id = ? ORDER BY tag_id`

func (q *Queries) ListTagIDsForPost(ctx context.Context, postID int64) ([]int64, error) {
	return q.listIDs(ctx, listTagIDsForPost, postID)
}

func (q *Queries) listIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PostCategoryRow pairs a category with the post it is attached to.
type PostCategoryRow struct {
	PostID   int64
	Category Category
}

// ListCategoriesForPosts loads the categories of several posts in one query.
func (q *Queries) ListCategoriesForPosts(ctx context.Context, postIDs []int64) ([]PostCategoryRow, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	in, args := inClause(postIDs)
	rows, err := q.db.QueryContext(ctx,
		`SELECT pc.post_id, `+prefixColumns("c", categoryColumns)+`
		FROM post_categories pc JOIN categories c ON c.id = pc.category_id
		WHERE pc.post_id IN `+in+` ORDER BY c.name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []PostCategoryRow
	for rows.Next() {
		var i PostCategoryRow
		c := &i.Category
		if err := rows.Scan(&i.PostID,
			&c.ID, &c.Name, &c.Slug, &c.Description, &c.ParentID, &c.PostCount, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// PostTagRow pairs a tag with the post it is attached to.
type PostTagRow struct {
	PostID int64
	Tag    Tag
}

// ListTagsForPosts loads the tags of several posts in one query.
func (q *Queries) ListTagsForPosts(ctx context.Context, postIDs []int64) ([]PostTagRow, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	in, args := inClause(postIDs)
	rows, err := q.db.QueryContext(ctx,
		`SELECT pt.post_id, `+prefixColumns("t", tagColumns)+`
		FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id IN `+in+` ORDER BY t.name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []PostTagRow
	for rows.Next() {
		var i PostTagRow
		t := &i.Tag
		if err := rows.Scan(&i.PostID,
			&t.ID, &t.Name, &t.Slug, &t.PostCount, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
