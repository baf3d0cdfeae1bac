// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const categoryColumns = `id, name, slug, description, parent_id, post_count, created_at, updated_at`

func scanCategory(row rowScanner) (Category, error) {
	var i Category
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Slug,
		&i.Description,
		&i.ParentID,
		&i.PostCount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createCategory = `-- name: CreateCategory :one
INSERT INTO categories (name, slug, description, parent_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + categoryColumns

type CreateCategoryParams struct {
	Name        string
	Slug        string
	Description string
	ParentID    sql.NullInt64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, createCategory,
		arg.Name,
		arg.Slug,
		arg.Description,
		arg.ParentID,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanCategory(row)
}

const getCategoryByID = `-- name: GetCategoryByID :one
SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`

func (q *Queries) GetCategoryByID(ctx context.Context, id int64) (Category, error) {
	return scanCategory(q.db.QueryRowContext(ctx, getCategoryByID, id))
}

const categorySlugExists = `-- name: CategorySlugExists :one
SELECT COUNT(*) FROM categories WHERE slug = ? AND id <> ?`

// CategorySlugExists counts other categories using slug; pass 0 as excludeID on create.
func (q *Queries) CategorySlugExists(ctx context.Context, slug string, excludeID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, categorySlugExists, slug, excludeID).Scan(&count)
	return count, err
}

const listCategories = `-- name: ListCategories :many
SELECT ` + categoryColumns + ` FROM categories ORDER BY name, id`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Category
	for rows.Next() {
		i, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateCategory = `-- name: UpdateCategory :one
UPDATE categories SET name = ?, slug = ?, description = ?, parent_id = ?, updated_at = ?
WHERE id = ?
RETURNING ` + categoryColumns

type UpdateCategoryParams struct {
	Name        string
	Slug        string
	Description string
	ParentID    sql.NullInt64
	UpdatedAt   time.Time
	ID          int64
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, updateCategory,
		arg.Name,
		arg.Slug,
		arg.Description,
		arg.ParentID,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanCategory(row)
}

const deleteCategory = `-- name: DeleteCategory :execrows
DELETE FROM categories WHERE id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCategory, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const adjustCategoryPostCount = `-- name: AdjustCategoryPostCount :exec
UPDATE categories SET post_count = post_count + ? WHERE id = ?`

func (q *Queries) AdjustCategoryPostCount(ctx context.Context, delta, id int64) error {
	_, err := q.db.ExecContext(ctx, adjustCategoryPostCount, delta, id)
	return err
}

const tagColumns = `id, name, slug, post_count, created_at, updated_at`

func scanTag(row rowScanner) (Tag, error) {
	var i Tag
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Slug,
		&i.PostCount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createTag = `-- name: CreateTag :one
INSERT INTO tags (name, slug, created_at, updated_at) VALUES (?, ?, ?, ?)
RETURNING ` + tagColumns

type CreateTagParams struct {
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Queries) CreateTag(ctx context.Context, arg CreateTagParams) (Tag, error) {
	row := q.db.QueryRowContext(ctx, createTag, arg.Name, arg.Slug, arg.CreatedAt, arg.UpdatedAt)
	return scanTag(row)
}

const getTagByID = `-- name: GetTagByID :one
SELECT ` + tagColumns + ` FROM tags WHERE id = ?`

func (q *Queries) GetTagByID(ctx context.Context, id int64) (Tag, error) {
	return scanTag(q.db.QueryRowContext(ctx, getTagByID, id))
}

const getTagBySlug = `-- name: GetTagBySlug :one
SELECT ` + tagColumns + ` FROM tags WHERE slug = ?`

func (q *Queries) GetTagBySlug(ctx context.Context, slug string) (Tag, error) {
	return scanTag(q.db.QueryRowContext(ctx, getTagBySlug, slug))
}

const tagSlugExists = `-- name: TagSlugExists :one
SELECT COUNT(*) FROM tags WHERE slug = ? AND id <> ?`

func (q *Queries) TagSlugExists(ctx context.Context, slug string, excludeID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, tagSlugExists, slug, excludeID).Scan(&count)
	return count, err
}

const listTags = `-- name: ListTags :many
SELECT ` + tagColumns + ` FROM tags ORDER BY name, id`

func (q *Queries) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := q.db.QueryContext(ctx, listTags)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Tag
	for rows.Next() {
		i, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateTag = `-- name: UpdateTag :one
UPDATE tags SET name = ?, slug = ?, updated_at = ? WHERE id = ?
RETURNING ` + tagColumns

type UpdateTagParams struct {
	Name      string
	Slug      string
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) UpdateTag(ctx context.Context, arg UpdateTagParams) (Tag, error) {
	return scanTag(q.db.QueryRowContext(ctx, updateTag, arg.Name, arg.Slug, arg.UpdatedAt, arg.ID))
}

const deleteTag = `-- name: DeleteTag :execrows
DELETE FROM tags WHERE id = ?`

func (q *Queries) DeleteTag(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTag, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const adjustTagPostCount = `-- name: AdjustTagPostCount :exec
UPDATE tags SET post_count = post_count + ? WHERE id = ?`

func (q *Queries) AdjustTagPostCount(ctx context.Context, delta, id int64) error {
	_, err := q.db.ExecContext(ctx, adjustTagPostCount, delta, id)
	return err
}
