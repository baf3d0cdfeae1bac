// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const fileColumns = `id, original_name, stored_name, mime_type, size, path, thumbnail_path, width, height, owner_id, created_at`

func scanFile(row rowScanner) (File, error) {
	var i File
	err := row.Scan(
		&i.ID,
		&i.OriginalName,
		&i.StoredName,
		&i.MimeType,
		&i.Size,
		&i.Path,
		&i.ThumbnailPath,
		&i.Width,
		&i.Height,
		&i.OwnerID,
		&i.CreatedAt,
	)
	return i, err
}

const createFile = `-- name: CreateFile :one
INSERT INTO files (original_name, stored_name, mime_type, size, path, thumbnail_path, width, height, owner_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + fileColumns

type CreateFileParams struct {
	OriginalName  string
	StoredName    string
	MimeType      string
	Size          int64
	Path          string
	ThumbnailPath string
	Width         sql.NullInt64
	Height        sql.NullInt64
	OwnerID       sql.NullInt64
	CreatedAt     time.Time
}

func (q *Queries) CreateFile(ctx context.Context, arg CreateFileParams) (File, error) {
	row := q.db.QueryRowContext(ctx, createFile,
		arg.OriginalName,
		arg.StoredName,
		arg.MimeType,
		arg.Size,
		arg.Path,
		arg.ThumbnailPath,
		arg.Width,
		arg.Height,
		arg.OwnerID,
		arg.CreatedAt,
	)
	return scanFile(row)
}

const getFileByID = `-- name: GetFileByID :one
SELECT ` + fileColumns + ` FROM files WHERE id = ?`

func (q *Queries) GetFileByID(ctx context.Context, id int64) (File, error) {
	return scanFile(q.db.QueryRowContext(ctx, getFileByID, id))
}

const listFilesByOwner = `-- name: ListFilesByOwner :many
SELECT ` + fileColumns + ` FROM files WHERE owner_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`

func (q *Queries) ListFilesByOwner(ctx context.Context, ownerID, limit, offset int64) ([]File, error) {
	rows, err := q.db.QueryContext(ctx, listFilesByOwner, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []File
	for rows.Next() {
		i, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countFilesByOwner = `-- name: CountFilesByOwner :one
SELECT COUNT(*) FROM files WHERE owner_id = ?`

func (q *Queries) CountFilesByOwner(ctx context.Context, ownerID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countFilesByOwner, ownerID).Scan(&count)
	return count, err
}

const deleteFile = `-- name: DeleteFile :execrows
DELETE FROM files WHERE id = ?`

func (q *Queries) DeleteFile(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteFile, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
